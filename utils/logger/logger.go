// Package logger writes object-tagged log lines through logrus.
// Every line carries the name of the object that produced it in a fixed-width
// column, followed by the message.
package logger

import (
	"fmt"
	"io"
	"reflect"

	"github.com/sirupsen/logrus"
)

type stringer interface {
	String() string
}

const objWidth = 20

func objToString(obj any) (objStr string) {
	switch o := obj.(type) {
	case nil:
		objStr = "NIL"
	case string:
		objStr = o
	case stringer:
		objStr = o.String()
	default:
		t := reflect.TypeOf(obj)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		objStr = t.Name()
	}
	if len(objStr) > objWidth {
		objStr = objStr[:objWidth]
	}
	return
}

func line(object any, message string) string {
	return fmt.Sprintf("|%20s|%s", objToString(object), message)
}

// Init sets the global level and formatter.
func Init(lvl logrus.Level) {
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		PadLevelText:    true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
}

// SetOutput redirects log lines, mostly for tests.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

func enabled(lvl logrus.Level) bool {
	return logrus.IsLevelEnabled(lvl)
}

func Trace(object any, message string) {
	if enabled(logrus.TraceLevel) {
		logrus.Trace(line(object, message))
	}
}

func Tracef(object any, message string, args ...any) {
	if enabled(logrus.TraceLevel) {
		logrus.Trace(line(object, fmt.Sprintf(message, args...)))
	}
}

func Debug(object any, message string) {
	if enabled(logrus.DebugLevel) {
		logrus.Debug(line(object, message))
	}
}

func Debugf(object any, message string, args ...any) {
	if enabled(logrus.DebugLevel) {
		logrus.Debug(line(object, fmt.Sprintf(message, args...)))
	}
}

func Info(object any, message string) {
	if enabled(logrus.InfoLevel) {
		logrus.Info(line(object, message))
	}
}

func Infof(object any, message string, args ...any) {
	if enabled(logrus.InfoLevel) {
		logrus.Info(line(object, fmt.Sprintf(message, args...)))
	}
}

func Warning(object any, message string) {
	if enabled(logrus.WarnLevel) {
		logrus.Warning(line(object, message))
	}
}

func Warningf(object any, message string, args ...any) {
	if enabled(logrus.WarnLevel) {
		logrus.Warning(line(object, fmt.Sprintf(message, args...)))
	}
}

func Error(object any, message string) {
	if enabled(logrus.ErrorLevel) {
		logrus.Error(line(object, message))
	}
}

func Errorf(object any, message string, args ...any) {
	if enabled(logrus.ErrorLevel) {
		logrus.Error(line(object, fmt.Sprintf(message, args...)))
	}
}

func Fatal(object any, message string) {
	logrus.Fatal(line(object, message))
}

func Fatalf(object any, message string, args ...any) {
	logrus.Fatal(line(object, fmt.Sprintf(message, args...)))
}
