// Package mp4io reads and writes the box tree of ISO base media files
// (MOV, 3GP, MP4) and the typed boxes the sample-table engine needs.
package mp4io

import (
	"math"
	"time"

	"github.com/ugparu/boxmedia/utils/bits/pio"
)

const (
	HeaderSize         = 8
	LargeHeaderSize    = 16
	fullBoxHeaderSize  = 4
	fixed16FracBits    = 16
	fixed8FracBits     = 8
	secondsBefore1970  = 2082844800
	maxFixed16x16Value = math.MaxUint32
)

var epoch1904 = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

type Tag uint32

func (t Tag) String() string {
	var b [4]byte
	pio.PutU32BE(b[:], uint32(t))
	for i := 0; i < 4; i++ {
		if b[i] == 0 {
			b[i] = ' '
		}
	}
	return string(b[:])
}

func StringToTag(tag string) Tag {
	var b [4]byte
	copy(b[:], tag)
	return Tag(pio.U32BE(b[:]))
}

func GetTime32(b []byte) time.Time {
	return epoch1904.Add(time.Second * time.Duration(pio.U32BE(b)))
}

func GetTime64(b []byte) time.Time {
	return epoch1904.Add(time.Second * time.Duration(pio.U64BE(b)))
}

func timeToSeconds(t time.Time) uint64 {
	if t.IsZero() || t.Before(epoch1904) {
		return 0
	}
	return uint64(t.Unix() + secondsBefore1970)
}

// EncodeFixed returns round(v * 2^fracBits).
func EncodeFixed(v float64, fracBits uint) int64 {
	return int64(math.Round(v * float64(int64(1)<<fracBits)))
}

// DecodeFixed returns stored / 2^fracBits.
func DecodeFixed(stored int64, fracBits uint) float64 {
	return float64(stored) / float64(int64(1)<<fracBits)
}

// PutFixed32 writes an unsigned 16.16 value (dimensions, rates, resolutions).
func PutFixed32(b []byte, f float64) {
	v := EncodeFixed(f, fixed16FracBits)
	if v < 0 {
		v = 0
	} else if v > maxFixed16x16Value {
		v = maxFixed16x16Value
	}
	pio.PutU32BE(b, uint32(v))
}

func GetFixed32(b []byte) float64 {
	return DecodeFixed(int64(pio.U32BE(b)), fixed16FracBits)
}

// PutFixed16 writes a signed 8.8 value (volume, balance).
func PutFixed16(b []byte, f float64) {
	v := EncodeFixed(f, fixed8FracBits)
	if v > math.MaxInt16 {
		v = math.MaxInt16
	} else if v < math.MinInt16 {
		v = math.MinInt16
	}
	pio.PutI16BE(b, int16(v))
}

func GetFixed16(b []byte) float64 {
	return DecodeFixed(int64(pio.I16BE(b)), fixed8FracBits)
}

func readTime(r *pio.Reader, wide bool) time.Time {
	if wide {
		if b := r.Bytes(8); b != nil {
			return GetTime64(b)
		}
	} else if b := r.Bytes(4); b != nil {
		return GetTime32(b)
	}
	return epoch1904
}

func putTime(w *pio.Writer, t time.Time, wide bool) {
	if wide {
		w.PutU64BE(timeToSeconds(t))
	} else {
		w.PutU32BE(uint32(timeToSeconds(t)))
	}
}

func readFixed32(r *pio.Reader) float64 {
	return DecodeFixed(int64(r.U32BE()), fixed16FracBits)
}

func readFixed16(r *pio.Reader) float64 {
	return DecodeFixed(int64(r.I16BE()), fixed8FracBits)
}

func putFixed32(w *pio.Writer, f float64) {
	var b [4]byte
	PutFixed32(b[:], f)
	_, _ = w.Write(b[:])
}

func putFixed16(w *pio.Writer, f float64) {
	var b [2]byte
	PutFixed16(b[:], f)
	_, _ = w.Write(b[:])
}

func float64FromBits(v uint64) float64 {
	return math.Float64frombits(v)
}
