package mp4io

import (
	"fmt"
	"strings"
)

// ParseError is a chain of field breadcrumbs ("debug:offset") leading to the
// field that failed to decode.
type ParseError struct {
	Debug  string
	Offset int
	prev   *ParseError
}

func (p *ParseError) Error() string {
	s := []string{}
	for err := p; err != nil; err = err.prev {
		s = append(s, fmt.Sprintf("%s:%d", err.Debug, err.Offset))
	}
	return "mp4io: parse error: " + strings.Join(s, ",")
}

func parseErr(debug string, offset int, prev error) error {
	ppe, _ := prev.(*ParseError) //nolint:errorlint
	return &ParseError{Debug: debug, Offset: offset, prev: ppe}
}
