package mp4io

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ugparu/boxmedia/utils"
	"github.com/ugparu/boxmedia/utils/bits/pio"
	"github.com/ugparu/boxmedia/utils/logger"
)

// Box is one node of a parsed box tree. Leaf boxes keep Payload as a view
// into the source buffer; container boxes keep Children instead.
type Box struct {
	Type      Tag
	Size      uint64
	HeaderLen int
	Offset    int
	Payload   []byte
	Children  []*Box

	// childSkip is the number of payload bytes before the first child:
	// 4 for an ISO full-box 'meta', 0 otherwise.
	childSkip int
	container bool
}

func (b *Box) IsContainer() bool {
	return b.container
}

// End is the absolute offset one past the last byte of the box.
func (b *Box) End() int {
	return b.Offset + int(b.Size)
}

// PayloadOffset is the absolute offset of the first byte after the header.
func (b *Box) PayloadOffset() int {
	return b.Offset + b.HeaderLen
}

func (b *Box) String() string {
	return fmt.Sprintf("%s offset=%d size=%d", b.Type, b.Offset, b.Size)
}

// Child returns the first direct child of type t.
func (b *Box) Child(t Tag) *Box {
	for _, c := range b.Children {
		if c.Type == t {
			return c
		}
	}
	return nil
}

// Parse decomposes buf[start:end] into boxes, recursing into container types.
// Malformed data ends parsing of the current range; the boxes found before it
// are returned.
func Parse(buf []byte, start, end int) []*Box {
	boxes, _ := ParseWithWarnings(buf, start, end)
	return boxes
}

// ParseWithWarnings is Parse that also returns every truncation it recovered from.
func ParseWithWarnings(buf []byte, start, end int) ([]*Box, []utils.TruncationWarning) {
	p := &parser{buf: buf}
	if end > len(buf) {
		p.warn(utils.TruncationWarning{Box: "range", Offset: start, Need: end - start, Have: len(buf) - start})
		end = len(buf)
	}
	if start < 0 || start > end {
		return nil, p.warnings
	}
	return p.parse(start, end), p.warnings
}

// ParseEmbedded parses all of b as a box sequence whose first byte sits at
// absolute offset base in the source (sample-entry extensions and the like).
func ParseEmbedded(b []byte, base int) []*Box {
	p := &parser{buf: b, base: base}
	return p.parse(0, len(b))
}

type parser struct {
	buf      []byte
	base     int
	warnings []utils.TruncationWarning
}

func (p *parser) warn(w utils.TruncationWarning) {
	logger.Debugf(p, "%v, stopping", w)
	p.warnings = append(p.warnings, w)
}

func (p *parser) String() string {
	return "BOX_PARSER"
}

func (p *parser) parse(start, end int) (boxes []*Box) {
	offset := start
	for offset+HeaderSize <= end {
		size := uint64(pio.U32BE(p.buf[offset:]))
		tag := Tag(pio.U32BE(p.buf[offset+4:]))
		headerLen := HeaderSize

		switch size {
		case 0:
			size = uint64(end - offset)
		case 1:
			if offset+LargeHeaderSize > end {
				p.warn(utils.TruncationWarning{Box: tag.String(), Offset: p.base + offset, Need: LargeHeaderSize, Have: end - offset})
				return
			}
			size = pio.U64BE(p.buf[offset+HeaderSize:])
			headerLen = LargeHeaderSize
		}

		if size < uint64(headerLen) || size > uint64(end-offset) {
			p.warn(utils.TruncationWarning{Box: tag.String(), Offset: p.base + offset, Need: claimed(size), Have: end - offset})
			return
		}

		box := &Box{
			Type:      tag,
			Size:      size,
			HeaderLen: headerLen,
			Offset:    p.base + offset,
		}
		boxEnd := offset + int(size)
		payloadStart := offset + headerLen

		if IsContainer(tag) {
			box.container = true
			if tag == META && isFullBoxMeta(p.buf[payloadStart:boxEnd]) {
				box.childSkip = fullBoxHeaderSize
			}
			box.Children = p.parse(payloadStart+box.childSkip, boxEnd)
		} else {
			box.Payload = p.buf[payloadStart:boxEnd:boxEnd]
		}

		boxes = append(boxes, box)
		offset = boxEnd
	}
	return
}

func claimed(size uint64) int {
	if size > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(size)
}

// isFullBoxMeta tells an ISO 'meta' (version/flags first) from a QuickTime
// 'meta' (children first). A child box never starts with a zero size word
// unless it is the last box, so four zero bytes mean version 0, flags 0.
func isFullBoxMeta(payload []byte) bool {
	return len(payload) >= fullBoxHeaderSize+HeaderSize && pio.U32BE(payload) == 0
}

// FindFirst returns the first box of type t in depth-first pre-order.
func FindFirst(boxes []*Box, t Tag) *Box {
	var found *Box
	Walk(boxes, func(b *Box, _ int) bool {
		if b.Type == t {
			found = b
			return false
		}
		return true
	})
	return found
}

// FindAll returns every box of type t in depth-first pre-order.
func FindAll(boxes []*Box, t Tag) (found []*Box) {
	Walk(boxes, func(b *Box, _ int) bool {
		if b.Type == t {
			found = append(found, b)
		}
		return true
	})
	return
}

// FindPath follows direct children by type, starting in boxes.
func FindPath(boxes []*Box, path ...Tag) *Box {
	if len(path) == 0 {
		return nil
	}
	var cur *Box
	for _, b := range boxes {
		if b.Type == path[0] {
			cur = b
			break
		}
	}
	for _, t := range path[1:] {
		if cur == nil {
			return nil
		}
		cur = cur.Child(t)
	}
	return cur
}

// Walk visits boxes depth-first in source order. Returning false from fn
// stops the walk.
func Walk(boxes []*Box, fn func(b *Box, depth int) bool) {
	walk(boxes, 0, fn)
}

func walk(boxes []*Box, depth int, fn func(*Box, int) bool) bool {
	for _, b := range boxes {
		if !fn(b, depth) {
			return false
		}
		if !walk(b.Children, depth+1, fn) {
			return false
		}
	}
	return true
}

// Marshal re-serializes the box with a 32-bit header. Unmodified boxes
// come out byte-identical to their source unless the source used a 64-bit
// size or a zero (to-end) size.
func (b *Box) Marshal() Serialized {
	if !b.container {
		return Leaf(b.Type, b.Payload)
	}
	children := make([]Serialized, len(b.Children))
	for i, c := range b.Children {
		children[i] = c.Marshal()
	}
	if b.childSkip > 0 {
		return FullContainer(b.Type, make([]byte, b.childSkip), children...)
	}
	return Container(b.Type, children...)
}

func Fprint(out io.Writer, boxes []*Box) {
	Walk(boxes, func(b *Box, depth int) bool {
		fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), b)
		return true
	})
}
