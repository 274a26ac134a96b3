package pio

import "fmt"

// ShortBufferError is returned by Reader when a read runs past the end of its buffer.
type ShortBufferError struct {
	Offset int
	Need   int
	Have   int
}

func (e ShortBufferError) Error() string {
	return fmt.Sprintf("pio: short buffer at %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

// Reader is a sequential cursor over a byte slice. The first out-of-range
// read sets a sticky error; every later read returns zero values.
type Reader struct {
	b   []byte
	pos int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

func (r *Reader) Pos() int       { return r.pos }
func (r *Reader) Len() int       { return len(r.b) }
func (r *Reader) Remaining() int { return len(r.b) - r.pos }
func (r *Reader) Err() error     { return r.err }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.b) {
		r.err = ShortBufferError{Offset: r.pos, Need: n, Have: len(r.b) - r.pos}
		return nil
	}
	b := r.b[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) Skip(n int) {
	r.take(n)
}

func (r *Reader) U8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) U16BE() uint16 {
	if b := r.take(2); b != nil {
		return U16BE(b)
	}
	return 0
}

func (r *Reader) I16BE() int16 {
	return int16(r.U16BE())
}

func (r *Reader) U24BE() uint32 {
	if b := r.take(3); b != nil {
		return U24BE(b)
	}
	return 0
}

func (r *Reader) U32BE() uint32 {
	if b := r.take(4); b != nil {
		return U32BE(b)
	}
	return 0
}

func (r *Reader) I32BE() int32 {
	return int32(r.U32BE())
}

func (r *Reader) U64BE() uint64 {
	if b := r.take(8); b != nil {
		return U64BE(b)
	}
	return 0
}

func (r *Reader) U16LE() uint16 {
	if b := r.take(2); b != nil {
		return U16LE(b)
	}
	return 0
}

func (r *Reader) U32LE() uint32 {
	if b := r.take(4); b != nil {
		return U32LE(b)
	}
	return 0
}

func (r *Reader) U64LE() uint64 {
	if b := r.take(8); b != nil {
		return U64LE(b)
	}
	return 0
}

// Bytes returns a view into the underlying buffer, not a copy.
func (r *Reader) Bytes(n int) []byte {
	return r.take(n)
}

// Rest returns a view of everything not yet consumed.
func (r *Reader) Rest() []byte {
	return r.take(r.Remaining())
}

// String reads a fixed-length field and trims trailing NUL padding.
func (r *Reader) String(n int) string {
	b := r.take(n)
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}

// Writer appends encoded values to a growing buffer.
type Writer struct {
	b []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{b: make([]byte, 0, capacity)}
}

func (w *Writer) Bytes() []byte { return w.b }
func (w *Writer) Len() int      { return len(w.b) }

func (w *Writer) grow(n int) []byte {
	l := len(w.b)
	w.b = append(w.b, make([]byte, n)...)
	return w.b[l:]
}

func (w *Writer) PutU8(v uint8)     { PutU8(w.grow(1), v) }
func (w *Writer) PutU16BE(v uint16) { PutU16BE(w.grow(2), v) }
func (w *Writer) PutI16BE(v int16)  { PutI16BE(w.grow(2), v) }
func (w *Writer) PutU24BE(v uint32) { PutU24BE(w.grow(3), v) }
func (w *Writer) PutU32BE(v uint32) { PutU32BE(w.grow(4), v) }
func (w *Writer) PutI32BE(v int32)  { PutI32BE(w.grow(4), v) }
func (w *Writer) PutU64BE(v uint64) { PutU64BE(w.grow(8), v) }
func (w *Writer) PutU16LE(v uint16) { PutU16LE(w.grow(2), v) }
func (w *Writer) PutU32LE(v uint32) { PutU32LE(w.grow(4), v) }
func (w *Writer) PutU64LE(v uint64) { PutU64LE(w.grow(8), v) }

func (w *Writer) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

// Zero appends n zero bytes (reserved fields, placeholders).
func (w *Writer) Zero(n int) {
	w.grow(n)
}

// PutString writes s into a fixed n-byte field, truncating or NUL-padding.
func (w *Writer) PutString(s string, n int) {
	copy(w.grow(n), s)
}
