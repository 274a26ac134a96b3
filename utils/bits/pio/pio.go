// Package pio holds the byte-order helpers used by every box codec and a
// bounds-checked cursor for sequential reads and writes.
package pio

const RecommendBufioSize = 1 << 16

func U8(b []byte) uint8 {
	return b[0]
}

func PutU8(b []byte, v uint8) {
	b[0] = v
}

func U16BE(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func I16BE(b []byte) int16 {
	return int16(U16BE(b))
}

func PutU16BE(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func PutI16BE(b []byte, v int16) {
	PutU16BE(b, uint16(v))
}

func U24BE(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func PutU24BE(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func U32BE(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func I32BE(b []byte) int32 {
	return int32(U32BE(b))
}

func PutU32BE(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func PutI32BE(b []byte, v int32) {
	PutU32BE(b, uint32(v))
}

func U64BE(b []byte) uint64 {
	return uint64(U32BE(b))<<32 | uint64(U32BE(b[4:]))
}

func I64BE(b []byte) int64 {
	return int64(U64BE(b))
}

func PutU64BE(b []byte, v uint64) {
	PutU32BE(b, uint32(v>>32))
	PutU32BE(b[4:], uint32(v))
}

func PutI64BE(b []byte, v int64) {
	PutU64BE(b, uint64(v))
}

func U16LE(b []byte) uint16 {
	return uint16(b[1])<<8 | uint16(b[0])
}

func PutU16LE(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func U32LE(b []byte) uint32 {
	return uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
}

func PutU32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func U64LE(b []byte) uint64 {
	return uint64(U32LE(b[4:]))<<32 | uint64(U32LE(b))
}

func PutU64LE(b []byte, v uint64) {
	PutU32LE(b, uint32(v))
	PutU32LE(b[4:], uint32(v>>32))
}
