// Package pcm decodes the uncompressed and G.711 audio sample formats found
// in QuickTime and 3GP files, and encodes PCM into G.711.
package pcm

import (
	"fmt"

	"github.com/zaf/g711"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/utils/bits/pio"
)

// Decoder turns audio samples into signed 16-bit PCM.
type Decoder struct {
	decodeF func([]byte) []int16
}

var _ boxmedia.AudioDecoder = (*Decoder)(nil)

// NewDecoder picks the decoding for ct. bitsPerSample only matters for big
// endian PCM ('twos'), which is stored as 8 or 16 bit.
func NewDecoder(ct boxmedia.CodecType, bitsPerSample uint16) (*Decoder, error) {
	switch ct {
	case boxmedia.PCMMulaw:
		return &Decoder{decodeF: lawDecoder(g711.DecodeUlaw)}, nil
	case boxmedia.PCMAlaw:
		return &Decoder{decodeF: lawDecoder(g711.DecodeAlaw)}, nil
	case boxmedia.PCMLE:
		return &Decoder{decodeF: decodeS16LE}, nil
	case boxmedia.PCMU8:
		return &Decoder{decodeF: decodeU8}, nil
	case boxmedia.PCM:
		if bitsPerSample == 8 { //nolint:mnd
			return &Decoder{decodeF: decodeS8}, nil
		}
		return &Decoder{decodeF: decodeS16BE}, nil
	}
	return nil, fmt.Errorf("pcm: codec %v is not supported", ct)
}

// NewDecoderFor builds the decoder matching a track's parameters.
func NewDecoderFor(par *CodecParameters) (*Decoder, error) {
	return NewDecoder(par.Type(), par.BitsPerSample())
}

func (d *Decoder) Decode(sample []byte) ([]int16, error) {
	return d.decodeF(sample), nil
}

// lawDecoder wraps a G.711 expander, which yields little-endian bytes.
func lawDecoder(expand func([]byte) []byte) func([]byte) []int16 {
	return func(in []byte) []int16 {
		return decodeS16LE(expand(in))
	}
}

func decodeS16LE(in []byte) []int16 {
	out := make([]int16, len(in)/2)
	for i := range out {
		out[i] = int16(pio.U16LE(in[2*i:]))
	}
	return out
}

func decodeS16BE(in []byte) []int16 {
	out := make([]int16, len(in)/2)
	for i := range out {
		out[i] = pio.I16BE(in[2*i:])
	}
	return out
}

func decodeS8(in []byte) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		out[i] = int16(int8(v)) << 8
	}
	return out
}

func decodeU8(in []byte) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		out[i] = (int16(v) - 128) << 8
	}
	return out
}
