package pcm

import (
	"fmt"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/codec"
	"github.com/ugparu/boxmedia/format/mp4/mp4io"
)

type CodecParameters struct {
	codec.Base
	chCount       uint8
	sampleRate    uint64
	bitsPerSample uint16
}

var _ boxmedia.AudioCodecParameters = (*CodecParameters)(nil)

// fourccs are the sample entries each codec is written as.
var fourccs = map[boxmedia.CodecType]string{
	boxmedia.PCMMulaw: "ulaw",
	boxmedia.PCMAlaw:  "alaw",
	boxmedia.PCM:      "twos",
	boxmedia.PCMLE:    "sowt",
	boxmedia.PCMU8:    "raw ",
}

func NewCodecParameters(ct boxmedia.CodecType, channelCount uint8, sr uint64, bitsPerSample uint16) *CodecParameters {
	par := &CodecParameters{
		Base:          codec.NewBase(ct, fourccs[ct]),
		sampleRate:    sr,
		chCount:       channelCount,
		bitsPerSample: bitsPerSample,
	}
	par.BitRate = uint(sr) * uint(bitsPerSample) * uint(channelCount)
	return par
}

// ParametersFromEntry reads the parameters of a stored track from its
// sound sample entry. G.711 is always 8 bits per stored sample, whatever
// the entry declares.
func ParametersFromEntry(trackID uint32, entry *mp4io.SampleEntry) (*CodecParameters, error) {
	base, err := codec.FromEntry(trackID, entry,
		boxmedia.PCMMulaw, boxmedia.PCMAlaw, boxmedia.PCM, boxmedia.PCMLE, boxmedia.PCMU8)
	if err != nil {
		return nil, err
	}
	if entry.Audio == nil {
		return nil, fmt.Errorf("pcm: track %d: entry %q has no sound description", trackID, entry.Format)
	}
	bits := entry.Audio.SampleSize
	switch base.Codec {
	case boxmedia.PCMMulaw, boxmedia.PCMAlaw, boxmedia.PCMU8:
		bits = 8
	}
	par := NewCodecParameters(base.Codec, uint8(min(entry.Audio.ChannelCount, 255)), //nolint:gosec
		uint64(entry.Audio.SampleRate), bits)
	par.Base = base
	par.BitRate = uint(par.sampleRate) * uint(bits) * uint(par.chCount)
	return par, nil
}

// SampleEntry builds the sound sample entry the track is written with.
func (p *CodecParameters) SampleEntry() *mp4io.SampleEntry {
	return &mp4io.SampleEntry{
		Format:     p.Fourcc,
		DataRefIdx: 1,
		Audio: &mp4io.AudioSampleEntry{
			ChannelCount: uint16(p.chCount),
			SampleSize:   16, //nolint:mnd
			SampleRate:   float64(p.sampleRate),
		},
	}
}

func (p *CodecParameters) SampleRate() uint64 {
	return p.sampleRate
}

func (p *CodecParameters) Channels() uint8 {
	return p.chCount
}

// BitsPerSample is the stored sample width: 8 for G.711, 8 or 16 for raw PCM.
func (p *CodecParameters) BitsPerSample() uint16 {
	return p.bitsPerSample
}

func (p *CodecParameters) Tag() string {
	return fmt.Sprintf("pcm.%s.%dhz.%dch", p.Format(), p.sampleRate, p.chCount)
}
