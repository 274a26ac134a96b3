package pcm

import (
	"errors"
	"fmt"

	"github.com/winlinvip/go-aresample/aresample"
	"github.com/zaf/g711"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/utils/bits/pio"
)

// G711SampleRate is the only rate G.711 is defined for.
const G711SampleRate = 8000

// Encoder compresses interleaved signed 16-bit PCM at any rate into mono
// 8 kHz G.711.
type Encoder struct {
	channels  int
	resampler aresample.ResampleSampleRate
	compandF  func([]byte) []byte
	codecPar  *CodecParameters
}

func NewEncoder(ct boxmedia.CodecType, channels, sampleRate int) (*Encoder, error) {
	e := &Encoder{channels: channels}
	switch ct {
	case boxmedia.PCMMulaw:
		e.compandF = g711.EncodeUlaw
	case boxmedia.PCMAlaw:
		e.compandF = g711.EncodeAlaw
	default:
		return nil, fmt.Errorf("pcm: cannot encode %v", ct)
	}
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("pcm: invalid channel count %d", channels)
	}
	var err error
	if e.resampler, err = aresample.NewPcmS16leResampler(1, sampleRate, G711SampleRate); err != nil {
		return nil, fmt.Errorf("pcm: %w", err)
	}
	e.codecPar = NewCodecParameters(ct, 1, G711SampleRate, 8) //nolint:mnd
	return e, nil
}

// CodecParameters describes the encoded stream.
func (e *Encoder) CodecParameters() *CodecParameters {
	return e.codecPar
}

// Encode downmixes, resamples and compands one block of samples. The
// resampler keeps a few samples of history between calls, so the output of
// a call may be slightly shorter or longer than the input duration.
func (e *Encoder) Encode(samples []int16) ([]byte, error) {
	if len(samples)%e.channels != 0 {
		return nil, fmt.Errorf("pcm: %d samples do not divide into %d channels", len(samples), e.channels)
	}
	mono := make([]byte, 2*(len(samples)/e.channels))
	for i := range len(samples) / e.channels {
		var sum int
		for c := range e.channels {
			sum += int(samples[i*e.channels+c])
		}
		pio.PutU16LE(mono[2*i:], uint16(int16(sum/e.channels))) //nolint:gosec
	}
	if len(mono) == 0 {
		return nil, errors.New("pcm: empty block")
	}
	resampled, err := e.resampler.Resample(mono)
	if err != nil {
		return nil, fmt.Errorf("pcm: %w", err)
	}
	return e.compandF(resampled), nil
}
