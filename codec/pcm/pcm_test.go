package pcm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/format/mp4/mp4io"
)

func TestDecodeRawFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		codec boxmedia.CodecType
		bits  uint16
		in    []byte
		want  []int16
	}{
		{"twos 16", boxmedia.PCM, 16, []byte{0x01, 0x02, 0xff, 0xfe}, []int16{0x0102, -2}},
		{"twos 8", boxmedia.PCM, 8, []byte{0x01, 0xff}, []int16{0x0100, -256}},
		{"sowt", boxmedia.PCMLE, 16, []byte{0x02, 0x01, 0xfe, 0xff}, []int16{0x0102, -2}},
		{"raw", boxmedia.PCMU8, 8, []byte{128, 0, 255}, []int16{0, -32768, 127 << 8}},
		{"odd byte dropped", boxmedia.PCMLE, 16, []byte{1, 0, 9}, []int16{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, err := NewDecoder(tt.codec, tt.bits)
			require.NoError(t, err)
			got, err := d.Decode(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeG711(t *testing.T) {
	t.Parallel()

	for _, ct := range []boxmedia.CodecType{boxmedia.PCMMulaw, boxmedia.PCMAlaw} {
		d, err := NewDecoderFor(NewCodecParameters(ct, 1, 8000, 8))
		require.NoError(t, err)
		out, err := d.Decode([]byte{0x00, 0x55, 0x80, 0xff})
		require.NoError(t, err)
		require.Len(t, out, 4)
	}

	_, err := NewDecoder(boxmedia.AAC, 16)
	require.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	enc, err := NewEncoder(boxmedia.PCMAlaw, 1, G711SampleRate)
	require.NoError(t, err)
	require.Equal(t, boxmedia.PCMAlaw, enc.CodecParameters().Type())
	require.Equal(t, uint64(G711SampleRate), enc.CodecParameters().SampleRate())

	in := make([]int16, 160)
	for i := range in {
		in[i] = int16((i%20 - 10) * 1000)
	}
	encoded, err := enc.Encode(in)
	require.NoError(t, err)
	require.Len(t, encoded, len(in))

	dec, err := NewDecoder(boxmedia.PCMAlaw, 8)
	require.NoError(t, err)
	out, err := dec.Decode(encoded)
	require.NoError(t, err)
	for i := range in {
		require.InDelta(t, float64(in[i]), float64(out[i]), 600, "sample %d", i)
	}
}

func TestEncodeResamplesAndDownmixes(t *testing.T) {
	t.Parallel()

	enc, err := NewEncoder(boxmedia.PCMMulaw, 2, 16000)
	require.NoError(t, err)

	// 100 ms of stereo at 16 kHz becomes 100 ms of mono at 8 kHz.
	encoded, err := enc.Encode(make([]int16, 2*1600))
	require.NoError(t, err)
	require.Len(t, encoded, 800)

	_, err = enc.Encode(make([]int16, 3))
	require.Error(t, err)
	_, err = NewEncoder(boxmedia.PCM, 1, 8000)
	require.Error(t, err)
	_, err = NewEncoder(boxmedia.PCMAlaw, 3, 8000)
	require.Error(t, err)
}

func TestParametersFromEntry(t *testing.T) {
	t.Parallel()

	alaw := NewCodecParameters(boxmedia.PCMAlaw, 1, 8000, 8)
	entry := alaw.SampleEntry()
	require.Equal(t, "alaw", entry.Format.String())

	par, err := ParametersFromEntry(2, entry)
	require.NoError(t, err)
	require.Equal(t, uint32(2), par.TrackID())
	require.Equal(t, boxmedia.PCMAlaw, par.Type())
	require.Equal(t, uint16(8), par.BitsPerSample())
	require.Equal(t, uint64(8000), par.SampleRate())
	require.Equal(t, "pcm.alaw.8000hz.1ch", par.Tag())

	twos := NewCodecParameters(boxmedia.PCM, 2, 44100, 16).SampleEntry()
	par, err = ParametersFromEntry(1, twos)
	require.NoError(t, err)
	require.Equal(t, uint16(16), par.BitsPerSample())
	require.Equal(t, uint8(2), par.Channels())
	require.Equal(t, uint(44100*16*2), par.BitRate)

	_, err = ParametersFromEntry(1, &mp4io.SampleEntry{Format: mp4io.StringToTag("mp4a")})
	require.Error(t, err)
	_, err = ParametersFromEntry(1, &mp4io.SampleEntry{Format: mp4io.StringToTag("ulaw")})
	require.Error(t, err)
}
