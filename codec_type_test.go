package boxmedia

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodecFromFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		codec  CodecType
		audio  bool
	}{
		{"jpeg", MJPEG, false},
		{"mjpa", MJPEG, false},
		{"s263", H263, false},
		{"avc1", H264, false},
		{"samr", AMR, true},
		{"ulaw", PCMMulaw, true},
		{"sowt", PCMLE, true},
		{"raw ", PCMU8, true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			ct := CodecFromFormat(tt.format)
			require.Equal(t, tt.codec, ct)
			require.Equal(t, tt.audio, ct.IsAudio())
			require.Equal(t, !tt.audio, ct.IsVideo())
		})
	}

	require.Equal(t, Unknown, CodecFromFormat("zzzz"))
	require.False(t, Unknown.IsVideo())
	require.Equal(t, "UNKNOWN", Unknown.String())
}

func TestTrackKindString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "VIDEO", VideoTrack.String())
	require.Equal(t, "AUDIO", AudioTrack.String())
	require.Equal(t, "OTHER", OtherTrack.String())
}
