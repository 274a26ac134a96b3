// Package codec holds what the payload codec packages share: parameters
// that tie a codec to the track and sample entry it was read from or will
// be written as.
package codec

import (
	"fmt"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/format/mp4/mp4io"
)

// Base is embedded by every codec's parameters.
type Base struct {
	Track   uint32 // 0 until the track is added to a file
	Codec   boxmedia.CodecType
	Fourcc  mp4io.Tag
	BitRate uint // bits per second, 0 when unknown
}

func NewBase(ct boxmedia.CodecType, fourcc string) Base {
	return Base{Codec: ct, Fourcc: mp4io.StringToTag(fourcc)}
}

// FromEntry checks that entry decodes as one of the accepted codecs and
// returns the matching Base.
func FromEntry(trackID uint32, entry *mp4io.SampleEntry, accept ...boxmedia.CodecType) (Base, error) {
	if entry == nil {
		return Base{}, fmt.Errorf("codec: track %d has no sample entry", trackID)
	}
	ct := boxmedia.CodecFromFormat(entry.Format.String())
	for _, a := range accept {
		if ct == a {
			return Base{Track: trackID, Codec: ct, Fourcc: entry.Format}, nil
		}
	}
	return Base{}, fmt.Errorf("codec: track %d: unexpected sample entry %q", trackID, entry.Format)
}

func (b *Base) TrackID() uint32 {
	if b == nil {
		return 0
	}
	return b.Track
}

func (b *Base) SetTrackID(id uint32) {
	b.Track = id
}

func (b *Base) Type() boxmedia.CodecType {
	if b == nil {
		return boxmedia.Unknown
	}
	return b.Codec
}

func (b *Base) Format() string {
	if b == nil {
		return ""
	}
	return b.Fourcc.String()
}

func (b *Base) String() string {
	if b == nil {
		return "NO_CODEC"
	}
	return fmt.Sprintf("CODEC %v track=%d entry=%q", b.Codec, b.Track, b.Fourcc)
}
