package mp4io

import (
	"time"

	"github.com/ugparu/boxmedia/utils/bits/pio"
)

// LanguageUndetermined is "und" packed as ISO-639-2/T.
const LanguageUndetermined = 0x55c4

type MediaHeader struct {
	Version    uint8
	Flags      uint32
	CreateTime time.Time
	ModifyTime time.Time
	TimeScale  uint32
	Duration   uint64
	Language   uint16
	Quality    uint16
}

// LanguageCode unpacks the three 5-bit letters of Language.
func (mdhd *MediaHeader) LanguageCode() string {
	l := mdhd.Language
	if l < 0x400 {
		// Macintosh language code rather than a packed ISO code.
		return ""
	}
	return string([]byte{
		byte(l>>10&0x1f) + 0x60,
		byte(l>>5&0x1f) + 0x60,
		byte(l&0x1f) + 0x60,
	})
}

func (mdhd *MediaHeader) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	mdhd.Version = r.U8()
	mdhd.Flags = r.U24BE()
	wide := mdhd.Version == 1
	mdhd.CreateTime = readTime(r, wide)
	mdhd.ModifyTime = readTime(r, wide)
	mdhd.TimeScale = r.U32BE()
	if wide {
		mdhd.Duration = r.U64BE()
	} else {
		mdhd.Duration = uint64(r.U32BE())
	}
	mdhd.Language = r.U16BE()
	mdhd.Quality = r.U16BE()
	if r.Err() != nil {
		return parseErr("Language", box.PayloadOffset()+r.Pos(), nil)
	}
	return nil
}

func (mdhd *MediaHeader) Marshal() Serialized {
	version := mdhd.Version
	if mdhd.Duration > 0xFFFFFFFF {
		version = 1
	}
	wide := version == 1
	w := pio.NewWriter(36)
	w.PutU8(version)
	w.PutU24BE(mdhd.Flags)
	putTime(w, mdhd.CreateTime, wide)
	putTime(w, mdhd.ModifyTime, wide)
	w.PutU32BE(mdhd.TimeScale)
	if wide {
		w.PutU64BE(mdhd.Duration)
	} else {
		w.PutU32BE(uint32(mdhd.Duration))
	}
	w.PutU16BE(mdhd.Language)
	w.PutU16BE(mdhd.Quality)
	return Leaf(MDHD, w.Bytes())
}
