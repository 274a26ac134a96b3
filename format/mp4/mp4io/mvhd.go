package mp4io

import (
	"time"

	"github.com/ugparu/boxmedia/utils/bits/pio"
)

const defaultMovieTimeScale = 600

var identityMatrix = [9]int32{
	0x00010000, 0, 0,
	0, 0x00010000, 0,
	0, 0, 0x40000000,
}

func NewMovieHeader() *MovieHeader {
	now := time.Now().UTC()
	return &MovieHeader{
		CreateTime:      now,
		ModifyTime:      now,
		TimeScale:       defaultMovieTimeScale,
		PreferredRate:   1,
		PreferredVolume: 1,
		Matrix:          identityMatrix,
		NextTrackID:     1,
	}
}

type MovieHeader struct {
	Version         uint8     // 0 or 1; 1 signals 64-bit times and duration
	Flags           uint32    // 3 bytes
	CreateTime      time.Time // seconds since midnight, Jan 1, 1904, in UTC
	ModifyTime      time.Time // seconds since midnight, Jan 1, 1904, in UTC
	TimeScale       uint32    // time units per second
	Duration        uint64    // duration of the movie in time units
	PreferredRate   float64   // 16.16; 1.0 is normal
	PreferredVolume float64   // 8.8; 1.0 is full volume
	Matrix          [9]int32  // transformation matrix for the video
	NextTrackID     uint32
}

func (mvhd *MovieHeader) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	mvhd.Version = r.U8()
	mvhd.Flags = r.U24BE()
	wide := mvhd.Version == 1
	mvhd.CreateTime = readTime(r, wide)
	mvhd.ModifyTime = readTime(r, wide)
	mvhd.TimeScale = r.U32BE()
	if wide {
		mvhd.Duration = r.U64BE()
	} else {
		mvhd.Duration = uint64(r.U32BE())
	}
	if r.Err() != nil {
		return parseErr("Duration", box.PayloadOffset()+r.Pos(), nil)
	}
	mvhd.PreferredRate = readFixed32(r)
	mvhd.PreferredVolume = readFixed16(r)
	r.Skip(10)
	for i := range mvhd.Matrix {
		mvhd.Matrix[i] = r.I32BE()
	}
	r.Skip(24)
	mvhd.NextTrackID = r.U32BE()
	if r.Err() != nil {
		return parseErr("NextTrackID", box.PayloadOffset()+r.Pos(), nil)
	}
	return nil
}

func (mvhd *MovieHeader) Marshal() Serialized {
	version := mvhd.Version
	if mvhd.Duration > 0xFFFFFFFF {
		version = 1
	}
	w := pio.NewWriter(112)
	w.PutU8(version)
	w.PutU24BE(mvhd.Flags)
	wide := version == 1
	putTime(w, mvhd.CreateTime, wide)
	putTime(w, mvhd.ModifyTime, wide)
	w.PutU32BE(mvhd.TimeScale)
	if wide {
		w.PutU64BE(mvhd.Duration)
	} else {
		w.PutU32BE(uint32(mvhd.Duration))
	}
	putFixed32(w, mvhd.PreferredRate)
	putFixed16(w, mvhd.PreferredVolume)
	w.Zero(10)
	for _, entry := range mvhd.Matrix {
		w.PutI32BE(entry)
	}
	w.Zero(24)
	w.PutU32BE(mvhd.NextTrackID)
	return Leaf(MVHD, w.Bytes())
}
