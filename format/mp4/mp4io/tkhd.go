package mp4io

import (
	"time"

	"github.com/ugparu/boxmedia/utils/bits/pio"
)

// Track header flags.
const (
	TrackEnabled   = 0x000001
	TrackInMovie   = 0x000002
	TrackInPreview = 0x000004
)

// NewTrackHeader returns an enabled, in-movie track header with the identity
// matrix.
func NewTrackHeader(id uint32) *TrackHeader {
	now := time.Now().UTC()
	return &TrackHeader{
		Flags:      TrackEnabled | TrackInMovie,
		CreateTime: now,
		ModifyTime: now,
		TrackID:    id,
		Matrix:     identityMatrix,
	}
}

type TrackHeader struct {
	Version        uint8
	Flags          uint32
	CreateTime     time.Time
	ModifyTime     time.Time
	TrackID        uint32
	Duration       uint64
	Layer          int16
	AlternateGroup int16
	Volume         float64 // 8.8
	Matrix         [9]int32
	TrackWidth     float64 // 16.16
	TrackHeight    float64 // 16.16
}

func (tkhd *TrackHeader) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	tkhd.Version = r.U8()
	tkhd.Flags = r.U24BE()
	wide := tkhd.Version == 1
	tkhd.CreateTime = readTime(r, wide)
	tkhd.ModifyTime = readTime(r, wide)
	tkhd.TrackID = r.U32BE()
	r.Skip(4)
	if wide {
		tkhd.Duration = r.U64BE()
	} else {
		tkhd.Duration = uint64(r.U32BE())
	}
	if r.Err() != nil {
		return parseErr("Duration", box.PayloadOffset()+r.Pos(), nil)
	}
	r.Skip(8)
	tkhd.Layer = r.I16BE()
	tkhd.AlternateGroup = r.I16BE()
	tkhd.Volume = readFixed16(r)
	r.Skip(2)
	for i := range tkhd.Matrix {
		tkhd.Matrix[i] = r.I32BE()
	}
	tkhd.TrackWidth = readFixed32(r)
	tkhd.TrackHeight = readFixed32(r)
	if r.Err() != nil {
		return parseErr("TrackHeight", box.PayloadOffset()+r.Pos(), nil)
	}
	return nil
}

func (tkhd *TrackHeader) Marshal() Serialized {
	version := tkhd.Version
	if tkhd.Duration > 0xFFFFFFFF {
		version = 1
	}
	wide := version == 1
	w := pio.NewWriter(96)
	w.PutU8(version)
	w.PutU24BE(tkhd.Flags)
	putTime(w, tkhd.CreateTime, wide)
	putTime(w, tkhd.ModifyTime, wide)
	w.PutU32BE(tkhd.TrackID)
	w.Zero(4)
	if wide {
		w.PutU64BE(tkhd.Duration)
	} else {
		w.PutU32BE(uint32(tkhd.Duration))
	}
	w.Zero(8)
	w.PutI16BE(tkhd.Layer)
	w.PutI16BE(tkhd.AlternateGroup)
	putFixed16(w, tkhd.Volume)
	w.Zero(2)
	for _, entry := range tkhd.Matrix {
		w.PutI32BE(entry)
	}
	putFixed32(w, tkhd.TrackWidth)
	putFixed32(w, tkhd.TrackHeight)
	return Leaf(TKHD, w.Bytes())
}
