package mp4io

import (
	"github.com/ugparu/boxmedia/utils/bits/pio"
	"github.com/ugparu/boxmedia/utils/logger"
)

const (
	sampleEntryHeaderSize  = 8 // reserved[6] + data reference index
	visualSampleEntrySize  = 70
	audioSampleEntrySize   = 20
	audioSampleEntryV1Size = 16
	audioSampleEntryV2Size = 36
	compressorNameSize     = 32
)

// SampleDesc is the 'stsd' box: the codec descriptions samples refer to by
// their 1-based sample description index.
type SampleDesc struct {
	Version uint8
	Flags   uint32
	Entries []*SampleEntry
}

// SampleEntry is one codec description. Exactly one of Visual/Audio is set
// for video and sound tracks; other handlers keep the raw body in Raw.
// Extensions (avcC, esds, d263, damr, ...) are carried opaque.
type SampleEntry struct {
	Format     Tag
	DataRefIdx uint16
	Visual     *VisualSampleEntry
	Audio      *AudioSampleEntry
	Raw        []byte
	Extensions []*Box
}

type VisualSampleEntry struct {
	Version              int16
	Revision             int16
	Vendor               [4]byte
	TemporalQuality      uint32
	SpatialQuality       uint32
	Width                uint16
	Height               uint16
	HorizontalResolution float64 // 16.16 dpi
	VerticalResolution   float64 // 16.16 dpi
	DataSize             uint32
	FrameCount           uint16
	CompressorName       string
	Depth                int16
	ColorTableID         int16
}

// NewVisualSampleEntry fills the fields encoders leave at their defaults.
func NewVisualSampleEntry(width, height uint16) *VisualSampleEntry {
	return &VisualSampleEntry{
		Width:                width,
		Height:               height,
		HorizontalResolution: 72,
		VerticalResolution:   72,
		FrameCount:           1,
		Depth:                24,
		ColorTableID:         -1,
	}
}

type AudioSampleEntry struct {
	Version       int16
	Revision      int16
	Vendor        [4]byte
	ChannelCount  uint16
	SampleSize    uint16
	CompressionID int16
	PacketSize    uint16
	SampleRate    float64 // 16.16, or the float64 field of a version 2 entry

	// Version 1 QuickTime extension.
	SamplesPerPacket uint32
	BytesPerPacket   uint32
	BytesPerFrame    uint32
	BytesPerSample   uint32
}

func (stsd *SampleDesc) Unmarshal(box *Box, handler [4]byte) error {
	r := pio.NewReader(box.Payload)
	stsd.Version = r.U8()
	stsd.Flags = r.U24BE()
	declared := r.U32BE()
	if r.Err() != nil {
		return parseErr("EntryCount", box.PayloadOffset()+r.Pos(), nil)
	}

	entries := ParseEmbedded(r.Rest(), box.PayloadOffset()+8)
	if uint32(len(entries)) != declared {
		logger.Debugf(box, "declares %d entries, found %d", declared, len(entries))
	}
	stsd.Entries = stsd.Entries[:0]
	for _, eb := range entries {
		entry := &SampleEntry{}
		if err := entry.unmarshal(eb, handler); err != nil {
			return parseErr("stsd", eb.Offset, err)
		}
		stsd.Entries = append(stsd.Entries, entry)
	}
	return nil
}

func (e *SampleEntry) unmarshal(box *Box, handler [4]byte) error {
	e.Format = box.Type
	r := pio.NewReader(box.Payload)
	r.Skip(6)
	e.DataRefIdx = r.U16BE()
	if r.Err() != nil {
		return parseErr("DataRefIdx", box.PayloadOffset()+r.Pos(), nil)
	}

	switch handler {
	case VideoHandler:
		v := &VisualSampleEntry{}
		v.Version = r.I16BE()
		v.Revision = r.I16BE()
		copy(v.Vendor[:], r.Bytes(4))
		v.TemporalQuality = r.U32BE()
		v.SpatialQuality = r.U32BE()
		v.Width = r.U16BE()
		v.Height = r.U16BE()
		v.HorizontalResolution = readFixed32(r)
		v.VerticalResolution = readFixed32(r)
		v.DataSize = r.U32BE()
		v.FrameCount = r.U16BE()
		v.CompressorName = pascalString(r.Bytes(compressorNameSize))
		v.Depth = r.I16BE()
		v.ColorTableID = r.I16BE()
		if r.Err() != nil {
			return parseErr("VisualSampleEntry", box.PayloadOffset()+r.Pos(), nil)
		}
		e.Visual = v
	case SoundHandler:
		a := &AudioSampleEntry{}
		a.Version = r.I16BE()
		a.Revision = r.I16BE()
		copy(a.Vendor[:], r.Bytes(4))
		a.ChannelCount = r.U16BE()
		a.SampleSize = r.U16BE()
		a.CompressionID = r.I16BE()
		a.PacketSize = r.U16BE()
		a.SampleRate = readFixed32(r)
		switch a.Version {
		case 1:
			a.SamplesPerPacket = r.U32BE()
			a.BytesPerPacket = r.U32BE()
			a.BytesPerFrame = r.U32BE()
			a.BytesPerSample = r.U32BE()
		case 2:
			r.Skip(4)
			a.SampleRate = float64FromBits(r.U64BE())
			a.ChannelCount = uint16(r.U32BE())
			r.Skip(4)
			a.SampleSize = uint16(r.U32BE())
			r.Skip(8)
			a.SamplesPerPacket = r.U32BE()
		}
		if r.Err() != nil {
			return parseErr("AudioSampleEntry", box.PayloadOffset()+r.Pos(), nil)
		}
		e.Audio = a
	default:
		e.Raw = r.Rest()
		return nil
	}
	e.Extensions = ParseEmbedded(r.Rest(), box.PayloadOffset()+r.Pos())
	return nil
}

// Extension returns the first extension box of type t.
func (e *SampleEntry) Extension(t Tag) *Box {
	for _, b := range e.Extensions {
		if b.Type == t {
			return b
		}
	}
	return nil
}

func (e *SampleEntry) Marshal() Serialized {
	w := pio.NewWriter(sampleEntryHeaderSize + visualSampleEntrySize)
	w.Zero(6)
	w.PutU16BE(e.DataRefIdx)
	switch {
	case e.Visual != nil:
		v := e.Visual
		w.PutI16BE(v.Version)
		w.PutI16BE(v.Revision)
		_, _ = w.Write(v.Vendor[:])
		w.PutU32BE(v.TemporalQuality)
		w.PutU32BE(v.SpatialQuality)
		w.PutU16BE(v.Width)
		w.PutU16BE(v.Height)
		putFixed32(w, v.HorizontalResolution)
		putFixed32(w, v.VerticalResolution)
		w.PutU32BE(v.DataSize)
		w.PutU16BE(v.FrameCount)
		_, _ = w.Write(putPascalString(v.CompressorName, compressorNameSize))
		w.PutI16BE(v.Depth)
		w.PutI16BE(v.ColorTableID)
	case e.Audio != nil:
		a := e.Audio
		version := a.Version
		if version == 2 {
			// Only the 16.16 layouts are written back.
			version = 0
		}
		w.PutI16BE(version)
		w.PutI16BE(a.Revision)
		_, _ = w.Write(a.Vendor[:])
		w.PutU16BE(a.ChannelCount)
		w.PutU16BE(a.SampleSize)
		w.PutI16BE(a.CompressionID)
		w.PutU16BE(a.PacketSize)
		putFixed32(w, a.SampleRate)
		if version == 1 {
			w.PutU32BE(a.SamplesPerPacket)
			w.PutU32BE(a.BytesPerPacket)
			w.PutU32BE(a.BytesPerFrame)
			w.PutU32BE(a.BytesPerSample)
		}
	default:
		_, _ = w.Write(e.Raw)
	}
	for _, ext := range e.Extensions {
		_, _ = w.Write(ext.Marshal().Bytes)
	}
	return Leaf(e.Format, w.Bytes())
}

func (stsd *SampleDesc) Marshal() Serialized {
	prefix := pio.NewWriter(8)
	tablePrefix(prefix, stsd.Version, stsd.Flags, len(stsd.Entries))
	entries := make([]Serialized, len(stsd.Entries))
	for i, e := range stsd.Entries {
		entries[i] = e.Marshal()
	}
	return FullContainer(STSD, prefix.Bytes(), entries...)
}

func pascalString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	n := int(b[0])
	if n > len(b)-1 {
		n = len(b) - 1
	}
	return string(b[1 : 1+n])
}

func putPascalString(s string, size int) []byte {
	b := make([]byte, size)
	if len(s) > size-1 {
		s = s[:size-1]
	}
	b[0] = byte(len(s))
	copy(b[1:], s)
	return b
}
