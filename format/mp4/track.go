// Package mp4 builds the track and file model on top of the mp4io box tree,
// resolves sample locations from the sample tables and lays out complete
// files with chunk offsets relocated into 'mdat'.
package mp4

import (
	"fmt"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/format/mp4/mp4io"
	"github.com/ugparu/boxmedia/utils"
	"github.com/ugparu/boxmedia/utils/logger"
)

// FileModel is the parsed view of a file: its brands, movie header and tracks
// in file order. Boxes keeps the top-level tree for callers that need more.
type FileModel struct {
	FileType    *mp4io.FileType // nil when the file has no 'ftyp'
	MovieHeader mp4io.MovieHeader
	Tracks      []*Track
	Boxes       []*mp4io.Box
	Warnings    []utils.TruncationWarning
}

// Track is one 'trak' with its sample tables decoded.
type Track struct {
	ID          uint32
	Kind        boxmedia.TrackKind
	Handler     [4]byte
	HandlerName string
	TimeScale   uint32
	Duration    uint64 // media timescale ticks
	Width       float64
	Height      float64
	Volume      float64
	Language    string
	HasEditList bool

	SampleDesc        mp4io.SampleDesc
	TimeToSample      mp4io.TimeToSample
	CompositionOffset *mp4io.CompositionOffset // nil when absent
	SampleToChunk     mp4io.SampleToChunk
	SampleSize        mp4io.SampleSize
	ChunkOffset       mp4io.ChunkOffset
	SyncSample        *mp4io.SyncSample // nil when absent: every sample is a sync sample

	// compactSizes is set when sizes come from an 'stz2' table.
	compactSizes bool
}

func (t *Track) String() string {
	return fmt.Sprintf("TRACK id=%d kind=%v", t.ID, t.Kind)
}

// Codec identifies the codec of the first sample description. An 'mp4a'
// entry whose 'esds' names a non-AAC object type is Unknown.
func (t *Track) Codec() boxmedia.CodecType {
	e := t.Entry()
	if e == nil {
		return boxmedia.Unknown
	}
	codec := boxmedia.CodecFromFormat(e.Format.String())
	if codec == boxmedia.AAC {
		if esds, err := e.ElemStreamDesc(); err == nil && esds != nil && !esds.IsAAC() {
			return boxmedia.Unknown
		}
	}
	return codec
}

// Entry returns the first sample description, or nil.
func (t *Track) Entry() *mp4io.SampleEntry {
	if len(t.SampleDesc.Entries) == 0 {
		return nil
	}
	return t.SampleDesc.Entries[0]
}

// FrameRate derives samples per second from the first time-to-sample run;
// fallback is returned when the tables cannot answer.
func (t *Track) FrameRate(fallback float64) float64 {
	if t.TimeScale == 0 || len(t.TimeToSample.Entries) == 0 || t.TimeToSample.Entries[0].Duration == 0 {
		return fallback
	}
	return float64(t.TimeScale) / float64(t.TimeToSample.Entries[0].Duration)
}

// SampleCount is the declared number of samples: the sample-size table is
// authoritative.
func (t *Track) SampleCount() int {
	return t.SampleSize.Len()
}

// Samples resolves every sample of the track to its location in the file.
func (t *Track) Samples() ([]SampleLocation, error) {
	return ResolveSampleLocations(t)
}

// VideoTracks returns the tracks with a 'vide' handler, in file order.
func (m *FileModel) VideoTracks() []*Track {
	return m.tracksOf(boxmedia.VideoTrack)
}

// AudioTracks returns the tracks with a 'soun' handler, in file order.
func (m *FileModel) AudioTracks() []*Track {
	return m.tracksOf(boxmedia.AudioTrack)
}

func (m *FileModel) tracksOf(kind boxmedia.TrackKind) (tracks []*Track) {
	for _, t := range m.Tracks {
		if t.Kind == kind {
			tracks = append(tracks, t)
		}
	}
	return
}

// Track looks a track up by id.
func (m *FileModel) Track(id uint32) *Track {
	for _, t := range m.Tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (m *FileModel) String() string {
	return "FILE_MODEL"
}

// ParseFile parses buf and builds the file model. A file without 'moov', or
// a track without 'stbl', is a StructuralError; everything else is decoded
// best-effort.
func ParseFile(buf []byte) (*FileModel, error) {
	boxes, warnings := mp4io.ParseWithWarnings(buf, 0, len(buf))
	m := &FileModel{Boxes: boxes, Warnings: warnings}

	if ftyp := mp4io.FindFirst(boxes, mp4io.FTYP); ftyp != nil {
		m.FileType = new(mp4io.FileType)
		if err := m.FileType.Unmarshal(ftyp); err != nil {
			logger.Debugf(m, "ignoring malformed ftyp: %v", err)
			m.FileType = nil
		}
	}

	var moov *mp4io.Box
	for _, b := range boxes {
		if b.Type == mp4io.MOOV {
			moov = b
			break
		}
	}
	if moov == nil {
		return nil, utils.StructuralError{Box: "moov", Context: "file"}
	}

	if mvhd := moov.Child(mp4io.MVHD); mvhd != nil {
		if err := m.MovieHeader.Unmarshal(mvhd); err != nil {
			logger.Debugf(m, "ignoring malformed mvhd: %v", err)
		}
	}

	for i, trak := range moov.Children {
		if trak.Type != mp4io.TRAK {
			continue
		}
		t, err := parseTrack(trak, m.MovieHeader.TimeScale)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		m.Tracks = append(m.Tracks, t)
	}
	logger.Debugf(m, "parsed %d boxes, %d tracks", len(boxes), len(m.Tracks))
	return m, nil
}

func parseTrack(trak *mp4io.Box, movieTimeScale uint32) (*Track, error) {
	t := &Track{TimeScale: movieTimeScale, Language: "und"}

	if b := trak.Child(mp4io.TKHD); b != nil {
		var tkhd mp4io.TrackHeader
		if err := tkhd.Unmarshal(b); err != nil {
			logger.Debugf(t, "ignoring malformed tkhd: %v", err)
		} else {
			t.ID = tkhd.TrackID
			t.Width, t.Height = tkhd.TrackWidth, tkhd.TrackHeight
			t.Volume = tkhd.Volume
		}
	}
	t.HasEditList = mp4io.FindPath(trak.Children, mp4io.EDTS, mp4io.ELST) != nil

	mdia := trak.Child(mp4io.MDIA)
	if mdia == nil {
		return nil, utils.StructuralError{Box: "mdia", Context: "trak"}
	}
	if b := mdia.Child(mp4io.MDHD); b != nil {
		var mdhd mp4io.MediaHeader
		if err := mdhd.Unmarshal(b); err != nil {
			logger.Debugf(t, "ignoring malformed mdhd: %v", err)
		} else {
			if mdhd.TimeScale != 0 {
				t.TimeScale = mdhd.TimeScale
			}
			t.Duration = mdhd.Duration
			t.Language = mdhd.LanguageCode()
		}
	}
	if b := mdia.Child(mp4io.HDLR); b != nil {
		var hdlr mp4io.HandlerRefer
		if err := hdlr.Unmarshal(b); err != nil {
			logger.Debugf(t, "ignoring malformed hdlr: %v", err)
		} else {
			t.Handler = hdlr.HandlerType
			t.HandlerName = hdlr.NameString()
		}
	}
	switch t.Handler {
	case mp4io.VideoHandler:
		t.Kind = boxmedia.VideoTrack
	case mp4io.SoundHandler:
		t.Kind = boxmedia.AudioTrack
	}

	stbl := mp4io.FindPath(mdia.Children, mp4io.MINF, mp4io.STBL)
	if stbl == nil {
		return nil, utils.StructuralError{Box: "stbl", Context: fmt.Sprintf("track %d", t.ID)}
	}
	t.decodeTables(stbl)
	return t, nil
}

// decodeTables fills the sample tables from 'stbl'. A missing or malformed
// table leaves the corresponding field empty.
func (t *Track) decodeTables(stbl *mp4io.Box) {
	for _, b := range stbl.Children {
		var err error
		switch b.Type {
		case mp4io.STSD:
			err = t.SampleDesc.Unmarshal(b, t.Handler)
		case mp4io.STTS:
			err = t.TimeToSample.Unmarshal(b)
		case mp4io.CTTS:
			t.CompositionOffset = new(mp4io.CompositionOffset)
			err = t.CompositionOffset.Unmarshal(b)
		case mp4io.STSC:
			err = t.SampleToChunk.Unmarshal(b)
		case mp4io.STSZ:
			err = t.SampleSize.Unmarshal(b)
		case mp4io.STZ2:
			t.compactSizes = true
		case mp4io.STCO, mp4io.CO64:
			err = t.ChunkOffset.Unmarshal(b)
		case mp4io.STSS:
			t.SyncSample = new(mp4io.SyncSample)
			err = t.SyncSample.Unmarshal(b)
		}
		if err != nil {
			logger.Debugf(t, "ignoring malformed %v: %v", b.Type, err)
		}
	}
}
