package mp4

import (
	"errors"
	"fmt"
	"io"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/format/mp4/mp4io"
	"github.com/ugparu/boxmedia/utils"
	"github.com/ugparu/boxmedia/utils/logger"
)

// TrackSpec describes a track to be written.
type TrackSpec struct {
	Kind        boxmedia.TrackKind
	Entry       *mp4io.SampleEntry
	TimeScale   uint32
	SampleDelta uint32 // default duration of a sample in TimeScale ticks
	Width       float64
	Height      float64
	Language    uint16 // packed ISO-639-2; zero means undetermined
	HandlerName string
}

// Muxer collects samples for one or more tracks and writes a complete file
// on WriteTrailer. The whole file is laid out in memory first, since chunk
// offsets inside 'moov' depend on the final size of 'moov'.
type Muxer struct {
	writer         io.Writer
	fileType       *mp4io.FileType
	movieTimeScale uint32
	quickTime      bool
	tracks         []*muxTrack
}

type muxTrack struct {
	id     uint32
	spec   TrackSpec
	sizes  []uint32
	deltas []uint32
	sync   []uint32
	allKey bool
	data   []byte
}

// NewMuxer writes to w with the given file type. A 'qt  ' major brand
// switches handler boxes to the QuickTime layout.
func NewMuxer(w io.Writer, fileType *mp4io.FileType) *Muxer {
	return &Muxer{
		writer:         w,
		fileType:       fileType,
		movieTimeScale: mp4io.NewMovieHeader().TimeScale,
		quickTime:      fileType.MajorBrand == mp4io.StringToTag("qt  "),
	}
}

func (mux *Muxer) String() string {
	return "MP4_MUXER"
}

// SetMovieTimeScale overrides the 'mvhd' timescale.
func (mux *Muxer) SetMovieTimeScale(ts uint32) {
	if ts != 0 {
		mux.movieTimeScale = ts
	}
}

// AddTrack registers a track and returns its id.
func (mux *Muxer) AddTrack(spec TrackSpec) (uint32, error) {
	if spec.Entry == nil {
		return 0, errors.New("mp4: track has no sample entry")
	}
	if spec.TimeScale == 0 {
		return 0, errors.New("mp4: track timescale must be positive")
	}
	if spec.SampleDelta == 0 {
		spec.SampleDelta = 1
	}
	id := uint32(len(mux.tracks) + 1) //nolint:gosec
	mux.tracks = append(mux.tracks, &muxTrack{id: id, spec: spec, allKey: true})
	logger.Debugf(mux, "added %v track %d (%v)", spec.Kind, id, spec.Entry.Format)
	return id, nil
}

// WritePacket appends one sample. A zero Duration uses the track's
// SampleDelta.
func (mux *Muxer) WritePacket(pkt *Packet) error {
	if pkt == nil {
		return utils.NilPacketError{}
	}
	if pkt.TrackID == 0 || int(pkt.TrackID) > len(mux.tracks) {
		return fmt.Errorf("mp4: unknown track %d", pkt.TrackID)
	}
	t := mux.tracks[pkt.TrackID-1]
	delta := t.spec.SampleDelta
	if pkt.Duration > 0 {
		delta = uint32(max(timeToTS(pkt.Duration, t.spec.TimeScale), 1)) //nolint:gosec
	}
	t.sizes = append(t.sizes, uint32(len(pkt.Data))) //nolint:gosec
	t.deltas = append(t.deltas, delta)
	if pkt.IsKey {
		t.sync = append(t.sync, uint32(len(t.sizes))) //nolint:gosec
	} else {
		t.allKey = false
	}
	t.data = append(t.data, pkt.Data...)
	return nil
}

// WriteSample appends one key sample of default duration.
func (mux *Muxer) WriteSample(trackID uint32, data []byte) error {
	return mux.WritePacket(&Packet{TrackID: trackID, Data: data, IsKey: true})
}

// WriteTrailer builds 'moov', relocates chunk offsets and writes the file.
func (mux *Muxer) WriteTrailer() error {
	file, err := mux.Bytes()
	if err != nil {
		return err
	}
	_, err = mux.writer.Write(file)
	return err
}

// Bytes lays out the complete file without writing it.
func (mux *Muxer) Bytes() ([]byte, error) {
	mvhd := mp4io.NewMovieHeader()
	mvhd.TimeScale = mux.movieTimeScale
	mvhd.NextTrackID = uint32(len(mux.tracks) + 1) //nolint:gosec

	traks := make([]mp4io.Serialized, 0, len(mux.tracks))
	data := make([]TrackData, 0, len(mux.tracks))
	for _, t := range mux.tracks {
		tables := BuildTablesWithDurations(t.sizes, t.deltas)
		if !t.allKey {
			tables.SyncSample = &mp4io.SyncSample{Entries: t.sync}
		}
		mediaDuration := tables.Duration()
		movieDuration := mediaDuration * uint64(mvhd.TimeScale) / uint64(t.spec.TimeScale)
		mvhd.Duration = max(mvhd.Duration, movieDuration)

		traks = append(traks, mux.trak(t, tables, mediaDuration, movieDuration))
		data = append(data, TrackData{ID: t.id, Sizes: t.sizes, Data: t.data, SampleToChunk: &tables.SampleToChunk})
	}

	moov := mp4io.Container(mp4io.MOOV, append([]mp4io.Serialized{mvhd.Marshal()}, traks...)...)
	return Mux(mux.fileType.Marshal(), moov, data...)
}

func (mux *Muxer) trak(t *muxTrack, tables *Tables, mediaDuration, movieDuration uint64) mp4io.Serialized {
	tkhd := mp4io.NewTrackHeader(t.id)
	tkhd.Duration = movieDuration
	tkhd.TrackWidth, tkhd.TrackHeight = t.spec.Width, t.spec.Height
	if t.spec.Kind == boxmedia.AudioTrack {
		tkhd.Volume = 1
	}

	mdhd := &mp4io.MediaHeader{
		CreateTime: tkhd.CreateTime,
		ModifyTime: tkhd.ModifyTime,
		TimeScale:  t.spec.TimeScale,
		Duration:   mediaDuration,
		Language:   t.spec.Language,
	}
	if mdhd.Language == 0 {
		mdhd.Language = mp4io.LanguageUndetermined
	}

	var mediaInfo mp4io.Serialized
	hdlr := &mp4io.HandlerRefer{}
	name := "DataHandler"
	switch t.spec.Kind {
	case boxmedia.VideoTrack:
		hdlr.HandlerType = mp4io.VideoHandler
		mediaInfo = (&mp4io.VideoMediaInfo{Flags: 1}).Marshal()
		name = "VideoHandler"
	case boxmedia.AudioTrack:
		hdlr.HandlerType = mp4io.SoundHandler
		mediaInfo = (&mp4io.SoundMediaInfo{}).Marshal()
		name = "SoundHandler"
	default:
		copy(hdlr.HandlerType[:], "text")
		mediaInfo = mp4io.Leaf(mp4io.StringToTag("nmhd"), make([]byte, 4))
	}
	if t.spec.HandlerName != "" {
		name = t.spec.HandlerName
	}
	if len(name) > 255 {
		name = name[:255]
	}
	if mux.quickTime {
		copy(hdlr.PreDefined[:], "mhlr")
		hdlr.Name = append([]byte{byte(len(name))}, name...)
	} else {
		hdlr.Name = append([]byte(name), 0)
	}

	stsd := mp4io.SampleDesc{Entries: []*mp4io.SampleEntry{t.spec.Entry}}
	stbl := mp4io.Container(mp4io.STBL, append([]mp4io.Serialized{stsd.Marshal()}, tables.Marshal(t.id)...)...)
	minf := mp4io.Container(mp4io.MINF, mediaInfo, mp4io.DataInfo(), stbl)
	mdia := mp4io.Container(mp4io.MDIA, mdhd.Marshal(), hdlr.Marshal(), minf)
	return mp4io.Container(mp4io.TRAK, tkhd.Marshal(), mdia)
}
