package mp4

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	mp4ff "github.com/Eyevinn/mp4ff/mp4"
	"github.com/stretchr/testify/require"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/format/mp4/mp4io"
	"github.com/ugparu/boxmedia/utils"
)

func videoSpec() TrackSpec {
	return TrackSpec{
		Kind:        boxmedia.VideoTrack,
		Entry:       &mp4io.SampleEntry{Format: mp4io.StringToTag("jpeg"), DataRefIdx: 1, Visual: mp4io.NewVisualSampleEntry(176, 144)},
		TimeScale:   600,
		SampleDelta: SampleDelta(600, 15),
		Width:       176,
		Height:      144,
	}
}

func audioSpec() TrackSpec {
	return TrackSpec{
		Kind: boxmedia.AudioTrack,
		Entry: &mp4io.SampleEntry{
			Format:     mp4io.StringToTag("ulaw"),
			DataRefIdx: 1,
			Audio:      &mp4io.AudioSampleEntry{ChannelCount: 1, SampleSize: 16, SampleRate: 8000},
		},
		TimeScale:   8000,
		SampleDelta: 1600,
	}
}

func samplePayloads(n, size int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = bytes.Repeat([]byte{byte(i + 1)}, size)
	}
	return out
}

// muxFile writes the given samples on a video track and an optional audio
// track and returns the finished file.
func muxFile(t *testing.T, ftyp *mp4io.FileType, video, audio [][]byte) []byte {
	t.Helper()

	var out bytes.Buffer
	mux := NewMuxer(&out, ftyp)
	vid, err := mux.AddTrack(videoSpec())
	require.NoError(t, err)
	for _, s := range video {
		require.NoError(t, mux.WriteSample(vid, s))
	}
	if audio != nil {
		aid, err := mux.AddTrack(audioSpec())
		require.NoError(t, err)
		for _, s := range audio {
			require.NoError(t, mux.WriteSample(aid, s))
		}
	}
	require.NoError(t, mux.WriteTrailer())
	return out.Bytes()
}

func TestMuxerRoundTrip(t *testing.T) {
	t.Parallel()

	video := samplePayloads(3, 8)
	file := muxFile(t, mp4io.NewFileType("isom", "isom"), video, nil)

	model, err := ParseFile(file)
	require.NoError(t, err)
	require.NotNil(t, model.FileType)
	require.Equal(t, "isom", model.FileType.MajorBrand.String())
	require.Equal(t, uint32(600), model.MovieHeader.TimeScale)
	require.Equal(t, uint64(120), model.MovieHeader.Duration)
	require.Len(t, model.Tracks, 1)

	track := model.Tracks[0]
	require.Equal(t, uint32(1), track.ID)
	require.Equal(t, boxmedia.VideoTrack, track.Kind)
	require.Equal(t, boxmedia.MJPEG, track.Codec())
	require.Equal(t, "VideoHandler", track.HandlerName)
	require.Equal(t, "und", track.Language)
	require.InDelta(t, 176.0, track.Width, 1e-9)
	require.InDelta(t, 144.0, track.Height, 1e-9)
	require.InDelta(t, 15.0, track.FrameRate(1), 1e-9)
	require.Equal(t, uint64(120), track.Duration)
	require.False(t, track.HasEditList)
	require.Nil(t, track.SyncSample)

	locs, err := track.Samples()
	require.NoError(t, err)
	require.Len(t, locs, 3)

	mdat := mp4io.FindFirst(model.Boxes, mp4io.MDAT)
	require.NotNil(t, mdat)
	base := uint64(mdat.PayloadOffset())
	for i, loc := range locs {
		require.Equal(t, base+uint64(i*8), loc.Offset)
		require.Equal(t, uint32(8), loc.Size)
		require.Equal(t, video[i], file[loc.Offset:loc.Offset+uint64(loc.Size)])
		require.True(t, loc.IsSync)
	}
}

func TestMuxerQuickTimeHandler(t *testing.T) {
	t.Parallel()

	file := muxFile(t, mp4io.NewFileType("qt  ", "qt  "), samplePayloads(1, 4), nil)
	model, err := ParseFile(file)
	require.NoError(t, err)

	hdlrBox := mp4io.FindFirst(model.Boxes, mp4io.HDLR)
	require.NotNil(t, hdlrBox)
	var hdlr mp4io.HandlerRefer
	require.NoError(t, hdlr.Unmarshal(hdlrBox))
	require.Equal(t, "mhlr", string(hdlr.PreDefined[:]))
	require.Equal(t, "VideoHandler", hdlr.NameString())
	require.Equal(t, "VideoHandler", model.Tracks[0].HandlerName)
}

func TestMuxerSyncSamples(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	mux := NewMuxer(&out, mp4io.NewFileType("isom"))
	id, err := mux.AddTrack(videoSpec())
	require.NoError(t, err)
	for i, key := range []bool{true, false, true} {
		require.NoError(t, mux.WritePacket(&Packet{TrackID: id, Data: []byte{byte(i)}, IsKey: key}))
	}
	require.NoError(t, mux.WriteTrailer())

	model, err := ParseFile(out.Bytes())
	require.NoError(t, err)
	require.NotNil(t, model.Tracks[0].SyncSample)
	require.Equal(t, []uint32{1, 3}, model.Tracks[0].SyncSample.Entries)
}

func TestMuxerPacketDurations(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	mux := NewMuxer(&out, mp4io.NewFileType("isom"))
	id, err := mux.AddTrack(videoSpec())
	require.NoError(t, err)
	require.NoError(t, mux.WritePacket(&Packet{TrackID: id, Data: []byte{1}, IsKey: true, Duration: 100 * time.Millisecond}))
	require.NoError(t, mux.WritePacket(&Packet{TrackID: id, Data: []byte{2}, IsKey: true}))
	require.NoError(t, mux.WriteTrailer())

	model, err := ParseFile(out.Bytes())
	require.NoError(t, err)
	require.Equal(t, []mp4io.TimeToSampleEntry{{Count: 1, Duration: 60}, {Count: 1, Duration: 40}},
		model.Tracks[0].TimeToSample.Entries)
}

func TestMuxerErrors(t *testing.T) {
	t.Parallel()

	mux := NewMuxer(io.Discard, mp4io.NewFileType("isom"))
	_, err := mux.AddTrack(TrackSpec{TimeScale: 600})
	require.Error(t, err)
	_, err = mux.AddTrack(TrackSpec{Entry: videoSpec().Entry})
	require.Error(t, err)

	require.ErrorIs(t, mux.WritePacket(nil), utils.NilPacketError{})
	require.Error(t, mux.WriteSample(5, []byte{1}))
}

func TestDemuxerInterleavesByDecodeTime(t *testing.T) {
	t.Parallel()

	video := samplePayloads(3, 6)
	audio := [][]byte{[]byte("aaaa"), []byte("bbbb")}
	file := muxFile(t, mp4io.NewFileType("isom"), video, audio)

	dmx := NewDemuxer(file)
	model, err := dmx.Demux()
	require.NoError(t, err)
	require.Len(t, model.Tracks, 2)
	require.Len(t, model.VideoTracks(), 1)
	require.Len(t, model.AudioTracks(), 1)
	require.Equal(t, boxmedia.PCMMulaw, model.Track(2).Codec())
	require.Equal(t, uint64(240), model.MovieHeader.Duration)

	var order []uint32
	var got [][]byte
	for {
		pkt, err := dmx.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		order = append(order, pkt.TrackID)
		got = append(got, pkt.Data)
	}
	require.Equal(t, []uint32{1, 2, 1, 1, 2}, order)
	require.Equal(t, [][]byte{video[0], audio[0], video[1], video[2], audio[1]}, got)

	pkts, err := dmx.TrackPackets(2)
	require.NoError(t, err)
	require.Len(t, pkts, 2)
	require.Equal(t, 200*time.Millisecond, pkts[1].Time)
	require.Equal(t, 200*time.Millisecond, pkts[1].Duration)

	_, err = dmx.TrackPackets(9)
	require.Error(t, err)
}

func TestDemuxerTruncatedMediaData(t *testing.T) {
	t.Parallel()

	file := muxFile(t, mp4io.NewFileType("isom"), samplePayloads(3, 8), nil)
	dmx := NewDemuxer(file[:len(file)-4])

	var n int
	for {
		_, err := dmx.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		n++
	}
	require.Equal(t, 2, n)
}

func TestParseFileStructuralErrors(t *testing.T) {
	t.Parallel()

	t.Run("no moov", func(t *testing.T) {
		t.Parallel()
		file := mp4io.Concat(mp4io.NewFileType("isom").Marshal(), mp4io.Leaf(mp4io.MDAT, []byte{1, 2}))
		_, err := ParseFile(file.Bytes)
		var structural utils.StructuralError
		require.True(t, errors.As(err, &structural))
		require.Equal(t, "moov", structural.Box)

		_, err = NewDemuxer(file.Bytes).ReadPacket()
		require.True(t, errors.As(err, &structural))
	})

	t.Run("no stbl", func(t *testing.T) {
		t.Parallel()
		moov := mp4io.Container(mp4io.MOOV,
			mp4io.NewMovieHeader().Marshal(),
			mp4io.Container(mp4io.TRAK, mp4io.NewTrackHeader(1).Marshal(),
				mp4io.Container(mp4io.MDIA, mp4io.Container(mp4io.MINF, mp4io.DataInfo()))),
		)
		_, err := ParseFile(moov.Bytes)
		var structural utils.StructuralError
		require.True(t, errors.As(err, &structural))
		require.Equal(t, "stbl", structural.Box)
	})
}

func TestParseFileTruncatedTail(t *testing.T) {
	t.Parallel()

	file := muxFile(t, mp4io.NewFileType("isom"), samplePayloads(2, 8), nil)
	// A trailing box header that claims more bytes than remain.
	file = append(file, 0, 0, 0, 64, 'f', 'r', 'e', 'e')

	model, err := ParseFile(file)
	require.NoError(t, err)
	require.Len(t, model.Tracks, 1)
	require.Len(t, model.Warnings, 1)
}

func TestMuxerOutputDecodesWithMp4ff(t *testing.T) {
	t.Parallel()

	video := [][]byte{make([]byte, 10), make([]byte, 20), make([]byte, 5)}
	audio := [][]byte{make([]byte, 7), make([]byte, 7)}
	file := muxFile(t, mp4io.NewFileType("isom", "isom"), video, audio)

	model, err := ParseFile(file)
	require.NoError(t, err)

	parsed, err := mp4ff.DecodeFile(bytes.NewReader(file))
	require.NoError(t, err)
	require.NotNil(t, parsed.Moov)
	require.Len(t, parsed.Moov.Traks, 2)

	for i, trak := range parsed.Moov.Traks {
		ours := model.Tracks[i]
		stbl := trak.Mdia.Minf.Stbl

		offsets := make([]uint64, len(stbl.Stco.ChunkOffset))
		for j, o := range stbl.Stco.ChunkOffset {
			offsets[j] = uint64(o)
		}
		require.Equal(t, ours.ChunkOffset.Entries, offsets, "track %d", i)
		require.Equal(t, ours.SampleSize.Entries, stbl.Stsz.SampleSize, "track %d", i)
		require.Equal(t, ours.TimeScale, trak.Mdia.Mdhd.Timescale)
		require.Equal(t, string(ours.Handler[:]), trak.Mdia.Hdlr.HandlerType)
	}
}

func TestTrackCodecFromElemStreamDesc(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		objectType uint8
		want       boxmedia.CodecType
	}{
		{mp4io.ObjectTypeAACLC, boxmedia.AAC},
		{mp4io.ObjectTypeMPEG1Aud, boxmedia.Unknown},
	} {
		esds := (&mp4io.ElemStreamDesc{ObjectType: tc.objectType, DecConfig: []byte{0x12, 0x10}}).Marshal()
		ext := mp4io.Parse(esds.Bytes, 0, esds.Len())
		spec := audioSpec()
		spec.TimeScale = 44100
		spec.SampleDelta = 1024
		spec.Entry = &mp4io.SampleEntry{
			Format:     mp4io.StringToTag("mp4a"),
			DataRefIdx: 1,
			Audio:      &mp4io.AudioSampleEntry{ChannelCount: 2, SampleSize: 16, SampleRate: 44100},
			Extensions: ext,
		}

		var out bytes.Buffer
		mux := NewMuxer(&out, mp4io.NewFileType("isom"))
		id, err := mux.AddTrack(spec)
		require.NoError(t, err)
		require.NoError(t, mux.WriteSample(id, []byte{1, 2, 3}))
		require.NoError(t, mux.WriteTrailer())

		model, err := ParseFile(out.Bytes())
		require.NoError(t, err)
		require.Len(t, model.AudioTracks(), 1)
		require.Equal(t, tc.want, model.AudioTracks()[0].Codec())
	}
}
