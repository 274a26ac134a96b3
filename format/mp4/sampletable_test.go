package mp4

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ugparu/boxmedia/format/mp4/mp4io"
	"github.com/ugparu/boxmedia/utils"
)

func tableTrack(stsc []mp4io.SampleToChunkEntry, offsets []uint64, sizes []uint32) *Track {
	return &Track{
		TimeScale:     600,
		SampleToChunk: mp4io.SampleToChunk{Entries: stsc},
		SampleSize:    mp4io.SampleSize{SampleCount: uint32(len(sizes)), Entries: sizes},
		ChunkOffset:   mp4io.ChunkOffset{Entries: offsets},
	}
}

func TestChunkSampleCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []mp4io.SampleToChunkEntry
		chunks  int
		want    []uint32
	}{
		{
			name:    "greatest lower bound",
			entries: []mp4io.SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 2, SampleDescID: 1}, {FirstChunk: 3, SamplesPerChunk: 1, SampleDescID: 1}},
			chunks:  4,
			want:    []uint32{2, 2, 1, 1},
		},
		{
			name:    "single run",
			entries: []mp4io.SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 1, SampleDescID: 1}},
			chunks:  3,
			want:    []uint32{1, 1, 1},
		},
		{
			name: "unsorted entries keep the last applicable one",
			entries: []mp4io.SampleToChunkEntry{
				{FirstChunk: 1, SamplesPerChunk: 2, SampleDescID: 1},
				{FirstChunk: 5, SamplesPerChunk: 3, SampleDescID: 1},
				{FirstChunk: 3, SamplesPerChunk: 1, SampleDescID: 1},
			},
			chunks: 6,
			want:   []uint32{2, 2, 1, 1, 1, 1},
		},
		{
			name:    "no entry covers the first chunk",
			entries: []mp4io.SampleToChunkEntry{{FirstChunk: 2, SamplesPerChunk: 4, SampleDescID: 1}},
			chunks:  3,
			want:    []uint32{0, 4, 4},
		},
		{
			name:   "empty table",
			chunks: 2,
			want:   []uint32{0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ChunkSampleCounts(tt.entries, tt.chunks))
		})
	}

	var total uint32
	for _, n := range ChunkSampleCounts(tests[0].entries, 4) {
		total += n
	}
	require.Equal(t, uint32(6), total)
}

func TestResolveSampleLocations(t *testing.T) {
	t.Parallel()

	track := tableTrack(
		[]mp4io.SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 2, SampleDescID: 1}, {FirstChunk: 3, SamplesPerChunk: 1, SampleDescID: 2}},
		[]uint64{100, 200, 300, 400},
		[]uint32{1, 2, 3, 4, 5, 6},
	)
	track.TimeToSample.Entries = []mp4io.TimeToSampleEntry{{Count: 6, Duration: 10}}

	locs, err := ResolveSampleLocations(track)
	require.NoError(t, err)
	require.Len(t, locs, 6)

	wantOffsets := []uint64{100, 101, 200, 203, 300, 400}
	wantChunks := []int{1, 1, 2, 2, 3, 4}
	for i, loc := range locs {
		require.Equal(t, wantOffsets[i], loc.Offset, "sample %d", i)
		require.Equal(t, uint32(i+1), loc.Size)
		require.Equal(t, wantChunks[i], loc.Chunk)
		require.Equal(t, uint64(i*10), loc.DecodeTime)
		require.Equal(t, uint32(10), loc.Duration)
		require.True(t, loc.IsSync)
	}
	require.Equal(t, uint32(1), locs[0].DescriptionIndex)
	require.Equal(t, uint32(2), locs[5].DescriptionIndex)
}

func TestResolveStopsAtDeclaredCount(t *testing.T) {
	t.Parallel()

	track := &Track{
		SampleToChunk: mp4io.SampleToChunk{Entries: []mp4io.SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 2, SampleDescID: 1}}},
		SampleSize:    mp4io.SampleSize{SampleSize: 4, SampleCount: 3},
		ChunkOffset:   mp4io.ChunkOffset{Entries: []uint64{0, 100, 200, 300}},
	}
	locs, err := ResolveSampleLocations(track)
	require.NoError(t, err)
	require.Len(t, locs, 3)
	require.Equal(t, uint64(0), locs[0].Offset)
	require.Equal(t, uint64(4), locs[1].Offset)
	require.Equal(t, uint64(100), locs[2].Offset)
	for _, loc := range locs {
		require.Equal(t, uint32(4), loc.Size)
	}
}

func TestResolveScalarSizeHugeCount(t *testing.T) {
	t.Parallel()

	// The declared count far exceeds what one single-sample chunk can hold.
	track := &Track{
		SampleToChunk: mp4io.SampleToChunk{Entries: []mp4io.SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 1, SampleDescID: 1}}},
		SampleSize:    mp4io.SampleSize{SampleSize: 8, SampleCount: 0xFFFFFFFF},
		ChunkOffset:   mp4io.ChunkOffset{Entries: []uint64{0}},
	}
	locs, err := ResolveSampleLocations(track)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	require.Equal(t, uint32(8), locs[0].Size)
	require.Equal(t, 1, cap(locs))
}

func TestResolveDropsSamplesWithoutSizes(t *testing.T) {
	t.Parallel()

	// Chunks promise six samples but only two sizes survived.
	track := tableTrack(
		[]mp4io.SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 3, SampleDescID: 1}},
		[]uint64{10, 50},
		[]uint32{5, 5},
	)
	locs, err := ResolveSampleLocations(track)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	require.Equal(t, uint64(15), locs[1].Offset)
}

func TestResolveTiming(t *testing.T) {
	t.Parallel()

	track := tableTrack(
		[]mp4io.SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 1, SampleDescID: 1}},
		[]uint64{0, 10, 20, 30},
		[]uint32{10, 10, 10, 10},
	)
	track.TimeToSample.Entries = []mp4io.TimeToSampleEntry{{Count: 2, Duration: 10}, {Count: 1, Duration: 20}}
	track.CompositionOffset = &mp4io.CompositionOffset{
		Entries: []mp4io.CompositionOffsetEntry{{Count: 1, Offset: 5}, {Count: 2, Offset: -3}},
	}
	track.SyncSample = &mp4io.SyncSample{Entries: []uint32{1, 3}}

	locs, err := ResolveSampleLocations(track)
	require.NoError(t, err)
	require.Len(t, locs, 4)

	require.Equal(t, []uint64{0, 10, 20, 40}, []uint64{locs[0].DecodeTime, locs[1].DecodeTime, locs[2].DecodeTime, locs[3].DecodeTime})
	require.Equal(t, []uint32{10, 10, 20, 0}, []uint32{locs[0].Duration, locs[1].Duration, locs[2].Duration, locs[3].Duration})
	require.Equal(t, []int32{5, -3, -3, 0}, []int32{
		locs[0].CompositionOffset, locs[1].CompositionOffset, locs[2].CompositionOffset, locs[3].CompositionOffset,
	})
	require.Equal(t, []bool{true, false, true, false}, []bool{locs[0].IsSync, locs[1].IsSync, locs[2].IsSync, locs[3].IsSync})
}

func TestResolveCompactSizes(t *testing.T) {
	t.Parallel()

	track := tableTrack(nil, []uint64{0}, nil)
	track.compactSizes = true
	_, err := ResolveSampleLocations(track)

	var shape utils.UnsupportedShapeError
	require.True(t, errors.As(err, &shape))
	require.Equal(t, "stz2", shape.Box)
}

func TestIsOneSamplePerChunk(t *testing.T) {
	t.Parallel()

	require.True(t, IsOneSamplePerChunk(&BuildTables([]uint32{1, 2}, 1).SampleToChunk))
	require.False(t, IsOneSamplePerChunk(&mp4io.SampleToChunk{
		Entries: []mp4io.SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 2, SampleDescID: 1}},
	}))
	require.False(t, IsOneSamplePerChunk(&mp4io.SampleToChunk{}))
}
