package mp4

import (
	"math"

	"github.com/ugparu/boxmedia/format/mp4/mp4io"
)

// Tables is the set of sample tables the encoder writes for one track.
// ChunkOffset holds placeholders until the muxer patches it.
type Tables struct {
	TimeToSample  mp4io.TimeToSample
	SampleToChunk mp4io.SampleToChunk
	SampleSize    mp4io.SampleSize
	ChunkOffset   mp4io.ChunkOffset
	SyncSample    *mp4io.SyncSample // nil: every sample is a sync sample
}

// SampleDelta is the per-sample duration in timescale ticks for a constant
// frame rate, rounded to the nearest tick and never below one.
func SampleDelta(timeScale uint32, frameRate float64) uint32 {
	if frameRate <= 0 {
		return 1
	}
	return uint32(max(math.Round(float64(timeScale)/frameRate), 1))
}

// BuildTables lays out sizes as one sample per chunk, every sample lasting
// delta ticks. Chunk offsets are zero placeholders.
func BuildTables(sizes []uint32, delta uint32) *Tables {
	t := &Tables{
		SampleToChunk: mp4io.SampleToChunk{
			Entries: []mp4io.SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 1, SampleDescID: 1}},
		},
		SampleSize: mp4io.SampleSize{
			SampleCount: uint32(len(sizes)),
			Entries:     append([]uint32(nil), sizes...),
		},
		ChunkOffset: mp4io.ChunkOffset{Entries: make([]uint64, len(sizes))},
	}
	if len(sizes) > 0 {
		t.TimeToSample.Entries = []mp4io.TimeToSampleEntry{{Count: uint32(len(sizes)), Duration: delta}}
	}
	return t
}

// BuildTablesWithDurations is BuildTables for per-sample durations; runs of
// equal durations share one time-to-sample entry.
func BuildTablesWithDurations(sizes, durations []uint32) *Tables {
	t := BuildTables(sizes, 0)
	t.TimeToSample.Entries = nil
	var run *mp4io.TimeToSampleEntry
	for _, d := range durations[:min(len(durations), len(sizes))] {
		if run == nil || run.Duration != d {
			t.TimeToSample.Entries = append(t.TimeToSample.Entries, mp4io.TimeToSampleEntry{Duration: d})
			run = &t.TimeToSample.Entries[len(t.TimeToSample.Entries)-1]
		}
		run.Count++
	}
	return t
}

// Duration is the total media duration in ticks.
func (t *Tables) Duration() uint64 {
	var d uint64
	for _, e := range t.TimeToSample.Entries {
		d += uint64(e.Count) * uint64(e.Duration)
	}
	return d
}

// Marshal serializes the tables as the children of 'stbl' after 'stsd', in
// the order stts, stss, stsc, stsz, stco. Chunk-offset patch sites carry
// track.
func (t *Tables) Marshal(track uint32) []mp4io.Serialized {
	out := []mp4io.Serialized{t.TimeToSample.Marshal()}
	if t.SyncSample != nil {
		out = append(out, t.SyncSample.Marshal())
	}
	return append(out,
		t.SampleToChunk.Marshal(),
		t.SampleSize.Marshal(),
		t.ChunkOffset.Marshal(track),
	)
}
