package mp4

import (
	"slices"

	"github.com/ugparu/boxmedia/format/mp4/mp4io"
	"github.com/ugparu/boxmedia/utils"
	"github.com/ugparu/boxmedia/utils/logger"
)

// SampleLocation is where one sample lives in the file and when it plays.
type SampleLocation struct {
	Offset            uint64 // absolute byte offset
	Size              uint32
	Chunk             int    // 1-based chunk number
	DecodeTime        uint64 // media timescale ticks
	Duration          uint32
	CompositionOffset int32
	IsSync            bool
	DescriptionIndex  uint32
}

// ChunkSampleCounts returns the samples-per-chunk value for each of
// chunkCount chunks. Chunk c (1-based) uses the last entry, in table order,
// whose FirstChunk is <= c; a chunk no entry covers holds zero samples.
//
// Entries are swept in FirstChunk order while keeping the highest table
// index seen so far, so the cost is linear in chunkCount after sorting the
// (usually tiny) table.
func ChunkSampleCounts(entries []mp4io.SampleToChunkEntry, chunkCount int) []uint32 {
	counts, _ := chunkRuns(entries, chunkCount)
	return counts
}

// chunkRuns is ChunkSampleCounts plus the description index of each chunk.
func chunkRuns(entries []mp4io.SampleToChunkEntry, chunkCount int) (counts, descs []uint32) {
	counts = make([]uint32, chunkCount)
	descs = make([]uint32, chunkCount)

	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		fa, fb := entries[a].FirstChunk, entries[b].FirstChunk
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	})

	best, next := -1, 0
	for c := range chunkCount {
		chunk := uint64(c) + 1
		for next < len(order) && uint64(entries[order[next]].FirstChunk) <= chunk {
			best = max(best, order[next])
			next++
		}
		if best >= 0 {
			counts[c] = entries[best].SamplesPerChunk
			descs[c] = entries[best].SampleDescID
		}
	}
	return
}

// ResolveSampleLocations walks the chunk-offset, sample-to-chunk and
// sample-size tables of t and returns one location per sample in decode
// order.
//
// Resolution stops at the declared sample count. When the sample-size table
// runs out before the chunks do, the remaining samples are dropped without
// an error. A track whose sizes come from a compact 'stz2' table is an
// UnsupportedShapeError.
func ResolveSampleLocations(t *Track) ([]SampleLocation, error) {
	if t.compactSizes && t.SampleSize.Len() == 0 {
		return nil, utils.UnsupportedShapeError{Box: "stz2", Reason: "compact sample sizes"}
	}

	total := t.SampleCount()
	chunks := t.ChunkOffset.Entries
	counts, descs := chunkRuns(t.SampleToChunk.Entries, len(chunks))

	timing := newTimingCursor(t)
	locs := make([]SampleLocation, 0, locationCapacity(total, counts))
	sample := 0

resolve:
	for c, chunkOffset := range chunks {
		offset := chunkOffset
		for range counts[c] {
			if sample >= total {
				break resolve
			}
			size, ok := t.SampleSize.Size(sample)
			if !ok {
				logger.Debugf(t, "sample-size table exhausted at sample %d", sample)
				break resolve
			}
			loc := SampleLocation{
				Offset:           offset,
				Size:             size,
				Chunk:            c + 1,
				DescriptionIndex: descs[c],
			}
			timing.fill(&loc, sample)
			locs = append(locs, loc)
			offset += uint64(size)
			sample++
		}
	}
	return locs, nil
}

// locationCapacity bounds the up-front allocation by what the chunk table
// can yield. A scalar 'stsz' declares its count without backing bytes.
func locationCapacity(total int, counts []uint32) int {
	var producible uint64
	for _, n := range counts {
		producible += uint64(n)
	}
	if producible < uint64(total) { //nolint:gosec
		return int(producible) //nolint:gosec
	}
	return total
}

// timingCursor advances through the run-length timing tables alongside the
// sample walk.
type timingCursor struct {
	stts []mp4io.TimeToSampleEntry
	ctts []mp4io.CompositionOffsetEntry
	sync map[uint32]struct{} // nil: every sample is a sync sample

	sttsIdx, sttsLeft int
	cttsIdx, cttsLeft int
	dts               uint64
}

func newTimingCursor(t *Track) *timingCursor {
	tc := &timingCursor{stts: t.TimeToSample.Entries}
	if t.CompositionOffset != nil {
		tc.ctts = t.CompositionOffset.Entries
	}
	if t.SyncSample != nil {
		tc.sync = make(map[uint32]struct{}, len(t.SyncSample.Entries))
		for _, n := range t.SyncSample.Entries {
			tc.sync[n] = struct{}{}
		}
	}
	if len(tc.stts) > 0 {
		tc.sttsLeft = int(tc.stts[0].Count)
	}
	if len(tc.ctts) > 0 {
		tc.cttsLeft = int(tc.ctts[0].Count)
	}
	return tc
}

// fill sets the timing fields of loc for the 0-based sample index. Samples
// past the end of 'stts' get a zero duration.
func (tc *timingCursor) fill(loc *SampleLocation, sample int) {
	for tc.sttsLeft == 0 && tc.sttsIdx+1 < len(tc.stts) {
		tc.sttsIdx++
		tc.sttsLeft = int(tc.stts[tc.sttsIdx].Count)
	}
	loc.DecodeTime = tc.dts
	if tc.sttsLeft > 0 {
		loc.Duration = tc.stts[tc.sttsIdx].Duration
		tc.sttsLeft--
	}
	tc.dts += uint64(loc.Duration)

	for tc.cttsLeft == 0 && tc.cttsIdx+1 < len(tc.ctts) {
		tc.cttsIdx++
		tc.cttsLeft = int(tc.ctts[tc.cttsIdx].Count)
	}
	if tc.cttsLeft > 0 {
		loc.CompositionOffset = tc.ctts[tc.cttsIdx].Offset
		tc.cttsLeft--
	}

	if tc.sync == nil {
		loc.IsSync = true
	} else {
		_, loc.IsSync = tc.sync[uint32(sample)+1]
	}
}

// IsOneSamplePerChunk reports whether the table is the single entry
// {1, 1, 1} the encoder emits.
func IsOneSamplePerChunk(stsc *mp4io.SampleToChunk) bool {
	return len(stsc.Entries) == 1 &&
		stsc.Entries[0].FirstChunk == 1 &&
		stsc.Entries[0].SamplesPerChunk == 1
}
