package mp4

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ugparu/boxmedia/format/mp4/mp4io"
	"github.com/ugparu/boxmedia/utils"
	"github.com/ugparu/boxmedia/utils/bits/pio"
	"github.com/ugparu/boxmedia/utils/logger"
)

// TrackData is the media payload of one track: its samples concatenated in
// decode order and the size of each. Every sample is its own chunk.
type TrackData struct {
	ID    uint32
	Sizes []uint32
	Data  []byte
	// SampleToChunk, when set, is checked to be the one-sample-per-chunk
	// layout the relocation assumes.
	SampleToChunk *mp4io.SampleToChunk
}

// Mux lays out ftyp, moov and a single 'mdat' holding every track's data in
// order, and rewrites the chunk offsets inside moov to point at the samples.
//
// Chunk offsets are found through the patch sites moov was built with; when
// moov carries none (bytes from elsewhere), its chunk-offset boxes are
// located by walking the box tree and matched to tracks in order.
func Mux(ftyp, moov mp4io.Serialized, tracks ...TrackData) ([]byte, error) {
	var dataLen uint64
	for _, t := range tracks {
		if t.SampleToChunk != nil && len(t.Sizes) > 0 && !IsOneSamplePerChunk(t.SampleToChunk) {
			return nil, utils.UnsupportedShapeError{
				Box:    "stsc",
				Reason: fmt.Sprintf("track %d: relocation needs one sample per chunk", t.ID),
			}
		}
		var sum uint64
		for _, s := range t.Sizes {
			sum += uint64(s)
		}
		if sum != uint64(len(t.Data)) {
			return nil, utils.RelocationError{
				Reason: fmt.Sprintf("track %d: sample sizes sum to %d, data is %d bytes", t.ID, sum, len(t.Data)),
			}
		}
		dataLen += sum
	}
	if dataLen+mp4io.HeaderSize > 0xFFFFFFFF {
		return nil, utils.RelocationError{Reason: fmt.Sprintf("media data of %d bytes exceeds a 32-bit box size", dataLen)}
	}

	sites, err := trackSites(moov, tracks)
	if err != nil {
		return nil, err
	}

	header := ftyp.Len() + moov.Len()
	out := make([]byte, header+mp4io.HeaderSize+int(dataLen))
	copy(out, ftyp.Bytes)
	copy(out[ftyp.Len():], moov.Bytes)
	movie := out[ftyp.Len():header]

	offset := uint64(header + mp4io.HeaderSize)
	for i, t := range tracks {
		for j, site := range sites[i] {
			if err = mp4io.Patch(movie, site, offset); err != nil {
				return nil, err
			}
			offset += uint64(t.Sizes[j])
		}
	}

	pio.PutU32BE(out[header:], uint32(dataLen+mp4io.HeaderSize))
	pio.PutU32BE(out[header+4:], uint32(mp4io.MDAT))
	pos := header + mp4io.HeaderSize
	for _, t := range tracks {
		pos += copy(out[pos:], t.Data)
	}
	logger.Debugf(muxLog{}, "muxed %d tracks, mdat at %d, %d bytes total", len(tracks), header, len(out))
	return out, nil
}

type muxLog struct{}

func (muxLog) String() string { return "MP4_MUX" }

// trackSites returns, for each track, the chunk-offset patch sites ordered
// by entry index. There must be exactly one site per sample.
func trackSites(moov mp4io.Serialized, tracks []TrackData) ([][]mp4io.PatchSite, error) {
	sites := make([][]mp4io.PatchSite, len(tracks))
	if len(moov.Sites) > 0 {
		byTrack := make(map[uint32][]mp4io.PatchSite)
		for _, s := range moov.Sites {
			if s.Box == mp4io.STCO || s.Box == mp4io.CO64 {
				byTrack[s.Track] = append(byTrack[s.Track], s)
			}
		}
		for i, t := range tracks {
			sites[i] = byTrack[t.ID]
			slices.SortFunc(sites[i], func(a, b mp4io.PatchSite) int { return a.Index - b.Index })
			delete(byTrack, t.ID)
		}
		// A table left unclaimed would keep pointing at its placeholder offsets.
		if len(byTrack) > 0 {
			orphans := slices.Sorted(maps.Keys(byTrack))
			return nil, utils.RelocationError{Reason: fmt.Sprintf("chunk-offset tables of tracks %v have no data", orphans)}
		}
	} else {
		located := LocateChunkOffsets(moov.Bytes)
		if len(located) != len(tracks) {
			return nil, utils.RelocationError{
				Reason: fmt.Sprintf("found %d chunk-offset tables for %d tracks", len(located), len(tracks)),
			}
		}
		copy(sites, located)
	}

	for i, t := range tracks {
		if len(t.Sizes) > 0 && len(sites[i]) == 0 {
			return nil, utils.RelocationError{Reason: fmt.Sprintf("no chunk-offset table for track %d", t.ID)}
		}
		if len(sites[i]) != len(t.Sizes) {
			return nil, utils.RelocationError{
				Reason: fmt.Sprintf("track %d: %d chunk offsets for %d samples", t.ID, len(sites[i]), len(t.Sizes)),
			}
		}
	}
	return sites, nil
}

// LocateChunkOffsets walks serialized movie metadata depth-first and returns
// the entry positions of every 'stco'/'co64' box found, one slice per box in
// tree order. Entry counts are clamped to the bytes the box actually holds.
func LocateChunkOffsets(moov []byte) [][]mp4io.PatchSite {
	var found [][]mp4io.PatchSite
	mp4io.Walk(mp4io.Parse(moov, 0, len(moov)), func(b *mp4io.Box, _ int) bool {
		if b.Type != mp4io.STCO && b.Type != mp4io.CO64 {
			return true
		}
		width := 4
		if b.Type == mp4io.CO64 {
			width = 8
		}
		r := pio.NewReader(b.Payload)
		r.Skip(4)
		count := int(r.U32BE())
		if r.Err() != nil {
			found = append(found, nil)
			return true
		}
		count = min(count, r.Remaining()/width)
		base := b.PayloadOffset() + 8
		sites := make([]mp4io.PatchSite, count)
		for i := range sites {
			sites[i] = mp4io.PatchSite{Offset: base + i*width, Width: width, Box: b.Type, Index: i}
		}
		found = append(found, sites)
		return true
	})
	return found
}
