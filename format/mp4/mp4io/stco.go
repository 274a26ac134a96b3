package mp4io

import "github.com/ugparu/boxmedia/utils/bits/pio"

// ChunkOffset holds absolute file offsets of chunks, decoded from either
// 'stco' (32-bit) or 'co64' (64-bit).
type ChunkOffset struct {
	Version uint8
	Flags   uint32
	Wide    bool
	Entries []uint64
}

func (stco *ChunkOffset) Tag() Tag {
	if stco.Wide {
		return CO64
	}
	return STCO
}

func (stco *ChunkOffset) Unmarshal(box *Box) error {
	stco.Wide = box.Type == CO64
	width := 4
	if stco.Wide {
		width = 8
	}
	r := pio.NewReader(box.Payload)
	var count int
	var err error
	if stco.Version, stco.Flags, count, err = readEntryCount(r, box, width); err != nil {
		return err
	}
	stco.Entries = make([]uint64, count)
	for i := range stco.Entries {
		if stco.Wide {
			stco.Entries[i] = r.U64BE()
		} else {
			stco.Entries[i] = uint64(r.U32BE())
		}
	}
	return nil
}

// Marshal writes the table and records one patch site per entry so the
// muxer can fill in real offsets once 'mdat' is placed.
func (stco *ChunkOffset) Marshal(track uint32) Serialized {
	width := 4
	if stco.Wide {
		width = 8
	}
	w := pio.NewWriter(8 + width*len(stco.Entries))
	tablePrefix(w, stco.Version, stco.Flags, len(stco.Entries))
	sites := make([]PatchSite, len(stco.Entries))
	for i, v := range stco.Entries {
		sites[i] = PatchSite{Offset: w.Len(), Width: width, Box: stco.Tag(), Track: track, Index: i}
		if stco.Wide {
			w.PutU64BE(v)
		} else {
			w.PutU32BE(uint32(v))
		}
	}
	return LeafWithSites(stco.Tag(), w.Bytes(), sites)
}

// SyncSample lists 1-based numbers of sync (key) samples.
type SyncSample struct {
	Version uint8
	Flags   uint32
	Entries []uint32
}

func (stss *SyncSample) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	var count int
	var err error
	if stss.Version, stss.Flags, count, err = readEntryCount(r, box, 4); err != nil {
		return err
	}
	stss.Entries = make([]uint32, count)
	for i := range stss.Entries {
		stss.Entries[i] = r.U32BE()
	}
	return nil
}

func (stss *SyncSample) Marshal() Serialized {
	w := pio.NewWriter(8 + 4*len(stss.Entries))
	tablePrefix(w, stss.Version, stss.Flags, len(stss.Entries))
	for _, v := range stss.Entries {
		w.PutU32BE(v)
	}
	return Leaf(STSS, w.Bytes())
}
