package mp4io

import "github.com/ugparu/boxmedia/utils/bits/pio"

type SampleToChunkEntry struct {
	FirstChunk      uint32 // 1-based
	SamplesPerChunk uint32
	SampleDescID    uint32 // 1-based index into 'stsd'
}

type SampleToChunk struct {
	Version uint8
	Flags   uint32
	Entries []SampleToChunkEntry
}

func (stsc *SampleToChunk) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	var count int
	var err error
	if stsc.Version, stsc.Flags, count, err = readEntryCount(r, box, LenSampleToChunkEntry); err != nil {
		return err
	}
	stsc.Entries = make([]SampleToChunkEntry, count)
	for i := range stsc.Entries {
		stsc.Entries[i] = SampleToChunkEntry{
			FirstChunk:      r.U32BE(),
			SamplesPerChunk: r.U32BE(),
			SampleDescID:    r.U32BE(),
		}
	}
	return nil
}

func (stsc *SampleToChunk) Marshal() Serialized {
	w := pio.NewWriter(8 + LenSampleToChunkEntry*len(stsc.Entries))
	tablePrefix(w, stsc.Version, stsc.Flags, len(stsc.Entries))
	for _, e := range stsc.Entries {
		w.PutU32BE(e.FirstChunk)
		w.PutU32BE(e.SamplesPerChunk)
		w.PutU32BE(e.SampleDescID)
	}
	return Leaf(STSC, w.Bytes())
}
