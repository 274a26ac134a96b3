package mp4io

import (
	"github.com/ugparu/boxmedia/utils"
	"github.com/ugparu/boxmedia/utils/bits/pio"
	"github.com/ugparu/boxmedia/utils/logger"
)

const (
	LenTimeToSampleEntry      = 8
	LenCompositionOffsetEntry = 8
	LenSampleToChunkEntry     = 12
)

// readEntryCount reads the version/flags word and the entry count of a
// table box and clamps the count to the entries that actually fit.
func readEntryCount(r *pio.Reader, box *Box, entrySize int) (version uint8, flags uint32, count int, err error) {
	version = r.U8()
	flags = r.U24BE()
	declared := r.U32BE()
	if r.Err() != nil {
		return 0, 0, 0, parseErr("EntryCount", box.PayloadOffset()+r.Pos(), nil)
	}
	count = int(declared)
	if fit := r.Remaining() / entrySize; uint32(fit) < declared {
		logger.Debugf(box, "%v", utils.TruncationWarning{
			Box:    box.Type.String(),
			Offset: box.Offset,
			Need:   int(min(declared, 1<<24)) * entrySize,
			Have:   r.Remaining(),
		})
		count = fit
	}
	return
}

func tablePrefix(w *pio.Writer, version uint8, flags uint32, count int) {
	w.PutU8(version)
	w.PutU24BE(flags)
	w.PutU32BE(uint32(count))
}

type TimeToSampleEntry struct {
	Count    uint32
	Duration uint32
}

type TimeToSample struct {
	Version uint8
	Flags   uint32
	Entries []TimeToSampleEntry
}

// SampleCount is the sum of run lengths.
func (stts *TimeToSample) SampleCount() (n uint64) {
	for _, e := range stts.Entries {
		n += uint64(e.Count)
	}
	return
}

func (stts *TimeToSample) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	var count int
	var err error
	if stts.Version, stts.Flags, count, err = readEntryCount(r, box, LenTimeToSampleEntry); err != nil {
		return err
	}
	stts.Entries = make([]TimeToSampleEntry, count)
	for i := range stts.Entries {
		stts.Entries[i] = TimeToSampleEntry{Count: r.U32BE(), Duration: r.U32BE()}
	}
	return nil
}

func (stts *TimeToSample) Marshal() Serialized {
	w := pio.NewWriter(8 + LenTimeToSampleEntry*len(stts.Entries))
	tablePrefix(w, stts.Version, stts.Flags, len(stts.Entries))
	for _, e := range stts.Entries {
		w.PutU32BE(e.Count)
		w.PutU32BE(e.Duration)
	}
	return Leaf(STTS, w.Bytes())
}

type CompositionOffsetEntry struct {
	Count  uint32
	Offset int32
}

type CompositionOffset struct {
	Version uint8
	Flags   uint32
	Entries []CompositionOffsetEntry
}

func (ctts *CompositionOffset) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	var count int
	var err error
	if ctts.Version, ctts.Flags, count, err = readEntryCount(r, box, LenCompositionOffsetEntry); err != nil {
		return err
	}
	ctts.Entries = make([]CompositionOffsetEntry, count)
	for i := range ctts.Entries {
		ctts.Entries[i] = CompositionOffsetEntry{Count: r.U32BE(), Offset: r.I32BE()}
	}
	return nil
}

func (ctts *CompositionOffset) Marshal() Serialized {
	w := pio.NewWriter(8 + LenCompositionOffsetEntry*len(ctts.Entries))
	tablePrefix(w, ctts.Version, ctts.Flags, len(ctts.Entries))
	for _, e := range ctts.Entries {
		w.PutU32BE(e.Count)
		w.PutI32BE(e.Offset)
	}
	return Leaf(CTTS, w.Bytes())
}
