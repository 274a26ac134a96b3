package mp4io

import (
	"github.com/ugparu/boxmedia/utils"
	"github.com/ugparu/boxmedia/utils/bits/pio"
	"github.com/ugparu/boxmedia/utils/logger"
)

// SampleSize is either one scalar size for every sample (SampleSize != 0)
// or one entry per sample.
type SampleSize struct {
	Version     uint8
	Flags       uint32
	SampleSize  uint32
	SampleCount uint32
	Entries     []uint32
}

// Len is the number of samples the table describes.
func (stsz *SampleSize) Len() int {
	if stsz.SampleSize != 0 {
		return int(stsz.SampleCount)
	}
	return len(stsz.Entries)
}

// Size returns the byte length of sample i (0-based) and false when the
// table has no entry for it.
func (stsz *SampleSize) Size(i int) (uint32, bool) {
	if i < 0 || i >= stsz.Len() {
		return 0, false
	}
	if stsz.SampleSize != 0 {
		return stsz.SampleSize, true
	}
	return stsz.Entries[i], true
}

func (stsz *SampleSize) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	stsz.Version = r.U8()
	stsz.Flags = r.U24BE()
	stsz.SampleSize = r.U32BE()
	stsz.SampleCount = r.U32BE()
	if r.Err() != nil {
		return parseErr("SampleCount", box.PayloadOffset()+r.Pos(), nil)
	}
	if stsz.SampleSize != 0 {
		stsz.Entries = nil
		return nil
	}
	count := int(stsz.SampleCount)
	if fit := r.Remaining() / 4; uint32(fit) < stsz.SampleCount {
		logger.Debugf(box, "%v", utils.TruncationWarning{
			Box:    box.Type.String(),
			Offset: box.Offset,
			Need:   int(min(stsz.SampleCount, 1<<24)) * 4,
			Have:   r.Remaining(),
		})
		count = fit
	}
	stsz.Entries = make([]uint32, count)
	for i := range stsz.Entries {
		stsz.Entries[i] = r.U32BE()
	}
	return nil
}

func (stsz *SampleSize) Marshal() Serialized {
	w := pio.NewWriter(12 + 4*len(stsz.Entries))
	w.PutU8(stsz.Version)
	w.PutU24BE(stsz.Flags)
	w.PutU32BE(stsz.SampleSize)
	if stsz.SampleSize != 0 {
		w.PutU32BE(stsz.SampleCount)
		return Leaf(STSZ, w.Bytes())
	}
	w.PutU32BE(uint32(len(stsz.Entries)))
	for _, entry := range stsz.Entries {
		w.PutU32BE(entry)
	}
	return Leaf(STSZ, w.Bytes())
}
