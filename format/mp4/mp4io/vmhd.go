package mp4io

import "github.com/ugparu/boxmedia/utils/bits/pio"

type VideoMediaInfo struct {
	Version      uint8
	Flags        uint32
	GraphicsMode int16
	Opcolor      [3]int16
}

func (vmhd *VideoMediaInfo) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	vmhd.Version = r.U8()
	vmhd.Flags = r.U24BE()
	vmhd.GraphicsMode = r.I16BE()
	for i := range vmhd.Opcolor {
		vmhd.Opcolor[i] = r.I16BE()
	}
	if r.Err() != nil {
		return parseErr("Opcolor", box.PayloadOffset()+r.Pos(), nil)
	}
	return nil
}

func (vmhd *VideoMediaInfo) Marshal() Serialized {
	w := pio.NewWriter(12)
	w.PutU8(vmhd.Version)
	w.PutU24BE(vmhd.Flags)
	w.PutI16BE(vmhd.GraphicsMode)
	for _, c := range vmhd.Opcolor {
		w.PutI16BE(c)
	}
	return Leaf(VMHD, w.Bytes())
}

type SoundMediaInfo struct {
	Version uint8
	Flags   uint32
	Balance float64 // 8.8
}

func (smhd *SoundMediaInfo) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	smhd.Version = r.U8()
	smhd.Flags = r.U24BE()
	smhd.Balance = readFixed16(r)
	if r.Err() != nil {
		return parseErr("Balance", box.PayloadOffset()+r.Pos(), nil)
	}
	return nil
}

func (smhd *SoundMediaInfo) Marshal() Serialized {
	w := pio.NewWriter(8)
	w.PutU8(smhd.Version)
	w.PutU24BE(smhd.Flags)
	putFixed16(w, smhd.Balance)
	w.Zero(2)
	return Leaf(SMHD, w.Bytes())
}
