package mp4io

import (
	"bytes"

	"github.com/ugparu/boxmedia/utils/bits/pio"
)

type HandlerRefer struct {
	Version     uint8
	Flags       uint32
	PreDefined  [4]byte // QuickTime component type ('mhlr', 'dhlr'); zero in ISO files
	HandlerType [4]byte
	Reserved    [3]uint32
	Name        []byte
}

// NameString decodes Name whether it is a C string (ISO) or a Pascal string (QuickTime).
func (hdlr *HandlerRefer) NameString() string {
	name := hdlr.Name
	if len(name) > 0 && int(name[0]) == len(name)-1 && hdlr.PreDefined != [4]byte{} {
		name = name[1:]
	}
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

func (hdlr *HandlerRefer) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	hdlr.Version = r.U8()
	hdlr.Flags = r.U24BE()
	copy(hdlr.PreDefined[:], r.Bytes(4))
	copy(hdlr.HandlerType[:], r.Bytes(4))
	if r.Err() != nil {
		return parseErr("HandlerType", box.PayloadOffset()+r.Pos(), nil)
	}
	for i := range hdlr.Reserved {
		hdlr.Reserved[i] = r.U32BE()
	}
	if r.Err() != nil {
		// Some writers stop right after the handler type.
		return nil
	}
	hdlr.Name = r.Rest()
	return nil
}

func (hdlr *HandlerRefer) Marshal() Serialized {
	w := pio.NewWriter(24 + len(hdlr.Name))
	w.PutU8(hdlr.Version)
	w.PutU24BE(hdlr.Flags)
	_, _ = w.Write(hdlr.PreDefined[:])
	_, _ = w.Write(hdlr.HandlerType[:])
	for _, v := range hdlr.Reserved {
		w.PutU32BE(v)
	}
	_, _ = w.Write(hdlr.Name)
	return Leaf(HDLR, w.Bytes())
}
