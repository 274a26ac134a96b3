package mp4io

import (
	"github.com/ugparu/boxmedia/utils/bits/pio"
)

const ESDS = Tag(0x65736473)

// MPEG-4 descriptor tags found inside 'esds'.
const (
	MP4ESDescrTag          = 3
	MP4DecConfigDescrTag   = 4
	MP4DecSpecificDescrTag = 5
	MP4SLConfigDescrTag    = 6
)

// Object type indications seen in 'mp4a' entries.
const (
	ObjectTypeAAC      = 0x40
	ObjectTypeAACMain  = 0x66
	ObjectTypeAACLC    = 0x67
	ObjectTypeAACSSR   = 0x68
	ObjectTypeMPEG1Aud = 0x6B
)

const audioStream = 0x05

// ElemStreamDesc is the 'esds' extension of an 'mp4a' entry, reduced to the
// ES, decoder config and decoder specific descriptors.
type ElemStreamDesc struct {
	ESID       uint16
	ObjectType uint8
	StreamType uint8
	BufferSize uint32
	MaxBitrate uint32
	AvgBitrate uint32
	DecConfig  []byte
}

// IsAAC reports whether the object type is one of the AAC profiles.
func (esds *ElemStreamDesc) IsAAC() bool {
	switch esds.ObjectType {
	case ObjectTypeAAC, ObjectTypeAACMain, ObjectTypeAACLC, ObjectTypeAACSSR:
		return true
	}
	return false
}

// ElemStreamDesc decodes the entry's 'esds' extension, or returns nil when
// there is none.
func (e *SampleEntry) ElemStreamDesc() (*ElemStreamDesc, error) {
	box := e.Extension(ESDS)
	if box == nil {
		return nil, nil
	}
	esds := &ElemStreamDesc{}
	if err := esds.Unmarshal(box); err != nil {
		return nil, err
	}
	return esds, nil
}

func (esds *ElemStreamDesc) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	r.Skip(4) // version + flags
	if r.Err() != nil {
		return parseErr("esds", box.PayloadOffset(), nil)
	}
	return esds.parseDesc(r.Rest(), box.PayloadOffset()+4)
}

func (esds *ElemStreamDesc) parseDesc(b []byte, offset int) error {
	r := pio.NewReader(b)
	tag := r.U8()
	length := readDescLength(r)
	if r.Err() != nil || length > r.Remaining() {
		return parseErr("descriptor", offset+r.Pos(), nil)
	}
	body := pio.NewReader(r.Bytes(length))
	bodyOffset := offset + r.Pos() - length

	switch tag {
	case MP4ESDescrTag:
		esds.ESID = body.U16BE()
		flags := body.U8()
		if flags&0x80 != 0 {
			body.Skip(2) // depends-on ES_ID
		}
		if flags&0x40 != 0 {
			body.Skip(int(body.U8()))
		}
		if flags&0x20 != 0 {
			body.Skip(2) // OCR ES_ID
		}
		if body.Err() != nil {
			return parseErr("ESDescr", bodyOffset+body.Pos(), nil)
		}
		return esds.parseDesc(body.Rest(), bodyOffset+body.Pos())
	case MP4DecConfigDescrTag:
		esds.ObjectType = body.U8()
		esds.StreamType = body.U8() >> 2
		esds.BufferSize = body.U24BE()
		esds.MaxBitrate = body.U32BE()
		esds.AvgBitrate = body.U32BE()
		if body.Err() != nil {
			return parseErr("DecConfigDescr", bodyOffset+body.Pos(), nil)
		}
		if body.Remaining() == 0 {
			return nil
		}
		return esds.parseDesc(body.Rest(), bodyOffset+body.Pos())
	case MP4DecSpecificDescrTag:
		esds.DecConfig = body.Rest()
	}
	return nil
}

// readDescLength reads the 1 to 4 byte expandable length of a descriptor.
func readDescLength(r *pio.Reader) (length int) {
	for range 4 {
		c := r.U8()
		length = length<<7 | int(c&0x7f)
		if c&0x80 == 0 {
			break
		}
	}
	return
}

// putDescriptor writes tag, a 4 byte expandable length and body.
func putDescriptor(w *pio.Writer, tag uint8, body []byte) {
	w.PutU8(tag)
	n := len(body)
	w.PutU8(0x80 | byte(n>>21&0x7f))
	w.PutU8(0x80 | byte(n>>14&0x7f))
	w.PutU8(0x80 | byte(n>>7&0x7f))
	w.PutU8(byte(n & 0x7f))
	_, _ = w.Write(body)
}

func (esds *ElemStreamDesc) Marshal() Serialized {
	dec := pio.NewWriter(13 + 5 + len(esds.DecConfig))
	objectType := esds.ObjectType
	if objectType == 0 {
		objectType = ObjectTypeAAC
	}
	streamType := esds.StreamType
	if streamType == 0 {
		streamType = audioStream
	}
	dec.PutU8(objectType)
	dec.PutU8(streamType<<2 | 1)
	dec.PutU24BE(esds.BufferSize)
	dec.PutU32BE(esds.MaxBitrate)
	dec.PutU32BE(esds.AvgBitrate)
	if len(esds.DecConfig) > 0 {
		putDescriptor(dec, MP4DecSpecificDescrTag, esds.DecConfig)
	}

	es := pio.NewWriter(3 + 5 + dec.Len() + 6)
	es.PutU16BE(esds.ESID)
	es.PutU8(0)
	putDescriptor(es, MP4DecConfigDescrTag, dec.Bytes())
	putDescriptor(es, MP4SLConfigDescrTag, []byte{0x02})

	w := pio.NewWriter(4 + 5 + es.Len())
	w.PutU32BE(0)
	putDescriptor(w, MP4ESDescrTag, es.Bytes())
	return Leaf(ESDS, w.Bytes())
}
