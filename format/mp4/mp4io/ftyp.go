package mp4io

import (
	"github.com/ugparu/boxmedia/utils/bits/pio"
)

const (
	bytesPerBrand       = 4
	defaultMinorVersion = 0x200
)

// NewFileType builds an ftyp with the default minor version.
func NewFileType(major string, compatible ...string) *FileType {
	f := &FileType{
		MajorBrand:   StringToTag(major),
		MinorVersion: defaultMinorVersion,
	}
	for _, c := range compatible {
		f.CompatibleBrands = append(f.CompatibleBrands, StringToTag(c))
	}
	return f
}

type FileType struct {
	MajorBrand       Tag
	MinorVersion     uint32
	CompatibleBrands []Tag
}

func (f *FileType) Compatible(brand string) bool {
	t := StringToTag(brand)
	if f.MajorBrand == t {
		return true
	}
	for _, c := range f.CompatibleBrands {
		if c == t {
			return true
		}
	}
	return false
}

func (f *FileType) Unmarshal(box *Box) error {
	r := pio.NewReader(box.Payload)
	f.MajorBrand = Tag(r.U32BE())
	f.MinorVersion = r.U32BE()
	if r.Err() != nil {
		return parseErr("MajorBrand", box.PayloadOffset(), nil)
	}
	f.CompatibleBrands = f.CompatibleBrands[:0]
	for r.Remaining() >= bytesPerBrand {
		f.CompatibleBrands = append(f.CompatibleBrands, Tag(r.U32BE()))
	}
	return nil
}

func (f *FileType) Marshal() Serialized {
	w := pio.NewWriter(8 + bytesPerBrand*len(f.CompatibleBrands))
	w.PutU32BE(uint32(f.MajorBrand))
	w.PutU32BE(f.MinorVersion)
	for _, v := range f.CompatibleBrands {
		w.PutU32BE(uint32(v))
	}
	return Leaf(FTYP, w.Bytes())
}
