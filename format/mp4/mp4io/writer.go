package mp4io

import (
	"fmt"

	"github.com/ugparu/boxmedia/utils"
	"github.com/ugparu/boxmedia/utils/bits/pio"
)

// PatchSite is a field inside serialized bytes whose value is only known
// after layout: a chunk offset that depends on where 'mdat' lands.
type PatchSite struct {
	Offset int // position of the field inside the serialized bytes
	Width  int // 4 or 8
	Box    Tag
	Track  uint32
	Index  int // entry index inside the owning table
}

// Serialized is a finished box: its bytes plus the patch sites inside them.
// Builders only ever produce these; nothing is addressable as a tree
// after serialization except through Sites.
type Serialized struct {
	Bytes []byte
	Sites []PatchSite
}

func (s Serialized) Len() int {
	return len(s.Bytes)
}

// Leaf prepends an 8-byte header to payload.
func Leaf(t Tag, payload []byte) Serialized {
	b := make([]byte, HeaderSize+len(payload))
	pio.PutU32BE(b, uint32(len(b)))
	pio.PutU32BE(b[4:], uint32(t))
	copy(b[HeaderSize:], payload)
	return Serialized{Bytes: b}
}

// LeafWithSites is Leaf for a payload that carries patch sites; site offsets
// are relative to the start of payload.
func LeafWithSites(t Tag, payload []byte, sites []PatchSite) Serialized {
	s := Leaf(t, payload)
	s.Sites = make([]PatchSite, len(sites))
	for i, site := range sites {
		site.Offset += HeaderSize
		s.Sites[i] = site
	}
	return s
}

// Container wraps already-built children in a box of type t. Children keep
// their order; their patch sites are rebased onto the new bytes.
func Container(t Tag, children ...Serialized) Serialized {
	return containerWithPrefix(t, nil, children)
}

// FullContainer is Container for boxes that carry a version/flags word (or
// any fixed prefix) ahead of their children, such as 'stsd' and 'dref'.
func FullContainer(t Tag, prefix []byte, children ...Serialized) Serialized {
	return containerWithPrefix(t, prefix, children)
}

func containerWithPrefix(t Tag, prefix []byte, children []Serialized) Serialized {
	size := HeaderSize + len(prefix)
	for _, c := range children {
		size += c.Len()
	}
	out := Serialized{Bytes: make([]byte, HeaderSize, size)}
	pio.PutU32BE(out.Bytes, uint32(size))
	pio.PutU32BE(out.Bytes[4:], uint32(t))
	out.Bytes = append(out.Bytes, prefix...)
	for _, c := range children {
		base := len(out.Bytes)
		for _, site := range c.Sites {
			site.Offset += base
			out.Sites = append(out.Sites, site)
		}
		out.Bytes = append(out.Bytes, c.Bytes...)
	}
	return out
}

// Concat joins top-level boxes the way Container joins children, without a header.
func Concat(parts ...Serialized) Serialized {
	var out Serialized
	for _, p := range parts {
		base := len(out.Bytes)
		for _, site := range p.Sites {
			site.Offset += base
			out.Sites = append(out.Sites, site)
		}
		out.Bytes = append(out.Bytes, p.Bytes...)
	}
	return out
}

// Patch writes v into the field described by site.
func Patch(b []byte, site PatchSite, v uint64) error {
	if site.Offset < 0 || site.Offset+site.Width > len(b) {
		return utils.RelocationError{
			Reason: fmt.Sprintf("patch site %s[%d] at %d outside %d bytes", site.Box, site.Index, site.Offset, len(b)),
		}
	}
	switch site.Width {
	case 4:
		if v > 0xFFFFFFFF {
			return utils.RelocationError{
				Reason: fmt.Sprintf("offset %d does not fit 32-bit %s[%d]", v, site.Box, site.Index),
			}
		}
		pio.PutU32BE(b[site.Offset:], uint32(v))
	case 8:
		pio.PutU64BE(b[site.Offset:], v)
	default:
		return utils.RelocationError{Reason: fmt.Sprintf("unsupported field width %d", site.Width)}
	}
	return nil
}

func fullBoxPrefix(version uint8, flags uint32) []byte {
	b := make([]byte, fullBoxHeaderSize)
	b[0] = version
	pio.PutU24BE(b[1:], flags)
	return b
}
