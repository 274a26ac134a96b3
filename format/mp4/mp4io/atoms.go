package mp4io

// Box types known to the engine.
const (
	FTYP = Tag(0x66747970)
	MOOV = Tag(0x6d6f6f76)
	MVHD = Tag(0x6d766864)
	TRAK = Tag(0x7472616b)
	TKHD = Tag(0x746b6864)
	EDTS = Tag(0x65647473)
	ELST = Tag(0x656c7374)
	MDIA = Tag(0x6d646961)
	MDHD = Tag(0x6d646864)
	HDLR = Tag(0x68646c72)
	MINF = Tag(0x6d696e66)
	VMHD = Tag(0x766d6864)
	SMHD = Tag(0x736d6864)
	DINF = Tag(0x64696e66)
	DREF = Tag(0x64726566)
	URL  = Tag(0x75726c20)
	STBL = Tag(0x7374626c)
	STSD = Tag(0x73747364)
	STTS = Tag(0x73747473)
	CTTS = Tag(0x63747473)
	STSC = Tag(0x73747363)
	STSZ = Tag(0x7374737a)
	STZ2 = Tag(0x73747a32)
	STCO = Tag(0x7374636f)
	CO64 = Tag(0x636f3634)
	STSS = Tag(0x73747373)
	UDTA = Tag(0x75647461)
	META = Tag(0x6d657461)
	ILST = Tag(0x696c7374)
	MDAT = Tag(0x6d646174)
	FREE = Tag(0x66726565)
	SKIP = Tag(0x736b6970)
	WIDE = Tag(0x77696465)
)

// Handler types carried by 'hdlr'.
var (
	VideoHandler = [4]byte{'v', 'i', 'd', 'e'}
	SoundHandler = [4]byte{'s', 'o', 'u', 'n'}
)

// containers is the fixed set of types whose payload is a sequence of boxes.
// Everything else is kept as an opaque payload.
var containers = map[Tag]struct{}{
	MOOV: {},
	TRAK: {},
	MDIA: {},
	MINF: {},
	STBL: {},
	DINF: {},
	EDTS: {},
	UDTA: {},
	META: {},
	ILST: {},
}

func IsContainer(t Tag) bool {
	_, ok := containers[t]
	return ok
}
