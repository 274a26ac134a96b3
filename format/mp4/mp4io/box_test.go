package mp4io

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/boxmedia/utils/bits/pio"
)

func rawBox(tag string, payload ...[]byte) []byte {
	body := bytes.Join(payload, nil)
	b := make([]byte, 8, 8+len(body))
	pio.PutU32BE(b, uint32(8+len(body)))
	copy(b[4:], tag)
	return append(b, body...)
}

func largeBox(tag string, payload []byte) []byte {
	b := make([]byte, 16, 16+len(payload))
	pio.PutU32BE(b, 1)
	copy(b[4:], tag)
	pio.PutU64BE(b[8:], uint64(16+len(payload)))
	return append(b, payload...)
}

func checkSizes(t *testing.T, boxes []*Box, end int) {
	t.Helper()
	for _, b := range boxes {
		require.GreaterOrEqual(t, b.Size, uint64(b.HeaderLen))
		require.LessOrEqual(t, b.End(), end)
		if b.IsContainer() {
			sum := uint64(b.HeaderLen + b.childSkip)
			for _, c := range b.Children {
				sum += c.Size
			}
			require.Equal(t, b.Size, sum, "%s", b)
			checkSizes(t, b.Children, b.End())
		}
	}
}

func TestParseNestedTree(t *testing.T) {
	t.Parallel()

	buf := bytes.Join([][]byte{
		rawBox("ftyp", []byte("qt  "), make([]byte, 4)),
		rawBox("moov",
			rawBox("mvhd", make([]byte, 100)),
			rawBox("trak",
				rawBox("tkhd", make([]byte, 84)),
				rawBox("mdia", rawBox("mdhd", make([]byte, 24))),
			),
		),
		rawBox("mdat", []byte{1, 2, 3}),
	}, nil)

	boxes := Parse(buf, 0, len(buf))
	require.Len(t, boxes, 3)
	require.Equal(t, FTYP, boxes[0].Type)
	require.Equal(t, MOOV, boxes[1].Type)
	require.True(t, boxes[1].IsContainer())
	require.Len(t, boxes[1].Children, 2)
	require.Equal(t, MDAT, boxes[2].Type)
	require.Equal(t, []byte{1, 2, 3}, boxes[2].Payload)
	checkSizes(t, boxes, len(buf))

	mdhd := FindFirst(boxes, MDHD)
	require.NotNil(t, mdhd)
	require.Equal(t, 8+8+108+8+92+8+8, mdhd.Offset)
	require.Equal(t, mdhd, FindPath(boxes, MOOV, TRAK, MDIA, MDHD))
	require.Nil(t, FindPath(boxes, MOOV, MDIA))
	require.Nil(t, FindFirst(boxes, STBL))
}

func TestParseOrderIsSourceOrder(t *testing.T) {
	t.Parallel()

	buf := rawBox("udta",
		rawBox("zzzz", []byte{1}),
		rawBox("aaaa", []byte{2}),
		rawBox("mmmm", []byte{3}),
	)
	boxes := Parse(buf, 0, len(buf))
	var seen []string
	Walk(boxes, func(b *Box, _ int) bool {
		seen = append(seen, b.Type.String())
		return true
	})
	require.Equal(t, []string{"udta", "zzzz", "aaaa", "mmmm"}, seen)
	require.Equal(t, buf, boxes[0].Marshal().Bytes)
}

func TestParseLargeSize(t *testing.T) {
	t.Parallel()

	buf := append(largeBox("mdat", []byte{9, 9, 9, 9}), rawBox("free")...)
	boxes := Parse(buf, 0, len(buf))
	require.Len(t, boxes, 2)
	require.Equal(t, 16, boxes[0].HeaderLen)
	require.Equal(t, uint64(20), boxes[0].Size)
	require.Equal(t, []byte{9, 9, 9, 9}, boxes[0].Payload)
	require.Equal(t, FREE, boxes[1].Type)
}

func TestParseZeroSizeExtendsToRangeEnd(t *testing.T) {
	t.Parallel()

	last := rawBox("mdat", []byte{1, 2, 3, 4, 5})
	pio.PutU32BE(last, 0)
	buf := append(rawBox("ftyp", []byte("3gp4")), last...)

	boxes := Parse(buf, 0, len(buf))
	require.Len(t, boxes, 2)
	require.Equal(t, uint64(13), boxes[1].Size)
	require.Equal(t, []byte{1, 2, 3, 4, 5}, boxes[1].Payload)
}

func TestParseStopsOnUndersizedBox(t *testing.T) {
	t.Parallel()

	bad := rawBox("junk", []byte{0, 0, 0, 0})
	pio.PutU32BE(bad, 4)
	buf := bytes.Join([][]byte{rawBox("free", []byte{1}), bad, rawBox("free")}, nil)

	boxes, warnings := ParseWithWarnings(buf, 0, len(buf))
	require.Len(t, boxes, 1)
	require.Len(t, warnings, 1)
	require.Equal(t, "junk", warnings[0].Box)
	require.Equal(t, 9, warnings[0].Offset)
}

func TestParseStopsOnOverlongBox(t *testing.T) {
	t.Parallel()

	inner := rawBox("mvhd", make([]byte, 8))
	pio.PutU32BE(inner, 1000)
	buf := rawBox("moov", rawBox("free"), inner)

	boxes, warnings := ParseWithWarnings(buf, 0, len(buf))
	require.Len(t, boxes, 1)
	require.Len(t, boxes[0].Children, 1)
	require.Len(t, warnings, 1)
	require.Equal(t, 1000, warnings[0].Need)
}

func TestParseTruncatedLargeHeader(t *testing.T) {
	t.Parallel()

	buf := largeBox("mdat", nil)[:12]
	boxes, warnings := ParseWithWarnings(buf, 0, len(buf))
	require.Empty(t, boxes)
	require.Len(t, warnings, 1)
}

func TestParseRangeBeyondBuffer(t *testing.T) {
	t.Parallel()

	buf := rawBox("free")
	boxes, warnings := ParseWithWarnings(buf, 0, 100)
	require.Len(t, boxes, 1)
	require.Len(t, warnings, 1)
	require.Empty(t, Parse(buf, 5, 2))
}

func TestParseIgnoresTrailingBytes(t *testing.T) {
	t.Parallel()

	buf := append(rawBox("free"), 1, 2, 3)
	boxes, warnings := ParseWithWarnings(buf, 0, len(buf))
	require.Len(t, boxes, 1)
	require.Empty(t, warnings)
}

func TestParseMetaFlavours(t *testing.T) {
	t.Parallel()

	hdlr := rawBox("hdlr", make([]byte, 25))
	ilst := rawBox("ilst", rawBox("\xa9nam", []byte("x")))

	iso := rawBox("meta", make([]byte, 4), hdlr, ilst)
	boxes := Parse(iso, 0, len(iso))
	require.Len(t, boxes[0].Children, 2)
	require.Equal(t, HDLR, boxes[0].Children[0].Type)
	require.Equal(t, ILST, boxes[0].Children[1].Type)
	require.Len(t, boxes[0].Children[1].Children, 1)
	checkSizes(t, boxes, len(iso))
	require.Equal(t, iso, boxes[0].Marshal().Bytes)

	qt := rawBox("meta", hdlr, ilst)
	boxes = Parse(qt, 0, len(qt))
	require.Len(t, boxes[0].Children, 2)
	checkSizes(t, boxes, len(qt))
}

func TestFindAllAndFprint(t *testing.T) {
	t.Parallel()

	buf := rawBox("moov",
		rawBox("trak", rawBox("tkhd", []byte{1})),
		rawBox("trak", rawBox("tkhd", []byte{2})),
	)
	boxes := Parse(buf, 0, len(buf))
	tkhds := FindAll(boxes, TKHD)
	require.Len(t, tkhds, 2)
	require.Equal(t, []byte{2}, tkhds[1].Payload)

	var out bytes.Buffer
	Fprint(&out, boxes)
	require.Equal(t,
		"moov offset=0 size=42\n"+
			"  trak offset=8 size=17\n"+
			"    tkhd offset=16 size=9\n"+
			"  trak offset=25 size=17\n"+
			"    tkhd offset=33 size=9\n",
		out.String())
}

func TestParseEmbeddedOffsets(t *testing.T) {
	t.Parallel()

	boxes := ParseEmbedded(rawBox("avcC", []byte{1, 2}), 500)
	require.Len(t, boxes, 1)
	require.Equal(t, 500, boxes[0].Offset)
	require.Equal(t, 508, boxes[0].PayloadOffset())
}
