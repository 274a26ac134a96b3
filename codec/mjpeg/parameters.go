package mjpeg

import (
	"fmt"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/codec"
	"github.com/ugparu/boxmedia/format/mp4/mp4io"
)

// compressorName is what QuickTime writes for its Photo-JPEG codec.
const compressorName = "Photo - JPEG"

// CodecParameters describes a motion-JPEG track.
type CodecParameters struct {
	codec.Base
	width  uint
	height uint
	fps    uint
}

var _ boxmedia.VideoCodecParameters = (*CodecParameters)(nil)

// NewCodecParameters describes a track to be written with 'jpeg' entries.
func NewCodecParameters(width, height, fps uint) *CodecParameters {
	return &CodecParameters{Base: codec.NewBase(boxmedia.MJPEG, "jpeg"), width: width, height: height, fps: fps}
}

// ParametersFromEntry reads the parameters of a stored track from its
// visual sample entry.
func ParametersFromEntry(trackID uint32, entry *mp4io.SampleEntry, fps uint) (*CodecParameters, error) {
	base, err := codec.FromEntry(trackID, entry, boxmedia.MJPEG)
	if err != nil {
		return nil, err
	}
	if entry.Visual == nil {
		return nil, fmt.Errorf("mjpeg: track %d: entry %q has no visual description", trackID, entry.Format)
	}
	par := &CodecParameters{Base: base, width: uint(entry.Visual.Width), height: uint(entry.Visual.Height), fps: fps}
	return par, nil
}

// SampleEntry builds the visual sample entry the track is written with.
func (par *CodecParameters) SampleEntry() *mp4io.SampleEntry {
	visual := mp4io.NewVisualSampleEntry(uint16(par.width), uint16(par.height)) //nolint:gosec
	visual.CompressorName = compressorName
	visual.TemporalQuality, visual.SpatialQuality = 512, 512 //nolint:mnd
	return &mp4io.SampleEntry{Format: par.Fourcc, DataRefIdx: 1, Visual: visual}
}

func (par *CodecParameters) Width() uint  { return par.width }
func (par *CodecParameters) Height() uint { return par.height }
func (par *CodecParameters) FPS() uint    { return par.fps }

func (par *CodecParameters) Tag() string {
	return fmt.Sprintf("mjpeg.%s.%dx%d", par.Format(), par.width, par.height)
}
