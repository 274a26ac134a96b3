// Package mjpeg decodes and encodes motion-JPEG samples: every sample is a
// complete JPEG image.
package mjpeg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/ugparu/boxmedia"
	"github.com/ugparu/boxmedia/frame/rgb"
	"github.com/ugparu/boxmedia/utils/logger"
)

var errEmptySample = errors.New("mjpeg: empty sample")

// Decoder turns JPEG samples into images no larger than the configured
// bounds. A zero bound does not limit that dimension.
type Decoder struct {
	maxWidth  int
	maxHeight int
	scaler    draw.Scaler
}

var _ boxmedia.FrameDecoder = (*Decoder)(nil)

func NewDecoder(maxWidth, maxHeight int) *Decoder {
	return &Decoder{maxWidth: maxWidth, maxHeight: maxHeight, scaler: draw.ApproxBiLinear}
}

func (d *Decoder) String() string {
	return fmt.Sprintf("MJPEG_DECODER max=%dx%d", d.maxWidth, d.maxHeight)
}

// Decode decodes one sample, downscaling it with preserved aspect ratio
// when it exceeds the bounds.
func (d *Decoder) Decode(sample []byte) (image.Image, error) {
	if len(sample) == 0 {
		return nil, errEmptySample
	}
	img, err := jpeg.Decode(bytes.NewReader(sample))
	if err != nil {
		return nil, fmt.Errorf("mjpeg: %w", err)
	}
	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), d.maxWidth, d.maxHeight)
	if w == b.Dx() && h == b.Dy() {
		return img, nil
	}
	logger.Tracef(d, "scaling %dx%d to %dx%d", b.Dx(), b.Dy(), w, h)
	dst := rgb.New(image.Rect(0, 0, w, h))
	d.scaler.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst, nil
}

// Config reads the dimensions of a sample without decoding it.
func Config(sample []byte) (width, height int, err error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(sample))
	if err != nil {
		return 0, 0, fmt.Errorf("mjpeg: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// FitWithin scales w×h down to fit maxW×maxH keeping the aspect ratio.
// Sizes already inside the bounds are returned unchanged; a zero bound is
// unlimited. Results are at least 1×1.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 && h > maxH {
		scale = min(scale, float64(maxH)/float64(h))
	}
	if scale == 1 {
		return w, h
	}
	return max(int(float64(w)*scale+0.5), 1), max(int(float64(h)*scale+0.5), 1)
}
