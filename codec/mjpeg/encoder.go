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
)

// Encoder turns images into JPEG samples, fitting them into the configured
// bounds first.
type Encoder struct {
	quality   int
	maxWidth  int
	maxHeight int
}

var _ boxmedia.FrameEncoder = (*Encoder)(nil)

// NewEncoder clamps quality to 1..100.
func NewEncoder(quality, maxWidth, maxHeight int) *Encoder {
	return &Encoder{quality: min(max(quality, 1), 100), maxWidth: maxWidth, maxHeight: maxHeight} //nolint:mnd
}

func (e *Encoder) Encode(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, errors.New("mjpeg: nil image")
	}
	b := img.Bounds()
	if w, h := FitWithin(b.Dx(), b.Dy(), e.maxWidth, e.maxHeight); w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Rect, img, b, draw.Src, nil)
		img = dst
	}
	if p, ok := img.(*rgb.Image); ok {
		img = p.RGBA()
	}
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("mjpeg: %w", err)
	}
	return buf.Bytes(), nil
}
