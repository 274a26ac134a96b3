// Package rgb is a packed 24-bit image for decoded video frames, which never
// carry alpha.
package rgb

import (
	"image"
	"image/color"
)

const bytesPerPix = 3

// Color is an opaque 8-bit RGB color.
type Color struct {
	R, G, B byte
}

func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Model converts any color to Color, dropping alpha.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	if rgb, ok := c.(Color); ok {
		return rgb
	}
	r, g, b, _ := c.RGBA()
	return Color{byte(r >> 8), byte(g >> 8), byte(b >> 8)}
})

// Image stores pixels as R, G, B triples row by row.
type Image struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func New(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]byte, bytesPerPix*r.Dx()*r.Dy()),
		Stride: bytesPerPix * r.Dx(),
		Rect:   r,
	}
}

func (p *Image) ColorModel() color.Model { return Model }
func (p *Image) Bounds() image.Rectangle { return p.Rect }
func (p *Image) Opaque() bool            { return true }

func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*bytesPerPix
}

func (p *Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return Color{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	return Color{s[0], s[1], s[2]}
}

func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	c1, _ := Model.Convert(c).(Color)
	s := p.Pix[i : i+3 : i+3]
	s[0], s[1], s[2] = c1.R, c1.G, c1.B
}

// SubImage shares pixels with p.
func (p *Image) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &Image{Rect: r}
	}
	i := p.PixOffset(r.Min.X, r.Min.Y)
	return &Image{Pix: p.Pix[i:], Stride: p.Stride, Rect: r}
}

// RGBA expands p into a new image.RGBA, the form image/jpeg encodes fastest.
func (p *Image) RGBA() *image.RGBA {
	dst := image.NewRGBA(p.Rect)
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		src := p.Pix[p.PixOffset(p.Rect.Min.X, y):]
		row := dst.Pix[dst.PixOffset(p.Rect.Min.X, y):]
		for x := range p.Rect.Dx() {
			row[4*x] = src[3*x]
			row[4*x+1] = src[3*x+1]
			row[4*x+2] = src[3*x+2]
			row[4*x+3] = 0xff
		}
	}
	return dst
}
