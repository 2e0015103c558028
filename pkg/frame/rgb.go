// Package frame provides the RGB24 raster that travels from the converter to
// the pixel display.
package frame

import (
	"image"
	"image/color"
)

// BytesPerPixel is the size of one RGB24 pixel.
const BytesPerPixel = 3

// RGB is a tightly packed 8-bit RGB raster. It implements draw.Image so the
// scaler can resample directly into it.
//
// A single RGB is reused across decode cycles: whoever holds it may overwrite
// its contents, and nobody keeps a reference past the stage that received it.
type RGB struct {
	// Pix holds the pixels in R, G, B order, row by row.
	Pix []byte
	// Stride is the distance in bytes between vertically adjacent pixels.
	Stride int
	// Rect is the image bounds.
	Rect image.Rectangle
}

// NewRGB allocates a black raster of the given size.
func NewRGB(width, height int) *RGB {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &RGB{
		Pix:    make([]byte, width*height*BytesPerPixel),
		Stride: width * BytesPerPixel,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// Width returns the raster width in pixels.
func (p *RGB) Width() int { return p.Rect.Dx() }

// Height returns the raster height in pixels.
func (p *RGB) Height() int { return p.Rect.Dy() }

// ColorModel implements image.Image.
func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (p *RGB) Bounds() image.Rectangle { return p.Rect }

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*BytesPerPixel
}

// At implements image.Image.
func (p *RGB) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: 0xff}
}

// Set implements draw.Image. Alpha is dropped; premultiplied colors are
// written as-is, which matches compositing over black.
func (p *RGB) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	r, g, b, _ := c.RGBA()
	p.Pix[i] = uint8(r >> 8)
	p.Pix[i+1] = uint8(g >> 8)
	p.Pix[i+2] = uint8(b >> 8)
}

// Row returns the bytes of row y, without padding.
func (p *RGB) Row(y int) []byte {
	start := p.PixOffset(p.Rect.Min.X, y)
	return p.Pix[start : start+p.Rect.Dx()*BytesPerPixel]
}

// Fill paints every pixel with c.
func (p *RGB) Fill(c color.RGBA) {
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		row := p.Row(y)
		for i := 0; i < len(row); i += BytesPerPixel {
			row[i] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
		}
	}
}

// Clear paints the raster black.
func (p *RGB) Clear() {
	for i := range p.Pix {
		p.Pix[i] = 0
	}
}

// FromPacked wraps an existing packed RGB24 buffer without copying. The buffer
// must hold at least width*height*3 bytes.
func FromPacked(pix []byte, width, height int) *RGB {
	return &RGB{
		Pix:    pix[:width*height*BytesPerPixel],
		Stride: width * BytesPerPixel,
		Rect:   image.Rect(0, 0, width, height),
	}
}
