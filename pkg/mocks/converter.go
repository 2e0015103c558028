package mocks

import (
	"image"

	"github.com/user/ftvideo/pkg/frame"
	"github.com/user/ftvideo/pkg/ports"
)

// FrameConverter is a mock implementation of ports.FrameConverter. By default
// it fills its target with the color of the source's top-left pixel.
type FrameConverter struct {
	ConvertFunc func(src image.Image) (*frame.RGB, error)

	ConvertCalls int

	out *frame.RGB
}

// NewFrameConverter creates a mock converter for the given target geometry.
func NewFrameConverter(width, height int) *FrameConverter {
	return &FrameConverter{out: frame.NewRGB(width, height)}
}

func (m *FrameConverter) Convert(src image.Image) (*frame.RGB, error) {
	m.ConvertCalls++
	if m.ConvertFunc != nil {
		return m.ConvertFunc(src)
	}
	b := src.Bounds()
	r, g, bl, _ := src.At(b.Min.X, b.Min.Y).RGBA()
	for i := 0; i < len(m.out.Pix); i += frame.BytesPerPixel {
		m.out.Pix[i] = uint8(r >> 8)
		m.out.Pix[i+1] = uint8(g >> 8)
		m.out.Pix[i+2] = uint8(bl >> 8)
	}
	return m.out, nil
}

func (m *FrameConverter) Width() int  { return m.out.Width() }
func (m *FrameConverter) Height() int { return m.out.Height() }

var _ ports.FrameConverter = (*FrameConverter)(nil)

// ConverterFactory is a mock implementation of ports.ConverterFactory.
type ConverterFactory struct {
	Err error

	Built []*FrameConverter
}

func (m *ConverterFactory) NewConverter(width, height int) (ports.FrameConverter, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	c := NewFrameConverter(width, height)
	m.Built = append(m.Built, c)
	return c, nil
}

var _ ports.ConverterFactory = (*ConverterFactory)(nil)
