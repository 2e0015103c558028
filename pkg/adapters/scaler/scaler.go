// Package scaler converts decoded frames to the display raster with the
// resampling kernels of golang.org/x/image/draw.
package scaler

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/ftvideo/pkg/frame"
	"github.com/user/ftvideo/pkg/ports"
)

// Kernel names a resampling kernel.
type Kernel string

const (
	KernelNearest    Kernel = "nearest"
	KernelBilinear   Kernel = "bilinear"
	KernelCatmullRom Kernel = "catmullrom"
)

// ErrUnknownKernel is returned for an unrecognized kernel name.
var ErrUnknownKernel = errors.New("scaler: unknown kernel")

// ParseKernel parses a kernel name. The empty string means bilinear.
func ParseKernel(s string) (Kernel, error) {
	switch Kernel(s) {
	case "":
		return KernelBilinear, nil
	case KernelNearest, KernelBilinear, KernelCatmullRom:
		return Kernel(s), nil
	}
	return "", fmt.Errorf("%w: %q (want nearest, bilinear or catmullrom)", ErrUnknownKernel, s)
}

func (k Kernel) interpolator() draw.Interpolator {
	switch k {
	case KernelNearest:
		return draw.NearestNeighbor
	case KernelCatmullRom:
		return draw.CatmullRom
	default:
		return draw.BiLinear
	}
}

// Converter resamples any image.Image into a reused RGB24 raster of fixed
// size. The source is stretched to fill the target; aspect ratio is not
// preserved.
type Converter struct {
	kernel Kernel
	interp draw.Interpolator
	out    *frame.RGB
}

// New creates a converter for a width x height target.
func New(width, height int, kernel Kernel) (*Converter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target %dx%d", ports.ErrAllocation, width, height)
	}
	k, err := ParseKernel(string(kernel))
	if err != nil {
		return nil, err
	}
	return &Converter{kernel: k, interp: k.interpolator(), out: frame.NewRGB(width, height)}, nil
}

// Convert resamples src into the target raster. The returned raster is
// overwritten by the next call.
func (c *Converter) Convert(src image.Image) (*frame.RGB, error) {
	if src == nil {
		return nil, errors.New("scaler: nil source image")
	}
	sb := src.Bounds()
	if sb.Empty() {
		return nil, fmt.Errorf("scaler: empty source %v", sb)
	}

	if sb.Dx() == c.out.Width() && sb.Dy() == c.out.Height() {
		if rgb, ok := src.(*frame.RGB); ok && rgb.Stride == c.out.Stride && rgb.Rect.Min == (image.Point{}) {
			copy(c.out.Pix, rgb.Pix)
			return c.out, nil
		}
		draw.Copy(c.out, image.Point{}, src, sb, draw.Src, nil)
		return c.out, nil
	}

	c.interp.Scale(c.out, c.out.Bounds(), src, sb, draw.Src, nil)
	return c.out, nil
}

func (c *Converter) Width() int  { return c.out.Width() }
func (c *Converter) Height() int { return c.out.Height() }

// Kernel returns the resampling kernel in use.
func (c *Converter) Kernel() Kernel { return c.kernel }

var _ ports.FrameConverter = (*Converter)(nil)

// Factory builds converters with a fixed kernel.
type Factory struct {
	Kernel Kernel
}

// NewConverter implements ports.ConverterFactory.
func (f Factory) NewConverter(width, height int) (ports.FrameConverter, error) {
	return New(width, height, f.Kernel)
}

var _ ports.ConverterFactory = Factory{}
