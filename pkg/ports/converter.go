package ports

import (
	"image"

	"github.com/user/ftvideo/pkg/frame"
)

// FrameConverter maps a decoded frame onto the display raster: scaling plus
// conversion to RGB24.
type FrameConverter interface {
	// Convert resamples src into the converter's target raster and returns it.
	// The returned buffer is reused by the next call.
	Convert(src image.Image) (*frame.RGB, error)

	// Width returns the target width.
	Width() int

	// Height returns the target height.
	Height() int
}

// ConverterFactory builds a converter for a target geometry.
type ConverterFactory interface {
	NewConverter(width, height int) (FrameConverter, error)
}
