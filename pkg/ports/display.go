package ports

import "github.com/user/ftvideo/pkg/frame"

// Offset places a display raster on the remote device.
type Offset struct {
	X     int
	Y     int
	Layer int // 0..15, 0 is the background layer
}

// PixelSink transmits converted frames to a pixel display. Geometry and offset
// are fixed at construction.
type PixelSink interface {
	// Width returns the target raster width.
	Width() int

	// Height returns the target raster height.
	Height() int

	// Offset returns the device offset the sink writes to.
	Offset() Offset

	// Emit transmits one frame. The frame is only read during the call.
	Emit(f *frame.RGB) error

	// Clear blanks the sink's area on the device.
	Clear() error

	// Close releases the transport.
	Close() error
}
