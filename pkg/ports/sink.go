package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving emitted frames for inspection without a display.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveFrame saves a frame as sent to the display.
	SaveFrame(session string, pass, index int, img image.Image) error

	// SaveStreamInfo saves the stream metadata of a session as JSON.
	SaveStreamInfo(session string, data []byte) error
}
