// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/ftvideo/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveFrame does nothing.
func (s *Sink) SaveFrame(session string, pass, index int, img image.Image) error {
	return nil
}

// SaveStreamInfo does nothing.
func (s *Sink) SaveStreamInfo(session string, data []byte) error {
	return nil
}

var _ ports.DebugSink = (*Sink)(nil)
