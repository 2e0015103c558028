package mocks

import (
	"sync"

	"github.com/user/ftvideo/pkg/frame"
	"github.com/user/ftvideo/pkg/ports"
)

// PixelSink is a mock implementation of ports.PixelSink that keeps a copy of
// every emitted frame.
type PixelSink struct {
	mu sync.Mutex

	width  int
	height int
	offset ports.Offset

	EmitFunc  func(f *frame.RGB) error
	ClearFunc func() error

	// Recorded calls for verification
	Emitted    [][]byte
	ClearCalls int
	CloseCalls int
}

// NewPixelSink creates a mock sink with a fixed geometry.
func NewPixelSink(width, height int, offset ports.Offset) *PixelSink {
	return &PixelSink{width: width, height: height, offset: offset}
}

func (m *PixelSink) Width() int           { return m.width }
func (m *PixelSink) Height() int          { return m.height }
func (m *PixelSink) Offset() ports.Offset { return m.offset }

func (m *PixelSink) Emit(f *frame.RGB) error {
	m.mu.Lock()
	buf := make([]byte, len(f.Pix))
	copy(buf, f.Pix)
	m.Emitted = append(m.Emitted, buf)
	m.mu.Unlock()

	if m.EmitFunc != nil {
		return m.EmitFunc(f)
	}
	return nil
}

func (m *PixelSink) Clear() error {
	m.mu.Lock()
	m.ClearCalls++
	m.mu.Unlock()

	if m.ClearFunc != nil {
		return m.ClearFunc()
	}
	return nil
}

func (m *PixelSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

// EmitCount returns the number of frames emitted so far.
func (m *PixelSink) EmitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Emitted)
}

var _ ports.PixelSink = (*PixelSink)(nil)
