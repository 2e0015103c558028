package mocks

import (
	"image"
	"sync"

	"github.com/user/ftvideo/pkg/ports"
)

// SavedFrame records one SaveFrame call.
type SavedFrame struct {
	Session string
	Pass    int
	Index   int
	Bounds  image.Rectangle
}

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Frames     []SavedFrame
	StreamInfo map[string][]byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:    enabled,
		StreamInfo: make(map[string][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveFrame(session string, pass, index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames = append(m.Frames, SavedFrame{Session: session, Pass: pass, Index: index, Bounds: img.Bounds()})
	return nil
}

func (m *DebugSink) SaveStreamInfo(session string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StreamInfo[session] = data
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
