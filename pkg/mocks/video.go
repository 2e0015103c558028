package mocks

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/user/ftvideo/pkg/ports"
)

// VideoSource is a mock implementation of ports.VideoSource that yields
// Frames solid-colored frames per pass.
type VideoSource struct {
	mu sync.Mutex

	StreamInfo ports.StreamInfo
	Frames     int

	// DecodeErrorAt lists frame indices that fail with ErrDecode once per pass
	// before the frame itself is produced.
	DecodeErrorAt map[int]bool

	// OnFrame runs before each frame is returned; tests use it to advance a
	// fake clock or trip the latch.
	OnFrame func(index int)

	NextVideoFrameFunc func() (ports.VideoFrame, error)
	SeekToStartFunc    func() error
	CloseFunc          func() error

	// Recorded calls for verification
	NextCalls  int
	SeekCalls  int
	CloseCalls int

	pos        int
	failedHere bool
	img        *image.RGBA
}

// NewVideoSource creates a mock source with the given geometry, frame rate and
// frames per pass.
func NewVideoSource(width, height int, fps float64, frames int) *VideoSource {
	return &VideoSource{
		StreamInfo: ports.StreamInfo{
			FrameRate:   fps,
			Width:       width,
			Height:      height,
			PixelFormat: "rgba",
			Codec:       "mock",
			Duration:    time.Duration(float64(frames) / fps * float64(time.Second)),
		},
		Frames: frames,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (m *VideoSource) Info() ports.StreamInfo {
	return m.StreamInfo
}

func (m *VideoSource) NextVideoFrame() (ports.VideoFrame, error) {
	m.mu.Lock()
	m.NextCalls++
	m.mu.Unlock()

	if m.NextVideoFrameFunc != nil {
		return m.NextVideoFrameFunc()
	}
	if m.pos >= m.Frames {
		return ports.VideoFrame{}, ports.ErrEndOfStream
	}
	if m.DecodeErrorAt[m.pos] && !m.failedHere {
		m.failedHere = true
		return ports.VideoFrame{}, ports.ErrDecode
	}
	m.failedHere = false

	index := m.pos
	m.pos++
	if m.OnFrame != nil {
		m.OnFrame(index)
	}

	c := uint8(index * 16)
	for i := 0; i < len(m.img.Pix); i += 4 {
		m.img.Pix[i] = c
		m.img.Pix[i+1] = 255 - c
		m.img.Pix[i+2] = c / 2
		m.img.Pix[i+3] = 255
	}
	return ports.VideoFrame{
		Image: m.img,
		Index: index,
		PTS:   time.Duration(float64(index) / m.StreamInfo.FrameRate * float64(time.Second)),
	}, nil
}

func (m *VideoSource) SeekToStart() error {
	m.mu.Lock()
	m.SeekCalls++
	m.mu.Unlock()

	if m.SeekToStartFunc != nil {
		if err := m.SeekToStartFunc(); err != nil {
			return err
		}
	}
	m.pos = 0
	return nil
}

func (m *VideoSource) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ ports.VideoSource = (*VideoSource)(nil)

// SourceOpener is a mock implementation of ports.SourceOpener.
type SourceOpener struct {
	mu sync.Mutex

	// Sources maps a path to the source returned for it. Unknown paths fail
	// with ErrOpen.
	Sources map[string]*VideoSource
	Err     map[string]error

	Opened []string
}

// NewSourceOpener creates an empty mock opener.
func NewSourceOpener() *SourceOpener {
	return &SourceOpener{
		Sources: make(map[string]*VideoSource),
		Err:     make(map[string]error),
	}
}

func (m *SourceOpener) Open(_ context.Context, path string) (ports.VideoSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Opened = append(m.Opened, path)
	if err, ok := m.Err[path]; ok {
		return nil, err
	}
	if src, ok := m.Sources[path]; ok {
		return src, nil
	}
	return nil, ports.ErrOpen
}

var _ ports.SourceOpener = (*SourceOpener)(nil)
