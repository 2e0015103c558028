// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/ftvideo/pkg/ports"
)

// DefaultJPEGQuality is used for JPEG frames unless WithQuality says otherwise.
const DefaultJPEGQuality = 90

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("filesink: unknown image format")

// ParseFormat maps "png" (or "") and "jpeg"/"jpg" to an image format.
func ParseFormat(s string) (ports.ImageFormat, error) {
	switch s {
	case "", "png":
		return ports.FormatPNG, nil
	case "jpeg", "jpg":
		return ports.FormatJPEG, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Sink writes every emitted frame under
// <baseDir>/<session>/pass-NNN/frame-NNNNN.{png,jpg} and the stream metadata
// as <baseDir>/<session>/stream.json.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
	format   ports.ImageFormat
	quality  int
}

// Option configures a Sink.
type Option func(*Sink)

// WithFormat selects the frame encoding. PNG is the default.
func WithFormat(format ports.ImageFormat) Option {
	return func(s *Sink) { s.format = format }
}

// WithQuality sets the JPEG quality, 1..100.
func WithQuality(quality int) Option {
	return func(s *Sink) { s.quality = quality }
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer, opts ...Option) *Sink {
	s := &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		format:   ports.FormatPNG,
		quality:  DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveFrame saves a frame as sent to the display.
func (s *Sink) SaveFrame(session string, pass, index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, session, fmt.Sprintf("pass-%03d", pass))
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, s.format, s.quality)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	ext := "png"
	if s.format == ports.FormatJPEG {
		ext = "jpg"
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%05d.%s", index, ext))
	return s.fs.WriteFile(path, data)
}

// SaveStreamInfo saves the stream metadata as JSON.
func (s *Sink) SaveStreamInfo(session string, data []byte) error {
	path := filepath.Join(s.baseDir, session, "stream.json")
	return s.fs.WriteFile(path, data)
}

var _ ports.DebugSink = (*Sink)(nil)
