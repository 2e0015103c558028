package ports

import (
	"context"
	"errors"
	"image"
	"math"
	"time"
)

var (
	// ErrOpen is returned when a media file cannot be opened or read.
	ErrOpen = errors.New("open failed")

	// ErrNoVideoStream is returned when a container has no decodable video stream.
	ErrNoVideoStream = errors.New("no video stream")

	// ErrUnsupportedCodec is returned when no decoder exists for the video codec.
	ErrUnsupportedCodec = errors.New("unsupported codec")

	// ErrAllocation is returned when decode or conversion buffers cannot be set up.
	ErrAllocation = errors.New("buffer allocation failed")

	// ErrDecode marks a single packet that failed to decode. It is not terminal.
	ErrDecode = errors.New("decode failed")

	// ErrEndOfStream is returned by NextVideoFrame once the pass is exhausted.
	ErrEndOfStream = errors.New("end of stream")

	// ErrSeek is returned when rewinding to the start of the stream fails.
	ErrSeek = errors.New("seek failed")
)

// StreamInfo describes the selected video stream of an opened source.
type StreamInfo struct {
	FrameRate   float64       // Frames per second, always > 0 for an opened source
	Width       int           // Source width in pixels
	Height      int           // Source height in pixels
	PixelFormat string        // Native pixel format name (e.g. "yuv420p")
	Codec       string        // Codec name (e.g. "h264")
	Duration    time.Duration // Container duration, 0 if unknown
	StartTime   time.Duration // Stream start timestamp
	Container   string        // Container/format name, informational
}

// VideoFrame is a decoded raster handed from the source to the converter.
// The image belongs to the source and is only valid until the next call to
// NextVideoFrame or SeekToStart.
type VideoFrame struct {
	Image image.Image
	Index int           // Ordinal within the current pass, starting at 0
	PTS   time.Duration // Presentation timestamp relative to stream start
}

// VideoSource produces decoded frames from one opened media file.
type VideoSource interface {
	// Info returns the stream metadata read when the source was opened.
	Info() StreamInfo

	// NextVideoFrame returns the next decoded video frame. Packets of other
	// streams are skipped. Returns ErrEndOfStream at the end of a pass and an
	// error wrapping ErrDecode for a packet that could not be decoded.
	NextVideoFrame() (VideoFrame, error)

	// SeekToStart rewinds to the stream's start timestamp.
	SeekToStart() error

	// Close releases decoder and container resources.
	Close() error
}

// SourceOpener opens a VideoSource for a path.
type SourceOpener interface {
	// Open opens path and reads its stream metadata. Errors wrap ErrOpen,
	// ErrNoVideoStream, ErrUnsupportedCodec or ErrAllocation.
	Open(ctx context.Context, path string) (VideoSource, error)
}

// OpenerFunc is a function adapter for SourceOpener.
type OpenerFunc func(ctx context.Context, path string) (VideoSource, error)

// Open implements SourceOpener.
func (f OpenerFunc) Open(ctx context.Context, path string) (VideoSource, error) {
	return f(ctx, path)
}

// ResolveFrameRate returns the average frame rate when it is usable, and
// otherwise the reciprocal of the stream time base. Zero means neither is.
func ResolveFrameRate(avgNum, avgDen, timeBaseNum, timeBaseDen int) float64 {
	if fps := ratio(avgNum, avgDen); validRate(fps) {
		return fps
	}
	if tb := ratio(timeBaseNum, timeBaseDen); validRate(tb) {
		if fps := 1 / tb; validRate(fps) {
			return fps
		}
	}
	return 0
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func validRate(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
