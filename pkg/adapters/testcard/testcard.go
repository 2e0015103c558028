// Package testcard provides a synthetic animated video source for checking a
// display without any media files.
package testcard

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/user/ftvideo/pkg/ports"
)

// Options configures the generated stream.
type Options struct {
	Width    int
	Height   int
	FPS      float64
	Duration time.Duration
	// Title is drawn in the lower third; empty draws only the frame counter.
	Title string
}

// DefaultOptions returns a 5 second, 25 fps card at 160x120.
func DefaultOptions() Options {
	return Options{Width: 160, Height: 120, FPS: 25, Duration: 5 * time.Second}
}

func (o Options) frames() int {
	return int(math.Round(o.Duration.Seconds() * o.FPS))
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("%w: test card size %dx%d", ports.ErrAllocation, o.Width, o.Height)
	}
	if !(o.FPS > 0) || math.IsInf(o.FPS, 0) {
		return fmt.Errorf("%w: test card rate %v", ports.ErrNoVideoStream, o.FPS)
	}
	if o.frames() < 1 {
		return fmt.Errorf("%w: test card duration %s is shorter than one frame", ports.ErrOpen, o.Duration)
	}
	return nil
}

// Source renders frames on demand through a ports.Renderer.
type Source struct {
	opts     Options
	renderer ports.Renderer
	total    int
	pos      int
}

// New creates a test card source.
func New(opts Options, renderer ports.Renderer) (*Source, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Source{opts: opts, renderer: renderer, total: opts.frames()}, nil
}

func (s *Source) Info() ports.StreamInfo {
	return ports.StreamInfo{
		FrameRate:   s.opts.FPS,
		Width:       s.opts.Width,
		Height:      s.opts.Height,
		PixelFormat: "rgba",
		Codec:       "testcard",
		Container:   "synthetic",
		Duration:    s.opts.Duration,
	}
}

// NextVideoFrame draws frame n of the card.
func (s *Source) NextVideoFrame() (ports.VideoFrame, error) {
	if s.pos >= s.total {
		return ports.VideoFrame{}, ports.ErrEndOfStream
	}
	n := s.pos
	s.pos++

	return ports.VideoFrame{
		Image: s.draw(n).ToImage(),
		Index: n,
		PTS:   time.Duration(float64(n) / s.opts.FPS * float64(time.Second)),
	}, nil
}

func (s *Source) draw(n int) ports.Canvas {
	w, h := s.opts.Width, s.opts.Height
	phase := float64(n) / float64(s.total)

	c := s.renderer.CreateCanvas(w, h, hue(phase))

	// Color bars across the top third.
	bars := []color.RGBA{
		{255, 255, 255, 255}, {255, 255, 0, 255}, {0, 255, 255, 255}, {0, 255, 0, 255},
		{255, 0, 255, 255}, {255, 0, 0, 255}, {0, 0, 255, 255},
	}
	bw := int(math.Ceil(float64(w) / float64(len(bars))))
	for i, col := range bars {
		c.DrawRect(i*bw, 0, bw, h/3, col)
	}

	// A ball bouncing horizontally and a sweeping scan line show motion.
	r := max(h/8, 1)
	x := r + int(math.Abs(math.Sin(phase*2*math.Pi))*float64(w-2*r))
	c.DrawCircle(x, h/2, r, color.Black)
	sy := h/3 + (n % max(h-h/3, 1))
	c.DrawLine(0, sy, w, sy, color.White, 1)

	label := fmt.Sprintf("%d", n)
	if s.opts.Title != "" {
		label = s.opts.Title + " " + label
	}
	c.DrawText(label, w/2, h-h/6, ports.TextStyle{
		FontSize: float64(h) / 6,
		Color:    color.White,
		Align:    ports.AlignCenter,
	})
	return c
}

// SeekToStart restarts the card at frame 0.
func (s *Source) SeekToStart() error {
	s.pos = 0
	return nil
}

func (s *Source) Close() error { return nil }

var _ ports.VideoSource = (*Source)(nil)

// Opener opens a test card for any path; the path only names the session.
type Opener struct {
	Options  Options
	Renderer ports.Renderer
}

// Open implements ports.SourceOpener.
func (o Opener) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrOpen, err)
	}
	return New(o.Options, o.Renderer)
}

var _ ports.SourceOpener = Opener{}

// hue maps t in [0,1) to a dim fully saturated color.
func hue(t float64) color.RGBA {
	h := math.Mod(t, 1) * 6
	x := 1 - math.Abs(math.Mod(h, 2)-1)
	var r, g, b float64
	switch int(h) {
	case 0:
		r, g = 1, x
	case 1:
		r, g = x, 1
	case 2:
		g, b = 1, x
	case 3:
		g, b = x, 1
	case 4:
		r, b = x, 1
	default:
		r, b = 1, x
	}
	const level = 96
	return color.RGBA{R: uint8(r * level), G: uint8(g * level), B: uint8(b * level), A: 255}
}
