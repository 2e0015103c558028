// Package playback implements the real-time scheduler that pulls frames from a
// video source, converts them to the display raster and paces their emission.
package playback

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/user/ftvideo/pkg/ports"
)

// Scheduler drives one source, converter and sink at a time. It is not safe
// for concurrent Play calls; the session driver plays files sequentially.
type Scheduler struct {
	clock    ports.Clock
	latch    *Latch
	logger   ports.Logger
	observer ports.Observer
	debug    ports.DebugSink
	pacing   PacingMode
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock.
func WithClock(c ports.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithObserver attaches a metrics observer.
func WithObserver(o ports.Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithDebugSink saves every emitted frame to sink when it is enabled.
func WithDebugSink(sink ports.DebugSink) Option {
	return func(s *Scheduler) { s.debug = sink }
}

// WithPacing selects the pacing mode.
func WithPacing(m PacingMode) Option {
	return func(s *Scheduler) { s.pacing = m }
}

// New creates a Scheduler that observes latch for cancellation.
func New(latch *Latch, logger ports.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:    SystemClock{},
		latch:    latch,
		logger:   logger.WithComponent("playback"),
		observer: noopObserver{},
		pacing:   PacingFixed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// passResult is the outcome of one traversal of the stream.
type passResult struct {
	emitted      int
	decodeErrors int
	cancelled    bool
	err          error
}

// Play runs the session described by req. src must already be open, sink
// bound to its geometry and conv configured to produce that geometry.
//
// Passes repeat until RepeatTimeout has elapsed (exactly one pass when it is
// zero). The latch is checked before each frame is converted and at every
// pass boundary, so a cancelled session stops within one frame interval.
func (s *Scheduler) Play(req Request, src ports.VideoSource, conv ports.FrameConverter, sink ports.PixelSink) Result {
	start := s.clock.Now()
	res := Result{Path: req.Path, Info: src.Info()}

	if err := req.Validate(); err != nil {
		return s.fail(res, start, err)
	}
	if conv.Width() != sink.Width() || conv.Height() != sink.Height() {
		return s.fail(res, start, fmt.Errorf("%w: converter %dx%d does not match display %dx%d",
			ports.ErrAllocation, conv.Width(), conv.Height(), sink.Width(), sink.Height()))
	}

	interval, err := FrameInterval(res.Info.FrameRate)
	if err != nil {
		return s.fail(res, start, fmt.Errorf("%w: %v", ports.ErrNoVideoStream, err))
	}
	res.Interval = interval

	if req.Verbosity > 1 {
		s.logger.Debug("Stream: %s %dx%d %s, %.3f fps, frame interval %s",
			res.Info.Codec, res.Info.Width, res.Info.Height, res.Info.PixelFormat, res.Info.FrameRate, interval)
	}
	s.saveStreamInfo(req.Path, res.Info)

	session := sessionName(req.Path)
	p := newPacer(s.clock, interval, s.pacing)

	for {
		if s.latch.IsSet() {
			res.Cancelled = true
			break
		}

		pr := s.runPass(session, res.Repetitions, src, conv, sink, p)
		res.FramesEmitted = pr.emitted
		res.TotalFrames += pr.emitted
		res.DecodeErrors += pr.decodeErrors
		if pr.err != nil {
			return s.fail(res, start, pr.err)
		}
		if pr.cancelled {
			res.Cancelled = true
			break
		}

		res.Repetitions++
		s.observer.PassCompleted()

		elapsed := s.clock.Now().Sub(start)
		if req.RepeatTimeout <= 0 || elapsed >= req.RepeatTimeout {
			break
		}
		if s.latch.IsSet() {
			res.Cancelled = true
			break
		}

		if err := src.SeekToStart(); err != nil {
			if !errors.Is(err, ports.ErrSeek) {
				err = fmt.Errorf("%w: %v", ports.ErrSeek, err)
			}
			return s.fail(res, start, err)
		}
		if req.Verbosity > 1 {
			s.logger.Debug("Loop %d done after %.3fs (%d frames)", res.Repetitions, elapsed.Seconds(), pr.emitted)
		}
	}

	res.Elapsed = s.clock.Now().Sub(start)
	res.Completed = !res.Cancelled

	if res.Cancelled {
		s.logger.Info("Playback of %s interrupted after %d frames", req.Path, res.TotalFrames)
	} else if req.Verbosity > 0 {
		s.logger.Info("Finished playing %d frames %d times for %.1fs total",
			res.FramesEmitted, res.Repetitions, res.Elapsed.Seconds())
	}
	s.observer.SessionFinished(string(res.Outcome()), res.Elapsed)
	return res
}

// runPass decodes, converts and emits frames until end of stream, a terminal
// error or cancellation.
func (s *Scheduler) runPass(session string, pass int, src ports.VideoSource, conv ports.FrameConverter, sink ports.PixelSink, p *pacer) passResult {
	var pr passResult
	p.startPass()

	for {
		if s.latch.IsSet() {
			pr.cancelled = true
			return pr
		}

		vf, err := src.NextVideoFrame()
		if err != nil {
			switch {
			case errors.Is(err, ports.ErrEndOfStream):
				return pr
			case errors.Is(err, ports.ErrDecode):
				pr.decodeErrors++
				s.observer.DecodeError()
				s.logger.Debug("Skipping undecodable packet: %v", err)
				continue
			default:
				pr.err = err
				return pr
			}
		}

		// A frame decoded while the signal was being raised is dropped.
		if s.latch.IsSet() {
			pr.cancelled = true
			return pr
		}

		began := s.clock.Now()
		out, err := conv.Convert(vf.Image)
		if err != nil {
			pr.err = fmt.Errorf("convert frame %d: %w", vf.Index, err)
			return pr
		}
		if err := sink.Emit(out); err != nil {
			s.logger.Warn("Sending frame failed: %v", err)
		}
		pr.emitted++
		s.observer.FrameEmitted(s.clock.Now().Sub(began))

		if s.debug != nil && s.debug.Enabled() {
			if err := s.debug.SaveFrame(session, pass, vf.Index, out); err != nil {
				s.logger.Debug("Saving debug frame failed: %v", err)
			}
		}

		p.wait(s.latch.Done())
	}
}

// fail finalizes a result for a terminal error.
func (s *Scheduler) fail(res Result, start time.Time, err error) Result {
	res.Err = err
	res.Completed = false
	res.Elapsed = s.clock.Now().Sub(start)
	s.logger.Error("Can't play %s: %v", res.Path, err)
	s.observer.SessionFinished(string(OutcomeFailed), res.Elapsed)
	return res
}

func (s *Scheduler) saveStreamInfo(path string, info ports.StreamInfo) {
	if s.debug == nil || !s.debug.Enabled() {
		return
	}
	data, err := marshalStreamInfo(info)
	if err != nil {
		return
	}
	if err := s.debug.SaveStreamInfo(sessionName(path), data); err != nil {
		s.logger.Debug("Saving stream info failed: %v", err)
	}
}

func sessionName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = base[:len(base)-len(ext)]
	}
	return base
}

type noopObserver struct{}

func (noopObserver) FrameEmitted(time.Duration)            {}
func (noopObserver) DecodeError()                          {}
func (noopObserver) PassCompleted()                        {}
func (noopObserver) SessionFinished(string, time.Duration) {}
