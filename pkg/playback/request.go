package playback

import (
	"fmt"
	"time"

	"github.com/user/ftvideo/pkg/ports"
)

// Request is the immutable input of one playback session.
type Request struct {
	Path          string        // Source file path
	Width         int           // Target raster width
	Height        int           // Target raster height
	RepeatTimeout time.Duration // Keep repeating passes until this much wall time has elapsed; 0 plays once
	Verbosity     int           // -v count
}

// Validate checks the request geometry and timeout.
func (r Request) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid target geometry %dx%d", r.Width, r.Height)
	}
	if r.RepeatTimeout < 0 {
		return fmt.Errorf("negative repeat timeout %s", r.RepeatTimeout)
	}
	return nil
}

// Outcome classifies how a session ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Result is the immutable output of one playback session.
type Result struct {
	Path          string
	Info          ports.StreamInfo
	Interval      time.Duration // Computed frame interval
	FramesEmitted int           // Frames emitted in the last pass
	TotalFrames   int           // Frames emitted over all passes
	DecodeErrors  int           // Packets that failed to decode and were skipped
	Repetitions   int           // Passes that ran to end of stream
	Elapsed       time.Duration // Wall time from start of playback
	Completed     bool          // Ended by end of stream or repeat timeout
	Cancelled     bool          // Ended because the cancellation latch was observed
	Err           error         // Terminal error, nil unless the session failed
}

// Outcome returns the session outcome.
func (r Result) Outcome() Outcome {
	switch {
	case r.Completed:
		return OutcomeCompleted
	case r.Cancelled:
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// Failed returns a non-completed result for a file that never started
// playing, e.g. because it could not be opened.
func Failed(path string, err error) Result {
	return Result{Path: path, Err: err}
}
