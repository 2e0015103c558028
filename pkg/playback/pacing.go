package playback

import (
	"fmt"
	"math"
	"time"

	"github.com/user/ftvideo/pkg/ports"
)

// PacingMode selects how the wait after each emitted frame is computed.
type PacingMode int

const (
	// PacingFixed sleeps one frame interval after every emitted frame. Time
	// spent decoding and sending is not compensated.
	PacingFixed PacingMode = iota

	// PacingDriftCorrected sleeps until passStart + n*interval, so per-frame
	// work does not accumulate as drift over a pass.
	PacingDriftCorrected
)

// String returns the flag spelling of the mode.
func (m PacingMode) String() string {
	switch m {
	case PacingDriftCorrected:
		return "drift-corrected"
	default:
		return "fixed"
	}
}

// FrameInterval returns 1,000,000/fps microseconds, truncated to whole
// microseconds. Rates above one million frames per second yield a zero
// interval: frames are sent back to back.
func FrameInterval(fps float64) (time.Duration, error) {
	if !(fps > 0) || math.IsInf(fps, 0) {
		return 0, fmt.Errorf("invalid frame rate %v", fps)
	}
	micros := int64(1e6 / fps)
	return time.Duration(micros) * time.Microsecond, nil
}

// pacer suspends the frame loop between emissions.
type pacer struct {
	clock     ports.Clock
	interval  time.Duration
	mode      PacingMode
	passStart time.Time
	emitted   int64
}

func newPacer(clock ports.Clock, interval time.Duration, mode PacingMode) *pacer {
	return &pacer{clock: clock, interval: interval, mode: mode}
}

// startPass resets the schedule at the beginning of a pass.
func (p *pacer) startPass() {
	p.passStart = p.clock.Now()
	p.emitted = 0
}

// wait blocks until the next frame is due or wake is closed.
func (p *pacer) wait(wake <-chan struct{}) {
	p.emitted++
	d := p.interval
	if p.mode == PacingDriftCorrected {
		due := p.passStart.Add(time.Duration(p.emitted) * p.interval)
		d = due.Sub(p.clock.Now())
	}
	if d <= 0 {
		return
	}
	p.clock.Sleep(d, wake)
}
