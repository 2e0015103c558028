package playback

import (
	"time"

	"github.com/user/ftvideo/pkg/ports"
)

// SystemClock implements ports.Clock with the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for d, returning early when wake is closed.
func (SystemClock) Sleep(d time.Duration, wake <-chan struct{}) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-wake:
	}
}

var _ ports.Clock = SystemClock{}
