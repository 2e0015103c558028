package mocks

import (
	"sync"
	"time"

	"github.com/user/ftvideo/pkg/ports"
)

// Clock is a fake ports.Clock. Sleep advances the fake time instead of
// blocking, so timing tests run instantly and deterministically.
type Clock struct {
	mu  sync.Mutex
	now time.Time

	// Sleeps records every requested sleep duration.
	Sleeps []time.Duration
}

// NewClock creates a fake clock starting at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the clock by d. A closed wake channel returns immediately
// without advancing.
func (c *Clock) Sleep(d time.Duration, wake <-chan struct{}) {
	select {
	case <-wake:
		return
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sleeps = append(c.Sleeps, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
}

// Advance moves the clock forward, simulating work.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SleepCount returns the number of Sleep calls.
func (c *Clock) SleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sleeps)
}

var _ ports.Clock = (*Clock)(nil)
