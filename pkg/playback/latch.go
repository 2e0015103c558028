package playback

import "sync/atomic"

// Latch is the process-wide cancellation signal: a boolean that starts false,
// is set at most once and is never reset. The scheduler polls it at frame and
// pass boundaries; Done lets the pacing wait return early.
type Latch struct {
	set  atomic.Bool
	done chan struct{}
}

// NewLatch returns an unset latch.
func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Set trips the latch. Calls after the first are no-ops.
func (l *Latch) Set() {
	if l.set.CompareAndSwap(false, true) {
		close(l.done)
	}
}

// IsSet reports whether the latch has been tripped.
func (l *Latch) IsSet() bool {
	return l.set.Load()
}

// Done returns a channel that is closed once the latch is set.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}
