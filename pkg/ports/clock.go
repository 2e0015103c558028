package ports

import "time"

// Clock abstracts wall time and the pacing wait.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for d or until wake is closed, whichever comes first.
	Sleep(d time.Duration, wake <-chan struct{})
}
