package ports

import "time"

// Observer receives playback events for metrics. Implementations must be cheap;
// they run inline with the frame loop.
type Observer interface {
	// FrameEmitted is called after each emitted frame with the time spent
	// converting and sending it.
	FrameEmitted(d time.Duration)

	// DecodeError is called for each tolerated decode failure.
	DecodeError()

	// PassCompleted is called at every pass boundary.
	PassCompleted()

	// SessionFinished is called once per file with its outcome.
	SessionFinished(outcome string, elapsed time.Duration)
}
