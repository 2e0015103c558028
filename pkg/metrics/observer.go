// Package metrics exposes playback counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/user/ftvideo/pkg/ports"
)

const namespace = "ftvideo"

// Observer implements ports.Observer on Prometheus collectors.
type Observer struct {
	framesEmitted   prometheus.Counter
	frameDuration   prometheus.Histogram
	decodeErrors    prometheus.Counter
	passes          prometheus.Counter
	sessions        *prometheus.CounterVec
	sessionDuration prometheus.Histogram
}

// NewObserver registers the playback collectors with reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		framesEmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_emitted_total",
			Help:      "Frames sent to the display",
		}),
		// Convert plus send; must stay well below one frame interval.
		frameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_work_seconds",
			Help:      "Time spent converting and sending one frame",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.04, 0.08},
		}),
		decodeErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Packets skipped because they failed to decode",
		}),
		passes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Passes that reached end of stream",
		}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Files played by outcome",
		}, []string{"outcome"}),
		sessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall time spent playing one file",
			Buckets:   []float64{1, 5, 10, 30, 60, 300, 900, 3600},
		}),
	}
}

func (o *Observer) FrameEmitted(d time.Duration) {
	o.framesEmitted.Inc()
	o.frameDuration.Observe(d.Seconds())
}

func (o *Observer) DecodeError() {
	o.decodeErrors.Inc()
}

func (o *Observer) PassCompleted() {
	o.passes.Inc()
}

func (o *Observer) SessionFinished(outcome string, elapsed time.Duration) {
	o.sessions.WithLabelValues(outcome).Inc()
	o.sessionDuration.Observe(elapsed.Seconds())
}

var _ ports.Observer = (*Observer)(nil)
