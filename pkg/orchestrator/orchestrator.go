// Package orchestrator plays a list of video files one after another on a
// single pixel display.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/user/ftvideo/pkg/playback"
	"github.com/user/ftvideo/pkg/ports"
	"github.com/user/ftvideo/pkg/summarizer"
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Playback
	Width         int
	Height        int
	RepeatTimeout time.Duration // 0 plays each file once
	Verbosity     int

	// ClearOnExit blanks the display area after the last file. It is implied
	// when the sink writes to a layer above 0.
	ClearOnExit bool

	// SummaryPath receives a Markdown report of the run when set.
	SummaryPath string

	// Report-only settings
	Host    string
	Backend string
	Scaler  string
	Pacing  string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Width:  45,
		Height: 35,
	}
}

// SummaryWriter persists a run summary.
type SummaryWriter interface {
	Write(path string, summary *summarizer.Summary) error
}

// Orchestrator opens each file, hands it to the scheduler and cleans up the
// display at the end of the run.
type Orchestrator struct {
	config     Config
	opener     ports.SourceOpener
	converters ports.ConverterFactory
	scheduler  *playback.Scheduler
	sink       ports.PixelSink
	latch      *playback.Latch
	logger     ports.Logger
	summary    SummaryWriter
	observer   ports.Observer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSummaryWriter sets the writer used when Config.SummaryPath is set.
func WithSummaryWriter(w SummaryWriter) Option {
	return func(o *Orchestrator) { o.summary = w }
}

// WithObserver reports files that fail before playback starts.
func WithObserver(obs ports.Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// New creates a new Orchestrator. The sink is owned by the caller and stays
// open after Run.
func New(
	config Config,
	opener ports.SourceOpener,
	converters ports.ConverterFactory,
	scheduler *playback.Scheduler,
	sink ports.PixelSink,
	latch *playback.Latch,
	logger ports.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		config:     config,
		opener:     opener,
		converters: converters,
		scheduler:  scheduler,
		sink:       sink,
		latch:      latch,
		logger:     logger.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunResult collects the outcome of every file attempted.
type RunResult struct {
	Results     []playback.Result
	Played      int  // Files that completed playback
	Interrupted bool // The cancellation latch was set
}

// Success reports whether at least one file completed.
func (r RunResult) Success() bool {
	return r.Played > 0
}

// Run plays files in order until the list is exhausted or the latch is set.
// Cancelling ctx sets the latch.
func (o *Orchestrator) Run(ctx context.Context, files []string) RunResult {
	stop := context.AfterFunc(ctx, o.latch.Set)
	defer stop()
	if ctx.Err() != nil {
		o.latch.Set()
	}

	var rr RunResult
	for _, path := range files {
		if o.latch.IsSet() {
			break
		}
		res := o.playFile(ctx, path)
		rr.Results = append(rr.Results, res)
		if res.Completed {
			rr.Played++
		}
	}

	if o.latch.IsSet() {
		rr.Interrupted = true
		o.logger.Info("Got interrupt. Exiting")
	}
	if o.config.Verbosity > 0 {
		o.logger.Info("Played %d of %d files", rr.Played, len(files))
	}

	if o.config.ClearOnExit || o.sink.Offset().Layer > 0 {
		o.logger.Debug("Clearing display")
		if err := o.sink.Clear(); err != nil {
			o.logger.Warn("Clearing display failed: %v", err)
		}
	}

	if o.config.SummaryPath != "" && o.summary != nil {
		o.writeSummary(rr)
	}
	return rr
}

func (o *Orchestrator) playFile(ctx context.Context, path string) playback.Result {
	o.logger.Info("Playing %s", path)

	src, err := o.opener.Open(ctx, path)
	if err != nil {
		return o.failBeforePlay(playback.Failed(path, err))
	}
	defer func() {
		if err := src.Close(); err != nil {
			o.logger.Warn("Closing %s failed: %v", path, err)
		}
	}()

	conv, err := o.converters.NewConverter(o.sink.Width(), o.sink.Height())
	if err != nil {
		if !errors.Is(err, ports.ErrAllocation) {
			err = errors.Join(ports.ErrAllocation, err)
		}
		res := playback.Failed(path, err)
		res.Info = src.Info()
		return o.failBeforePlay(res)
	}

	req := playback.Request{
		Path:          path,
		Width:         o.config.Width,
		Height:        o.config.Height,
		RepeatTimeout: o.config.RepeatTimeout,
		Verbosity:     o.config.Verbosity,
	}
	return o.scheduler.Play(req, src, conv, o.sink)
}

func (o *Orchestrator) failBeforePlay(res playback.Result) playback.Result {
	o.logger.Error("Can't play %s: %v", res.Path, res.Err)
	if o.observer != nil {
		o.observer.SessionFinished(string(playback.OutcomeFailed), 0)
	}
	return res
}

func (o *Orchestrator) writeSummary(rr RunResult) {
	off := o.sink.Offset()
	b := summarizer.NewBuilder().
		WithDisplay(summarizer.DisplayInfo{
			Host:   o.config.Host,
			Width:  o.sink.Width(),
			Height: o.sink.Height(),
			X:      off.X,
			Y:      off.Y,
			Layer:  off.Layer,
		}).
		WithSettings(summarizer.Settings{
			RepeatTimeout: o.config.RepeatTimeout,
			Backend:       o.config.Backend,
			Scaler:        o.config.Scaler,
			Pacing:        o.config.Pacing,
			ClearOnExit:   o.config.ClearOnExit,
		}).
		WithInterrupted(rr.Interrupted)

	for _, r := range rr.Results {
		b.AddFile(fileEntry(r))
	}

	if err := o.summary.Write(o.config.SummaryPath, b.Build()); err != nil {
		o.logger.Warn("Writing summary failed: %v", err)
		return
	}
	o.logger.Info("Summary written to %s", o.config.SummaryPath)
}

func fileEntry(r playback.Result) summarizer.FileEntry {
	e := summarizer.FileEntry{
		Path:         r.Path,
		Codec:        r.Info.Codec,
		Width:        r.Info.Width,
		Height:       r.Info.Height,
		FrameRate:    r.Info.FrameRate,
		Frames:       r.FramesEmitted,
		TotalFrames:  r.TotalFrames,
		Repetitions:  r.Repetitions,
		DecodeErrors: r.DecodeErrors,
		Elapsed:      r.Elapsed,
		Outcome:      string(r.Outcome()),
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return e
}
