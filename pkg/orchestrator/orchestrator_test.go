package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/ftvideo/pkg/mocks"
	"github.com/user/ftvideo/pkg/playback"
	"github.com/user/ftvideo/pkg/ports"
	"github.com/user/ftvideo/pkg/summarizer"
)

// mockSummaryWriter records the summaries it is asked to write.
type mockSummaryWriter struct {
	paths     []string
	summaries []*summarizer.Summary
	err       error
}

func (m *mockSummaryWriter) Write(path string, s *summarizer.Summary) error {
	m.paths = append(m.paths, path)
	m.summaries = append(m.summaries, s)
	return m.err
}

// failureCounter counts sessions reported as failed.
type failureCounter struct {
	failed int
}

func (c *failureCounter) FrameEmitted(time.Duration) {}
func (c *failureCounter) DecodeError()               {}
func (c *failureCounter) PassCompleted()             {}

func (c *failureCounter) SessionFinished(outcome string, _ time.Duration) {
	if outcome == string(playback.OutcomeFailed) {
		c.failed++
	}
}

type harness struct {
	latch  *playback.Latch
	opener *mocks.SourceOpener
	convs  *mocks.ConverterFactory
	sink   *mocks.PixelSink
	log    *mocks.Logger
}

func newHarness(layer int) *harness {
	return &harness{
		latch:  playback.NewLatch(),
		opener: mocks.NewSourceOpener(),
		convs:  &mocks.ConverterFactory{},
		sink:   mocks.NewPixelSink(45, 35, ports.Offset{Layer: layer}),
		log:    mocks.NewLogger(),
	}
}

func (h *harness) build(cfg Config, opts ...Option) *Orchestrator {
	sched := playback.New(h.latch, h.log, playback.WithClock(mocks.NewClock()))
	return New(cfg, h.opener, h.convs, sched, h.sink, h.latch, h.log, opts...)
}

func (h *harness) messages(level ports.LogLevel) []string {
	var out []string
	for _, e := range h.log.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

func TestOrchestrator_Run_PlaysFilesInOrder(t *testing.T) {
	h := newHarness(0)
	a := mocks.NewVideoSource(320, 240, 25, 10)
	b := mocks.NewVideoSource(64, 48, 30, 5)
	h.opener.Sources["a.mp4"] = a
	h.opener.Sources["b.mkv"] = b

	o := h.build(DefaultConfig())
	rr := o.Run(context.Background(), []string{"a.mp4", "b.mkv"})

	if !rr.Success() || rr.Played != 2 || rr.Interrupted {
		t.Fatalf("unexpected run result %+v", rr)
	}
	if len(rr.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(rr.Results))
	}
	if rr.Results[0].Path != "a.mp4" || rr.Results[0].FramesEmitted != 10 {
		t.Errorf("unexpected first result %+v", rr.Results[0])
	}
	if rr.Results[1].Path != "b.mkv" || rr.Results[1].FramesEmitted != 5 {
		t.Errorf("unexpected second result %+v", rr.Results[1])
	}
	if got := strings.Join(h.opener.Opened, ","); got != "a.mp4,b.mkv" {
		t.Errorf("unexpected open order %s", got)
	}
	if h.sink.EmitCount() != 15 {
		t.Errorf("expected 15 frames emitted, got %d", h.sink.EmitCount())
	}
	if a.CloseCalls != 1 || b.CloseCalls != 1 {
		t.Errorf("expected each source closed once, got %d and %d", a.CloseCalls, b.CloseCalls)
	}
	if len(h.convs.Built) != 2 {
		t.Errorf("expected a converter per file, got %d", len(h.convs.Built))
	}
	if h.sink.ClearCalls != 0 {
		t.Errorf("expected no clear on layer 0, got %d", h.sink.ClearCalls)
	}

	info := h.messages(ports.LevelInfo)
	if len(info) < 2 || info[0] != "Playing a.mp4" || info[1] != "Playing b.mkv" {
		t.Errorf("expected announcements, got %v", info)
	}
}

func TestOrchestrator_Run_OpenFailureContinues(t *testing.T) {
	h := newHarness(0)
	h.opener.Err["broken.avi"] = errors.Join(ports.ErrNoVideoStream, errors.New("audio only"))
	h.opener.Sources["ok.mp4"] = mocks.NewVideoSource(320, 240, 25, 3)
	obs := &failureCounter{}

	o := h.build(DefaultConfig(), WithObserver(obs))
	rr := o.Run(context.Background(), []string{"missing.mp4", "broken.avi", "ok.mp4"})

	if !rr.Success() || rr.Played != 1 {
		t.Fatalf("expected one played file, got %+v", rr)
	}
	if len(rr.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(rr.Results))
	}
	if !errors.Is(rr.Results[0].Err, ports.ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", rr.Results[0].Err)
	}
	if !errors.Is(rr.Results[1].Err, ports.ErrNoVideoStream) {
		t.Errorf("expected ErrNoVideoStream, got %v", rr.Results[1].Err)
	}
	for _, r := range rr.Results[:2] {
		if r.Completed || r.FramesEmitted != 0 || r.Outcome() != playback.OutcomeFailed {
			t.Errorf("unexpected failed result %+v", r)
		}
	}
	if obs.failed != 2 {
		t.Errorf("expected 2 failed sessions observed, got %d", obs.failed)
	}
	if n := h.log.Count(ports.LevelError); n != 2 {
		t.Errorf("expected 2 error logs, got %d", n)
	}
}

func TestOrchestrator_Run_NothingPlayed(t *testing.T) {
	h := newHarness(0)
	o := h.build(DefaultConfig())

	rr := o.Run(context.Background(), []string{"a.mp4", "b.mp4"})
	if rr.Success() {
		t.Error("expected failure when no file plays")
	}
	if rr.Interrupted {
		t.Error("did not expect an interrupt")
	}

	rr = o.Run(context.Background(), nil)
	if rr.Success() || len(rr.Results) != 0 {
		t.Errorf("expected empty unsuccessful run, got %+v", rr)
	}
}

func TestOrchestrator_Run_InterruptStopsList(t *testing.T) {
	h := newHarness(0)
	first := mocks.NewVideoSource(320, 240, 25, 20)
	first.OnFrame = func(index int) {
		if index == 4 {
			h.latch.Set()
		}
	}
	h.opener.Sources["first.mp4"] = first
	h.opener.Sources["second.mp4"] = mocks.NewVideoSource(320, 240, 25, 20)

	o := h.build(DefaultConfig())
	rr := o.Run(context.Background(), []string{"first.mp4", "second.mp4"})

	if !rr.Interrupted || rr.Success() {
		t.Fatalf("unexpected run result %+v", rr)
	}
	if len(rr.Results) != 1 || !rr.Results[0].Cancelled {
		t.Fatalf("expected one cancelled result, got %+v", rr.Results)
	}
	if len(h.opener.Opened) != 1 {
		t.Errorf("second file should not be opened, opened %v", h.opener.Opened)
	}
	if h.sink.EmitCount() != 4 {
		t.Errorf("expected 4 frames before the interrupt, got %d", h.sink.EmitCount())
	}
	if first.CloseCalls != 1 {
		t.Errorf("expected interrupted source closed, got %d", first.CloseCalls)
	}

	found := false
	for _, m := range h.messages(ports.LevelInfo) {
		if m == "Got interrupt. Exiting" {
			found = true
		}
	}
	if !found {
		t.Error("expected interrupt message")
	}
}

func TestOrchestrator_Run_CancelledContext(t *testing.T) {
	h := newHarness(0)
	h.opener.Sources["a.mp4"] = mocks.NewVideoSource(320, 240, 25, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := h.build(DefaultConfig())
	rr := o.Run(ctx, []string{"a.mp4"})

	if !h.latch.IsSet() {
		t.Fatal("expected cancelled context to set the latch")
	}
	if !rr.Interrupted || len(h.opener.Opened) != 0 {
		t.Errorf("expected nothing opened, got %+v opened=%v", rr, h.opener.Opened)
	}
}

func TestOrchestrator_Run_ClearOnExit(t *testing.T) {
	tests := []struct {
		name      string
		layer     int
		clear     bool
		wantClear int
	}{
		{"layer 0 without flag", 0, false, 0},
		{"layer 0 with flag", 0, true, 1},
		{"upper layer clears implicitly", 3, false, 1},
		{"upper layer with flag", 15, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(tt.layer)
			h.opener.Sources["a.mp4"] = mocks.NewVideoSource(32, 32, 25, 2)

			cfg := DefaultConfig()
			cfg.ClearOnExit = tt.clear
			h.build(cfg).Run(context.Background(), []string{"a.mp4"})

			if h.sink.ClearCalls != tt.wantClear {
				t.Errorf("expected %d clears, got %d", tt.wantClear, h.sink.ClearCalls)
			}
		})
	}
}

func TestOrchestrator_Run_ClearAfterInterrupt(t *testing.T) {
	h := newHarness(2)
	h.sink.ClearFunc = func() error { return errors.New("network unreachable") }
	h.latch.Set()

	rr := h.build(DefaultConfig()).Run(context.Background(), []string{"a.mp4"})

	if !rr.Interrupted {
		t.Error("expected interrupted run")
	}
	if h.sink.ClearCalls != 1 {
		t.Errorf("expected the layer to be cleared after an interrupt, got %d", h.sink.ClearCalls)
	}
	if n := h.log.Count(ports.LevelWarn); n != 1 {
		t.Errorf("expected clear failure warning, got %d", n)
	}
}

func TestOrchestrator_Run_ConverterFailure(t *testing.T) {
	h := newHarness(0)
	src := mocks.NewVideoSource(320, 240, 25, 5)
	h.opener.Sources["a.mp4"] = src
	h.convs.Err = errors.New("out of memory")

	rr := h.build(DefaultConfig()).Run(context.Background(), []string{"a.mp4"})

	if rr.Success() {
		t.Fatal("expected failure")
	}
	if !errors.Is(rr.Results[0].Err, ports.ErrAllocation) {
		t.Errorf("expected ErrAllocation, got %v", rr.Results[0].Err)
	}
	if rr.Results[0].Info.Width != 320 {
		t.Errorf("expected stream info kept, got %+v", rr.Results[0].Info)
	}
	if src.CloseCalls != 1 {
		t.Errorf("expected source closed, got %d", src.CloseCalls)
	}
}

func TestOrchestrator_Run_RepeatTimeout(t *testing.T) {
	h := newHarness(0)
	src := mocks.NewVideoSource(320, 240, 10, 20)
	h.opener.Sources["loop.mp4"] = src

	cfg := DefaultConfig()
	cfg.RepeatTimeout = 5 * time.Second
	rr := h.build(cfg).Run(context.Background(), []string{"loop.mp4"})

	r := rr.Results[0]
	if !r.Completed || r.Repetitions != 3 || r.TotalFrames != 60 {
		t.Errorf("expected 3 passes of 20 frames, got %+v", r)
	}
	if src.SeekCalls != 2 {
		t.Errorf("expected 2 seeks, got %d", src.SeekCalls)
	}
}

func TestOrchestrator_Run_WritesSummary(t *testing.T) {
	h := newHarness(1)
	h.opener.Sources["a.mp4"] = mocks.NewVideoSource(320, 240, 25, 4)
	w := &mockSummaryWriter{}

	cfg := DefaultConfig()
	cfg.SummaryPath = "out/summary.md"
	cfg.Host = "ft.local"
	cfg.Backend = "auto"
	cfg.Verbosity = 1
	h.build(cfg, WithSummaryWriter(w)).Run(context.Background(), []string{"a.mp4", "gone.mp4"})

	if len(w.summaries) != 1 || w.paths[0] != "out/summary.md" {
		t.Fatalf("expected one summary at out/summary.md, got %v", w.paths)
	}
	s := w.summaries[0]
	if s.Display.Host != "ft.local" || s.Display.Width != 45 || s.Display.Layer != 1 {
		t.Errorf("unexpected display %+v", s.Display)
	}
	if s.Settings.Backend != "auto" {
		t.Errorf("unexpected settings %+v", s.Settings)
	}
	if len(s.Files) != 2 || s.Played() != 1 {
		t.Fatalf("unexpected files %+v", s.Files)
	}
	if s.Files[0].Codec != "mock" || s.Files[0].TotalFrames != 4 || s.Files[0].Outcome != "completed" {
		t.Errorf("unexpected first entry %+v", s.Files[0])
	}
	if s.Files[1].Outcome != "failed" || s.Files[1].Error == "" {
		t.Errorf("unexpected second entry %+v", s.Files[1])
	}

	info := h.messages(ports.LevelInfo)
	if info[len(info)-1] != "Summary written to out/summary.md" {
		t.Errorf("expected summary message last, got %v", info)
	}
}

func TestOrchestrator_Run_SummaryFailureIsLogged(t *testing.T) {
	h := newHarness(0)
	w := &mockSummaryWriter{err: errors.New("read-only file system")}

	cfg := DefaultConfig()
	cfg.SummaryPath = "summary.md"
	h.build(cfg, WithSummaryWriter(w)).Run(context.Background(), []string{"a.mp4"})

	if n := h.log.Count(ports.LevelWarn); n != 1 {
		t.Errorf("expected 1 warning, got %d", n)
	}
}
