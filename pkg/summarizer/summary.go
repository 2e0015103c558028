// Package summarizer builds and writes a report of a playback run.
package summarizer

import (
	"time"

	"github.com/google/uuid"
)

// Summary contains everything recorded about one run of the player.
type Summary struct {
	// Metadata
	RunID       string
	GeneratedAt time.Time

	Display  DisplayInfo
	Settings Settings
	Files    []FileEntry

	// Interrupted is true when a signal stopped the run.
	Interrupted bool
}

// DisplayInfo describes the target display area.
type DisplayInfo struct {
	Host   string
	Width  int
	Height int
	X      int
	Y      int
	Layer  int
}

// Settings contains the playback configuration.
type Settings struct {
	RepeatTimeout time.Duration
	Backend       string
	Scaler        string
	Pacing        string
	ClearOnExit   bool
}

// FileEntry is the outcome of playing one file.
type FileEntry struct {
	Path string

	// Stream details, zero when the file could not be opened
	Codec     string
	Width     int
	Height    int
	FrameRate float64

	Frames       int // Frames in the last pass
	TotalFrames  int
	Repetitions  int
	DecodeErrors int
	Elapsed      time.Duration

	Outcome string
	Error   string
}

// Played returns the number of files that completed.
func (s *Summary) Played() int {
	n := 0
	for _, f := range s.Files {
		if f.Outcome == "completed" {
			n++
		}
	}
	return n
}

// NewSummary creates a new Summary with a fresh run ID and the current
// timestamp.
func NewSummary() *Summary {
	return &Summary{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithDisplay sets the display information.
func (b *Builder) WithDisplay(display DisplayInfo) *Builder {
	b.summary.Display = display
	return b
}

// WithSettings sets playback settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// AddFile appends the outcome of one file.
func (b *Builder) AddFile(entry FileEntry) *Builder {
	b.summary.Files = append(b.summary.Files, entry)
	return b
}

// WithInterrupted marks the run as stopped by a signal.
func (b *Builder) WithInterrupted(interrupted bool) *Builder {
	b.summary.Interrupted = interrupted
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
