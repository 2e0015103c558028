package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Formatter defines the interface for formatting a Summary.
type Formatter interface {
	// Format converts a Summary to a formatted string.
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Playback Summary\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", s.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Played: %d of %d files\n", s.Played(), len(s.Files))
	if s.Interrupted {
		b.WriteString("- Interrupted by signal\n")
	}

	b.WriteString("\n## Display\n\n")
	fmt.Fprintf(&b, "| Host | Geometry | Offset | Layer |\n")
	fmt.Fprintf(&b, "|------|----------|--------|-------|\n")
	fmt.Fprintf(&b, "| %s | %dx%d | %+d%+d | %d |\n",
		orNA(s.Display.Host), s.Display.Width, s.Display.Height, s.Display.X, s.Display.Y, s.Display.Layer)

	b.WriteString("\n## Settings\n\n")
	fmt.Fprintf(&b, "| Repeat | Backend | Scaler | Pacing | Clear on exit |\n")
	fmt.Fprintf(&b, "|--------|---------|--------|--------|---------------|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
		formatRepeat(s.Settings.RepeatTimeout), orNA(s.Settings.Backend), orNA(s.Settings.Scaler),
		orNA(s.Settings.Pacing), yesNo(s.Settings.ClearOnExit))

	b.WriteString("\n## Files\n\n")
	if len(s.Files) == 0 {
		b.WriteString("No files were played.\n")
		return b.String()
	}
	b.WriteString("| File | Stream | Frames | Loops | Elapsed | Outcome |\n")
	b.WriteString("|------|--------|--------|-------|---------|---------|\n")
	for _, e := range s.Files {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %.1f s | %s |\n",
			filepath.Base(e.Path), formatStream(e), formatFrames(e), e.Repetitions, e.Elapsed.Seconds(), e.Outcome)
	}

	var errs []FileEntry
	for _, e := range s.Files {
		if e.Error != "" {
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		b.WriteString("\n### Errors\n\n")
		for _, e := range errs {
			fmt.Fprintf(&b, "- `%s`: %s\n", e.Path, e.Error)
		}
	}

	return b.String()
}

func formatStream(e FileEntry) string {
	if e.Codec == "" {
		return "N/A"
	}
	return fmt.Sprintf("%s %dx%d @ %.2f fps", e.Codec, e.Width, e.Height, e.FrameRate)
}

func formatFrames(e FileEntry) string {
	s := fmt.Sprintf("%d", e.TotalFrames)
	if e.DecodeErrors > 0 {
		s += fmt.Sprintf(" (%d skipped)", e.DecodeErrors)
	}
	return s
}

func formatRepeat(d time.Duration) string {
	if d <= 0 {
		return "once"
	}
	return fmt.Sprintf("%.1f s", d.Seconds())
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
