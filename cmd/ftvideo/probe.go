package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/ftvideo/pkg/adapters/ggrenderer"
	"github.com/user/ftvideo/pkg/adapters/osfilesystem"
	"github.com/user/ftvideo/pkg/ports"
)

// probeEntry is the JSON form of one probed file.
type probeEntry struct {
	Path        string  `json:"path"`
	Codec       string  `json:"codec,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	PixelFormat string  `json:"pixel_format,omitempty"`
	FrameRate   float64 `json:"frame_rate,omitempty"`
	Duration    float64 `json:"duration_seconds,omitempty"`
	Container   string  `json:"container,omitempty"`
	Error       string  `json:"error,omitempty"`
}

func probeAction(code *int) cli.ActionFunc {
	return func(c *cli.Context) error {
		*code = 1
		if c.NArg() == 0 {
			fmt.Fprintln(c.App.ErrWriter, l10n.T("Expected video filename."))
			return nil
		}
		format := c.String("format")
		if format != "text" && format != "json" {
			return fmt.Errorf("unknown output format %q (want text or json)", format)
		}

		fs := osfilesystem.New()
		cfg, err := buildConfig(c, fs, os.Getenv)
		if err != nil {
			return err
		}
		rt := &wiring{
			cfg:      cfg,
			fs:       fs,
			renderer: ggrenderer.New(),
			logger:   newLogger(cfg, false, c.App.ErrWriter),
		}
		opener, err := fileOpener(rt)
		if err != nil {
			return err
		}

		entries, failed := probe(c, opener, c.Args().Slice())
		if format == "json" {
			if err := writeProbeJSON(c.App.Writer, entries); err != nil {
				return err
			}
		} else {
			for _, e := range entries {
				if e.Error != "" {
					fmt.Fprintln(c.App.ErrWriter, l10n.F("Can't probe %s: %v", e.Path, e.Error))
					continue
				}
				writeProbeText(c.App.Writer, e)
			}
		}

		if failed == 0 {
			*code = 0
		}
		return nil
	}
}

func probe(c *cli.Context, opener ports.SourceOpener, files []string) ([]probeEntry, int) {
	entries := make([]probeEntry, 0, len(files))
	failed := 0
	for _, path := range files {
		src, err := opener.Open(c.Context, path)
		if err != nil {
			entries = append(entries, probeEntry{Path: path, Error: err.Error()})
			failed++
			continue
		}
		info := src.Info()
		src.Close()
		entries = append(entries, probeEntry{
			Path:        path,
			Codec:       info.Codec,
			Width:       info.Width,
			Height:      info.Height,
			PixelFormat: info.PixelFormat,
			FrameRate:   info.FrameRate,
			Duration:    info.Duration.Seconds(),
			Container:   info.Container,
		})
	}
	return entries, failed
}

func writeProbeText(w io.Writer, e probeEntry) {
	fmt.Fprintf(w, "%s: %s %dx%d %s, %.3f fps", e.Path, e.Codec, e.Width, e.Height, e.PixelFormat, e.FrameRate)
	if e.Duration > 0 {
		fmt.Fprintf(w, ", %.2fs", e.Duration)
	}
	if e.Container != "" {
		fmt.Fprintf(w, " (%s)", e.Container)
	}
	fmt.Fprintln(w)
}

func writeProbeJSON(w io.Writer, entries []probeEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
