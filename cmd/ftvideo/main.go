// Package main provides the CLI entry point for ftvideo.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/ftvideo/pkg/adapters/ftdisplay"
	"github.com/user/ftvideo/pkg/config"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code: 0 when at least
// one file played to completion, 1 otherwise.
func run(args []string, stdout, stderr io.Writer) int {
	code := 0
	app := newApp(stdout, stderr, &code)
	if err := app.Run(args); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return code
}

func newApp(stdout, stderr io.Writer, code *int) *cli.App {
	freeHelpShorthand()

	return &cli.App{
		Name:                   "ftvideo",
		Usage:                  "Play video files on a Flaschen-Taschen display",
		UsageText:              "ftvideo [options] <video> [<video>...]",
		Writer:                 stdout,
		ErrWriter:              stderr,
		UseShortOptionHandling: true,
		HideHelpCommand:        true,
		Flags:                  playFlags(),
		Action:                 playAction(code),
		ExitErrHandler:         func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:      "play",
				Usage:     "Play video files (default)",
				ArgsUsage: "<video> [<video>...]",
				Flags:     playFlags(),
				Action:    playAction(code),
			},
			{
				Name:   "testcard",
				Usage:  "Play a synthetic test card",
				Flags:  append(playFlags(), testcardFlags()...),
				Action: testcardAction(code),
			},
			{
				Name:      "probe",
				Usage:     "Print stream information of video files",
				ArgsUsage: "<video> [<video>...]",
				Flags:     probeFlags(),
				Action:    probeAction(code),
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, l10n.F("ftvideo version %s", version))
					return nil
				},
			},
		},
	}
}

// freeHelpShorthand makes help reachable only as --help so -h can select the
// display host.
func freeHelpShorthand() {
	cli.HelpFlag = &cli.BoolFlag{
		Name:               "help",
		Usage:              "show help",
		DisableDefaultText: true,
	}
}

func playFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "geometry",
			Aliases: []string{"g"},
			Usage:   "display area `WxH[+X+Y[+LAYER]]` (env " + config.EnvGeometry + ", default 45x35+0+0)",
		},
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"h"},
			Usage:   "display `HOST` (env " + ftdisplay.HostEnv + ", default " + ftdisplay.DefaultHost + ")",
		},
		&cli.IntFlag{
			Name:    "layer",
			Aliases: []string{"l"},
			Usage:   "display `LAYER` 0..15 (env " + config.EnvLayer + "), overrides the layer given in --geometry",
		},
		&cli.Float64Flag{
			Name:    "repeat",
			Aliases: []string{"t"},
			Usage:   "repeat each video until `SECONDS` have passed (0 plays once)",
		},
		&cli.BoolFlag{
			Name:    "clear",
			Aliases: []string{"c"},
			Usage:   "clear the display area before exit",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "verbose output, repeat for more detail",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "suppress all log output",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "decoding `BACKEND`: auto, libav or ffmpeg",
		},
		&cli.StringFlag{
			Name:  "scaler",
			Usage: "resampling `KERNEL`: nearest, bilinear or catmullrom",
		},
		&cli.BoolFlag{
			Name:  "drift-correct",
			Usage: "schedule frames against the pass start instead of sleeping a fixed interval",
		},
		&cli.PathFlag{
			Name:  "config",
			Usage: "load settings from a YAML `FILE`",
		},
		&cli.PathFlag{
			Name:  "debug-dir",
			Usage: "save every emitted frame as PNG under `DIR`",
		},
		&cli.StringFlag{
			Name:  "debug-format",
			Usage: "debug frame `FORMAT`: png or jpeg",
		},
		&cli.PathFlag{
			Name:  "summary",
			Usage: "write a Markdown playback report to `FILE`",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "serve Prometheus metrics on `ADDR` (e.g. 127.0.0.1:9100)",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "log `FORMAT`: console or json",
		},
		&cli.PathFlag{
			Name:  "ffmpeg",
			Usage: "path to the ffmpeg `BINARY` (env FFMPEG_PATH)",
		},
		&cli.PathFlag{
			Name:  "ffprobe",
			Usage: "path to the ffprobe `BINARY` (env FFPROBE_PATH)",
		},
		&cli.BoolFlag{
			Name:  "libav-log",
			Usage: "show FFmpeg library diagnostics",
		},
	}
}

func testcardFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:  "duration",
			Value: 5,
			Usage: "test card length in `SECONDS`",
		},
		&cli.Float64Flag{
			Name:  "fps",
			Value: 25,
			Usage: "test card frame `RATE`",
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "`TEXT` drawn on the card",
		},
	}
}

func probeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "backend",
			Usage: "decoding `BACKEND`: auto, libav or ffmpeg",
		},
		&cli.PathFlag{
			Name:  "ffmpeg",
			Usage: "path to the ffmpeg `BINARY`",
		},
		&cli.PathFlag{
			Name:  "ffprobe",
			Usage: "path to the ffprobe `BINARY`",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "text",
			Usage: "output `FORMAT`: text or json",
		},
	}
}
