package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/user/ftvideo/pkg/adapters/ffmpegsource"
	"github.com/user/ftvideo/pkg/adapters/filesink"
	"github.com/user/ftvideo/pkg/adapters/ftdisplay"
	"github.com/user/ftvideo/pkg/adapters/ggrenderer"
	"github.com/user/ftvideo/pkg/adapters/libavsource"
	"github.com/user/ftvideo/pkg/adapters/logger"
	"github.com/user/ftvideo/pkg/adapters/nullsink"
	"github.com/user/ftvideo/pkg/adapters/osfilesystem"
	"github.com/user/ftvideo/pkg/adapters/scaler"
	"github.com/user/ftvideo/pkg/adapters/smartsource"
	"github.com/user/ftvideo/pkg/adapters/testcard"
	"github.com/user/ftvideo/pkg/config"
	"github.com/user/ftvideo/pkg/metrics"
	"github.com/user/ftvideo/pkg/orchestrator"
	"github.com/user/ftvideo/pkg/playback"
	"github.com/user/ftvideo/pkg/ports"
	"github.com/user/ftvideo/pkg/summarizer"
)

const usageLine = "Usage: ftvideo [options] <video> [<video>...]"

// wiring holds the process-level collaborators every session shares.
type wiring struct {
	cfg      config.Config
	fs       ports.FileSystem
	renderer ports.Renderer
	logger   ports.Logger
}

// openerFunc builds the source opener for a session.
type openerFunc func(rt *wiring) (ports.SourceOpener, error)

func playAction(code *int) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() == 0 {
			fmt.Fprintln(c.App.ErrWriter, l10n.T("Expected video filename."))
			fmt.Fprintln(c.App.ErrWriter, usageLine)
			*code = 1
			return nil
		}
		return session(c, c.Args().Slice(), fileOpener, code)
	}
}

func testcardAction(code *int) cli.ActionFunc {
	return func(c *cli.Context) error {
		title := c.String("title")
		if title == "" {
			title = "ftvideo"
		}
		opts := testcard.DefaultOptions()
		opts.FPS = c.Float64("fps")
		opts.Duration = time.Duration(c.Float64("duration") * float64(time.Second))
		opts.Title = title

		newOpener := func(rt *wiring) (ports.SourceOpener, error) {
			return testcard.Opener{Options: opts, Renderer: rt.renderer}, nil
		}
		return session(c, []string{"testcard"}, newOpener, code)
	}
}

func fileOpener(rt *wiring) (ports.SourceOpener, error) {
	return smartsource.New(smartsource.Options{
		Backend: smartsource.Backend(rt.cfg.Backend),
		FFmpeg: ffmpegsource.Options{
			FFmpegPath:  rt.cfg.FFmpegPath,
			FFprobePath: rt.cfg.FFprobePath,
		},
		Libav: libavsource.Options{LogLibav: rt.cfg.LibavLog},
	}, rt.fs, rt.logger)
}

// session wires the display, decoder, scaler and scheduler, plays files and
// stores the exit code.
func session(c *cli.Context, files []string, newOpener openerFunc, code *int) error {
	*code = 1

	fs := osfilesystem.New()
	cfg, err := buildConfig(c, fs, os.Getenv)
	if err != nil {
		return err
	}
	geometry, err := cfg.Display()
	if err != nil {
		return err
	}

	rt := &wiring{
		cfg:      cfg,
		fs:       fs,
		renderer: ggrenderer.New(),
		logger:   newLogger(cfg, c.Bool("quiet"), c.App.ErrWriter),
	}

	display, err := ftdisplay.New(cfg.Host, geometry.Width, geometry.Height, geometry.Offset())
	if err != nil {
		return err
	}
	defer display.Close()

	opener, err := newOpener(rt)
	if err != nil {
		return err
	}

	debug, err := newDebugSink(rt)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		observer ports.Observer
		server   *metrics.Server
	)
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observer = metrics.NewObserver(reg)
		server, err = metrics.Listen(cfg.MetricsAddr, metrics.NewRouter(reg))
		if err != nil {
			return err
		}
		rt.logger.Info("Serving metrics on %s", server.Addr())
	}

	pacing := playback.PacingFixed
	if cfg.DriftCorrect {
		pacing = playback.PacingDriftCorrected
	}
	latch := playback.NewLatch()
	scheduler := playback.New(latch, rt.logger,
		playback.WithObserver(observer),
		playback.WithDebugSink(debug),
		playback.WithPacing(pacing),
	)

	kernel, err := scaler.ParseKernel(cfg.Scaler)
	if err != nil {
		return err
	}

	orch := orchestrator.New(
		orchestrator.Config{
			Width:         geometry.Width,
			Height:        geometry.Height,
			RepeatTimeout: cfg.RepeatTimeout(),
			Verbosity:     cfg.Verbosity,
			ClearOnExit:   cfg.Clear,
			SummaryPath:   cfg.Summary,
			Host:          ftdisplay.ResolveHost(cfg.Host),
			Backend:       cfg.Backend,
			Scaler:        string(kernel),
			Pacing:        pacing.String(),
		},
		opener,
		scaler.Factory{Kernel: kernel},
		scheduler,
		display,
		latch,
		rt.logger,
		orchestrator.WithSummaryWriter(summarizer.NewWriter(summarizer.NewMarkdownFormatter())),
		orchestrator.WithObserver(observer),
	)

	var rr orchestrator.RunResult
	if server == nil {
		rr = orch.Run(ctx, files)
	} else {
		rr = runWithServer(ctx, orch, files, server, rt.logger)
	}

	if rr.Success() {
		*code = 0
	}
	return nil
}

// runWithServer serves metrics for the duration of the run.
func runWithServer(ctx context.Context, orch *orchestrator.Orchestrator, files []string, server *metrics.Server, log ports.Logger) orchestrator.RunResult {
	serveCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		return server.Serve(serveCtx)
	})

	rr := orch.Run(ctx, files)
	cancel()
	if err := g.Wait(); err != nil {
		log.Warn("Metrics server failed: %v", err)
	}
	return rr
}

func newDebugSink(rt *wiring) (ports.DebugSink, error) {
	if rt.cfg.DebugDir == "" {
		return nullsink.New(), nil
	}
	format, err := filesink.ParseFormat(rt.cfg.DebugFormat)
	if err != nil {
		return nil, err
	}
	if err := rt.fs.MkdirAll(rt.cfg.DebugDir); err != nil {
		return nil, fmt.Errorf("create debug directory: %w", err)
	}
	return filesink.New(rt.cfg.DebugDir, rt.fs, rt.renderer, filesink.WithFormat(format)), nil
}

func newLogger(cfg config.Config, quiet bool, w io.Writer) ports.Logger {
	if quiet {
		return logger.NewNoop()
	}
	level := ports.LevelFromVerbosity(cfg.Verbosity)
	if cfg.LogFormat == "json" {
		return logger.NewJSON(level, w, "ftvideo")
	}
	return logger.NewConsoleWriter(level, w)
}

// buildConfig layers defaults, the YAML file, the environment and finally the
// flags that were given on the command line.
func buildConfig(c *cli.Context, fs ports.FileSystem, getenv func(string) string) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.Path("config"); path != "" {
		loaded, err := config.Load(fs, path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return cfg, err
	}

	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("geometry") {
		cfg.Geometry = c.String("geometry")
	}
	if c.IsSet("layer") {
		cfg.SetLayer(c.Int("layer"))
	}
	if c.IsSet("repeat") {
		cfg.Repeat = c.Float64("repeat")
	}
	if c.IsSet("clear") {
		cfg.Clear = c.Bool("clear")
	}
	if c.IsSet("drift-correct") {
		cfg.DriftCorrect = c.Bool("drift-correct")
	}
	if n := c.Count("verbose"); n > 0 {
		cfg.Verbosity = n
	}
	for name, dst := range map[string]*string{
		"backend":      &cfg.Backend,
		"scaler":       &cfg.Scaler,
		"log-format":   &cfg.LogFormat,
		"debug-format": &cfg.DebugFormat,
		"metrics-addr": &cfg.MetricsAddr,
	} {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	for name, dst := range map[string]*string{
		"ffmpeg":    &cfg.FFmpegPath,
		"ffprobe":   &cfg.FFprobePath,
		"debug-dir": &cfg.DebugDir,
		"summary":   &cfg.Summary,
	} {
		if c.IsSet(name) {
			*dst = c.Path(name)
		}
	}
	if c.IsSet("libav-log") {
		cfg.LibavLog = c.Bool("libav-log")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
