package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/urfave/cli/v2"

	"github.com/user/ftvideo/pkg/config"
	"github.com/user/ftvideo/pkg/mocks"
	"github.com/user/ftvideo/pkg/ports"
)

// configFromArgs parses args with the play flags and returns the layered
// configuration.
func configFromArgs(t *testing.T, fs ports.FileSystem, env map[string]string, args ...string) (config.Config, error) {
	t.Helper()
	freeHelpShorthand()

	var (
		cfg config.Config
		err error
	)
	app := &cli.App{
		Name:                   "ftvideo",
		Flags:                  playFlags(),
		UseShortOptionHandling: true,
		ExitErrHandler:         func(*cli.Context, error) {},
		Action: func(c *cli.Context) error {
			cfg, err = buildConfig(c, fs, func(k string) string { return env[k] })
			return nil
		},
	}
	if runErr := app.Run(append([]string{"ftvideo"}, args...)); runErr != nil {
		t.Fatalf("parse %v: %v", args, runErr)
	}
	return cfg, err
}

func TestBuildConfig_Precedence(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFile("ft.yaml", []byte("host: yaml-host\ngeometry: 20x10+1+1\nrepeat: 3\nscaler: nearest\n"))

	tests := []struct {
		name     string
		env      map[string]string
		args     []string
		host     string
		geometry config.Geometry
		repeat   float64
		scaler   string
	}{
		{
			name:     "defaults",
			geometry: config.Geometry{Width: 45, Height: 35},
			scaler:   "bilinear",
		},
		{
			name:     "yaml",
			args:     []string{"--config", "ft.yaml"},
			host:     "yaml-host",
			geometry: config.Geometry{Width: 20, Height: 10, X: 1, Y: 1},
			repeat:   3,
			scaler:   "nearest",
		},
		{
			name:     "env over yaml",
			env:      map[string]string{config.EnvHost: "env-host", config.EnvGeometry: "30x20", config.EnvLayer: "2"},
			args:     []string{"--config", "ft.yaml"},
			host:     "env-host",
			geometry: config.Geometry{Width: 30, Height: 20, Layer: 2},
			repeat:   3,
			scaler:   "nearest",
		},
		{
			name:     "flags over env",
			env:      map[string]string{config.EnvHost: "env-host", config.EnvLayer: "2"},
			args:     []string{"--config", "ft.yaml", "-h", "flag-host", "-g", "10x10-3+4+5", "-t", "1.5", "--scaler", "catmullrom"},
			host:     "flag-host",
			geometry: config.Geometry{Width: 10, Height: 10, X: -3, Y: 4, Layer: 2},
			repeat:   1.5,
			scaler:   "catmullrom",
		},
		{
			name:     "layer flag wins over geometry",
			args:     []string{"-g", "10x10+0+0+5", "-l", "7"},
			geometry: config.Geometry{Width: 10, Height: 10, Layer: 7},
			scaler:   "bilinear",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := configFromArgs(t, fs, tt.env, tt.args...)
			if err != nil {
				t.Fatalf("buildConfig: %v", err)
			}
			g, err := cfg.Display()
			if err != nil {
				t.Fatalf("Display: %v", err)
			}
			if cfg.Host != tt.host {
				t.Errorf("host = %q, want %q", cfg.Host, tt.host)
			}
			if diff := cmp.Diff(tt.geometry, g); diff != "" {
				t.Errorf("geometry mismatch (-want +got):\n%s", diff)
			}
			if cfg.Repeat != tt.repeat {
				t.Errorf("repeat = %v, want %v", cfg.Repeat, tt.repeat)
			}
			if cfg.Scaler != tt.scaler {
				t.Errorf("scaler = %q, want %q", cfg.Scaler, tt.scaler)
			}
		})
	}
}

func TestBuildConfig_Verbosity(t *testing.T) {
	cfg, err := configFromArgs(t, mocks.NewFileSystem(), nil, "-vv", "-c")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", cfg.Verbosity)
	}
	if !cfg.Clear {
		t.Error("expected clear to be set")
	}
}

func TestBuildConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "layer too high", args: []string{"-l", "16"}},
		{name: "negative repeat", args: []string{"-t", "-1"}},
		{name: "bad geometry", args: []string{"-g", "big"}},
		{name: "bad backend", args: []string{"--backend", "gstreamer"}},
		{name: "bad layer env", env: map[string]string{config.EnvLayer: "top"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := configFromArgs(t, mocks.NewFileSystem(), tt.env, tt.args...)
			if !errors.Is(err, config.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestBuildConfig_MissingConfigFile(t *testing.T) {
	_, err := configFromArgs(t, mocks.NewFileSystem(), nil, "--config", "missing.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"ftvideo", "version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), version) {
		t.Errorf("expected version in output, got %q", stdout.String())
	}
}

func TestRun_NoFiles(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"ftvideo"}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), usageLine) {
		t.Errorf("expected usage on stderr, got %q", stderr.String())
	}
}

func TestRun_InvalidGeometry(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"ftvideo", "-g", "0x0", "clip.mp4"}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if stderr.Len() == 0 {
		t.Error("expected an error message on stderr")
	}
}

func TestRun_ProbeMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"ftvideo", "probe", "--backend", "ffmpeg", "--format", "json", "/nonexistent/clip.mp4"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}

	var entries []probeEntry
	if err := json.Unmarshal(stdout.Bytes(), &entries); err != nil {
		t.Fatalf("decode probe output %q: %v", stdout.String(), err)
	}
	if len(entries) != 1 || entries[0].Path != "/nonexistent/clip.mp4" || entries[0].Error == "" {
		t.Errorf("unexpected probe output %+v", entries)
	}
}

func TestRun_TestcardOverUDP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real-time playback in short mode")
	}

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback UDP unavailable: %v", err)
	}
	defer pc.Close()

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"ftvideo", "testcard",
		"-h", pc.LocalAddr().String(),
		"-g", "8x8+2+3",
		"--fps", "20",
		"--duration", "0.1",
		"-q",
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	buf := make([]byte, 1024)
	for i := 0; i < 2; i++ {
		pc.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read datagram %d: %v", i, err)
		}
		got := buf[:n]
		if !bytes.HasPrefix(got, []byte("P6\n8 8\n255\n")) {
			t.Errorf("datagram %d: unexpected header %q", i, got[:12])
		}
		if !bytes.HasSuffix(got, []byte("\n2 3 0\n")) {
			t.Errorf("datagram %d: unexpected footer %q", i, got[n-7:])
		}
	}
}

func TestNewDebugSink_JPEG(t *testing.T) {
	fs := mocks.NewFileSystem()
	cfg := config.Defaults()
	cfg.DebugDir = "dbg"
	cfg.DebugFormat = "jpeg"

	sink, err := newDebugSink(&wiring{cfg: cfg, fs: fs, renderer: &mocks.Renderer{}})
	if err != nil {
		t.Fatalf("newDebugSink: %v", err)
	}
	if !sink.Enabled() {
		t.Fatal("expected an enabled sink")
	}
	if err := sink.SaveFrame("clip", 0, 1, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("SaveFrame: %v", err)
	}
	want := filepath.Join("dbg", "clip", "pass-000", "frame-00001.jpg")
	if _, ok := fs.GetFile(want); !ok {
		t.Errorf("expected %s, have %v", want, fs.Paths())
	}
}

func TestNewDebugSink_Disabled(t *testing.T) {
	sink, err := newDebugSink(&wiring{cfg: config.Defaults(), fs: mocks.NewFileSystem()})
	if err != nil {
		t.Fatal(err)
	}
	if sink.Enabled() {
		t.Error("expected a disabled sink without a debug directory")
	}
}
