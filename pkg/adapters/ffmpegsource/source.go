package ffmpegsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/user/ftvideo/pkg/adapters/mp4probe"
	"github.com/user/ftvideo/pkg/frame"
	"github.com/user/ftvideo/pkg/ports"
)

// Options configures where the ffmpeg tools are found.
type Options struct {
	FFmpegPath  string
	FFprobePath string
}

// Opener opens files by spawning ffmpeg.
type Opener struct {
	opts   Options
	fs     ports.FileSystem
	logger ports.Logger
}

// NewOpener creates an opener. fs is used to check the input and to probe
// MP4 files when ffprobe is missing.
func NewOpener(opts Options, fs ports.FileSystem, logger ports.Logger) *Opener {
	return &Opener{opts: opts, fs: fs, logger: logger.WithComponent("ffmpeg")}
}

// Open probes path and starts decoding it.
func (o *Opener) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	ok, err := o.fs.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ports.ErrOpen, path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s: no such file", ports.ErrOpen, path)
	}

	ffmpeg, err := FindFFmpeg(o.opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrOpen, err)
	}

	info, err := o.streamInfo(ctx, ffmpeg, path)
	if err != nil {
		return nil, err
	}

	s := &Source{
		ffmpeg: ffmpeg,
		path:   path,
		info:   info,
		logger: o.logger,
		buf:    frame.NewRGB(info.Width, info.Height),
	}
	if err := s.start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrOpen, err)
	}
	return s, nil
}

func (o *Opener) streamInfo(ctx context.Context, ffmpeg, path string) (ports.StreamInfo, error) {
	ffprobe, err := FindFFprobe(o.opts.FFprobePath, ffmpeg)
	if err == nil {
		return probe(ctx, ffprobe, path)
	}
	if !mp4probe.IsMP4(path) {
		return ports.StreamInfo{}, fmt.Errorf("%w: %v", ports.ErrOpen, err)
	}

	o.logger.Debug("ffprobe not found, reading MP4 metadata directly")
	mi, err := mp4probe.Probe(o.fs, path)
	if err != nil {
		return ports.StreamInfo{}, err
	}
	if mi.FrameRate <= 0 {
		return ports.StreamInfo{}, fmt.Errorf("%w: no usable frame rate", ports.ErrNoVideoStream)
	}
	return mi.StreamInfo(), nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// Source reads rgb24 frames from a running ffmpeg process. Rewinding restarts
// the process.
type Source struct {
	mu     sync.Mutex
	ffmpeg string
	path   string
	info   ports.StreamInfo
	logger ports.Logger

	cmd    *exec.Cmd
	reader *bufio.Reader
	stderr *cappedBuffer
	buf    *frame.RGB
	index  int
	done   bool
	closed bool
}

func (s *Source) args() []string {
	return []string{
		"-nostdin",
		"-v", "error",
		"-noautorotate",
		"-i", s.path,
		"-map", "0:v:0",
		"-an", "-sn",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	}
}

func (s *Source) start() error {
	cmd := exec.Command(s.ffmpeg, s.args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	s.stderr = &cappedBuffer{limit: 4096}
	cmd.Stderr = s.stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	s.cmd = cmd
	s.reader = bufio.NewReaderSize(stdout, len(s.buf.Pix))
	s.index = 0
	s.done = false
	return nil
}

// stop ends the running process. With kill false the process is expected to
// have exited on its own and its exit status is returned.
func (s *Source) stop(kill bool) error {
	if s.cmd == nil {
		return nil
	}
	if kill && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	err := s.cmd.Wait()
	s.cmd = nil
	s.reader = nil
	if kill {
		return nil
	}
	return err
}

func (s *Source) Info() ports.StreamInfo {
	return s.info
}

// NextVideoFrame returns the next frame. The returned image is reused.
func (s *Source) NextVideoFrame() (ports.VideoFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.done || s.cmd == nil {
		return ports.VideoFrame{}, ports.ErrEndOfStream
	}

	if _, err := io.ReadFull(s.reader, s.buf.Pix); err != nil {
		s.done = true
		waitErr := s.stop(false)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if waitErr != nil && s.index == 0 {
				return ports.VideoFrame{}, fmt.Errorf("ffmpeg %s: %v (%s)", s.path, waitErr, s.stderr.String())
			}
			return ports.VideoFrame{}, ports.ErrEndOfStream
		}
		return ports.VideoFrame{}, fmt.Errorf("read ffmpeg output: %w", err)
	}

	idx := s.index
	s.index++
	return ports.VideoFrame{
		Image: s.buf,
		Index: idx,
		PTS:   time.Duration(float64(idx) / s.info.FrameRate * float64(time.Second)),
	}, nil
}

// SeekToStart restarts decoding from the beginning of the file.
func (s *Source) SeekToStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: source closed", ports.ErrSeek)
	}
	_ = s.stop(true)
	if err := s.start(); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrSeek, err)
	}
	return nil
}

// Close kills the process if it is still running.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.stop(true)
}

var _ ports.VideoSource = (*Source)(nil)

// cappedBuffer keeps the first limit bytes of ffmpeg diagnostics.
type cappedBuffer struct {
	mu    sync.Mutex
	limit int
	b     strings.Builder
}

func (t *cappedBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if room := t.limit - t.b.Len(); room > 0 {
		if len(p) > room {
			t.b.Write(p[:room])
		} else {
			t.b.Write(p)
		}
	}
	return len(p), nil
}

func (t *cappedBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(t.b.String())
}
