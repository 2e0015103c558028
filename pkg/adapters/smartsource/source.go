// Package smartsource selects the decoding backend for video files: libav
// in-process when it is compiled in, the ffmpeg command otherwise.
package smartsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/ftvideo/pkg/adapters/ffmpegsource"
	"github.com/user/ftvideo/pkg/adapters/libavsource"
	"github.com/user/ftvideo/pkg/ports"
)

// Backend names a decoding backend.
type Backend string

const (
	// BackendAuto prefers libav and falls back to ffmpeg.
	BackendAuto Backend = "auto"
	// BackendLibav decodes in-process with the FFmpeg libraries.
	BackendLibav Backend = "libav"
	// BackendFFmpeg spawns the ffmpeg command.
	BackendFFmpeg Backend = "ffmpeg"
)

// ErrUnknownBackend is returned for an unrecognized backend name.
var ErrUnknownBackend = errors.New("smartsource: unknown backend")

// ParseBackend parses a backend name. The empty string means auto.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendLibav, BackendFFmpeg:
		return Backend(s), nil
	}
	return "", fmt.Errorf("%w: %q (want auto, libav or ffmpeg)", ErrUnknownBackend, s)
}

// Options configures backend selection.
type Options struct {
	Backend Backend
	FFmpeg  ffmpegsource.Options
	Libav   libavsource.Options
}

// Opener dispatches Open to the selected backend.
type Opener struct {
	backend Backend
	libav   ports.SourceOpener
	ffmpeg  ports.SourceOpener
	logger  ports.Logger
}

// New builds an opener for opts.Backend. Asking for libav explicitly in a
// build without it is an error.
func New(opts Options, fs ports.FileSystem, logger ports.Logger) (*Opener, error) {
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	if backend == BackendLibav && !libavsource.Available() {
		return nil, libavsource.ErrUnavailable
	}

	var libav ports.SourceOpener
	if libavsource.Available() {
		libav = libavsource.NewOpener(opts.Libav, logger)
	}
	return NewWith(backend, libav, ffmpegsource.NewOpener(opts.FFmpeg, fs, logger), logger), nil
}

// NewWith builds an opener from explicit backends. libav may be nil when it
// is not available.
func NewWith(backend Backend, libav, ffmpeg ports.SourceOpener, logger ports.Logger) *Opener {
	return &Opener{
		backend: backend,
		libav:   libav,
		ffmpeg:  ffmpeg,
		logger:  logger.WithComponent("source"),
	}
}

// Backend returns the backend that is tried first.
func (o *Opener) Backend() Backend {
	if o.backend == BackendAuto {
		if o.libav != nil {
			return BackendLibav
		}
		return BackendFFmpeg
	}
	return o.backend
}

// Open opens path with the selected backend. In auto mode a file libav
// cannot decode is retried with ffmpeg.
func (o *Opener) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	switch o.backend {
	case BackendLibav:
		return o.libav.Open(ctx, path)
	case BackendFFmpeg:
		return o.ffmpeg.Open(ctx, path)
	}

	if o.libav == nil {
		return o.ffmpeg.Open(ctx, path)
	}
	src, err := o.libav.Open(ctx, path)
	if err == nil {
		return src, nil
	}
	if !errors.Is(err, ports.ErrUnsupportedCodec) {
		return nil, err
	}
	o.logger.Debug("Falling back to ffmpeg for %s: %v", path, err)
	return o.ffmpeg.Open(ctx, path)
}

var _ ports.SourceOpener = (*Opener)(nil)
