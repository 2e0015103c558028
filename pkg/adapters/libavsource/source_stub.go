//go:build !libav

package libavsource

import (
	"context"

	"github.com/user/ftvideo/pkg/ports"
)

// Available reports whether libav decoding is compiled in.
func Available() bool { return false }

// Opener is a placeholder used when libav support is not compiled in.
type Opener struct{}

// NewOpener creates an opener that always fails.
func NewOpener(opts Options, logger ports.Logger) *Opener {
	return &Opener{}
}

// Open always returns ErrUnavailable.
func (o *Opener) Open(ctx context.Context, path string) (ports.VideoSource, error) {
	return nil, ErrUnavailable
}

var _ ports.SourceOpener = (*Opener)(nil)
