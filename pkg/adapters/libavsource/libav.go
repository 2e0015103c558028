// Package libavsource decodes video in-process with the FFmpeg libraries
// through go-astiav. It is compiled in with the "libav" build tag; without
// it every Open fails with ErrUnavailable.
package libavsource

import "errors"

// ErrUnavailable is returned when the binary was built without libav support.
var ErrUnavailable = errors.New("libavsource: built without libav support (use -tags libav)")

// Options configures the libav opener.
type Options struct {
	// LogLibav forwards FFmpeg's own diagnostics to stderr.
	LogLibav bool
}
