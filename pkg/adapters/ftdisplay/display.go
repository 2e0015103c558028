// Package ftdisplay sends frames to a Flaschen-Taschen display over UDP.
//
// Each frame is a single datagram holding a binary PPM (P6) image followed by
// an offset footer:
//
//	P6\n<width> <height>\n255\n<rgb bytes>\n<x> <y> <layer>\n
package ftdisplay

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/user/ftvideo/pkg/frame"
	"github.com/user/ftvideo/pkg/ports"
)

const (
	// DefaultPort is the Flaschen-Taschen UDP port.
	DefaultPort = 1337

	// DefaultHost is used when neither a host nor FT_DISPLAY is given.
	DefaultHost = "localhost"

	// HostEnv names the environment variable holding the display host.
	HostEnv = "FT_DISPLAY"

	// MaxDatagram is the largest UDP payload over IPv4.
	MaxDatagram = 65507

	// MaxLayer is the highest layer a display accepts.
	MaxLayer = 15
)

var (
	// ErrFrameTooLarge is returned when a frame does not fit one datagram.
	ErrFrameTooLarge = errors.New("frame exceeds UDP datagram size")

	// ErrInvalidGeometry is returned for non-positive sizes or a layer outside 0..15.
	ErrInvalidGeometry = errors.New("invalid display geometry")

	// ErrClosed is returned when sending on a closed display.
	ErrClosed = errors.New("display closed")
)

// ResolveHost returns host when set, then $FT_DISPLAY, then localhost.
func ResolveHost(host string) string {
	if host != "" {
		return host
	}
	if env := os.Getenv(HostEnv); env != "" {
		return env
	}
	return DefaultHost
}

// Address returns host:port for a display host that may already carry a port.
func Address(host string) string {
	host = ResolveHost(host)
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(DefaultPort))
}

// Display is a ports.PixelSink writing to a UDP-connected Flaschen-Taschen
// server. The datagram buffer is allocated once; only the pixel section is
// rewritten per frame.
type Display struct {
	mu     sync.Mutex
	conn   net.Conn
	width  int
	height int
	offset ports.Offset

	buf      []byte
	pixStart int
	pixEnd   int
	closed   bool
}

// New dials the display at host (see Address) for a width x height raster
// placed at offset.
func New(host string, width, height int, offset ports.Offset) (*Display, error) {
	buf, pixStart, err := datagram(width, height, offset)
	if err != nil {
		return nil, err
	}

	conn, err := net.Dial("udp", Address(host))
	if err != nil {
		return nil, fmt.Errorf("connect to display: %w", err)
	}
	return &Display{
		conn:     conn,
		width:    width,
		height:   height,
		offset:   offset,
		buf:      buf,
		pixStart: pixStart,
		pixEnd:   pixStart + width*height*frame.BytesPerPixel,
	}, nil
}

// datagram lays out header and footer around a zeroed pixel section.
func datagram(width, height int, offset ports.Offset) ([]byte, int, error) {
	if width <= 0 || height <= 0 {
		return nil, 0, fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, width, height)
	}
	if offset.Layer < 0 || offset.Layer > MaxLayer {
		return nil, 0, fmt.Errorf("%w: layer %d not in 0..%d", ErrInvalidGeometry, offset.Layer, MaxLayer)
	}
	// Checked by division so huge sizes cannot overflow the byte count.
	if height > MaxDatagram || width > MaxDatagram/(height*frame.BytesPerPixel) {
		return nil, 0, fmt.Errorf("%w: %dx%d exceeds the %d byte datagram", ErrFrameTooLarge, width, height, MaxDatagram)
	}

	header := fmt.Sprintf("P6\n%d %d\n255\n", width, height)
	footer := fmt.Sprintf("\n%d %d %d\n", offset.X, offset.Y, offset.Layer)
	pixels := width * height * frame.BytesPerPixel

	size := len(header) + pixels + len(footer)
	if size > MaxDatagram {
		return nil, 0, fmt.Errorf("%w: %dx%d needs %d bytes, limit %d", ErrFrameTooLarge, width, height, size, MaxDatagram)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, header...)
	buf = append(buf, make([]byte, pixels)...)
	buf = append(buf, footer...)
	return buf, len(header), nil
}

func (d *Display) Width() int           { return d.width }
func (d *Display) Height() int          { return d.height }
func (d *Display) Offset() ports.Offset { return d.offset }

// Emit sends f. Its geometry must match the display.
func (d *Display) Emit(f *frame.RGB) error {
	if f.Width() != d.width || f.Height() != d.height {
		return fmt.Errorf("%w: frame %dx%d, display %dx%d", ErrInvalidGeometry, f.Width(), f.Height(), d.width, d.height)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	pix := d.buf[d.pixStart:d.pixEnd]
	rowBytes := d.width * frame.BytesPerPixel
	for y := 0; y < d.height; y++ {
		copy(pix[y*rowBytes:(y+1)*rowBytes], f.Row(f.Rect.Min.Y+y))
	}
	return d.send()
}

// Clear sends an all-black frame to the display's area and layer.
func (d *Display) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	pix := d.buf[d.pixStart:d.pixEnd]
	for i := range pix {
		pix[i] = 0
	}
	return d.send()
}

func (d *Display) send() error {
	if _, err := d.conn.Write(d.buf); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// Close closes the UDP socket. It is safe to call more than once.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.conn.Close()
}

var _ ports.PixelSink = (*Display)(nil)
