package config

import (
	"fmt"
	"strconv"

	"github.com/user/ftvideo/pkg/ports"
)

// MaxDimension bounds width and height. A single UDP datagram cannot carry a
// wider or taller area, so anything larger is a typo.
const MaxDimension = 65507

// Geometry is a display area: size plus offset and layer.
type Geometry struct {
	Width  int
	Height int
	X      int
	Y      int
	Layer  int
}

// Offset returns the placement part of g.
func (g Geometry) Offset() ports.Offset {
	return ports.Offset{X: g.X, Y: g.Y, Layer: g.Layer}
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d%+d%+d%+d", g.Width, g.Height, g.X, g.Y, g.Layer)
}

// ParseGeometry parses "WxH", "WxH+X+Y" or "WxH+X+Y+L". Each offset is a
// signed integer, so "10x10-3+4" places the area three pixels left of the
// display edge.
func ParseGeometry(s string) (Geometry, error) {
	sc := scanner{s: s}

	var g Geometry
	var ok bool
	if g.Width, ok = sc.int(); !ok {
		return Geometry{}, geometryError(s, "missing width")
	}
	if !sc.literal('x') {
		return Geometry{}, geometryError(s, "expected 'x' after width")
	}
	if g.Height, ok = sc.int(); !ok {
		return Geometry{}, geometryError(s, "missing height")
	}
	for _, field := range []*int{&g.X, &g.Y, &g.Layer} {
		v, ok := sc.int()
		if !ok {
			break
		}
		*field = v
	}
	sc.space()
	if !sc.done() {
		return Geometry{}, geometryError(s, fmt.Sprintf("unexpected %q", s[sc.pos:]))
	}

	if g.Width <= 0 || g.Height <= 0 {
		return Geometry{}, geometryError(s, "size must be positive")
	}
	if g.Width > MaxDimension || g.Height > MaxDimension {
		return Geometry{}, geometryError(s, fmt.Sprintf("size exceeds %d", MaxDimension))
	}
	return g, nil
}

func geometryError(s, reason string) error {
	return fmt.Errorf("%w: geometry %q: %s", ErrInvalid, s, reason)
}

// scanner reads whitespace-separated signed integers the way scanf's %d does.
type scanner struct {
	s   string
	pos int
}

func (sc *scanner) done() bool { return sc.pos >= len(sc.s) }

func (sc *scanner) space() {
	for !sc.done() && (sc.s[sc.pos] == ' ' || sc.s[sc.pos] == '\t') {
		sc.pos++
	}
}

func (sc *scanner) literal(b byte) bool {
	if !sc.done() && sc.s[sc.pos] == b {
		sc.pos++
		return true
	}
	return false
}

// int consumes an optionally signed decimal. On failure nothing is consumed.
func (sc *scanner) int() (int, bool) {
	start := sc.pos
	sc.space()
	numStart := sc.pos
	if !sc.done() && (sc.s[sc.pos] == '+' || sc.s[sc.pos] == '-') {
		sc.pos++
	}
	digits := sc.pos
	for !sc.done() && sc.s[sc.pos] >= '0' && sc.s[sc.pos] <= '9' {
		sc.pos++
	}
	if sc.pos == digits {
		sc.pos = start
		return 0, false
	}
	v, err := strconv.Atoi(sc.s[numStart:sc.pos])
	if err != nil {
		sc.pos = start
		return 0, false
	}
	return v, true
}
