package frame

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestNewRGB(t *testing.T) {
	p := NewRGB(45, 35)

	if p.Width() != 45 || p.Height() != 35 {
		t.Fatalf("expected 45x35, got %dx%d", p.Width(), p.Height())
	}
	if len(p.Pix) != 45*35*3 {
		t.Errorf("expected %d bytes, got %d", 45*35*3, len(p.Pix))
	}
	if p.Stride != 45*3 {
		t.Errorf("expected stride %d, got %d", 45*3, p.Stride)
	}
}

func TestRGB_SetAt(t *testing.T) {
	p := NewRGB(4, 3)
	p.Set(2, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	got := p.At(2, 1).(color.RGBA)
	if got.R != 10 || got.G != 20 || got.B != 30 || got.A != 255 {
		t.Errorf("unexpected color %+v", got)
	}

	i := p.PixOffset(2, 1)
	if p.Pix[i] != 10 || p.Pix[i+1] != 20 || p.Pix[i+2] != 30 {
		t.Errorf("unexpected bytes %v", p.Pix[i:i+3])
	}

	// Out of bounds is ignored.
	p.Set(10, 10, color.White)
	if c := p.At(10, 10).(color.RGBA); c != (color.RGBA{}) {
		t.Errorf("expected zero color out of bounds, got %+v", c)
	}
}

func TestRGB_Fill(t *testing.T) {
	p := NewRGB(3, 2)
	p.Fill(color.RGBA{R: 1, G: 2, B: 3, A: 255})

	for i := 0; i < len(p.Pix); i += 3 {
		if p.Pix[i] != 1 || p.Pix[i+1] != 2 || p.Pix[i+2] != 3 {
			t.Fatalf("pixel %d not filled: %v", i/3, p.Pix[i:i+3])
		}
	}

	p.Clear()
	for i, b := range p.Pix {
		if b != 0 {
			t.Fatalf("byte %d not cleared", i)
		}
	}
}

func TestRGB_DrawTarget(t *testing.T) {
	src := image.NewUniform(color.RGBA{R: 200, G: 100, B: 50, A: 255})
	p := NewRGB(8, 8)

	draw.Draw(p, p.Bounds(), src, image.Point{}, draw.Src)

	row := p.Row(7)
	if len(row) != 24 {
		t.Fatalf("expected row length 24, got %d", len(row))
	}
	if row[21] != 200 || row[22] != 100 || row[23] != 50 {
		t.Errorf("unexpected last pixel %v", row[21:24])
	}
}

func TestFromPacked(t *testing.T) {
	buf := make([]byte, 2*2*3+5)
	buf[3] = 99

	p := FromPacked(buf, 2, 2)
	if len(p.Pix) != 12 {
		t.Fatalf("expected 12 bytes, got %d", len(p.Pix))
	}
	if c := p.At(1, 0).(color.RGBA); c.R != 99 {
		t.Errorf("expected shared buffer, got %+v", c)
	}
}
