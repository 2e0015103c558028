package ggrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/user/ftvideo/pkg/ports"
)

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(45, 35, color.Black)
	img := canvas.ToImage()

	if b := img.Bounds(); b.Dx() != 45 || b.Dy() != 35 {
		t.Errorf("expected 45x35, got %dx%d", b.Dx(), b.Dy())
	}
	if red, _, _, a := img.At(0, 0).RGBA(); red != 0 || a != 0xffff {
		t.Errorf("expected opaque black background, got r=%d a=%d", red, a)
	}
}

func TestRenderer_EncodePNG(t *testing.T) {
	r := New()
	img := image.NewRGBA(image.Rect(0, 0, 30, 20))

	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("expected 30x20, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderer_EncodeJPEG(t *testing.T) {
	r := New()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))

	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("expected JPEG SOI marker")
	}
}

func TestRenderer_EncodeUnknownFormat(t *testing.T) {
	r := New()
	if _, err := r.EncodeImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), ports.ImageFormat(99), 0); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestCanvas_DrawRect(t *testing.T) {
	canvas := New().CreateCanvas(100, 100, color.White)

	canvas.DrawRect(10, 10, 30, 30, color.RGBA{R: 255, A: 255})

	red, green, _, _ := canvas.ToImage().At(20, 20).RGBA()
	if red == 0 || green != 0 {
		t.Error("expected red pixel inside rectangle")
	}
}

func TestCanvas_DrawCircle(t *testing.T) {
	canvas := New().CreateCanvas(40, 40, color.Black)

	canvas.DrawCircle(20, 20, 10, color.White)

	img := canvas.ToImage()
	if c, _, _, _ := img.At(20, 20).RGBA(); c != 0xffff {
		t.Error("expected white pixel at circle center")
	}
	if c, _, _, _ := img.At(2, 2).RGBA(); c != 0 {
		t.Error("expected black pixel outside circle")
	}
}

func TestCanvas_DrawLine(t *testing.T) {
	canvas := New().CreateCanvas(100, 100, color.White)

	canvas.DrawLine(0, 50, 100, 50, color.Black, 2)

	r1, g1, b1, _ := canvas.ToImage().At(50, 50).RGBA()
	if r1 == 0xffff && g1 == 0xffff && b1 == 0xffff {
		t.Error("expected non-white pixel on line")
	}
}

func TestCanvas_DrawText(t *testing.T) {
	canvas := New().CreateCanvas(200, 50, color.White)

	// Should not panic, even with a missing font.
	canvas.DrawText("00:01", 100, 25, ports.TextStyle{
		FontSize: 14,
		FontPath: "/nonexistent/font.ttf",
		Color:    color.Black,
		Align:    ports.AlignCenter,
	})

	if canvas.ToImage() == nil {
		t.Error("expected image")
	}
}
