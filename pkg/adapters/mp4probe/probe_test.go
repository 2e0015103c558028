package mp4probe

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/ftvideo/pkg/mocks"
	"github.com/user/ftvideo/pkg/ports"
)

// buildFragmentedMP4 writes an fMP4 with one avc1 track of n samples at fps.
func buildFragmentedMP4(t *testing.T, width, height, fps, n int) []byte {
	t.Helper()

	timescale := uint32(fps * 1000)
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")
	trak := init.Moov.Trak
	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("avc1", uint16(width), uint16(height), nil))
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)

	frag, err := mp4.CreateFragment(1, trak.Tkhd.TrackID)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	for i := 0; i < n; i++ {
		data := []byte{0, 0, 0, 1, 0x65}
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: mp4.SyncSampleFlags,
				Size:  uint32(len(data)),
				Dur:   1000,
			},
			DecodeTime: uint64(i * 1000),
			Data:       data,
		})
	}

	var buf bytes.Buffer
	if err := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"}).Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatalf("encode fragment: %v", err)
	}
	return buf.Bytes()
}

func TestProbeReader_Fragmented(t *testing.T) {
	data := buildFragmentedMP4(t, 320, 240, 25, 50)

	info, err := ProbeReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProbeReader failed: %v", err)
	}

	if info.Codec != "h264" {
		t.Errorf("expected h264, got %q", info.Codec)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", info.Width, info.Height)
	}
	if !info.Fragmented {
		t.Error("expected fragmented")
	}
	if info.Frames != 50 {
		t.Errorf("expected 50 frames, got %d", info.Frames)
	}
	if info.FrameRate != 25 {
		t.Errorf("expected 25 fps, got %v", info.FrameRate)
	}
	if info.Duration != 2*time.Second {
		t.Errorf("expected 2s, got %s", info.Duration)
	}

	si := info.StreamInfo()
	if si.Container != "mp4" || si.FrameRate != 25 {
		t.Errorf("unexpected stream info %+v", si)
	}
}

func TestProbe_ThroughFileSystem(t *testing.T) {
	fs := mocks.NewFileSystem()
	_ = fs.WriteFile("clip.mp4", buildFragmentedMP4(t, 64, 48, 10, 5))

	info, err := Probe(fs, "clip.mp4")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Width != 64 || info.FrameRate != 10 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestProbe_MissingFile(t *testing.T) {
	_, err := Probe(mocks.NewFileSystem(), "missing.mp4")
	if !errors.Is(err, ports.ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

func TestProbeReader_Garbage(t *testing.T) {
	_, err := ProbeReader(bytes.NewReader([]byte("definitely not an mp4 file")))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestIsMP4(t *testing.T) {
	tests := map[string]bool{
		"a.mp4":     true,
		"b.MOV":     true,
		"c.m4v":     true,
		"d.mkv":     false,
		"e.webm":    false,
		"noext":     false,
		"dir.mp4/x": false,
	}
	for path, want := range tests {
		if got := IsMP4(path); got != want {
			t.Errorf("IsMP4(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestCodecName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"avc1", "h264"},
		{"avc3", "h264"},
		{"hev1", "hevc"},
		{"av01", "av1"},
		{"vp09", "vp9"},
		{"mp4v", "mp4v"},
	}
	for _, tt := range tests {
		if got := codecName(tt.in); got != tt.want {
			t.Errorf("codecName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
