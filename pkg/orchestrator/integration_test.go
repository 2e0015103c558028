package orchestrator

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/user/ftvideo/pkg/adapters/ftdisplay"
	"github.com/user/ftvideo/pkg/adapters/ggrenderer"
	"github.com/user/ftvideo/pkg/adapters/logger"
	"github.com/user/ftvideo/pkg/adapters/scaler"
	"github.com/user/ftvideo/pkg/adapters/testcard"
	"github.com/user/ftvideo/pkg/playback"
	"github.com/user/ftvideo/pkg/ports"
)

// TestIntegration_TestCardOverUDP plays a short synthetic clip through the
// real scaler and Flaschen-Taschen sink to a loopback listener.
func TestIntegration_TestCardOverUDP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real-time playback in short mode")
	}
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback UDP unavailable: %v", err)
	}
	defer pc.Close()

	display, err := ftdisplay.New(pc.LocalAddr().String(), 45, 35, ports.Offset{X: 1, Y: 2, Layer: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer display.Close()

	opener := testcard.Opener{
		Options:  testcard.Options{Width: 64, Height: 48, FPS: 50, Duration: 100 * time.Millisecond},
		Renderer: ggrenderer.New(),
	}
	latch := playback.NewLatch()
	log := logger.NewNoop()
	sched := playback.New(latch, log)

	cfg := DefaultConfig()
	o := New(cfg, opener, scaler.Factory{Kernel: scaler.KernelBilinear}, sched, display, latch, log)

	start := time.Now()
	rr := o.Run(context.Background(), []string{"testcard"})
	elapsed := time.Since(start)

	if !rr.Success() || rr.Results[0].FramesEmitted != 5 {
		t.Fatalf("unexpected result %+v", rr)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("expected playback paced to about 100ms, took %s", elapsed)
	}

	// Five frames, then the layer is cleared.
	buf := make([]byte, ftdisplay.MaxDatagram)
	var last []byte
	for i := 0; i < 6; i++ {
		_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("datagram %d: %v", i, err)
		}
		last = append(last[:0], buf[:n]...)
		if !bytes.HasPrefix(last, []byte("P6\n45 35\n255\n")) {
			t.Fatalf("datagram %d has unexpected header %q", i, last[:16])
		}
		if !bytes.HasSuffix(last, []byte("\n1 2 1\n")) {
			t.Fatalf("datagram %d has unexpected footer", i)
		}
	}

	header := len("P6\n45 35\n255\n")
	pix := last[header : header+45*35*3]
	if bytes.Count(pix, []byte{0}) != len(pix) {
		t.Error("expected the final datagram to be black")
	}
}
