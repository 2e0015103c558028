package playback

import (
	"sync"
	"testing"
	"time"
)

func TestLatch(t *testing.T) {
	l := NewLatch()
	if l.IsSet() {
		t.Fatal("new latch must be unset")
	}
	select {
	case <-l.Done():
		t.Fatal("done closed before Set")
	default:
	}

	l.Set()
	l.Set()

	if !l.IsSet() {
		t.Fatal("expected latch to be set")
	}
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed after Set")
	}
}

func TestLatch_ConcurrentSet(t *testing.T) {
	l := NewLatch()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Set()
			_ = l.IsSet()
		}()
	}
	wg.Wait()

	if !l.IsSet() {
		t.Error("expected latch to be set")
	}
}

func TestSystemClock_SleepReturnsOnWake(t *testing.T) {
	wake := make(chan struct{})
	close(wake)

	began := time.Now()
	SystemClock{}.Sleep(time.Minute, wake)

	if time.Since(began) > time.Second {
		t.Error("expected Sleep to return immediately on a closed wake channel")
	}
}

func TestSystemClock_SleepNonPositive(t *testing.T) {
	began := time.Now()
	SystemClock{}.Sleep(-time.Second, nil)
	SystemClock{}.Sleep(0, nil)

	if time.Since(began) > 100*time.Millisecond {
		t.Error("expected non-positive sleeps to return immediately")
	}
}
