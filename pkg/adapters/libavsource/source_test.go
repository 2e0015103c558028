package libavsource

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/ftvideo/pkg/mocks"
	"github.com/user/ftvideo/pkg/ports"
)

func TestOpen_MissingFile(t *testing.T) {
	o := NewOpener(Options{}, mocks.NewLogger())

	_, err := o.Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if err == nil {
		t.Fatal("expected error")
	}

	if Available() {
		if !errors.Is(err, ports.ErrOpen) {
			t.Errorf("expected ErrOpen, got %v", err)
		}
	} else if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
