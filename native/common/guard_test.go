package common

import (
	"errors"
	"testing"
)

type pauseSet map[string]bool

func (p pauseSet) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, "auctionhouse"); err != nil {
		t.Fatalf("nil view must not block: %v", err)
	}
	view := pauseSet{"auctionhouse": true}
	if err := Guard(view, "auctionhouse"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused error, got %v", err)
	}
	if err := Guard(view, "auctioneer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
