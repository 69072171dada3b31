package engine

import (
	"errors"
	"testing"

	"github.com/efreitasn/papertrader/internal/domain"
)

func TestNewMarketClock_InsufficientData(t *testing.T) {
	for _, n := range []int{0, 1, MinBars - 1} {
		_, err := NewMarketClock(flatBars(n, 100), 1)
		if !errors.Is(err, domain.ErrInsufficientData) {
			t.Errorf("NewMarketClock(%d bars) error = %v, want ErrInsufficientData", n, err)
		}
	}
}

func TestNewMarketClock_InvalidStep(t *testing.T) {
	_, err := NewMarketClock(flatBars(MinBars, 100), 0)
	if !errors.Is(err, domain.ErrInvalidStep) {
		t.Fatalf("error = %v, want ErrInvalidStep", err)
	}
}

func TestMarketClock_StartsPausedAtFirstBar(t *testing.T) {
	c, err := NewMarketClock(makeBars(MinBars, func(i int) float64 { return float64(100 + i) }), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Cursor() != 0 || c.Current().Close != 100 {
		t.Errorf("cursor=%d close=%v, want 0 and 100", c.Cursor(), c.Current().Close)
	}
	if !c.Paused() {
		t.Error("new clock should be paused")
	}
	if c.Len() != MinBars {
		t.Errorf("Len() = %d, want %d", c.Len(), MinBars)
	}
}

func TestMarketClock_AdvanceByStep(t *testing.T) {
	c, _ := NewMarketClock(makeBars(60, func(i int) float64 { return float64(i) }), 3)

	b := c.Advance()
	if c.Cursor() != 3 || b.Close != 3 {
		t.Fatalf("after one advance: cursor=%d close=%v, want 3", c.Cursor(), b.Close)
	}

	if err := c.SetStep(10); err != nil {
		t.Fatalf("SetStep: %v", err)
	}
	c.Advance()
	if c.Cursor() != 13 {
		t.Fatalf("cursor = %d, want 13", c.Cursor())
	}
}

func TestMarketClock_ClampsAtEnd(t *testing.T) {
	c, _ := NewMarketClock(makeBars(MinBars, func(i int) float64 { return float64(i) }), 7)

	for c.CanAdvance() {
		c.Advance()
	}
	if c.Cursor() != MinBars-1 {
		t.Fatalf("cursor = %d, want %d", c.Cursor(), MinBars-1)
	}

	// Repeated advances at the end are no-ops returning the final bar.
	for i := 0; i < 5; i++ {
		b := c.Advance()
		if c.Cursor() != MinBars-1 || b.Close != float64(MinBars-1) {
			t.Fatalf("advance past end moved cursor to %d (close %v)", c.Cursor(), b.Close)
		}
	}
}

func TestMarketClock_SetPaused(t *testing.T) {
	c, _ := NewMarketClock(flatBars(MinBars, 1), 1)
	c.SetPaused(false)
	if c.Paused() {
		t.Error("Paused() = true after SetPaused(false)")
	}
}

func TestMarketClock_Window(t *testing.T) {
	c, _ := NewMarketClock(makeBars(60, func(i int) float64 { return float64(i) }), 1)
	for i := 0; i < 10; i++ {
		c.Advance()
	}

	tests := []struct {
		lookback  int
		wantLen   int
		wantFirst float64
	}{
		{0, 0, 0},
		{1, 1, 10},
		{5, 5, 6},
		{250, 11, 0},
	}
	for _, tt := range tests {
		w := c.Window(tt.lookback)
		if len(w) != tt.wantLen {
			t.Errorf("Window(%d) len = %d, want %d", tt.lookback, len(w), tt.wantLen)
			continue
		}
		if tt.wantLen > 0 {
			if w[0].Close != tt.wantFirst || w[len(w)-1].Close != 10 {
				t.Errorf("Window(%d) = [%v..%v], want [%v..10]", tt.lookback, w[0].Close, w[len(w)-1].Close, tt.wantFirst)
			}
		}
	}
}
