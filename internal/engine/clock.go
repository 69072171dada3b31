package engine

import (
	"fmt"

	"github.com/efreitasn/papertrader/internal/domain"
)

// MinBars is the shortest bar sequence a MarketClock accepts.
const MinBars = 50

// MarketClock replays a fixed bar sequence. The cursor always points at a
// valid bar, so Current is defined for the whole life of the clock.
type MarketClock struct {
	bars   []domain.Bar
	cursor int
	step   int
	paused bool
}

// NewMarketClock creates a paused clock positioned at the first bar. The
// slice is referenced, not copied, and must not be mutated afterwards.
func NewMarketClock(bars []domain.Bar, step int) (*MarketClock, error) {
	if len(bars) < MinBars {
		return nil, fmt.Errorf("%w: need at least %d bars, got %d", domain.ErrInsufficientData, MinBars, len(bars))
	}
	c := &MarketClock{bars: bars, step: 1, paused: true}
	if err := c.SetStep(step); err != nil {
		return nil, err
	}
	return c, nil
}

// Current returns the bar at the cursor.
func (c *MarketClock) Current() domain.Bar {
	return c.bars[c.cursor]
}

// CanAdvance reports whether the cursor is before the last bar.
func (c *MarketClock) CanAdvance() bool {
	return c.cursor < len(c.bars)-1
}

// Advance moves the cursor forward by the step size, clamped to the last
// bar, and returns the new current bar. At the end of data it is a no-op.
func (c *MarketClock) Advance() domain.Bar {
	c.cursor = min(c.cursor+c.step, len(c.bars)-1)
	return c.Current()
}

// Cursor returns the index of the current bar.
func (c *MarketClock) Cursor() int { return c.cursor }

// Len returns the number of bars in the replay.
func (c *MarketClock) Len() int { return len(c.bars) }

// Step returns how many bars each Advance moves.
func (c *MarketClock) Step() int { return c.step }

// Paused reports the play/pause state last set with SetPaused.
func (c *MarketClock) Paused() bool { return c.paused }

// SetStep changes how many bars each Advance skips.
func (c *MarketClock) SetStep(step int) error {
	if step < 1 {
		return fmt.Errorf("%w: step must be >= 1, got %d", domain.ErrInvalidStep, step)
	}
	c.step = step
	return nil
}

// SetPaused records the driving layer's play/pause state. The clock itself
// does not consult it.
func (c *MarketClock) SetPaused(paused bool) {
	c.paused = paused
}

// Window returns up to lookback bars ending at the cursor (inclusive). The
// returned slice is a copy.
func (c *MarketClock) Window(lookback int) []domain.Bar {
	if lookback < 1 {
		return []domain.Bar{}
	}
	start := max(0, c.cursor+1-lookback)
	out := make([]domain.Bar, c.cursor+1-start)
	copy(out, c.bars[start:c.cursor+1])
	return out
}
