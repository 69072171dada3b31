package engine

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultMaxTicksPerFrame caps how many ticks a running session performs
// per frame, whatever its step size.
const DefaultMaxTicksPerFrame = 5

// FramePlayer advances every running session by one frame. It is
// implemented by the service layer, which serializes access per session.
type FramePlayer interface {
	PlayFrame(maxTicks int)
}

// Player drives automatic playback: on every interval it asks the
// FramePlayer to advance all sessions that are not paused.
type Player struct {
	interval time.Duration
	maxTicks int
	target   FramePlayer
	frames   atomic.Int64
}

// NewPlayer creates a Player. maxTicks below 1 falls back to
// DefaultMaxTicksPerFrame.
func NewPlayer(interval time.Duration, maxTicks int, target FramePlayer) *Player {
	if maxTicks < 1 {
		maxTicks = DefaultMaxTicksPerFrame
	}
	return &Player{
		interval: interval,
		maxTicks: maxTicks,
		target:   target,
	}
}

// Start launches a background goroutine that plays a frame at the
// configured interval. It stops when ctx is cancelled.
func (p *Player) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.frame()
			}
		}
	}()
}

func (p *Player) frame() {
	p.target.PlayFrame(p.maxTicks)
	p.frames.Add(1)
}

// Frames returns the number of frames played so far.
func (p *Player) Frames() int64 {
	return p.frames.Load()
}

// TicksPerFrame returns how many ticks a session with the given step runs
// in one frame.
func TicksPerFrame(step, maxTicks int) int {
	return max(1, min(step, maxTicks))
}
