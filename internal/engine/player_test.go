package engine

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingFramePlayer struct {
	mu    sync.Mutex
	calls []int
}

func (r *recordingFramePlayer) PlayFrame(maxTicks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, maxTicks)
}

func (r *recordingFramePlayer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestPlayer_FramePassesMaxTicks(t *testing.T) {
	rec := &recordingFramePlayer{}
	p := NewPlayer(time.Hour, 3, rec)

	p.frame()
	p.frame()

	if rec.count() != 2 {
		t.Fatalf("expected 2 frames, got %d", rec.count())
	}
	if rec.calls[0] != 3 {
		t.Errorf("maxTicks = %d, want 3", rec.calls[0])
	}
	if p.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", p.Frames())
	}
}

func TestPlayer_DefaultMaxTicks(t *testing.T) {
	rec := &recordingFramePlayer{}
	p := NewPlayer(time.Hour, 0, rec)
	p.frame()
	if rec.calls[0] != DefaultMaxTicksPerFrame {
		t.Errorf("maxTicks = %d, want %d", rec.calls[0], DefaultMaxTicksPerFrame)
	}
}

func TestPlayer_StartAndStop(t *testing.T) {
	rec := &recordingFramePlayer{}
	p := NewPlayer(5*time.Millisecond, 1, rec)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if rec.count() < 3 {
		t.Fatalf("expected at least 3 frames, got %d", rec.count())
	}

	// Allow the goroutine to observe cancellation, then make sure no more
	// frames are played.
	time.Sleep(30 * time.Millisecond)
	stopped := rec.count()
	time.Sleep(30 * time.Millisecond)
	if rec.count() != stopped {
		t.Errorf("frames continued after cancel: %d -> %d", stopped, rec.count())
	}
}

func TestTicksPerFrame(t *testing.T) {
	tests := []struct{ step, max, want int }{
		{1, 5, 1},
		{3, 5, 3},
		{30, 5, 5},
		{0, 5, 1},
	}
	for _, tt := range tests {
		if got := TicksPerFrame(tt.step, tt.max); got != tt.want {
			t.Errorf("TicksPerFrame(%d, %d) = %d, want %d", tt.step, tt.max, got, tt.want)
		}
	}
}
