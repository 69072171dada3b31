package store

import (
	"sync"

	"github.com/efreitasn/papertrader/internal/domain"
)

// FillLog is a thread-safe, append-only, chronological log of fills.
type FillLog struct {
	mu    sync.RWMutex
	fills []domain.Fill
}

// NewFillLog creates an empty FillLog.
func NewFillLog() *FillLog {
	return &FillLog{
		fills: make([]domain.Fill, 0),
	}
}

// Append adds a fill to the end of the log.
func (s *FillLog) Append(f domain.Fill) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fills = append(s.fills, f)
}

// All returns every fill in the order they were applied.
func (s *FillLog) All() []domain.Fill {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]domain.Fill, len(s.fills))
	copy(result, s.fills)
	return result
}

// Len returns the number of fills logged.
func (s *FillLog) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.fills)
}

// EquityCurve is a thread-safe, append-only series of equity samples.
type EquityCurve struct {
	mu     sync.RWMutex
	points []domain.EquityPoint
}

// NewEquityCurve creates an empty EquityCurve.
func NewEquityCurve() *EquityCurve {
	return &EquityCurve{
		points: make([]domain.EquityPoint, 0),
	}
}

// Append records one sample.
func (c *EquityCurve) Append(p domain.EquityPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.points = append(c.points, p)
}

// Points returns a copy of every sample.
func (c *EquityCurve) Points() []domain.EquityPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]domain.EquityPoint, len(c.points))
	copy(result, c.points)
	return result
}

// Values returns the equity values only.
func (c *EquityCurve) Values() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]float64, len(c.points))
	for i, p := range c.points {
		result[i] = p.Equity
	}
	return result
}

// Times returns the sample timestamps only.
func (c *EquityCurve) Times() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]float64, len(c.points))
	for i, p := range c.points {
		result[i] = p.TS
	}
	return result
}

// Len returns the number of samples.
func (c *EquityCurve) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.points)
}
