package feed

import (
	"math"
	"math/rand"

	"github.com/efreitasn/papertrader/internal/domain"
)

const (
	DefaultSyntheticBars  = 2500
	DefaultStartPrice     = 120.0
	DefaultSyntheticSeed  = 7
	syntheticDrift        = 0.00025
	syntheticCycle        = 0.0022
	syntheticCyclePeriod  = 34.0
	syntheticShockStdDev  = 0.010
	syntheticWickStdDev   = 0.003
	syntheticVolumeMean   = 1000.0
	syntheticVolumeStdDev = 250.0
	minSyntheticPrice     = 0.1
)

// Synthetic generates a deterministic random-walk bar sequence with a slow
// sinusoidal drift. The same parameters always produce the same bars.
type Synthetic struct {
	N          int
	StartPrice float64
	Seed       int64
}

// DefaultSynthetic returns the generator used when no bar source is given.
func DefaultSynthetic() Synthetic {
	return Synthetic{N: DefaultSyntheticBars, StartPrice: DefaultStartPrice, Seed: DefaultSyntheticSeed}
}

// Load generates the bars. Timestamps run 0, 1, 2, ...
func (s Synthetic) Load() []domain.Bar {
	if s.N <= 0 {
		return []domain.Bar{}
	}
	rng := rand.New(rand.NewSource(s.Seed))
	gauss := func(mean, stddev float64) float64 { return mean + stddev*rng.NormFloat64() }

	bars := make([]domain.Bar, 0, s.N)
	price := s.StartPrice
	for i := 0; i < s.N; i++ {
		ret := syntheticDrift +
			syntheticCycle*math.Sin(float64(i)/syntheticCyclePeriod) +
			gauss(0, syntheticShockStdDev)
		next := math.Max(minSyntheticPrice, price*(1+ret))

		o, c := price, next
		bars = append(bars, domain.Bar{
			TS:     float64(i),
			Open:   o,
			High:   math.Max(o, c) * (1 + math.Abs(gauss(0, syntheticWickStdDev))),
			Low:    math.Min(o, c) * (1 - math.Abs(gauss(0, syntheticWickStdDev))),
			Close:  c,
			Volume: math.Abs(gauss(syntheticVolumeMean, syntheticVolumeStdDev)),
		})
		price = next
	}
	return bars
}
