// Package metrics computes performance statistics over an equity series.
package metrics

// Returns produces the simple period returns of equity. The result is one
// element shorter than the input; a zero previous value yields a 0 return.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return []float64{}
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1]
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (equity[i]-prev)/prev)
	}
	return out
}

// MaxDrawdown returns the largest fractional decline from a running peak,
// in [0, 1] for positive series. A zero peak counts as no drawdown.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	var mdd float64
	for _, x := range equity {
		if x > peak {
			peak = x
		}
		if peak == 0 {
			continue
		}
		if dd := (peak - x) / peak; dd > mdd {
			mdd = dd
		}
	}
	return mdd
}

// Summary aggregates the headline statistics of a session.
type Summary struct {
	StartEquity float64
	EndEquity   float64
	TotalReturn float64
	MaxDrawdown float64
	Returns     []float64
	Points      int
	Fills       int
}

// Summarize builds a Summary from an equity series and a fill count.
func Summarize(equity []float64, fills int) Summary {
	s := Summary{
		Returns:     Returns(equity),
		MaxDrawdown: MaxDrawdown(equity),
		Points:      len(equity),
		Fills:       fills,
	}
	if len(equity) > 0 {
		s.StartEquity = equity[0]
		s.EndEquity = equity[len(equity)-1]
		if s.StartEquity != 0 {
			s.TotalReturn = (s.EndEquity - s.StartEquity) / s.StartEquity
		}
	}
	return s
}
