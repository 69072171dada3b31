package engine

import (
	"math"

	"github.com/efreitasn/papertrader/internal/domain"
)

// makeBars builds n well-formed bars with closes following fn(i).
func makeBars(n int, fn func(i int) float64) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		c := fn(i)
		bars[i] = domain.Bar{
			TS:     float64(i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func flatBars(n int, price float64) []domain.Bar {
	return makeBars(n, func(int) float64 { return price })
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func bar(ts, open, high, low, close float64) domain.Bar {
	return domain.Bar{TS: ts, Open: open, High: high, Low: low, Close: close}
}
