package domain

import "math"

// Fill is an execution produced by the matcher and consumed by the ledger.
type Fill struct {
	TS       float64
	Side     Side
	Quantity float64
	Price    float64
	Fee      float64 // quote currency, >= 0
	OrderID  uint64
}

// Notional returns quantity × price, excluding the fee.
func (f Fill) Notional() float64 {
	return f.Quantity * f.Price
}

// PositiveFinite reports whether x is a usable quantity or price: greater
// than zero and neither NaN nor infinite.
func PositiveFinite(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}
