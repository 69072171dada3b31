package domain

// Bar is one OHLCV period of the replayed series. TS is in seconds.
type Bar struct {
	TS     float64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	TS     float64
	Equity float64
}
