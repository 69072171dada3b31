package handler

import (
	"time"

	"github.com/efreitasn/papertrader/internal/domain"
	"github.com/efreitasn/papertrader/internal/engine"
	"github.com/efreitasn/papertrader/internal/metrics"
	"github.com/efreitasn/papertrader/internal/service"
	"github.com/efreitasn/papertrader/internal/store"
)

type barResponse struct {
	TS     float64 `json:"ts"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type fillResponse struct {
	TS       float64 `json:"ts"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Fee      float64 `json:"fee"`
	OrderID  uint64  `json:"order_id"`
}

type equityPointResponse struct {
	TS     float64 `json:"ts"`
	Equity float64 `json:"equity"`
}

type ledgerResponse struct {
	StartingCash  float64 `json:"starting_cash"`
	Cash          float64 `json:"cash"`
	Quantity      float64 `json:"quantity"`
	AverageCost   float64 `json:"average_cost"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Equity        float64 `json:"equity"`
}

type snapshotResponse struct {
	Cursor        int            `json:"cursor"`
	Length        int            `json:"length"`
	Step          int            `json:"step"`
	Paused        bool           `json:"paused"`
	AtEnd         bool           `json:"at_end"`
	Bar           barResponse    `json:"bar"`
	Ledger        ledgerResponse `json:"ledger"`
	PendingOrders int            `json:"pending_orders"`
	Fills         int            `json:"fills"`
	EquityPoints  int            `json:"equity_points"`
	MaxDrawdown   float64        `json:"max_drawdown"`
}

type sessionResponse struct {
	SessionID string           `json:"session_id"`
	CreatedAt string           `json:"created_at"`
	State     snapshotResponse `json:"state"`
}

// orderResponse is a submitted order with its status. LimitPrice is null
// for market orders; Fill is null until the order fills.
type orderResponse struct {
	OrderID    uint64        `json:"order_id"`
	Type       string        `json:"type"`
	Side       string        `json:"side"`
	Quantity   float64       `json:"quantity"`
	LimitPrice *float64      `json:"limit_price"`
	CreatedTS  float64       `json:"created_ts"`
	Status     string        `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Fill       *fillResponse `json:"fill"`
}

type rejectionResponse struct {
	Fill  fillResponse `json:"fill"`
	Error string       `json:"error"`
}

type tickResponse struct {
	Ticks    int                   `json:"ticks"`
	Marked   []equityPointResponse `json:"marked"`
	Fills    []fillResponse        `json:"fills"`
	Rejected []rejectionResponse   `json:"rejected"`
	State    snapshotResponse      `json:"state"`
}

type reportResponse struct {
	StartEquity float64   `json:"start_equity"`
	EndEquity   float64   `json:"end_equity"`
	TotalReturn float64   `json:"total_return"`
	MaxDrawdown float64   `json:"max_drawdown"`
	Returns     []float64 `json:"returns"`
	Points      int       `json:"points"`
	Fills       int       `json:"fills"`
}

func buildBar(b domain.Bar) barResponse {
	return barResponse{TS: b.TS, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
}

func buildBars(bars []domain.Bar) []barResponse {
	result := make([]barResponse, len(bars))
	for i, b := range bars {
		result[i] = buildBar(b)
	}
	return result
}

func buildFill(f domain.Fill) fillResponse {
	return fillResponse{
		TS:       f.TS,
		Side:     string(f.Side),
		Quantity: f.Quantity,
		Price:    f.Price,
		Fee:      f.Fee,
		OrderID:  f.OrderID,
	}
}

func buildFills(fills []domain.Fill) []fillResponse {
	result := make([]fillResponse, len(fills))
	for i, f := range fills {
		result[i] = buildFill(f)
	}
	return result
}

func buildEquity(points []domain.EquityPoint) []equityPointResponse {
	result := make([]equityPointResponse, len(points))
	for i, p := range points {
		result[i] = equityPointResponse{TS: p.TS, Equity: p.Equity}
	}
	return result
}

func buildSnapshot(s engine.Snapshot) snapshotResponse {
	return snapshotResponse{
		Cursor: s.Cursor,
		Length: s.Length,
		Step:   s.Step,
		Paused: s.Paused,
		AtEnd:  s.AtEnd,
		Bar:    buildBar(s.Bar),
		Ledger: ledgerResponse{
			StartingCash:  s.Ledger.StartingCash,
			Cash:          s.Ledger.Cash,
			Quantity:      s.Ledger.Quantity,
			AverageCost:   s.Ledger.AverageCost,
			RealizedPnL:   s.Ledger.RealizedPnL,
			UnrealizedPnL: s.UnrealizedPnL,
			Equity:        s.Equity,
		},
		PendingOrders: s.PendingOrders,
		Fills:         s.Fills,
		EquityPoints:  s.EquityPoints,
		MaxDrawdown:   s.MaxDrawdown,
	}
}

func buildSession(info service.SessionInfo) sessionResponse {
	return sessionResponse{
		SessionID: info.ID,
		CreatedAt: info.CreatedAt.UTC().Format(time.RFC3339),
		State:     buildSnapshot(info.Snapshot),
	}
}

func buildOrder(o domain.Order, status domain.OrderStatus, fill *domain.Fill, reason string) orderResponse {
	resp := orderResponse{
		OrderID:    o.ID,
		Type:       string(o.Kind),
		Side:       string(o.Side),
		Quantity:   o.Quantity,
		LimitPrice: o.LimitPrice,
		CreatedTS:  o.CreatedTS,
		Status:     string(status),
		Reason:     reason,
	}
	if fill != nil {
		f := buildFill(*fill)
		resp.Fill = &f
	}
	return resp
}

func buildOrderRecord(r store.OrderRecord) orderResponse {
	return buildOrder(r.Order, r.Status, r.Fill, r.Reason)
}

func buildTick(s service.TickSummary) tickResponse {
	resp := tickResponse{
		Ticks:    s.Ticks,
		Marked:   buildEquity(s.Marked),
		Fills:    buildFills(s.Fills),
		Rejected: make([]rejectionResponse, len(s.Rejected)),
		State:    buildSnapshot(s.Snapshot),
	}
	for i, r := range s.Rejected {
		resp.Rejected[i] = rejectionResponse{Fill: buildFill(r.Fill), Error: r.Err.Error()}
	}
	return resp
}

func buildReport(s metrics.Summary) reportResponse {
	return reportResponse{
		StartEquity: s.StartEquity,
		EndEquity:   s.EndEquity,
		TotalReturn: s.TotalReturn,
		MaxDrawdown: s.MaxDrawdown,
		Returns:     s.Returns,
		Points:      s.Points,
		Fills:       s.Fills,
	}
}
