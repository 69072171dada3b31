package engine

import (
	"fmt"

	"github.com/efreitasn/papertrader/internal/domain"
)

const (
	DefaultFeeRate     = 0.0005
	DefaultSlippageBps = 2.0
)

// CostModel configures execution costs. FeeRate is a fraction of notional;
// SlippageBps is applied against the trader on market orders.
type CostModel struct {
	FeeRate     float64
	SlippageBps float64
}

// DefaultCostModel returns the default fee and slippage settings.
func DefaultCostModel() CostModel {
	return CostModel{FeeRate: DefaultFeeRate, SlippageBps: DefaultSlippageBps}
}

func (c CostModel) fee(notional float64) float64 {
	return notional * c.FeeRate
}

func (c CostModel) slippage() float64 {
	return c.SlippageBps / 10_000.0
}

// Matcher turns orders into fills against bars and owns the set of resting
// limit orders. A Matcher is not safe for concurrent use.
type Matcher struct {
	costs   CostModel
	nextID  uint64
	pending *PendingBook
}

// NewMatcher creates a Matcher with the given cost model. Order ids start
// at 1.
func NewMatcher(costs CostModel) *Matcher {
	return &Matcher{
		costs:   costs,
		nextID:  1,
		pending: NewPendingBook(),
	}
}

// Costs returns the matcher's cost model.
func (m *Matcher) Costs() CostModel {
	return m.costs
}

// Submit validates the order, assigns its id and creation timestamp, and
// rests it on the pending book if it is a limit order. Ids are consumed
// only by valid orders and are never reused.
func (m *Matcher) Submit(order domain.Order, ts float64) (domain.Order, error) {
	if !domain.PositiveFinite(order.Quantity) {
		return domain.Order{}, fmt.Errorf("%w: quantity must be a finite number > 0, got %v", domain.ErrInvalidOrder, order.Quantity)
	}
	switch order.Side {
	case domain.SideBuy, domain.SideSell:
	default:
		return domain.Order{}, fmt.Errorf("%w: unknown side %q", domain.ErrInvalidOrder, order.Side)
	}
	switch order.Kind {
	case domain.OrderKindMarket:
	case domain.OrderKindLimit:
		if order.LimitPrice == nil {
			return domain.Order{}, fmt.Errorf("%w: limit order requires a limit price", domain.ErrInvalidOrder)
		}
		if !domain.PositiveFinite(*order.LimitPrice) {
			return domain.Order{}, fmt.Errorf("%w: limit price must be a finite number > 0, got %v", domain.ErrInvalidOrder, *order.LimitPrice)
		}
	default:
		return domain.Order{}, fmt.Errorf("%w: unknown order kind %q", domain.ErrInvalidOrder, order.Kind)
	}

	order.ID = m.nextID
	m.nextID++
	order.CreatedTS = ts

	if order.Kind == domain.OrderKindLimit {
		m.pending.Insert(order)
	}
	return order, nil
}

// FillMarket executes order at the bar's close moved against the trader by
// the slippage fraction. It always produces a fill.
func (m *Matcher) FillMarket(bar domain.Bar, order domain.Order) domain.Fill {
	slip := m.costs.slippage()
	price := bar.Close * (1 - slip)
	if order.Side == domain.SideBuy {
		price = bar.Close * (1 + slip)
	}
	return domain.Fill{
		TS:       bar.TS,
		Side:     order.Side,
		Quantity: order.Quantity,
		Price:    price,
		Fee:      m.costs.fee(order.Quantity * price),
		OrderID:  order.ID,
	}
}

// FillLimitOnBar fills order at its limit price when the bar's range
// touches it: low <= limit for buys, high >= limit for sells. There are no
// partial fills; ok is false when the price was not touched.
func (m *Matcher) FillLimitOnBar(bar domain.Bar, order domain.Order) (fill domain.Fill, ok bool) {
	if order.LimitPrice == nil {
		return domain.Fill{}, false
	}
	limit := *order.LimitPrice

	switch order.Side {
	case domain.SideBuy:
		ok = bar.Low <= limit
	case domain.SideSell:
		ok = bar.High >= limit
	}
	if !ok {
		return domain.Fill{}, false
	}

	return domain.Fill{
		TS:       bar.TS,
		Side:     order.Side,
		Quantity: order.Quantity,
		Price:    limit,
		Fee:      m.costs.fee(order.Quantity * limit),
		OrderID:  order.ID,
	}, true
}

// ProcessPendingLimits evaluates every resting limit order against bar,
// removes the ones that fill and returns their fills in submission order.
// Orders that do not fill stay on the book with no expiry.
func (m *Matcher) ProcessPendingLimits(bar domain.Bar) []domain.Fill {
	var fills []domain.Fill
	m.pending.Walk(func(o domain.Order) bool {
		if f, ok := m.FillLimitOnBar(bar, o); ok {
			fills = append(fills, f)
		}
		return true
	})
	// Remove after the walk; the tree must not change while iterating.
	for _, f := range fills {
		m.pending.Remove(f.OrderID)
	}
	return fills
}

// PendingCount returns the number of resting limit orders.
func (m *Matcher) PendingCount() int {
	return m.pending.Len()
}

// PendingOrders returns the resting limit orders in submission order.
func (m *Matcher) PendingOrders() []domain.Order {
	return m.pending.Orders()
}
