package domain

import "fmt"

// OrderKind distinguishes limit orders from market orders.
type OrderKind string

const (
	OrderKindMarket OrderKind = "market"
	OrderKindLimit  OrderKind = "limit"
)

// Side indicates whether an order buys or sells the asset.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide accepts the lowercase wire form of a side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), nil
	}
	return "", &ValidationError{Message: fmt.Sprintf("side must be 'buy' or 'sell', got %q", s)}
}

// Label returns the upper-case form used in exported tables.
func (s Side) Label() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	}
	return string(s)
}

// OrderStatus represents the lifecycle state of a submitted order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusRejected OrderStatus = "rejected"
)

// Order is a trader instruction. ID and CreatedTS are assigned by the
// matcher at submission; LimitPrice is nil for market orders.
type Order struct {
	ID         uint64
	Side       Side
	Kind       OrderKind
	Quantity   float64
	LimitPrice *float64
	CreatedTS  float64
}

// NewMarketOrder builds an unsubmitted market order.
func NewMarketOrder(side Side, qty float64) Order {
	return Order{Side: side, Kind: OrderKindMarket, Quantity: qty}
}

// NewLimitOrder builds an unsubmitted limit order.
func NewLimitOrder(side Side, qty, price float64) Order {
	return Order{Side: side, Kind: OrderKindLimit, Quantity: qty, LimitPrice: &price}
}
