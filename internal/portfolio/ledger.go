// Package portfolio holds the single-asset cash and position ledger.
package portfolio

import (
	"fmt"
	"math"

	"github.com/efreitasn/papertrader/internal/domain"
)

const (
	// Tolerance absorbs floating-point rounding when checking cash and
	// position bounds.
	Tolerance = 1e-9

	// dustQuantity is the size below which a remaining position is
	// snapped to zero after a sell.
	dustQuantity = 1e-12
)

// Snapshot is a read-only copy of the ledger state.
type Snapshot struct {
	StartingCash float64
	Cash         float64
	Quantity     float64
	AverageCost  float64
	RealizedPnL  float64
}

// Ledger is the sole owner of cash and position truth. Every mutation goes
// through ApplyFill. A Ledger is not safe for concurrent use.
type Ledger struct {
	startingCash float64
	cash         float64
	qty          float64
	avgCost      float64
	realizedPnL  float64
}

// NewLedger creates a flat ledger holding startingCash.
func NewLedger(startingCash float64) *Ledger {
	return &Ledger{
		startingCash: startingCash,
		cash:         startingCash,
	}
}

// StartingCash returns the cash the ledger was opened with.
func (l *Ledger) StartingCash() float64 { return l.startingCash }

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// Quantity returns the size of the open position.
func (l *Ledger) Quantity() float64 { return l.qty }

// AverageCost returns the quantity-weighted entry price of the open
// position, or 0 when flat.
func (l *Ledger) AverageCost() float64 { return l.avgCost }

// RealizedPnL returns the profit locked in by sells, net of their fees.
func (l *Ledger) RealizedPnL() float64 { return l.realizedPnL }

// Snapshot returns a copy of the current state.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		StartingCash: l.startingCash,
		Cash:         l.cash,
		Quantity:     l.qty,
		AverageCost:  l.avgCost,
		RealizedPnL:  l.realizedPnL,
	}
}

// Equity returns cash plus the position marked at mark.
func (l *Ledger) Equity(mark float64) float64 {
	return l.cash + l.qty*mark
}

// UnrealizedPnL returns the open position's gain at mark, or 0 when flat.
func (l *Ledger) UnrealizedPnL(mark float64) float64 {
	if l.qty <= 0 {
		return 0
	}
	return (mark - l.avgCost) * l.qty
}

// ApplyFill settles a fill against the ledger. A rejected fill leaves the
// ledger untouched.
func (l *Ledger) ApplyFill(f domain.Fill) error {
	if !domain.PositiveFinite(f.Quantity) {
		return fmt.Errorf("%w: quantity must be a finite number > 0, got %v", domain.ErrInvalidFill, f.Quantity)
	}
	if !domain.PositiveFinite(f.Price) {
		return fmt.Errorf("%w: price must be a finite number > 0, got %v", domain.ErrInvalidFill, f.Price)
	}
	if !(f.Fee >= 0) || math.IsInf(f.Fee, 1) {
		return fmt.Errorf("%w: fee must be a finite number >= 0, got %v", domain.ErrInvalidFill, f.Fee)
	}

	switch f.Side {
	case domain.SideBuy:
		cost := f.Quantity*f.Price + f.Fee
		if cost > l.cash+Tolerance {
			return fmt.Errorf("%w: need %.2f, have %.2f", domain.ErrInsufficientCash, cost, l.cash)
		}
		newQty := l.qty + f.Quantity
		l.avgCost = (l.avgCost*l.qty + f.Price*f.Quantity) / newQty
		l.qty = newQty
		l.cash -= cost

	case domain.SideSell:
		if f.Quantity > l.qty+Tolerance {
			return fmt.Errorf("%w: selling %v, holding %v", domain.ErrInsufficientPosition, f.Quantity, l.qty)
		}
		l.realizedPnL += (f.Price-l.avgCost)*f.Quantity - f.Fee
		l.qty -= f.Quantity
		l.cash += f.Quantity*f.Price - f.Fee
		if l.qty <= dustQuantity {
			l.qty = 0
			l.avgCost = 0
		}

	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidSide, f.Side)
	}

	return nil
}
