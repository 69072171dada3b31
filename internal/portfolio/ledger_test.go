package portfolio

import (
	"errors"
	"math"
	"testing"

	"github.com/efreitasn/papertrader/internal/domain"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func buy(qty, price, fee float64) domain.Fill {
	return domain.Fill{Side: domain.SideBuy, Quantity: qty, Price: price, Fee: fee, OrderID: 1}
}

func sell(qty, price, fee float64) domain.Fill {
	return domain.Fill{Side: domain.SideSell, Quantity: qty, Price: price, Fee: fee, OrderID: 2}
}

func TestLedger_BuyThenSell(t *testing.T) {
	l := NewLedger(1000)

	if err := l.ApplyFill(buy(1, 100, 0)); err != nil {
		t.Fatalf("buy: unexpected error: %v", err)
	}
	if !approx(l.Cash(), 900) {
		t.Errorf("Cash() = %v, want 900", l.Cash())
	}
	if !approx(l.Quantity(), 1) {
		t.Errorf("Quantity() = %v, want 1", l.Quantity())
	}
	if !approx(l.AverageCost(), 100) {
		t.Errorf("AverageCost() = %v, want 100", l.AverageCost())
	}

	if err := l.ApplyFill(sell(1, 120, 0)); err != nil {
		t.Fatalf("sell: unexpected error: %v", err)
	}
	if l.Quantity() != 0 {
		t.Errorf("Quantity() = %v, want exactly 0", l.Quantity())
	}
	if l.AverageCost() != 0 {
		t.Errorf("AverageCost() = %v, want exactly 0", l.AverageCost())
	}
	if !approx(l.Cash(), 1020) {
		t.Errorf("Cash() = %v, want 1020", l.Cash())
	}
	if !approx(l.RealizedPnL(), 20) {
		t.Errorf("RealizedPnL() = %v, want 20", l.RealizedPnL())
	}
}

func TestLedger_FeesAffectCashAndPnL(t *testing.T) {
	l := NewLedger(1000)
	if err := l.ApplyFill(buy(2, 100, 0.5)); err != nil {
		t.Fatalf("buy: %v", err)
	}
	// 2*100 + 0.5
	if !approx(l.Cash(), 799.5) {
		t.Errorf("Cash() = %v, want 799.5", l.Cash())
	}
	// Fees do not enter average cost.
	if !approx(l.AverageCost(), 100) {
		t.Errorf("AverageCost() = %v, want 100", l.AverageCost())
	}

	if err := l.ApplyFill(sell(1, 110, 0.25)); err != nil {
		t.Fatalf("sell: %v", err)
	}
	if !approx(l.Cash(), 799.5+110-0.25) {
		t.Errorf("Cash() = %v, want %v", l.Cash(), 799.5+110-0.25)
	}
	if !approx(l.RealizedPnL(), 10-0.25) {
		t.Errorf("RealizedPnL() = %v, want 9.75", l.RealizedPnL())
	}
	if !approx(l.Quantity(), 1) || !approx(l.AverageCost(), 100) {
		t.Errorf("partial sell should keep qty 1 @ 100, got %v @ %v", l.Quantity(), l.AverageCost())
	}
}

func TestLedger_AverageCostBlend(t *testing.T) {
	l := NewLedger(10_000)
	_ = l.ApplyFill(buy(1, 100, 0))
	_ = l.ApplyFill(buy(3, 120, 0))

	// (100*1 + 120*3) / 4 = 115
	if !approx(l.AverageCost(), 115) {
		t.Errorf("AverageCost() = %v, want 115", l.AverageCost())
	}
	if !approx(l.Quantity(), 4) {
		t.Errorf("Quantity() = %v, want 4", l.Quantity())
	}
}

func TestLedger_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   []domain.Fill
		fill    domain.Fill
		wantErr error
	}{
		{"zero quantity", nil, buy(0, 100, 0), domain.ErrInvalidFill},
		{"negative quantity", nil, sell(-1, 100, 0), domain.ErrInvalidFill},
		{"NaN quantity buy", nil, buy(math.NaN(), 100, 0), domain.ErrInvalidFill},
		{"NaN quantity sell", []domain.Fill{buy(2, 100, 0)}, sell(math.NaN(), 100, 0), domain.ErrInvalidFill},
		{"infinite quantity", nil, buy(math.Inf(1), 100, 0), domain.ErrInvalidFill},
		{"NaN price", nil, buy(1, math.NaN(), 0), domain.ErrInvalidFill},
		{"infinite price", []domain.Fill{buy(2, 100, 0)}, sell(1, math.Inf(1), 0), domain.ErrInvalidFill},
		{"NaN fee", nil, buy(1, 100, math.NaN()), domain.ErrInvalidFill},
		{"negative fee", nil, buy(1, 100, -1), domain.ErrInvalidFill},
		{"buy beyond cash", nil, buy(11, 100, 0), domain.ErrInsufficientCash},
		{"fee pushes beyond cash", nil, buy(10, 100, 0.01), domain.ErrInsufficientCash},
		{"sell with no position", nil, sell(1, 100, 0), domain.ErrInsufficientPosition},
		{"sell more than held", []domain.Fill{buy(2, 100, 0)}, sell(3, 100, 0), domain.ErrInsufficientPosition},
		{"unknown side", nil, domain.Fill{Side: "hold", Quantity: 1, Price: 1}, domain.ErrInvalidSide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(1000)
			for _, f := range tt.setup {
				if err := l.ApplyFill(f); err != nil {
					t.Fatalf("setup fill: %v", err)
				}
			}
			before := l.Snapshot()

			err := l.ApplyFill(tt.fill)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ApplyFill() error = %v, want %v", err, tt.wantErr)
			}
			if l.Snapshot() != before {
				t.Errorf("ledger changed on rejection: before %+v, after %+v", before, l.Snapshot())
			}
		})
	}
}

func TestLedger_BuyExactlyAllCash(t *testing.T) {
	l := NewLedger(1000)
	if err := l.ApplyFill(buy(10, 100, 0)); err != nil {
		t.Fatalf("buying with exactly all cash should succeed: %v", err)
	}
	if !approx(l.Cash(), 0) {
		t.Errorf("Cash() = %v, want 0", l.Cash())
	}
}

func TestLedger_SellWithinToleranceSnapsToZero(t *testing.T) {
	l := NewLedger(1000)
	_ = l.ApplyFill(buy(0.3, 100, 0))
	// 0.1+0.2 != 0.3 in floating point; the tolerance must absorb it.
	if err := l.ApplyFill(sell(0.1+0.2, 100, 0)); err != nil {
		t.Fatalf("sell within tolerance: %v", err)
	}
	if l.Quantity() != 0 || l.AverageCost() != 0 {
		t.Errorf("expected flat ledger, got qty=%v avg=%v", l.Quantity(), l.AverageCost())
	}
}

func TestLedger_EquityAndUnrealized(t *testing.T) {
	l := NewLedger(1000)
	if got := l.UnrealizedPnL(150); got != 0 {
		t.Errorf("UnrealizedPnL() flat = %v, want 0", got)
	}
	if got := l.Equity(150); got != 1000 {
		t.Errorf("Equity() flat = %v, want 1000", got)
	}

	_ = l.ApplyFill(buy(2, 100, 0))
	if got := l.Equity(110); !approx(got, 800+220) {
		t.Errorf("Equity(110) = %v, want 1020", got)
	}
	if got := l.UnrealizedPnL(110); !approx(got, 20) {
		t.Errorf("UnrealizedPnL(110) = %v, want 20", got)
	}
	if got := l.UnrealizedPnL(90); !approx(got, -20) {
		t.Errorf("UnrealizedPnL(90) = %v, want -20", got)
	}
}
