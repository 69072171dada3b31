package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/efreitasn/papertrader/internal/domain"
)

func TestMatcher_SubmitAssignsIDsAndTimestamp(t *testing.T) {
	m := NewMatcher(DefaultCostModel())

	o1, err := m.Submit(domain.NewMarketOrder(domain.SideBuy, 1), 5)
	if err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	o2, err := m.Submit(domain.NewLimitOrder(domain.SideSell, 1, 120), 6)
	if err != nil {
		t.Fatalf("submit 2: %v", err)
	}

	if o1.ID != 1 || o2.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", o1.ID, o2.ID)
	}
	if o1.CreatedTS != 5 || o2.CreatedTS != 6 {
		t.Errorf("created ts = %v, %v, want 5, 6", o1.CreatedTS, o2.CreatedTS)
	}
	// Only limit orders rest.
	if m.PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1", m.PendingCount())
	}
}

func TestMatcher_SubmitValidation(t *testing.T) {
	tests := []struct {
		name  string
		order domain.Order
	}{
		{"zero quantity", domain.NewMarketOrder(domain.SideBuy, 0)},
		{"negative quantity", domain.NewLimitOrder(domain.SideBuy, -1, 100)},
		{"NaN quantity", domain.NewMarketOrder(domain.SideBuy, math.NaN())},
		{"infinite quantity", domain.NewMarketOrder(domain.SideSell, math.Inf(1))},
		{"NaN limit price", domain.NewLimitOrder(domain.SideBuy, 1, math.NaN())},
		{"infinite limit price", domain.NewLimitOrder(domain.SideSell, 1, math.Inf(1))},
		{"zero limit price", domain.NewLimitOrder(domain.SideBuy, 1, 0)},
		{"limit without price", domain.Order{Side: domain.SideBuy, Kind: domain.OrderKindLimit, Quantity: 1}},
		{"unknown kind", domain.Order{Side: domain.SideBuy, Kind: "stop", Quantity: 1}},
		{"unknown side", domain.Order{Side: "hold", Kind: domain.OrderKindMarket, Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(DefaultCostModel())
			_, err := m.Submit(tt.order, 0)
			if !errors.Is(err, domain.ErrInvalidOrder) {
				t.Fatalf("error = %v, want ErrInvalidOrder", err)
			}
			if m.PendingCount() != 0 {
				t.Errorf("invalid order rested on the book")
			}
		})
	}
}

func TestMatcher_RejectedSubmitDoesNotConsumeID(t *testing.T) {
	m := NewMatcher(DefaultCostModel())
	_, _ = m.Submit(domain.NewMarketOrder(domain.SideBuy, 0), 0)
	o, err := m.Submit(domain.NewMarketOrder(domain.SideBuy, 1), 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.ID != 1 {
		t.Errorf("ID = %d, want 1", o.ID)
	}
}

func TestMatcher_FillMarketSlippageAndFee(t *testing.T) {
	m := NewMatcher(CostModel{FeeRate: 0.001, SlippageBps: 10})
	b := bar(0, 100, 101, 99, 100)

	buyOrder, _ := m.Submit(domain.NewMarketOrder(domain.SideBuy, 2), 0)
	f := m.FillMarket(b, buyOrder)
	if !approxEqual(f.Price, 100.1) {
		t.Errorf("buy price = %v, want 100.1", f.Price)
	}
	if !approxEqual(f.Fee, 2*100.1*0.001) {
		t.Errorf("buy fee = %v, want %v", f.Fee, 2*100.1*0.001)
	}
	if f.OrderID != buyOrder.ID || f.Quantity != 2 || f.Side != domain.SideBuy || f.TS != 0 {
		t.Errorf("unexpected fill: %+v", f)
	}

	sellOrder, _ := m.Submit(domain.NewMarketOrder(domain.SideSell, 1), 0)
	f = m.FillMarket(b, sellOrder)
	if !approxEqual(f.Price, 99.9) {
		t.Errorf("sell price = %v, want 99.9", f.Price)
	}
	if !approxEqual(f.Fee, 99.9*0.001) {
		t.Errorf("sell fee = %v, want %v", f.Fee, 99.9*0.001)
	}
}

func TestMatcher_FillMarketZeroCosts(t *testing.T) {
	m := NewMatcher(CostModel{})
	o, _ := m.Submit(domain.NewMarketOrder(domain.SideBuy, 1), 0)
	f := m.FillMarket(bar(3, 10, 12, 9, 11), o)
	if f.Price != 11 || f.Fee != 0 || f.TS != 3 {
		t.Errorf("unexpected fill: %+v", f)
	}
}

func TestMatcher_FillLimitOnBar(t *testing.T) {
	b := bar(1, 100, 104, 96, 101)

	tests := []struct {
		name   string
		side   domain.Side
		limit  float64
		wantOK bool
	}{
		{"buy above low fills", domain.SideBuy, 97, true},
		{"buy at low fills", domain.SideBuy, 96, true},
		{"buy below low rests", domain.SideBuy, 95, false},
		{"sell below high fills", domain.SideSell, 103, true},
		{"sell at high fills", domain.SideSell, 104, true},
		{"sell above high rests", domain.SideSell, 105, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(CostModel{FeeRate: 0.01})
			o, _ := m.Submit(domain.NewLimitOrder(tt.side, 2, tt.limit), 0)
			f, ok := m.FillLimitOnBar(b, o)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if f.Price != tt.limit {
				t.Errorf("price = %v, want limit %v", f.Price, tt.limit)
			}
			if f.Quantity != 2 {
				t.Errorf("quantity = %v, want 2 (no partial fills)", f.Quantity)
			}
			if !approxEqual(f.Fee, 2*tt.limit*0.01) {
				t.Errorf("fee = %v, want %v", f.Fee, 2*tt.limit*0.01)
			}
		})
	}
}

func TestMatcher_FillLimitWithoutPrice(t *testing.T) {
	m := NewMatcher(DefaultCostModel())
	if _, ok := m.FillLimitOnBar(bar(0, 1, 2, 0, 1), domain.NewMarketOrder(domain.SideBuy, 1)); ok {
		t.Error("an order without a limit price must not fill as a limit")
	}
}

func TestMatcher_ProcessPendingLimits(t *testing.T) {
	m := NewMatcher(CostModel{})
	buyOrder, _ := m.Submit(domain.NewLimitOrder(domain.SideBuy, 1, 95), 0)
	sellOrder, _ := m.Submit(domain.NewLimitOrder(domain.SideSell, 1, 105), 0)

	fills := m.ProcessPendingLimits(bar(1, 100, 104, 96, 101))
	if len(fills) != 0 {
		t.Fatalf("expected no fills, got %d", len(fills))
	}
	if m.PendingCount() != 2 {
		t.Fatalf("PendingCount() = %d, want 2", m.PendingCount())
	}

	fills = m.ProcessPendingLimits(bar(2, 101, 106, 94, 103))
	if len(fills) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(fills))
	}
	if fills[0].OrderID != buyOrder.ID || fills[1].OrderID != sellOrder.ID {
		t.Errorf("fills not in submission order: %d, %d", fills[0].OrderID, fills[1].OrderID)
	}
	if m.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", m.PendingCount())
	}
}

func TestMatcher_ProcessPendingLimitsPartialSet(t *testing.T) {
	m := NewMatcher(CostModel{})
	_, _ = m.Submit(domain.NewLimitOrder(domain.SideBuy, 1, 90), 0)
	hit, _ := m.Submit(domain.NewLimitOrder(domain.SideBuy, 1, 99), 0)
	_, _ = m.Submit(domain.NewLimitOrder(domain.SideSell, 1, 200), 0)

	fills := m.ProcessPendingLimits(bar(1, 100, 101, 98, 100))
	if len(fills) != 1 || fills[0].OrderID != hit.ID {
		t.Fatalf("expected only order %d to fill, got %+v", hit.ID, fills)
	}

	remaining := m.PendingOrders()
	if len(remaining) != 2 || remaining[0].ID != 1 || remaining[1].ID != 3 {
		t.Fatalf("unexpected remaining orders: %+v", remaining)
	}
}

func TestMatcher_MalformedBarDoesNotPanic(t *testing.T) {
	m := NewMatcher(DefaultCostModel())
	_, _ = m.Submit(domain.NewLimitOrder(domain.SideBuy, 1, 100), 0)
	_, _ = m.Submit(domain.NewLimitOrder(domain.SideSell, 1, 100), 0)

	// High below low: both touch conditions are evaluated on their own.
	fills := m.ProcessPendingLimits(bar(0, 100, 90, 110, 100))
	if len(fills) != 0 {
		t.Fatalf("expected no fills on inverted bar, got %d", len(fills))
	}
}
