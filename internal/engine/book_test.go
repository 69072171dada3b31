package engine

import (
	"testing"

	"github.com/efreitasn/papertrader/internal/domain"
)

func makeOrder(id uint64, price float64) domain.Order {
	o := domain.NewLimitOrder(domain.SideBuy, 1, price)
	o.ID = id
	return o
}

func TestPendingBook_WalkInIDOrder(t *testing.T) {
	b := NewPendingBook()
	b.Insert(makeOrder(3, 90))
	b.Insert(makeOrder(1, 110))
	b.Insert(makeOrder(2, 100))

	orders := b.Orders()
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	for i, o := range orders {
		if o.ID != uint64(i+1) {
			t.Errorf("Orders()[%d].ID = %d, want %d", i, o.ID, i+1)
		}
	}
}

func TestPendingBook_Remove(t *testing.T) {
	b := NewPendingBook()
	b.Insert(makeOrder(1, 100))
	b.Insert(makeOrder(2, 100))

	b.Remove(1)
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
	if _, ok := b.Get(1); ok {
		t.Error("order 1 still present after Remove")
	}
	if _, ok := b.Get(2); !ok {
		t.Error("order 2 missing after removing order 1")
	}

	// Removing an unknown id is a no-op.
	b.Remove(99)
	if b.Len() != 1 {
		t.Fatalf("Len() = %d after removing unknown id, want 1", b.Len())
	}
}

func TestPendingBook_InsertSameIDReplaces(t *testing.T) {
	b := NewPendingBook()
	b.Insert(makeOrder(1, 100))
	b.Insert(makeOrder(1, 95))

	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
	got, _ := b.Get(1)
	if *got.LimitPrice != 95 {
		t.Errorf("LimitPrice = %v, want 95", *got.LimitPrice)
	}
}

func TestPendingBook_WalkStops(t *testing.T) {
	b := NewPendingBook()
	for id := uint64(1); id <= 5; id++ {
		b.Insert(makeOrder(id, 100))
	}
	visited := 0
	b.Walk(func(domain.Order) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Errorf("visited %d orders, want 2", visited)
	}
}

func TestPendingBook_EmptyOrders(t *testing.T) {
	b := NewPendingBook()
	if got := b.Orders(); got == nil || len(got) != 0 {
		t.Errorf("Orders() on empty book = %v, want empty non-nil slice", got)
	}
}
