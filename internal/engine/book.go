package engine

import (
	"github.com/efreitasn/papertrader/internal/domain"
	"github.com/google/btree"
)

// pendingLess orders resting limit orders by id. Ids are assigned in
// submission order, so an ascending walk visits orders oldest first.
func pendingLess(a, b domain.Order) bool {
	return a.ID < b.ID
}

// PendingBook holds resting limit orders in a B-tree keyed by order id,
// giving O(log n) removal and a deterministic scan order.
type PendingBook struct {
	orders *btree.BTreeG[domain.Order]
}

// NewPendingBook creates an empty book.
func NewPendingBook() *PendingBook {
	const degree = 32
	return &PendingBook{
		orders: btree.NewG[domain.Order](degree, pendingLess),
	}
}

// Insert rests an order on the book. An order with the same id replaces
// the existing one.
func (b *PendingBook) Insert(o domain.Order) {
	b.orders.ReplaceOrInsert(o)
}

// Remove deletes an order by id. It is a no-op for unknown ids.
func (b *PendingBook) Remove(id uint64) {
	b.orders.Delete(domain.Order{ID: id})
}

// Get looks an order up by id.
func (b *PendingBook) Get(id uint64) (domain.Order, bool) {
	return b.orders.Get(domain.Order{ID: id})
}

// Walk iterates orders in submission order. The callback returns false to
// stop. The book must not be modified during the walk.
func (b *PendingBook) Walk(fn func(domain.Order) bool) {
	b.orders.Ascend(fn)
}

// Orders returns every resting order in submission order.
func (b *PendingBook) Orders() []domain.Order {
	out := make([]domain.Order, 0, b.orders.Len())
	b.Walk(func(o domain.Order) bool {
		out = append(out, o)
		return true
	})
	return out
}

// Len returns the number of resting orders.
func (b *PendingBook) Len() int {
	return b.orders.Len()
}
