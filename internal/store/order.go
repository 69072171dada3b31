package store

import (
	"sync"

	"github.com/efreitasn/papertrader/internal/domain"
)

// OrderRecord is a submitted order together with its current status.
type OrderRecord struct {
	Order  domain.Order
	Status domain.OrderStatus
	Fill   *domain.Fill // set once filled
	Reason string       // set when rejected
}

// OrderLog is a thread-safe in-memory store of every submitted order,
// indexed by order id and kept in submission order.
type OrderLog struct {
	mu     sync.RWMutex
	orders map[uint64]*OrderRecord
	seq    []uint64
}

// NewOrderLog creates an empty OrderLog.
func NewOrderLog() *OrderLog {
	return &OrderLog{
		orders: make(map[uint64]*OrderRecord),
	}
}

// Create records a newly submitted order.
func (s *OrderLog) Create(o domain.Order, status domain.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; !exists {
		s.seq = append(s.seq, o.ID)
	}
	s.orders[o.ID] = &OrderRecord{Order: o, Status: status}
}

// MarkFilled records the fill that completed an order.
func (s *OrderLog) MarkFilled(f domain.Fill) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.orders[f.OrderID]; ok {
		r.Status = domain.OrderStatusFilled
		r.Fill = &f
	}
}

// MarkRejected records that the ledger refused an order's fill.
func (s *OrderLog) MarkRejected(id uint64, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.orders[id]; ok {
		r.Status = domain.OrderStatusRejected
		r.Reason = reason
	}
}

// Get retrieves an order by id. It returns domain.ErrOrderNotFound if the
// order does not exist.
func (s *OrderLog) Get(id uint64) (OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.orders[id]
	if !ok {
		return OrderRecord{}, domain.ErrOrderNotFound
	}
	return *r, nil
}

// List returns orders in submission order. If status is non-nil, only
// orders with that status are included.
func (s *OrderLog) List(status *domain.OrderStatus) []OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]OrderRecord, 0, len(s.seq))
	for _, id := range s.seq {
		r := s.orders[id]
		if status != nil && r.Status != *status {
			continue
		}
		result = append(result, *r)
	}
	return result
}
