package engine

import (
	"errors"
	"fmt"

	"github.com/efreitasn/papertrader/internal/domain"
	"github.com/efreitasn/papertrader/internal/metrics"
	"github.com/efreitasn/papertrader/internal/portfolio"
	"github.com/efreitasn/papertrader/internal/store"
)

// SessionConfig parameterizes a new Session.
type SessionConfig struct {
	StartingCash float64
	Costs        CostModel
	Step         int
}

// Rejection is a limit fill the ledger refused during a tick.
type Rejection struct {
	Fill domain.Fill
	Err  error
}

// TickResult describes one "advance one tick" operation.
type TickResult struct {
	Marked   domain.EquityPoint // equity recorded at the pre-advance bar
	Fills    []domain.Fill      // limit fills applied to the ledger
	Rejected []Rejection
	Advanced bool
	Bar      domain.Bar // current bar after the tick
}

// Snapshot is the queryable state of a session.
type Snapshot struct {
	Cursor        int
	Length        int
	Step          int
	Paused        bool
	AtEnd         bool
	Bar           domain.Bar
	Ledger        portfolio.Snapshot
	Equity        float64 // marked at the current close
	UnrealizedPnL float64 // marked at the current close
	PendingOrders int
	Fills         int
	EquityPoints  int
	MaxDrawdown   float64
}

// Session composes a market clock, matcher and ledger into one replay. It
// holds all mutable state of a run so independent sessions can coexist.
// A Session is not safe for concurrent use; callers serialize access.
type Session struct {
	clock   *MarketClock
	matcher *Matcher
	ledger  *portfolio.Ledger
	fills   *store.FillLog
	equity  *store.EquityCurve
	orders  *store.OrderLog
}

// NewSession creates a paused session at the first bar. It returns
// domain.ErrInsufficientData for short bar sequences.
func NewSession(bars []domain.Bar, cfg SessionConfig) (*Session, error) {
	clock, err := NewMarketClock(bars, cfg.Step)
	if err != nil {
		return nil, err
	}
	return &Session{
		clock:   clock,
		matcher: NewMatcher(cfg.Costs),
		ledger:  portfolio.NewLedger(cfg.StartingCash),
		fills:   store.NewFillLog(),
		equity:  store.NewEquityCurve(),
		orders:  store.NewOrderLog(),
	}, nil
}

// SubmitMarket submits a market order and fills it immediately against the
// current bar. If the ledger refuses the fill the order is recorded as
// rejected, its id stays consumed, and the ledger error is returned.
func (s *Session) SubmitMarket(side domain.Side, qty float64) (domain.Order, domain.Fill, error) {
	bar := s.clock.Current()
	order, err := s.matcher.Submit(domain.NewMarketOrder(side, qty), bar.TS)
	if err != nil {
		return domain.Order{}, domain.Fill{}, err
	}
	s.orders.Create(order, domain.OrderStatusPending)

	fill := s.matcher.FillMarket(bar, order)
	if err := s.ledger.ApplyFill(fill); err != nil {
		s.orders.MarkRejected(order.ID, err.Error())
		return order, domain.Fill{}, err
	}
	s.fills.Append(fill)
	s.orders.MarkFilled(fill)
	return order, fill, nil
}

// SubmitLimit rests a limit order. It is evaluated from the next tick on,
// starting with the current bar.
func (s *Session) SubmitLimit(side domain.Side, qty, price float64) (domain.Order, error) {
	order, err := s.matcher.Submit(domain.NewLimitOrder(side, qty, price), s.clock.Current().TS)
	if err != nil {
		return domain.Order{}, err
	}
	s.orders.Create(order, domain.OrderStatusPending)
	return order, nil
}

// Tick marks equity at the current bar, settles the limit orders that bar
// touches, then advances the clock. Equity is always recorded before the
// bar's fills are applied. Limit fills refused by the ledger are dropped,
// their orders marked rejected, and the joined errors returned together
// with a complete result.
func (s *Session) Tick() (TickResult, error) {
	bar := s.clock.Current()

	res := TickResult{
		Marked: domain.EquityPoint{TS: bar.TS, Equity: s.ledger.Equity(bar.Close)},
	}
	s.equity.Append(res.Marked)

	var errs []error
	for _, f := range s.matcher.ProcessPendingLimits(bar) {
		if err := s.ledger.ApplyFill(f); err != nil {
			s.orders.MarkRejected(f.OrderID, err.Error())
			res.Rejected = append(res.Rejected, Rejection{Fill: f, Err: err})
			errs = append(errs, fmt.Errorf("order %d: %w", f.OrderID, err))
			continue
		}
		s.fills.Append(f)
		s.orders.MarkFilled(f)
		res.Fills = append(res.Fills, f)
	}

	if s.clock.CanAdvance() {
		s.clock.Advance()
		res.Advanced = true
	}
	res.Bar = s.clock.Current()

	return res, errors.Join(errs...)
}

// Snapshot returns the current state, marked at the current close.
func (s *Session) Snapshot() Snapshot {
	bar := s.clock.Current()
	return Snapshot{
		Cursor:        s.clock.Cursor(),
		Length:        s.clock.Len(),
		Step:          s.clock.Step(),
		Paused:        s.clock.Paused(),
		AtEnd:         !s.clock.CanAdvance(),
		Bar:           bar,
		Ledger:        s.ledger.Snapshot(),
		Equity:        s.ledger.Equity(bar.Close),
		UnrealizedPnL: s.ledger.UnrealizedPnL(bar.Close),
		PendingOrders: s.matcher.PendingCount(),
		Fills:         s.fills.Len(),
		EquityPoints:  s.equity.Len(),
		MaxDrawdown:   metrics.MaxDrawdown(s.equity.Values()),
	}
}

// Report summarizes the recorded equity curve.
func (s *Session) Report() metrics.Summary {
	return metrics.Summarize(s.equity.Values(), s.fills.Len())
}

// SetStep changes the replay speed in bars per tick.
func (s *Session) SetStep(step int) error { return s.clock.SetStep(step) }

// SetPaused records whether automatic playback should skip this session.
func (s *Session) SetPaused(paused bool) { s.clock.SetPaused(paused) }

// Paused reports whether automatic playback skips this session.
func (s *Session) Paused() bool { return s.clock.Paused() }

// Step returns the replay speed in bars per tick.
func (s *Session) Step() int { return s.clock.Step() }

// CanAdvance reports whether the replay has bars left.
func (s *Session) CanAdvance() bool { return s.clock.CanAdvance() }

// Bars returns up to lookback bars ending at the current one.
func (s *Session) Bars(lookback int) []domain.Bar { return s.clock.Window(lookback) }

// Fills returns the fill log in application order.
func (s *Session) Fills() []domain.Fill { return s.fills.All() }

// EquityCurve returns every recorded equity sample.
func (s *Session) EquityCurve() []domain.EquityPoint { return s.equity.Points() }

// PendingOrders returns resting limit orders in submission order.
func (s *Session) PendingOrders() []domain.Order { return s.matcher.PendingOrders() }

// Orders lists submitted orders, optionally filtered by status.
func (s *Session) Orders(status *domain.OrderStatus) []store.OrderRecord { return s.orders.List(status) }

// Order looks a submitted order up by id.
func (s *Session) Order(id uint64) (store.OrderRecord, error) { return s.orders.Get(id) }
