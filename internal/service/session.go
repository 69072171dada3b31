package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/papertrader/internal/domain"
	"github.com/efreitasn/papertrader/internal/engine"
	"github.com/efreitasn/papertrader/internal/feed"
	"github.com/efreitasn/papertrader/internal/metrics"
	"github.com/efreitasn/papertrader/internal/store"
)

const (
	// MaxTicksPerRequest bounds the count of a single manual tick request.
	MaxTicksPerRequest = 1000
	// MaxSyntheticBars bounds synthetic series requested per session.
	MaxSyntheticBars = 100_000
	// DefaultLookback is the chart window used when none is requested.
	DefaultLookback = 250

	streamBuffer = 64
)

// Defaults are applied to session parameters the caller leaves unset.
type Defaults struct {
	StartingCash float64
	Costs        engine.CostModel
	Step         int
	MaxStep      int
	// Bars is the fallback bar source, shared read-only by every session
	// created without its own bars.
	Bars []domain.Bar
}

// CreateSessionRequest represents the input for session creation. Nil
// fields take the service defaults. Bars take precedence over Synthetic.
type CreateSessionRequest struct {
	StartingCash *float64
	FeeRate      *float64
	SlippageBps  *float64
	Step         *int
	Bars         []domain.Bar
	Synthetic    *feed.Synthetic
}

// SubmitOrderRequest represents the input for order submission.
type SubmitOrderRequest struct {
	Side       domain.Side
	Kind       domain.OrderKind
	Quantity   float64
	LimitPrice *float64 // required for limit, must be nil for market
}

// OrderResult is the outcome of an accepted submission. Fill is set for
// market orders only.
type OrderResult struct {
	Order domain.Order
	Fill  *domain.Fill
}

// PlaybackRequest changes a session's playback state. Nil fields are left
// unchanged.
type PlaybackRequest struct {
	Paused *bool
	Step   *int
}

// SessionInfo identifies a session and carries its current state.
type SessionInfo struct {
	ID        string
	CreatedAt time.Time
	Snapshot  engine.Snapshot
}

// TickSummary aggregates one or more consecutive ticks.
type TickSummary struct {
	Ticks    int
	Marked   []domain.EquityPoint
	Fills    []domain.Fill
	Rejected []engine.Rejection
	Snapshot engine.Snapshot
}

// UpdateKind labels a stream message.
type UpdateKind string

const (
	UpdateTick     UpdateKind = "tick"
	UpdateOrder    UpdateKind = "order"
	UpdatePlayback UpdateKind = "playback"
)

// Update is published to a session's subscribers after every state change.
type Update struct {
	Kind     UpdateKind
	Snapshot engine.Snapshot
	Tick     *engine.TickResult
}

type sessionEntry struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	session   *engine.Session
}

// SessionService is a registry of independent simulation sessions keyed by
// UUID. Every operation on a session holds that session's lock, so manual
// commands and the player are serialized per session.
type SessionService struct {
	defaults Defaults
	logger   *slog.Logger
	hub      *Hub[Update]

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// NewSessionService creates a SessionService.
func NewSessionService(defaults Defaults, logger *slog.Logger) *SessionService {
	if defaults.Step < 1 {
		defaults.Step = 1
	}
	if defaults.MaxStep < defaults.Step {
		defaults.MaxStep = defaults.Step
	}
	return &SessionService{
		defaults: defaults,
		logger:   logger,
		hub:      NewHub[Update](),
		sessions: make(map[string]*sessionEntry),
	}
}

// Create validates the request and starts a new paused session at the
// first bar.
func (s *SessionService) Create(req CreateSessionRequest) (SessionInfo, error) {
	cfg := engine.SessionConfig{
		StartingCash: s.defaults.StartingCash,
		Costs:        s.defaults.Costs,
		Step:         s.defaults.Step,
	}
	if req.StartingCash != nil {
		if *req.StartingCash < 0 {
			return SessionInfo{}, &domain.ValidationError{Message: "starting_cash must be >= 0"}
		}
		cfg.StartingCash = *req.StartingCash
	}
	if req.FeeRate != nil {
		if *req.FeeRate < 0 || *req.FeeRate >= 1 {
			return SessionInfo{}, &domain.ValidationError{Message: "fee_rate must be in [0, 1)"}
		}
		cfg.Costs.FeeRate = *req.FeeRate
	}
	if req.SlippageBps != nil {
		if *req.SlippageBps < 0 {
			return SessionInfo{}, &domain.ValidationError{Message: "slippage_bps must be >= 0"}
		}
		cfg.Costs.SlippageBps = *req.SlippageBps
	}
	if req.Step != nil {
		if err := s.validateStep(*req.Step); err != nil {
			return SessionInfo{}, err
		}
		cfg.Step = *req.Step
	}

	bars, err := s.resolveBars(req)
	if err != nil {
		return SessionInfo{}, err
	}

	sess, err := engine.NewSession(bars, cfg)
	if err != nil {
		return SessionInfo{}, err
	}

	e := &sessionEntry{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		session:   sess,
	}
	info := e.info()

	s.mu.Lock()
	s.sessions[e.id] = e
	s.mu.Unlock()
	ActiveSessions.Inc()

	s.logger.Info("session created",
		slog.String("session_id", e.id),
		slog.Int("bars", len(bars)),
		slog.Float64("starting_cash", cfg.StartingCash),
	)
	return info, nil
}

func (s *SessionService) resolveBars(req CreateSessionRequest) ([]domain.Bar, error) {
	switch {
	case len(req.Bars) > 0:
		bars := make([]domain.Bar, len(req.Bars))
		copy(bars, req.Bars)
		return bars, nil
	case req.Synthetic != nil:
		syn := *req.Synthetic
		if syn.N < engine.MinBars || syn.N > MaxSyntheticBars {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("synthetic.bars must be between %d and %d", engine.MinBars, MaxSyntheticBars),
			}
		}
		if syn.StartPrice <= 0 {
			return nil, &domain.ValidationError{Message: "synthetic.start_price must be greater than 0"}
		}
		return syn.Load(), nil
	default:
		return s.defaults.Bars, nil
	}
}

func (s *SessionService) validateStep(step int) error {
	if step < 1 || step > s.defaults.MaxStep {
		return fmt.Errorf("%w: step must be between 1 and %d, got %d", domain.ErrInvalidStep, s.defaults.MaxStep, step)
	}
	return nil
}

// Get returns a session's current state.
func (s *SessionService) Get(id string) (SessionInfo, error) {
	e, err := s.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info(), nil
}

// List returns every session ordered by creation time.
func (s *SessionService) List() []SessionInfo {
	entries := s.entries()
	result := make([]SessionInfo, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		result = append(result, e.info())
		e.mu.Unlock()
	}
	return result
}

// Delete removes a session and closes its subscriptions.
func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		s.hub.CloseTopic(id)
	}
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	ActiveSessions.Dec()
	s.logger.Info("session deleted", slog.String("session_id", id))
	return nil
}

// SubmitOrder validates and submits an order. Market orders fill
// immediately against the current bar; a ledger rejection is returned as
// domain.ErrInsufficientCash or domain.ErrInsufficientPosition and leaves
// the session running.
func (s *SessionService) SubmitOrder(id string, req SubmitOrderRequest) (OrderResult, error) {
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return OrderResult{}, &domain.ValidationError{Message: "side must be 'buy' or 'sell'"}
	}
	if !domain.PositiveFinite(req.Quantity) {
		return OrderResult{}, &domain.ValidationError{Message: "quantity must be a finite number greater than 0"}
	}

	switch req.Kind {
	case domain.OrderKindMarket:
		if req.LimitPrice != nil {
			return OrderResult{}, &domain.ValidationError{Message: "limit_price must not be set for market orders"}
		}
	case domain.OrderKindLimit:
		if req.LimitPrice == nil {
			return OrderResult{}, &domain.ValidationError{Message: "limit_price is required for limit orders"}
		}
		if !domain.PositiveFinite(*req.LimitPrice) {
			return OrderResult{}, &domain.ValidationError{Message: "limit_price must be a finite number greater than 0"}
		}
	default:
		return OrderResult{}, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown order type: %s. Must be one of: market, limit", req.Kind),
		}
	}

	e, err := s.lookup(id)
	if err != nil {
		return OrderResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var result OrderResult
	if req.Kind == domain.OrderKindLimit {
		order, err := e.session.SubmitLimit(req.Side, req.Quantity, *req.LimitPrice)
		if err != nil {
			return OrderResult{}, err
		}
		OrdersTotal.WithLabelValues(string(req.Kind), "pending").Inc()
		result.Order = order
	} else {
		order, fill, err := e.session.SubmitMarket(req.Side, req.Quantity)
		if err != nil {
			if order.ID != 0 {
				OrdersTotal.WithLabelValues(string(req.Kind), "rejected").Inc()
				RejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
				s.logger.Warn("market order rejected",
					slog.String("session_id", id),
					slog.Uint64("order_id", order.ID),
					slog.String("error", err.Error()),
				)
			}
			return OrderResult{}, err
		}
		OrdersTotal.WithLabelValues(string(req.Kind), "filled").Inc()
		FillsTotal.WithLabelValues(string(fill.Side), string(req.Kind)).Inc()
		result.Order = order
		result.Fill = &fill
	}

	s.hub.Publish(id, Update{Kind: UpdateOrder, Snapshot: e.session.Snapshot()})
	return result, nil
}

// ListOrders returns a session's order history, optionally filtered by
// status.
func (s *SessionService) ListOrders(id string, status *domain.OrderStatus) ([]store.OrderRecord, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Orders(status), nil
}

// GetOrder returns one order of a session.
func (s *SessionService) GetOrder(id string, orderID uint64) (store.OrderRecord, error) {
	e, err := s.lookup(id)
	if err != nil {
		return store.OrderRecord{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Order(orderID)
}

// Tick runs "advance one tick" count times. Limit fills rejected by the
// ledger are reported in the summary, not as an error.
func (s *SessionService) Tick(id string, count int) (TickSummary, error) {
	if count < 1 || count > MaxTicksPerRequest {
		return TickSummary{}, &domain.ValidationError{
			Message: fmt.Sprintf("count must be between 1 and %d", MaxTicksPerRequest),
		}
	}

	e, err := s.lookup(id)
	if err != nil {
		return TickSummary{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	summary := TickSummary{Marked: make([]domain.EquityPoint, 0, count)}
	for i := 0; i < count; i++ {
		res := s.tick(e, "manual")
		summary.Ticks++
		summary.Marked = append(summary.Marked, res.Marked)
		summary.Fills = append(summary.Fills, res.Fills...)
		summary.Rejected = append(summary.Rejected, res.Rejected...)
	}
	summary.Snapshot = e.session.Snapshot()
	return summary, nil
}

// tick performs one tick on a locked entry, records metrics, logs
// rejections and publishes the result.
func (s *SessionService) tick(e *sessionEntry, trigger string) engine.TickResult {
	res, err := e.session.Tick()
	TicksTotal.WithLabelValues(trigger).Inc()
	for _, f := range res.Fills {
		FillsTotal.WithLabelValues(string(f.Side), string(domain.OrderKindLimit)).Inc()
		OrdersTotal.WithLabelValues(string(domain.OrderKindLimit), "filled").Inc()
	}
	for _, r := range res.Rejected {
		OrdersTotal.WithLabelValues(string(domain.OrderKindLimit), "rejected").Inc()
		RejectionsTotal.WithLabelValues(rejectionReason(r.Err)).Inc()
	}
	if err != nil {
		s.logger.Warn("limit fills rejected",
			slog.String("session_id", e.id),
			slog.Float64("ts", res.Marked.TS),
			slog.String("error", err.Error()),
		)
	}
	s.hub.Publish(e.id, Update{Kind: UpdateTick, Snapshot: e.session.Snapshot(), Tick: &res})
	return res
}

// UpdatePlayback pauses/resumes a session or changes its step size.
func (s *SessionService) UpdatePlayback(id string, req PlaybackRequest) (SessionInfo, error) {
	if req.Step != nil {
		if err := s.validateStep(*req.Step); err != nil {
			return SessionInfo{}, err
		}
	}

	e, err := s.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.Step != nil {
		if err := e.session.SetStep(*req.Step); err != nil {
			return SessionInfo{}, err
		}
	}
	if req.Paused != nil {
		e.session.SetPaused(*req.Paused)
	}

	info := e.info()
	s.hub.Publish(id, Update{Kind: UpdatePlayback, Snapshot: info.Snapshot})
	return info, nil
}

// PlayFrame advances every running session by up to
// engine.TicksPerFrame(step, maxTicks) ticks. A session that reaches the
// end of its data is paused after marking the final bar.
func (s *SessionService) PlayFrame(maxTicks int) {
	for _, e := range s.entries() {
		s.playFrame(e, maxTicks)
	}
}

func (s *SessionService) playFrame(e *sessionEntry, maxTicks int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Paused() {
		return
	}
	n := engine.TicksPerFrame(e.session.Step(), maxTicks)
	for i := 0; i < n; i++ {
		if res := s.tick(e, "player"); !res.Advanced {
			e.session.SetPaused(true)
			s.logger.Info("session reached end of data", slog.String("session_id", e.id))
			s.hub.Publish(e.id, Update{Kind: UpdatePlayback, Snapshot: e.session.Snapshot()})
			return
		}
	}
}

// Bars returns up to lookback bars ending at the current one.
func (s *SessionService) Bars(id string, lookback int) ([]domain.Bar, error) {
	if lookback < 1 {
		return nil, &domain.ValidationError{Message: "lookback must be >= 1"}
	}
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Bars(lookback), nil
}

// Fills returns a session's fill log.
func (s *SessionService) Fills(id string) ([]domain.Fill, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Fills(), nil
}

// EquityCurve returns a session's recorded equity samples.
func (s *SessionService) EquityCurve(id string) ([]domain.EquityPoint, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.EquityCurve(), nil
}

// Report summarizes a session's equity curve.
func (s *SessionService) Report(id string) (metrics.Summary, error) {
	e, err := s.lookup(id)
	if err != nil {
		return metrics.Summary{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Report(), nil
}

// Subscribe registers for a session's updates. The subscription's channel
// is closed when the session is deleted.
func (s *SessionService) Subscribe(id string) (*Subscription[Update], error) {
	// Holding the registry lock keeps Delete from closing the topic
	// between the lookup and the subscribe.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[id]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s.hub.Subscribe(id, streamBuffer), nil
}

// Unsubscribe cancels a subscription returned by Subscribe.
func (s *SessionService) Unsubscribe(sub *Subscription[Update]) {
	s.hub.Unsubscribe(sub)
}

func (s *SessionService) lookup(id string) (*sessionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return e, nil
}

func (s *SessionService) entries() []*sessionEntry {
	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].createdAt.Equal(entries[j].createdAt) {
			return entries[i].id < entries[j].id
		}
		return entries[i].createdAt.Before(entries[j].createdAt)
	})
	return entries
}

func (e *sessionEntry) info() SessionInfo {
	return SessionInfo{ID: e.id, CreatedAt: e.createdAt, Snapshot: e.session.Snapshot()}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientCash):
		return "insufficient_cash"
	case errors.Is(err, domain.ErrInsufficientPosition):
		return "insufficient_position"
	}
	return "other"
}
