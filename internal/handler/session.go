package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/papertrader/internal/domain"
	"github.com/efreitasn/papertrader/internal/export"
	"github.com/efreitasn/papertrader/internal/feed"
	"github.com/efreitasn/papertrader/internal/service"
)

// SessionHandler handles HTTP requests for session endpoints.
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// createSessionRequest is the JSON request body for POST /sessions.
type createSessionRequest struct {
	StartingCash *float64         `json:"starting_cash"`
	FeeRate      *float64         `json:"fee_rate"`
	SlippageBps  *float64         `json:"slippage_bps"`
	Step         *int             `json:"step"`
	Bars         []barInput       `json:"bars"`
	Synthetic    *syntheticParams `json:"synthetic"`
}

// barInput is a single inline bar. Volume is optional.
type barInput struct {
	TS     float64 `json:"ts"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// syntheticParams selects a generated series. Omitted fields take the
// generator defaults.
type syntheticParams struct {
	Bars       *int     `json:"bars"`
	Seed       *int64   `json:"seed"`
	StartPrice *float64 `json:"start_price"`
}

// tickRequest is the optional JSON body for POST /sessions/{id}/tick.
type tickRequest struct {
	Count *int `json:"count"`
}

// playbackRequest is the JSON body for PATCH /sessions/{id}/playback.
type playbackRequest struct {
	Paused *bool `json:"paused"`
	Step   *int  `json:"step"`
}

// Create handles POST /sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := ParseOptionalJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	svcReq := service.CreateSessionRequest{
		StartingCash: req.StartingCash,
		FeeRate:      req.FeeRate,
		SlippageBps:  req.SlippageBps,
		Step:         req.Step,
	}
	if len(req.Bars) > 0 {
		svcReq.Bars = make([]domain.Bar, len(req.Bars))
		for i, b := range req.Bars {
			svcReq.Bars[i] = domain.Bar{TS: b.TS, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
		}
	}
	if req.Synthetic != nil {
		syn := feed.DefaultSynthetic()
		if req.Synthetic.Bars != nil {
			syn.N = *req.Synthetic.Bars
		}
		if req.Synthetic.Seed != nil {
			syn.Seed = *req.Synthetic.Seed
		}
		if req.Synthetic.StartPrice != nil {
			syn.StartPrice = *req.Synthetic.StartPrice
		}
		svcReq.Synthetic = &syn
	}

	info, err := h.sessionSvc.Create(svcReq)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildSession(info))
}

// List handles GET /sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := h.sessionSvc.List()
	result := make([]sessionResponse, len(infos))
	for i, info := range infos {
		result[i] = buildSession(info)
	}
	WriteJSON(w, http.StatusOK, result)
}

// Get handles GET /sessions/{session_id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.sessionSvc.Get(chi.URLParam(r, "session_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildSession(info))
}

// Delete handles DELETE /sessions/{session_id}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionSvc.Delete(chi.URLParam(r, "session_id")); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tick handles POST /sessions/{session_id}/tick.
func (h *SessionHandler) Tick(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if err := ParseOptionalJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	count := 1
	if req.Count != nil {
		count = *req.Count
	}

	summary, err := h.sessionSvc.Tick(chi.URLParam(r, "session_id"), count)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildTick(summary))
}

// UpdatePlayback handles PATCH /sessions/{session_id}/playback.
func (h *SessionHandler) UpdatePlayback(w http.ResponseWriter, r *http.Request) {
	var req playbackRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Paused == nil && req.Step == nil {
		validationError(w, "at least one of paused, step is required")
		return
	}

	info, err := h.sessionSvc.UpdatePlayback(chi.URLParam(r, "session_id"), service.PlaybackRequest{
		Paused: req.Paused,
		Step:   req.Step,
	})
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildSession(info))
}

// Bars handles GET /sessions/{session_id}/bars.
func (h *SessionHandler) Bars(w http.ResponseWriter, r *http.Request) {
	lookback := service.DefaultLookback
	if v := r.URL.Query().Get("lookback"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			validationError(w, "lookback must be a positive integer")
			return
		}
		lookback = n
	}

	bars, err := h.sessionSvc.Bars(chi.URLParam(r, "session_id"), lookback)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildBars(bars))
}

// Fills handles GET /sessions/{session_id}/fills.
func (h *SessionHandler) Fills(w http.ResponseWriter, r *http.Request) {
	fills, err := h.sessionSvc.Fills(chi.URLParam(r, "session_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildFills(fills))
}

// FillsCSV handles GET /sessions/{session_id}/fills.csv.
func (h *SessionHandler) FillsCSV(w http.ResponseWriter, r *http.Request) {
	fills, err := h.sessionSvc.Fills(chi.URLParam(r, "session_id"))
	if err != nil {
		mapError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteFillsCSV(&buf, fills); err != nil {
		mapError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trades.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Equity handles GET /sessions/{session_id}/equity.
func (h *SessionHandler) Equity(w http.ResponseWriter, r *http.Request) {
	points, err := h.sessionSvc.EquityCurve(chi.URLParam(r, "session_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildEquity(points))
}

// EquitySVG handles GET /sessions/{session_id}/equity.svg.
func (h *SessionHandler) EquitySVG(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")
	points, err := h.sessionSvc.EquityCurve(id)
	if err != nil {
		mapError(w, err)
		return
	}
	fills, err := h.sessionSvc.Fills(id)
	if err != nil {
		mapError(w, err)
		return
	}

	marks := make([]export.Marker, len(fills))
	for i, f := range fills {
		marks[i] = export.Marker{TS: f.TS, Side: f.Side}
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.EquitySVG(0, 0, points, marks, "Equity Curve (PaperTrader)"))
}

// Report handles GET /sessions/{session_id}/report.
func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.sessionSvc.Report(chi.URLParam(r, "session_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildReport(report))
}
