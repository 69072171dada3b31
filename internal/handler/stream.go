package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/efreitasn/papertrader/internal/service"
)

const streamWriteTimeout = 5 * time.Second

// StreamHandler pushes session updates over a websocket.
type StreamHandler struct {
	sessionSvc *service.SessionService
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(sessionSvc *service.SessionService, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		sessionSvc: sessionSvc,
		upgrader:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		logger:     logger,
	}
}

// streamMessage is one frame on the stream. Tick is set for tick updates.
type streamMessage struct {
	Type  string           `json:"type"`
	State snapshotResponse `json:"state"`
	Tick  *tickFragment    `json:"tick,omitempty"`
}

type tickFragment struct {
	Marked   equityPointResponse `json:"marked"`
	Fills    []fillResponse      `json:"fills"`
	Rejected []rejectionResponse `json:"rejected"`
	Advanced bool                `json:"advanced"`
}

// Stream handles GET /sessions/{session_id}/stream. It sends the current
// state on connect, then one message per update until the session is
// deleted or the client goes away.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")
	// Subscribe before taking the snapshot so no tick falls in between.
	sub, err := h.sessionSvc.Subscribe(id)
	if err != nil {
		mapError(w, err)
		return
	}
	defer h.sessionSvc.Unsubscribe(sub)
	info, err := h.sessionSvc.Get(id)
	if err != nil {
		mapError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Drain client frames so close and ping control messages are handled.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, streamMessage{Type: "snapshot", State: buildSnapshot(info.Snapshot)}); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case u, ok := <-sub.C():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session deleted"),
					time.Now().Add(streamWriteTimeout))
				return
			}
			if err := h.write(conn, buildStreamMessage(u)); err != nil {
				h.logger.Debug("stream write failed", slog.String("session_id", id), slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, msg streamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func buildStreamMessage(u service.Update) streamMessage {
	msg := streamMessage{Type: string(u.Kind), State: buildSnapshot(u.Snapshot)}
	if u.Tick != nil {
		frag := tickFragment{
			Marked:   equityPointResponse{TS: u.Tick.Marked.TS, Equity: u.Tick.Marked.Equity},
			Fills:    buildFills(u.Tick.Fills),
			Rejected: make([]rejectionResponse, len(u.Tick.Rejected)),
			Advanced: u.Tick.Advanced,
		}
		for i, rj := range u.Tick.Rejected {
			frag.Rejected[i] = rejectionResponse{Fill: buildFill(rj.Fill), Error: rj.Err.Error()}
		}
		msg.Tick = &frag
	}
	return msg
}
