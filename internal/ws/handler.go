package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/rmuhamedgaliev/arcana/internal/engine"
)

// RunSession runs one full game session over the given channel,
// blocking until the session ends. The handler supplies one per
// connection.
type RunSession func(ctx context.Context, playerID string, ch engine.Channel) engine.Reason

// Handler upgrades HTTP requests to WebSocket game sessions.
type Handler struct {
	run     RunSession
	timeout time.Duration
	log     *slog.Logger
}

// NewHandler creates a Handler. timeout bounds each choice wait.
func NewHandler(run RunSession, timeout time.Duration, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{run: run, timeout: timeout, log: log}
}

// ServeHTTP accepts the connection and hosts a session on it. The
// player is identified by the "player" query parameter.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		http.Error(w, "missing player query parameter", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn("websocket accept failed", "player", playerID, "error", err)
		return
	}

	ch := NewChannel(conn, h.timeout)
	reason := h.run(r.Context(), playerID, ch)

	h.log.Info("websocket session ended", "player", playerID, "reason", string(reason))
	conn.Close(websocket.StatusNormalClosure, "session ended")
}

// Register mounts the handler on mux at /play.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /play", h)
}
