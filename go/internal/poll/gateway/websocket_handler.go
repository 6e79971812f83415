package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for poll clients
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	handler           MessageHandler
}

// NewWebSocketHandler creates a new WebSocket handler feeding frames to handler
func NewWebSocketHandler(cm *ConnectionManager, handler MessageHandler) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		handler:           handler,
	}
}

// HandleConnection upgrades a client. Clients are anonymous until they join.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if _, err := h.connectionManager.UpgradeConnection(w, r, h.handler); err != nil {
		// The upgrader has already replied with an HTTP error.
		log.Warn().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.HandleConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
}
