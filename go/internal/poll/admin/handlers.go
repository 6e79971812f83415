package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Handlers exposes the App over plain HTTP
type Handlers struct {
	app *App
}

// NewHandlers creates the REST handlers
func NewHandlers(app *App) *Handlers {
	return &Handlers{app: app}
}

// RegisterRoutes mounts the REST routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/poll", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Post("/create", h.Create)
		r.Get("/state", h.State)
	})
}

// Status handles GET /api/poll/status
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Status(r.Context()))
}

// Create handles POST /api/poll/create
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	res, err := h.app.CreatePoll(r.Context(), req.Question)
	if errors.Is(err, ErrQuestionRequired) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create poll")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// State handles GET /api/poll/state
func (h *Handlers) State(w http.ResponseWriter, r *http.Request) {
	snap, err := h.app.State(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read session state")
		writeError(w, http.StatusServiceUnavailable, "session state unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": message})
}
