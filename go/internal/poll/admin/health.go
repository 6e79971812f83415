package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// MirrorStatus reports on the event mirror
type MirrorStatus interface {
	Connected() bool
	Stats() (published, dropped uint64, last time.Time)
}

type HealthStatus struct {
	Healthy        bool      `json:"healthy"`
	ActivePoll     bool      `json:"active_poll"`
	Connections    int       `json:"connections"`
	Teachers       int       `json:"teachers"`
	Students       int       `json:"students"`
	MirrorEnabled  bool      `json:"mirror_enabled"`
	NATSConnected  bool      `json:"nats_connected"`
	EventsMirrored uint64    `json:"events_mirrored"`
	EventsDropped  uint64    `json:"events_dropped"`
	LastMirroredAt time.Time `json:"last_mirrored_at,omitempty"`
	Errors         []string  `json:"errors"`
}

// HealthChecker checks that the coordinator loop answers and the mirror is
// connected when one is configured
type HealthChecker struct {
	state  StateProvider
	mirror MirrorStatus
}

// NewHealthChecker creates a checker. mirror may be nil.
func NewHealthChecker(state StateProvider, mirror MirrorStatus) *HealthChecker {
	return &HealthChecker{state: state, mirror: mirror}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	snap, err := h.state.Snapshot(ctx)
	if err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("session coordinator unresponsive: %v", err))
	} else {
		status.ActivePoll = snap.Active
		status.Connections = snap.Connections
		status.Teachers = snap.Teachers
		status.Students = snap.Students
	}

	if h.mirror != nil {
		status.MirrorEnabled = true
		status.NATSConnected = h.mirror.Connected()
		status.EventsMirrored, status.EventsDropped, status.LastMirroredAt = h.mirror.Stats()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
