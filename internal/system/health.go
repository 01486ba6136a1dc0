// Package system tracks process lifecycle state and serves the liveness
// endpoint. Requests are only accepted once artifacts are loaded and the
// process reaches Ready; anything earlier or during shutdown gets a 503.
package system

import (
	"net/http"
	"sync/atomic"

	dErrors "credrisk/pkg/domain-errors"
	"credrisk/pkg/platform/httputil"
)

// State is the process lifecycle position.
type State int32

const (
	StateStarting State = iota
	StateLoading
	StateReady
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// Health holds the current lifecycle state. Transitions happen only in main;
// handlers and middleware just read it.
type Health struct {
	state atomic.Int32
}

// NewHealth starts in the Starting state.
func NewHealth() *Health {
	return &Health{}
}

// Set transitions to the given state.
func (h *Health) Set(s State) {
	h.state.Store(int32(s))
}

// State returns the current lifecycle state.
func (h *Health) State() State {
	return State(h.state.Load())
}

// Ready reports whether the process accepts traffic.
func (h *Health) Ready() bool {
	return h.State() == StateReady
}

// Handler serves lifecycle endpoints.
type Handler struct {
	health *Health
}

// NewHandler constructs the system handler.
func NewHandler(health *Health) *Handler {
	return &Handler{health: health}
}

// HandleHealth handles GET /health. A static liveness payload when Ready;
// 503 with the current state otherwise.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	state := h.health.State()
	if state != StateReady {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": state.String()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Gate rejects requests with 503 while the process is not Ready. The health
// and metrics endpoints bypass the gate so operators can probe state and
// scrape in every lifecycle phase.
func Gate(health *Health) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !health.Ready() && r.URL.Path != "/health" && r.URL.Path != "/metrics" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "service is "+health.State().String()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
