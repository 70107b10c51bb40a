package http

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/windfall/spellcheck_service/pkg/response"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	service string
	ready   atomic.Bool
	deps    map[string]Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service string) *HealthHandler {
	h := &HealthHandler{service: service, deps: make(map[string]Pinger)}
	h.ready.Store(true)
	return h
}

// AddDependency registers a dependency for the readiness probe.
func (h *HealthHandler) AddDependency(name string, p Pinger) {
	h.deps[name] = p
}

// SetReady sets the ready state.
func (h *HealthHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Health checks if the service is healthy.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Raw(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": h.service,
	})
}

// Ready checks if the service and its dependencies can take traffic.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		response.Raw(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		response.Raw(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":       "not_ready",
			"dependencies": failed,
		})
		return
	}

	response.Raw(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
	})
}

// Live checks if the service is alive (for Kubernetes liveness probe).
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.Raw(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
	})
}
