package handler

import (
	"net/http"

	natsclient "github.com/omnidesk-io/omnichannel-engine/internal/nats"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	natsClient *natsclient.Client
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{natsClient: natsClient}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "omnichannel-engine",
	})
}

// Ready handles GET /ready. The engine is not ready until the message bus
// connection is up: closure fan-out and mail handoff depend on it.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.natsClient == nil || !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "message bus not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
