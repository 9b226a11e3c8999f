package http

import (
	"net/http"

	"github.com/Strob0t/FleetForge/internal/domain/maintenance"
	"github.com/Strob0t/FleetForge/internal/service"
)

// defaultBodyLimit bounds request bodies; orchestration requests are small.
const defaultBodyLimit = 1 << 20 // 1 MiB

// Handlers bundles the services exposed over HTTP.
type Handlers struct {
	Orchestrator *service.Orchestrator
	Sessions     *service.SessionStore
	Monitor      *service.RiskMonitor
	Health       *service.WorkerHealthService
}

// Analyze handles POST /api/v1/maintenance/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[maintenance.Request](w, r, defaultBodyLimit)
	if !ok {
		return
	}

	result, err := h.Orchestrator.Analyze(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// EmergencyAlert handles POST /api/v1/emergency/alert
func (h *Handlers) EmergencyAlert(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[maintenance.EmergencyRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}

	result, err := h.Orchestrator.HandleEmergency(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "emergency response failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	sess, err := h.Sessions.Get(id)
	if err != nil {
		writeDomainError(w, err, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ListSessions handles GET /api/v1/sessions
func (h *Handlers) ListSessions(w http.ResponseWriter, _ *http.Request) {
	ids := h.Sessions.IDs()
	writeJSON(w, http.StatusOK, map[string]any{
		"active_sessions": len(ids),
		"sessions":        ids,
	})
}

// RiskStatus handles GET /api/v1/risk/status
func (h *Handlers) RiskStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"risk_threshold":           h.Monitor.Threshold(),
		"monitoring_active":        true,
		"total_sessions_monitored": h.Sessions.Len(),
	})
}

// WorkersHealth handles GET /api/v1/workers/health
func (h *Handlers) WorkersHealth(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Health.Snapshot(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workers": statuses})
}
