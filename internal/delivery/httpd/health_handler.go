package httpd

import (
	"net/http"
	"time"
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "evaluation-service",
		"timestamp": time.Now(),
	})
}

func (h *Handler) GetServiceStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.evaluationService.GetServiceStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get service status")
		return
	}

	if h.workerStats != nil {
		stats := h.workerStats.GetStats()
		status.ActiveWorkers = stats.ActiveWorkers
		status.QueueLength = stats.QueueLength
	}

	writeJSON(w, http.StatusOK, status)
}
