package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Ansh212/Onlineportal/internal/service"
	"github.com/Ansh212/Onlineportal/internal/worker"
)

// WorkerStatsProvider exposes the background worker's counters to the
// status endpoint.
type WorkerStatsProvider interface {
	GetStats() worker.WorkerStats
}

type Handler struct {
	evaluationService service.EvaluationService
	workerStats       WorkerStatsProvider
	logger            zerolog.Logger
}

func NewHandler(evaluationService service.EvaluationService, workerStats WorkerStatsProvider, logger zerolog.Logger) *Handler {
	return &Handler{
		evaluationService: evaluationService,
		workerStats:       workerStats,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/status", h.GetServiceStatus)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/evaluations", func(r chi.Router) {
			r.Post("/", h.EvaluateTest)
			r.Get("/{test_id}", h.GetLatestResult)
			r.Get("/{test_id}/history", h.GetResultHistory)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}
