package httpd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Ansh212/Onlineportal/internal/models"
	"github.com/Ansh212/Onlineportal/internal/service"
)

func (h *Handler) EvaluateTest(w http.ResponseWriter, r *http.Request) {
	var req models.EvaluateTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.TestID = strings.TrimSpace(req.TestID)
	if req.TestID == "" {
		writeError(w, http.StatusBadRequest, "Valid test_id is required")
		return
	}

	response, err := h.evaluationService.EvaluateTest(r.Context(), req.TestID)
	if err != nil {
		h.handleEvaluationError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetLatestResult(w http.ResponseWriter, r *http.Request) {
	testID := chi.URLParam(r, "test_id")
	if testID == "" {
		writeError(w, http.StatusBadRequest, "Test ID is required")
		return
	}

	result, err := h.evaluationService.GetLatestResult(r.Context(), testID)
	if err != nil {
		h.handleEvaluationError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) GetResultHistory(w http.ResponseWriter, r *http.Request) {
	testID := chi.URLParam(r, "test_id")
	if testID == "" {
		writeError(w, http.StatusBadRequest, "Test ID is required")
		return
	}

	results, err := h.evaluationService.GetResultHistory(r.Context(), testID)
	if err != nil {
		h.handleEvaluationError(w, err)
		return
	}

	writeSuccess(w, results)
}

func (h *Handler) handleEvaluationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTestID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTestNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrResultNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrClassifierUnavailable),
		errors.Is(err, service.ErrClassifierBadResponse):
		// Failure of the dependent prediction service; the detail helps
		// operators and is safe to expose.
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Evaluation error")
		writeError(w, http.StatusInternalServerError, "An error occurred during evaluation")
	}
}
