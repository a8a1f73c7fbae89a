package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ideogrid/internal/catalog"
	"ideogrid/internal/quiz"
	"ideogrid/internal/service"
	"ideogrid/internal/vectors"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps engine and service errors onto HTTP statuses.
// Unclassified errors are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var skipErr *quiz.SkipLimitError
	var stateErr *quiz.StateError

	switch {
	case errors.As(err, &skipErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":     skipErr.Error(),
			"axis":      skipErr.Axis,
			"skipped":   skipErr.Skipped,
			"scheduled": skipErr.Scheduled,
			"ratio":     skipErr.Ratio,
		})
	case errors.Is(err, quiz.ErrInvalidAnswer):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrResultNotFound),
		errors.Is(err, quiz.ErrUnknownQuestion):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnknownVariant),
		errors.Is(err, service.ErrUnknownTally):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &stateErr), errors.Is(err, quiz.ErrSubmitted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrCatalogParse), errors.Is(err, vectors.ErrSource):
		logger.Error("reference data unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "reference data unavailable")
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
