package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"ideogrid/internal/model"
	"ideogrid/internal/service"
)

// ResultHandler serves stored results and aggregate tallies
type ResultHandler struct {
	quizSvc *service.QuizService
	logger  *zap.Logger
}

// NewResultHandler creates a new result handler
func NewResultHandler(quizSvc *service.QuizService, logger *zap.Logger) *ResultHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultHandler{quizSvc: quizSvc, logger: logger}
}

// Get handles GET /v1/results/{id}
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.quizSvc.Result(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Stats handles GET /v1/stats/{kind}?top=N
func (h *ResultHandler) Stats(w http.ResponseWriter, r *http.Request) {
	kind := model.TallyKind(mux.Vars(r)["kind"])

	top := 10
	if topStr := r.URL.Query().Get("top"); topStr != "" {
		if n, err := strconv.Atoi(topStr); err == nil && n > 0 {
			top = n
		}
	}

	entries, err := h.quizSvc.Stats(r.Context(), kind, top)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []model.TallyEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"kind": kind, "entries": entries})
}
