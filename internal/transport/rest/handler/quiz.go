package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"ideogrid/internal/model"
	"ideogrid/internal/service"
	"ideogrid/internal/transport/rest/middleware"
)

// QuizHandler handles questionnaire session endpoints
type QuizHandler struct {
	quizSvc *service.QuizService
	logger  *zap.Logger
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizSvc *service.QuizService, logger *zap.Logger) *QuizHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizHandler{quizSvc: quizSvc, logger: logger}
}

// StartRequest is the request body for starting a session
type StartRequest struct {
	Variant string `json:"variant"`
}

// AnswerRequest is the request body for answering a question
type AnswerRequest struct {
	QuestionID int      `json:"questionId"`
	Value      *float64 `json:"value"`
}

// QuestionRequest names the question a skip or unskip applies to
type QuestionRequest struct {
	QuestionID int `json:"questionId"`
}

// Start handles POST /v1/quiz
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	// an empty body starts the default variant
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.quizSvc.Start(r.Context(), req.Variant)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Progress handles GET /v1/quiz/{id}
func (h *QuizHandler) Progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.quizSvc.Progress(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Answer handles POST /v1/quiz/{id}/answers
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == 0 || req.Value == nil {
		writeError(w, http.StatusBadRequest, "questionId and value are required")
		return
	}

	p, err := h.quizSvc.Answer(r.Context(), middleware.GetSessionID(r.Context()), req.QuestionID, *req.Value)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Skip handles POST /v1/quiz/{id}/skip
func (h *QuizHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.questionOp(w, r, h.quizSvc.Skip)
}

// Unskip handles POST /v1/quiz/{id}/unskip
func (h *QuizHandler) Unskip(w http.ResponseWriter, r *http.Request) {
	h.questionOp(w, r, h.quizSvc.Unskip)
}

// Continue handles POST /v1/quiz/{id}/continue
func (h *QuizHandler) Continue(w http.ResponseWriter, r *http.Request) {
	p, err := h.quizSvc.Continue(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Submit handles POST /v1/quiz/{id}/submit
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	res, err := h.quizSvc.Submit(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *QuizHandler) questionOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string, questionID int) (*model.Progress, error)) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == 0 {
		writeError(w, http.StatusBadRequest, "questionId is required")
		return
	}

	p, err := op(r.Context(), middleware.GetSessionID(r.Context()), req.QuestionID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
