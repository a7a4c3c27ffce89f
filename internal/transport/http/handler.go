package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"lms-assessment-service/internal/app"
	"lms-assessment-service/internal/domain"
)

// Handler exposes the assessment use cases over HTTP JSON. It is a thin
// collaborator shell: identity arrives pre-resolved in trusted headers, and
// every decision lives in the service underneath.
type Handler struct {
	service *app.AssessmentService
}

func NewHandler(service *app.AssessmentService) *Handler {
	return &Handler{service: service}
}

// Register wires the routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /quizzes", h.createQuiz)
	mux.HandleFunc("POST /quizzes/{id}/start", h.startAttempt)
	mux.HandleFunc("POST /quizzes/{id}/submit", h.submit)
	mux.HandleFunc("GET /quizzes/{id}/stats", h.stats)
	mux.HandleFunc("PUT /quizzes/{id}/publish", h.publish)
	mux.HandleFunc("PUT /quizzes/{id}/unpublish", h.unpublish)
	mux.HandleFunc("PUT /quizzes/{id}/preview", h.markPreview)
	mux.HandleFunc("PUT /quizzes/{id}/preview/remove", h.clearPreview)
	mux.HandleFunc("POST /quizzes/{id}/questions", h.addQuestion)
	mux.HandleFunc("PUT /quizzes/{id}/questions/reorder", h.reorderQuestions)
	mux.HandleFunc("PUT /quizzes/{id}/questions/{questionId}", h.updateQuestion)
	mux.HandleFunc("DELETE /quizzes/{id}/questions/{questionId}", h.removeQuestion)
	mux.HandleFunc("PUT /quizzes/{id}/reset-attempts/{userId}", h.resetAttempts)
	mux.HandleFunc("GET /user/attempts", h.listUserAttempts)
	mux.HandleFunc("POST /attempts/{id}/grade", h.gradeEssays)
}

func caller(r *http.Request) domain.Caller {
	role := domain.Role(r.Header.Get("X-User-Role"))
	if role == "" {
		role = domain.RoleStudent
	}
	return domain.Caller{
		UserID: r.Header.Get("X-User-ID"),
		Role:   role,
	}
}

func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.StartAttempt(r.Context(), r.PathValue("id"), caller(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req app.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Invalid("body", "malformed submission payload"))
		return
	}
	req.QuizID = r.PathValue("id")
	req.Caller = caller(r)
	result, err := h.service.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.QuizStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		writeError(w, domain.Invalid("body", "malformed quiz payload"))
		return
	}
	created, err := h.service.CreateQuiz(r.Context(), quiz, caller(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	h.flagQuiz(w, r, h.service.Publish)
}

func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	h.flagQuiz(w, r, h.service.Unpublish)
}

func (h *Handler) markPreview(w http.ResponseWriter, r *http.Request) {
	h.flagQuiz(w, r, h.service.MarkPreview)
}

func (h *Handler) clearPreview(w http.ResponseWriter, r *http.Request) {
	h.flagQuiz(w, r, h.service.ClearPreview)
}

func (h *Handler) flagQuiz(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, quizID string, c domain.Caller) (domain.Quiz, error)) {
	quiz, err := op(r.Context(), r.PathValue("id"), caller(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, domain.Invalid("body", "malformed question payload"))
		return
	}
	added, err := h.service.AddQuestion(r.Context(), r.PathValue("id"), q, caller(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, domain.Invalid("body", "malformed question payload"))
		return
	}
	q.ID = r.PathValue("questionId")
	if err := h.service.UpdateQuestion(r.Context(), r.PathValue("id"), q, caller(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) removeQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveQuestion(r.Context(), r.PathValue("id"), r.PathValue("questionId"), caller(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reorderQuestions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QuestionIDs []string `json:"questionIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.Invalid("body", "malformed reorder payload"))
		return
	}
	if err := h.service.ReorderQuestions(r.Context(), r.PathValue("id"), body.QuestionIDs, caller(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resetAttempts(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetAttempts(r.Context(), r.PathValue("id"), r.PathValue("userId"), caller(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUserAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.service.ListUserAttempts(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *Handler) gradeEssays(w http.ResponseWriter, r *http.Request) {
	var grades map[string]app.EssayGrade
	if err := json.NewDecoder(r.Body).Decode(&grades); err != nil {
		writeError(w, domain.Invalid("body", "malformed grade payload"))
		return
	}
	rec, err := h.service.GradeEssays(r.Context(), r.PathValue("id"), grades, caller(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type errorPayload struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrAttemptNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrQuizNotPublished):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAttemptLimitExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrAttemptAlreadyInProgress):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, status, errorPayload{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
