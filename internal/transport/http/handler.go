// Package http is the thin HTTP surface over the submission pipeline.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"codequest-service/internal/app"
	"codequest-service/internal/domain"
	"codequest-service/internal/logging"
)

// Handler wires the submission pipeline's operations to routes.
type Handler struct {
	service *app.SubmissionService
	log     *logging.Logger
}

func NewHandler(service *app.SubmissionService, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{service: service, log: log}
}

// Register installs routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /questions/{id}/submit", h.submitAnswer)
	mux.HandleFunc("GET /questions/daily", h.dailyQuestion)
	mux.HandleFunc("GET /progress", h.userProgress)
	mux.HandleFunc("GET /streak", h.streak)
}

type submitBody struct {
	SelectedAnswer *int   `json:"selectedAnswer"`
	Code           string `json:"code"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "unauthenticated"})
		return
	}

	var body submitBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid request body"})
		return
	}

	result, err := h.service.Submit(r.Context(), principal, r.PathValue("id"), app.SubmitRequest{
		SelectedOption: body.SelectedAnswer,
		Code:           body.Code,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) dailyQuestion(w http.ResponseWriter, r *http.Request) {
	question, err := h.service.DailyQuestion(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) userProgress(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "unauthenticated"})
		return
	}
	records, err := h.service.UserProgress(r.Context(), principal.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": records})
}

func (h *Handler) streak(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "unauthenticated"})
		return
	}
	info, err := h.service.Streak(r.Context(), principal.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type errorBody struct {
	Message string `json:"message"`
}

// writeError maps pipeline errors to status codes. Sandbox outages are
// retryable 5xx responses, kept distinct from a plain wrong answer.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingAnswer),
		errors.Is(err, domain.ErrUnsupportedLanguage):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
	case errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrLanguageNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNoQuestions):
		writeJSON(w, http.StatusNotFound, errorBody{Message: err.Error()})
	case errors.Is(err, domain.ErrExecutionTimeout):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Message: err.Error()})
	case errors.Is(err, domain.ErrExecutionService):
		writeJSON(w, http.StatusBadGateway, errorBody{Message: err.Error()})
	default:
		h.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// RequestID tags every response with a correlation id, keeping one the
// gateway already assigned.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// principalFrom reads the identity the gateway attached to the request.
// Authentication itself happens upstream; this service only needs the
// subject and roles.
func principalFrom(r *http.Request) (domain.Principal, bool) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		return domain.Principal{}, false
	}
	principal := domain.Principal{ID: id}
	for _, raw := range strings.Split(r.Header.Get("X-User-Roles"), ",") {
		if role := strings.TrimSpace(raw); role != "" {
			principal.Roles = append(principal.Roles, domain.Role(role))
		}
	}
	return principal, true
}
