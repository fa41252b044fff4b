// Package api exposes the interview over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spigell/resume-coach/internal/coach"
	"github.com/spigell/resume-coach/internal/store"
	"go.uber.org/zap"
)

// TurnRunner runs one interview turn.
type TurnRunner interface {
	Run(ctx context.Context, sessionID, userID, answer string) (*coach.Result, error)
}

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	runner        TurnRunner
	conversations store.ConversationStore
	resumes       store.ResumeStore
	logger        *zap.Logger
	newSessionID  func() string
}

// NewHandler creates a new Handler.
func NewHandler(runner TurnRunner, conversations store.ConversationStore, resumes store.ResumeStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		runner:        runner,
		conversations: conversations,
		resumes:       resumes,
		logger:        logger,
		newSessionID:  newSessionID,
	}
}

// NewRouter builds the chi router with the global middleware and all routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the interview routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", h.SendMessage)
			r.Get("/status/{session_id}", h.GetStatus)
			r.Get("/history/{session_id}", h.GetHistory)
		})
		r.Get("/users/{user_id}/sessions", h.ListSessions)
		r.Get("/resumes/{user_id}", h.GetResume)
		r.Put("/resumes/{user_id}", h.PutResume)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// fail maps turn and store errors to a status code. Fatal turn errors are logged at Warn,
// unexpected errors at Error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound     *coach.ResumeNotFoundError
		notPersisted *coach.SessionNotPersistedError
		conflict     *coach.SessionConflictError
	)

	fields := []zap.Field{
		zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}

	switch {
	case errors.As(err, &notFound):
		h.logger.Warn("turn failed", fields...)
		Error(w, http.StatusNotFound, "no résumé on file")
	case errors.As(err, &notPersisted), errors.As(err, &conflict):
		h.logger.Warn("turn failed", fields...)
		Error(w, http.StatusConflict, "session error")
	case errors.Is(err, coach.ErrTurnInProgress):
		Error(w, http.StatusTooManyRequests, "another message for this session is being processed")
	case errors.Is(err, coach.ErrSessionOwner):
		Error(w, http.StatusForbidden, "session belongs to another user")
	case errors.Is(err, coach.ErrInvalidRequest):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, context.Canceled):
		h.logger.Debug("request canceled", fields...)
		Error(w, http.StatusServiceUnavailable, "request canceled")
	default:
		h.logger.Error("request failed", fields...)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
