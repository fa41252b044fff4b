package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spigell/resume-coach/internal/conversation"
)

const maxBodyBytes = 1 << 20

type messageRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
}

type messageResponse struct {
	SessionID     string `json:"session_id"`
	Response      string `json:"response"`
	Completed     bool   `json:"is_completed"`
	AnsweredCount int    `json:"answered_count"`
	QuestionIndex int    `json:"question_index"`
}

type statusResponse struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Completed     bool      `json:"is_completed"`
	AnsweredCount int       `json:"answered_count"`
	QuestionIndex int       `json:"question_index"`
	Messages      int       `json:"message_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type historyResponse struct {
	SessionID string                 `json:"session_id"`
	Messages  []conversation.Message `json:"messages"`
}

func newSessionID() string {
	return uuid.NewString()
}

// SendMessage runs one turn. A missing session id starts a new session.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		Error(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.SessionID = strings.TrimSpace(req.SessionID); req.SessionID == "" {
		req.SessionID = h.newSessionID()
	}

	res, err := h.runner.Run(r.Context(), req.SessionID, req.UserID, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	JSON(w, http.StatusOK, messageResponse{
		SessionID:     req.SessionID,
		Response:      res.Response,
		Completed:     res.Completed,
		AnsweredCount: res.AnsweredCount,
		QuestionIndex: res.QuestionIndex,
	})
}

// GetStatus returns the counters of a session.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	session, err := h.conversations.Get(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toStatus(session))
}

// GetHistory returns the message log of a session.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	session, err := h.conversations.Get(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, historyResponse{SessionID: session.ID, Messages: session.Messages})
}

// ListSessions returns the sessions of a user, newest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.conversations.ListByUser(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]statusResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toStatus(s))
	}
	JSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func toStatus(s *conversation.Session) statusResponse {
	return statusResponse{
		SessionID:     s.ID,
		UserID:        s.UserID,
		Completed:     s.Completed,
		AnsweredCount: s.AnsweredCount,
		QuestionIndex: s.QuestionIndex,
		Messages:      len(s.Messages),
		UpdatedAt:     s.UpdatedAt,
	}
}
