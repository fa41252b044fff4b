package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spigell/resume-coach/internal/ai"
	"github.com/spigell/resume-coach/internal/coach"
	"github.com/spigell/resume-coach/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type runnerFunc func(ctx context.Context, sessionID, userID, answer string) (*coach.Result, error)

func (f runnerFunc) Run(ctx context.Context, sessionID, userID, answer string) (*coach.Result, error) {
	return f(ctx, sessionID, userID, answer)
}

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.NewSQLite(store.MemoryDSN, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var got map[string]any
	if w.Body.Len() > 0 {
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, got
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]string{"foo": "bar"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}
}

func TestHealth(t *testing.T) {
	s := newTestStore(t)
	router := NewRouter(NewHandler(runnerFunc(nil), s, s, nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
}

func TestSendMessageErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "no resume", err: &coach.ResumeNotFoundError{UserID: "u1", Err: store.ErrNotFound}, status: http.StatusNotFound},
		{name: "session gone", err: &coach.SessionNotPersistedError{SessionID: "s1", Err: store.ErrNotFound}, status: http.StatusConflict},
		{name: "conflict", err: &coach.SessionConflictError{SessionID: "s1", Err: store.ErrVersionConflict}, status: http.StatusConflict},
		{name: "busy", err: fmt.Errorf("session %q: %w", "s1", coach.ErrTurnInProgress), status: http.StatusTooManyRequests},
		{name: "owner", err: coach.ErrSessionOwner, status: http.StatusForbidden},
		{name: "invalid", err: coach.ErrInvalidRequest, status: http.StatusBadRequest},
		{name: "unexpected", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	}

	s := newTestStore(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := runnerFunc(func(context.Context, string, string, string) (*coach.Result, error) {
				return nil, tt.err
			})
			router := NewRouter(NewHandler(runner, s, s, nil))

			w, got := do(t, router, http.MethodPost, "/api/chat/message", `{"session_id":"s1","user_id":"u1","message":"hi"}`)
			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d (%v)", tt.status, w.Code, got)
			}
			if got["error"] == nil {
				t.Fatalf("expected error message, got %v", got)
			}
		})
	}
}

func TestSendMessageValidatesBody(t *testing.T) {
	s := newTestStore(t)
	router := NewRouter(NewHandler(runnerFunc(func(context.Context, string, string, string) (*coach.Result, error) {
		t.Fatal("runner must not be called")
		return nil, nil
	}), s, s, nil))

	for _, body := range []string{`not json`, `{"session_id":"s1"}`, `{"user_id":"  "}`} {
		if w, _ := do(t, router, http.MethodPost, "/api/chat/message", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestSendMessageGeneratesSessionID(t *testing.T) {
	s := newTestStore(t)
	var seen string
	h := NewHandler(runnerFunc(func(_ context.Context, sessionID, _, _ string) (*coach.Result, error) {
		seen = sessionID
		return &coach.Result{Response: "hello"}, nil
	}), s, s, nil)
	h.newSessionID = func() string { return "generated" }

	w, got := do(t, NewRouter(h), http.MethodPost, "/api/chat/message", `{"user_id":"u1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if seen != "generated" || got["session_id"] != "generated" {
		t.Fatalf("expected generated session id, runner saw %q, response %v", seen, got)
	}
}

func TestInterviewOverHTTP(t *testing.T) {
	s := newTestStore(t)
	o, err := coach.New(coach.Config{}, coach.Deps{Resumes: s, Conversations: s, Generator: ai.Disabled{}})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	router := NewRouter(NewHandler(o, s, s, nil))

	w, _ := do(t, router, http.MethodPost, "/api/chat/message", `{"session_id":"s1","user_id":"u1"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before import, got %d", w.Code)
	}

	body := `{
		"resume": {"person": {"name": "Kim", "title": "Engineer"}, "projects": [{"id": "p1", "name": "Payments"}]},
		"analysis": {"overall_summary": "thin", "completeness_score": "0.2",
			"improvement_questions": [{"category": "result", "project_id": "p1", "question": "What did Payments achieve?"}]}
	}`
	w, got := do(t, router, http.MethodPut, "/api/resumes/u1", body)
	if w.Code != http.StatusOK || got["questions"] != float64(1) {
		t.Fatalf("unexpected import response %d: %v", w.Code, got)
	}

	w, got = do(t, router, http.MethodPost, "/api/chat/message", `{"session_id":"s1","user_id":"u1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, got)
	}
	if got["response"] != "What did Payments achieve?" || got["is_completed"] != false {
		t.Fatalf("unexpected first turn: %v", got)
	}

	w, got = do(t, router, http.MethodPost, "/api/chat/message", `{"session_id":"s1","user_id":"u1","message":"Halved fees"}`)
	if w.Code != http.StatusOK || got["is_completed"] != true || got["answered_count"] != float64(1) {
		t.Fatalf("unexpected second turn %d: %v", w.Code, got)
	}

	w, got = do(t, router, http.MethodGet, "/api/chat/status/s1", "")
	if w.Code != http.StatusOK || got["is_completed"] != true || got["message_count"] != float64(3) {
		t.Fatalf("unexpected status %d: %v", w.Code, got)
	}

	w, got = do(t, router, http.MethodGet, "/api/chat/history/s1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected history status %d", w.Code)
	}
	if messages, ok := got["messages"].([]any); !ok || len(messages) != 3 {
		t.Fatalf("unexpected history: %v", got)
	}

	w, got = do(t, router, http.MethodGet, "/api/users/u1/sessions", "")
	if sessions, ok := got["sessions"].([]any); w.Code != http.StatusOK || !ok || len(sessions) != 1 {
		t.Fatalf("unexpected sessions %d: %v", w.Code, got)
	}

	w, got = do(t, router, http.MethodGet, "/api/resumes/u1", "")
	if w.Code != http.StatusOK || got["user_id"] != "u1" {
		t.Fatalf("unexpected resume response %d: %v", w.Code, got)
	}
	person, _ := got["resume"].(map[string]any)["person"].(map[string]any)
	if person["name"] != "Kim" {
		t.Fatalf("unexpected resume: %v", got["resume"])
	}
	if _, ok := got["analysis"].(map[string]any); !ok || got["completeness_score"] != float64(0) {
		t.Fatalf("unexpected analysis or score: %v", got)
	}

	if w, got := do(t, router, http.MethodGet, "/api/resumes/ghost", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown applicant, got %d: %v", w.Code, got)
	}

	if w, _ := do(t, router, http.MethodGet, "/api/chat/status/missing", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", w.Code)
	}
}

func TestPutResumeRejectsInvalidDocuments(t *testing.T) {
	s := newTestStore(t)
	router := NewRouter(NewHandler(runnerFunc(nil), s, s, nil))

	for _, body := range []string{
		`{}`,
		`{"resume": {"skills": []}}`,
		`{"resume": {"person": {"name": "Kim"}}, "analysis": {"completeness_score": 3}}`,
	} {
		if w, got := do(t, router, http.MethodPut, "/api/resumes/u1", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d (%v)", body, w.Code, got)
		}
	}
}

func TestFatalTurnErrorsLogAtWarn(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level zapcore.Level
	}{
		{name: "no resume", err: &coach.ResumeNotFoundError{UserID: "u1", Err: store.ErrNotFound}, level: zapcore.WarnLevel},
		{name: "session gone", err: &coach.SessionNotPersistedError{SessionID: "s1", Err: store.ErrNotFound}, level: zapcore.WarnLevel},
		{name: "conflict", err: &coach.SessionConflictError{SessionID: "s1", Err: store.ErrVersionConflict}, level: zapcore.WarnLevel},
		{name: "unexpected", err: errors.New("disk on fire"), level: zapcore.ErrorLevel},
	}

	s := newTestStore(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			runner := runnerFunc(func(context.Context, string, string, string) (*coach.Result, error) {
				return nil, tt.err
			})
			router := NewRouter(NewHandler(runner, s, s, zap.New(core)))

			do(t, router, http.MethodPost, "/api/chat/message", `{"session_id":"s1","user_id":"u1"}`)

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("expected one entry, got %d", len(entries))
			}
			if entries[0].Level != tt.level {
				t.Fatalf("expected level %s, got %s", tt.level, entries[0].Level)
			}
		})
	}
}

func TestRequestLoggerUsesZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := newTestStore(t)
	router := NewRouter(NewHandler(runnerFunc(nil), s, s, zap.New(core)))

	do(t, router, http.MethodGet, "/api/chat/status/missing", "")

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != http.MethodGet || fields["path"] != "/api/chat/status/missing" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if fields["status"] != int64(http.StatusNotFound) {
		t.Fatalf("expected status 404, got %v", fields["status"])
	}
	if fields["request_id"] == "" {
		t.Fatalf("expected request id, got %v", fields)
	}
}
