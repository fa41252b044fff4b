// Package conversation describes the per-session dialogue state of an interview.
package conversation

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is one coaching conversation. Counters never decrease and Completed is never reset.
type Session struct {
	ID            string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Messages      []Message `json:"messages"`
	QuestionIndex int       `json:"question_index"`
	AnsweredCount int       `json:"answered_count"`
	Completed     bool      `json:"is_completed"`
	// Version is bumped by the store on every successful update.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty session with all counters at zero.
func New(id, userID string) *Session {
	return &Session{
		ID:       id,
		UserID:   userID,
		Messages: []Message{},
	}
}

// Started reports whether the assistant has already spoken in this session.
func (s *Session) Started() bool {
	for _, m := range s.Messages {
		if m.Role == RoleAssistant {
			return true
		}
	}
	return false
}

// Append adds a message, skipping empty content.
func (s *Session) Append(role Role, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// Clone returns a deep copy so a turn can work on its own message slice.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}

// Update is the set of fields a turn writes back in one atomic store update.
type Update struct {
	Messages      []Message
	QuestionIndex int
	AnsweredCount int
	Completed     bool
	// ExpectedVersion is the version loaded at the start of the turn.
	ExpectedVersion int64
}
