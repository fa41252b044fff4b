// Package coach runs one interview turn: load, merge the answer, select the next
// question, compose the response and persist the session.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/resume-coach/internal/ai"
	"github.com/spigell/resume-coach/internal/conversation"
	"github.com/spigell/resume-coach/internal/logger"
	"github.com/spigell/resume-coach/internal/resume"
	"github.com/spigell/resume-coach/internal/store"
	"go.uber.org/zap"
)

const defaultGenerationTimeout = 30 * time.Second

type Config struct {
	// GenerationTimeout bounds every single generation call.
	GenerationTimeout time.Duration
	// QueueConcurrentTurns makes a second turn for a busy session wait instead of failing.
	QueueConcurrentTurns bool
}

type Deps struct {
	Resumes       store.ResumeStore
	Conversations store.ConversationStore
	Generator     ai.Generator
	Logger        *zap.Logger
}

// Orchestrator executes interview turns. It keeps no session state between turns.
type Orchestrator struct {
	cfg           Config
	resumes       store.ResumeStore
	conversations store.ConversationStore
	generator     ai.Generator
	gate          *turnGate
	logger        *zap.Logger
}

// Result is what the applicant observes after a turn.
type Result struct {
	Response      string `json:"response"`
	Completed     bool   `json:"is_completed"`
	AnsweredCount int    `json:"answered_count"`
	QuestionIndex int    `json:"question_index"`
}

func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Resumes == nil {
		return nil, errors.New("resume store is required")
	}
	if deps.Conversations == nil {
		return nil, errors.New("conversation store is required")
	}
	if deps.Generator == nil {
		deps.Generator = ai.Disabled{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}

	return &Orchestrator{
		cfg:           cfg,
		resumes:       deps.Resumes,
		conversations: deps.Conversations,
		generator:     deps.Generator,
		gate:          newTurnGate(cfg.QueueConcurrentTurns),
		logger:        deps.Logger,
	}, nil
}

// Run processes one user message. The result is returned only after the session is persisted.
func (o *Orchestrator) Run(ctx context.Context, sessionID, userID, answer string) (*Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	userID = strings.TrimSpace(userID)
	if sessionID == "" || userID == "" {
		return nil, fmt.Errorf("%w: session id and user id are required", ErrInvalidRequest)
	}

	release, err := o.gate.acquire(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}
	defer release()

	t := &turn{
		sessionID: sessionID,
		userID:    userID,
		answer:    strings.TrimSpace(answer),
		log:       logger.WithSessionFields(o.logger, sessionID, userID),
	}

	if err := o.load(ctx, t); err != nil {
		return nil, err
	}
	o.mergeAnswer(ctx, t)
	o.selectQuestion(t)
	if t.completed {
		o.composeCompletion(ctx, t)
	} else {
		o.composeQuestion(ctx, t)
	}
	if err := o.persist(ctx, t); err != nil {
		return nil, err
	}

	t.log.Info("turn processed",
		zap.Int("answered_count", t.session.AnsweredCount),
		zap.Int("question_index", t.session.QuestionIndex),
		zap.Bool("completed", t.completed),
	)

	return &Result{
		Response:      t.response,
		Completed:     t.completed,
		AnsweredCount: t.session.AnsweredCount,
		QuestionIndex: t.session.QuestionIndex,
	}, nil
}

// GenerationTimeout is the effective bound of a single generation call.
func (o *Orchestrator) GenerationTimeout() time.Duration {
	return o.cfg.GenerationTimeout
}

// generate makes one attempt bounded by the generation timeout. A timeout is reported as an error.
func (o *Orchestrator) generate(ctx context.Context, kind ai.Kind, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.GenerationTimeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := o.generator.Generate(ctx, ai.Request{Kind: kind, Prompt: prompt})
		done <- outcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return "", fmt.Errorf("generate %s: %w", kind, out.err)
		}
		if strings.TrimSpace(out.text) == "" {
			return "", fmt.Errorf("generate %s: empty response", kind)
		}
		return out.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("generate %s: %w", kind, ctx.Err())
	}
}

// State is the position of a turn in the pipeline.
type State int

const (
	StateLoaded State = iota
	StateMerged
	StateQuestionSelected
	StateResponding
	StateCompleting
	StatePersisted
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateMerged:
		return "merged"
	case StateQuestionSelected:
		return "question_selected"
	case StateResponding:
		return "responding"
	case StateCompleting:
		return "completing"
	case StatePersisted:
		return "persisted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// turn is the per-call context. It is never stored.
type turn struct {
	sessionID string
	userID    string
	answer    string
	log       *zap.Logger

	session   *conversation.Session
	version   int64
	resume    *resume.Resume
	questions []resume.ImprovementQuestion
	// pending is the question asked by the previous turn, if any.
	pending   *resume.ImprovementQuestion
	current   *resume.ImprovementQuestion
	completed bool
	response  string
}

func (t *turn) advance(next State) {
	t.log.Debug("turn stage reached", zap.String(logger.FieldStage, next.String()))
}
