package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spigell/resume-coach/internal/conversation"
	"github.com/spigell/resume-coach/internal/resume"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database, mostly for tests.
const MemoryDSN = ":memory:"

// SQLite implements Repository on top of a SQLite database.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLite opens (creating when needed) the database at dbPath and applies the schema.
func NewSQLite(dbPath string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := dbPath
	if dbPath != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == MemoryDSN {
		// Every new connection to :memory: is a fresh database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(4)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLite{db: db, logger: logger, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLite) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS resumes (
		user_id TEXT PRIMARY KEY,
		data_json TEXT NOT NULL,
		analysis_json TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		messages_json TEXT NOT NULL,
		question_index INTEGER NOT NULL DEFAULT 0,
		answered_count INTEGER NOT NULL DEFAULT 0,
		is_completed INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetCurrent returns the current résumé of the applicant.
func (s *SQLite) GetCurrent(ctx context.Context, userID string) (*resume.Resume, *resume.Analysis, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data_json, analysis_json FROM resumes WHERE user_id = ?`, userID)

	var dataJSON string
	var analysisJSON sql.NullString
	err := row.Scan(&dataJSON, &analysisJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("resume of user %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan resume row: %w", err)
	}

	var r resume.Resume
	if err := json.Unmarshal([]byte(dataJSON), &r); err != nil {
		return nil, nil, fmt.Errorf("decode stored resume: %w", err)
	}

	var a *resume.Analysis
	if analysisJSON.Valid {
		a, err = resume.ParseAnalysis(analysisJSON.String)
		if err != nil {
			return nil, nil, fmt.Errorf("decode stored analysis: %w", err)
		}
	}

	return &r, a, nil
}

// Overwrite replaces the stored résumé document of an existing applicant.
func (s *SQLite) Overwrite(ctx context.Context, userID string, r *resume.Resume) error {
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("encode resume: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE resumes SET data_json = ?, updated_at = ? WHERE user_id = ?`,
		string(data), s.now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("overwrite resume: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("resume of user %q: %w", userID, ErrNotFound)
	}

	return nil
}

// Put creates or replaces the résumé and analysis of an applicant.
func (s *SQLite) Put(ctx context.Context, userID string, r *resume.Resume, a *resume.Analysis) error {
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("encode resume: %w", err)
	}

	var analysis any
	if a != nil {
		encoded, err := a.Marshal()
		if err != nil {
			return fmt.Errorf("encode analysis: %w", err)
		}
		analysis = string(encoded)
	}

	now := s.now().Unix()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resumes (user_id, data_json, analysis_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			data_json = excluded.data_json,
			analysis_json = excluded.analysis_json,
			updated_at = excluded.updated_at`,
		userID, string(data), analysis, now, now,
	)
	if err != nil {
		return fmt.Errorf("put resume: %w", err)
	}
	return nil
}

// GetOrCreate returns the session, inserting an empty one when it does not exist yet.
func (s *SQLite) GetOrCreate(ctx context.Context, sessionID, userID string) (*conversation.Session, error) {
	now := s.now().Unix()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (session_id, user_id, messages_json, created_at, updated_at)
		VALUES (?, ?, '[]', ?, ?)
		ON CONFLICT(session_id) DO NOTHING`,
		sessionID, userID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		s.logger.Debug("session created", zap.String("session_id", sessionID), zap.String("user_id", userID))
	}

	return s.Get(ctx, sessionID)
}

const sessionColumns = `session_id, user_id, messages_json, question_index, answered_count,
	is_completed, version, created_at, updated_at`

// Get returns the stored session.
func (s *SQLite) Get(ctx context.Context, sessionID string) (*conversation.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM conversations WHERE session_id = ?`, sessionID)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Update applies the turn result only when the stored version still matches.
func (s *SQLite) Update(ctx context.Context, sessionID string, u conversation.Update) error {
	messages := u.Messages
	if messages == nil {
		messages = []conversation.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET
			messages_json = ?,
			question_index = ?,
			answered_count = ?,
			is_completed = ?,
			version = version + 1,
			updated_at = ?
		WHERE session_id = ? AND version = ?`,
		string(data), u.QuestionIndex, u.AnsweredCount, u.Completed, s.now().Unix(),
		sessionID, u.ExpectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM conversations WHERE session_id = ?`, sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}

	s.logger.Warn("session update affected 0 rows",
		zap.String("session_id", sessionID),
		zap.Int64("expected_version", u.ExpectedVersion),
	)
	return fmt.Errorf("session %q: %w", sessionID, ErrVersionConflict)
}

// ListByUser returns the sessions of a user, newest first.
func (s *SQLite) ListByUser(ctx context.Context, userID string) ([]*conversation.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM conversations WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn("failed to close session rows", zap.Error(closeErr))
		}
	}()

	var sessions []*conversation.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*conversation.Session, error) {
	var session conversation.Session
	var messagesJSON string
	var createdAt, updatedAt int64

	err := row.Scan(
		&session.ID, &session.UserID, &messagesJSON,
		&session.QuestionIndex, &session.AnsweredCount,
		&session.Completed, &session.Version,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	if err := json.Unmarshal([]byte(messagesJSON), &session.Messages); err != nil {
		return nil, fmt.Errorf("decode session messages: %w", err)
	}
	if session.Messages == nil {
		session.Messages = []conversation.Message{}
	}

	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)

	return &session, nil
}
