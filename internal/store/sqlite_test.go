package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spigell/resume-coach/internal/conversation"
	"github.com/spigell/resume-coach/internal/resume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "coach.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testResume(name string) *resume.Resume {
	return &resume.Resume{
		Person: &resume.Person{Name: name, Title: "Engineer"},
		Skills: []resume.Skill{{Name: "Go", Category: "language"}},
	}
}

func TestResumeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, _, err := s.GetCurrent(ctx, "u1")
	require.ErrorIs(t, err, ErrNotFound)

	analysis := &resume.Analysis{
		OverallSummary: "ok",
		ImprovementQuestions: []resume.ImprovementQuestion{
			{Category: "role", Question: "q0"},
			{Category: "result", Question: "q1"},
		},
		CompletenessScore: 0.5,
	}
	require.NoError(t, s.Put(ctx, "u1", testResume("Kim"), analysis))

	r, a, err := s.GetCurrent(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Kim", r.Person.Name)
	require.NotNil(t, a)
	require.Len(t, a.ImprovementQuestions, 2)
	assert.Equal(t, "q0", a.ImprovementQuestions[0].Question)
	assert.Equal(t, "q1", a.ImprovementQuestions[1].Question)

	require.NoError(t, s.Overwrite(ctx, "u1", testResume("Lee")))

	r, a, err = s.GetCurrent(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Lee", r.Person.Name)
	require.NotNil(t, a, "overwrite must keep the analysis")
	assert.Len(t, a.ImprovementQuestions, 2)
}

func TestResumeWithoutAnalysis(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, "u1", testResume("Kim"), nil))

	_, a, err := s.GetCurrent(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestOverwriteUnknownApplicant(t *testing.T) {
	s := newTestStore(t)
	err := s.Overwrite(context.Background(), "ghost", testResume("Kim"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", first.UserID)
	assert.Empty(t, first.Messages)
	assert.Zero(t, first.QuestionIndex)
	assert.Zero(t, first.AnsweredCount)
	assert.False(t, first.Completed)

	second, err := s.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUpdateCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session, err := s.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)

	update := conversation.Update{
		Messages:        []conversation.Message{{Role: conversation.RoleAssistant, Content: "q0?"}},
		QuestionIndex:   0,
		AnsweredCount:   0,
		ExpectedVersion: session.Version,
	}
	require.NoError(t, s.Update(ctx, "s1", update))

	stored, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.Version+1, stored.Version)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, "q0?", stored.Messages[0].Content)

	// Same expected version again: someone else already advanced the row.
	err = s.Update(ctx, "s1", update)
	require.ErrorIs(t, err, ErrVersionConflict)

	err = s.Update(ctx, "missing", update)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePersistsCounters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session, err := s.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "s1", conversation.Update{
		QuestionIndex:   2,
		AnsweredCount:   2,
		Completed:       true,
		ExpectedVersion: session.Version,
	}))

	stored, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.QuestionIndex)
	assert.Equal(t, 2, stored.AnsweredCount)
	assert.True(t, stored.Completed)
	assert.NotNil(t, stored.Messages)
}

func TestListByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Unix(1_700_000_000, 0)
	for i, id := range []string{"s1", "s2", "s3"} {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		_, err := s.GetOrCreate(ctx, id, "u1")
		require.NoError(t, err)
	}
	_, err := s.GetOrCreate(ctx, "other", "u2")
	require.NoError(t, err)

	sessions, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "s3", sessions[0].ID)
	assert.Equal(t, "s1", sessions[2].ID)
}

func TestMemoryDatabase(t *testing.T) {
	s, err := NewSQLite(MemoryDSN, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
	_, err = s.GetOrCreate(context.Background(), "s1", "u1")
	require.NoError(t, err)
}
