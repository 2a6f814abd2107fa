package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/abhisek/lingua/internal/apperr"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePlan(learnerID string, titles ...string) *CurriculumPlan {
	p := &CurriculumPlan{
		LearnerID:  learnerID,
		Language:   "english",
		Level:      "A1",
		Provenance: "fallback",
	}
	for i, title := range titles {
		p.Modules = append(p.Modules, PlanModule{
			Position:          i + 1,
			Title:             title,
			Objectives:        datatypes.JSONSlice[string]{"objective"},
			AccuracyThreshold: 0.85,
			MinTasksCompleted: 10,
			Tasks: []ModuleTask{
				{Position: 2, Type: "cloze", Accepted: datatypes.JSONSlice[string]{"b"}, Difficulty: 2},
				{Position: 1, Type: "cloze", Accepted: datatypes.JSONSlice[string]{"a"}, Difficulty: 1},
			},
		})
	}
	return p
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	var fk int
	require.NoError(t, s.DB().Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
	assert.Equal(t, DriverSQLite, s.Driver())
}

func TestLearnerRepo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Learners()

	l := &Learner{Name: "Aigerim", Language: "kazakh"}
	require.NoError(t, repo.Create(ctx, nil, l))
	require.NotEmpty(t, l.ID)

	require.NoError(t, repo.SetLevel(ctx, nil, l.ID, "A1"))
	got, err := repo.Get(ctx, nil, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", got.Level)

	_, err = repo.Get(ctx, nil, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.SetLevel(ctx, nil, "missing", "B1"), ErrLearnerNotFound)
}

func TestPlanActivate_ReplacesPreviousPlan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	plans := s.Plans()

	first := samplePlan("learner-1", "Basics")
	require.NoError(t, plans.Activate(ctx, nil, first))

	second := samplePlan("learner-1", "Present Tense", "Daily Routines", "Directions")
	require.NoError(t, plans.Activate(ctx, nil, second))

	n, err := plans.CountActive(ctx, nil, "learner-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	active, err := plans.Active(ctx, nil, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	require.Len(t, active.Modules, 3)
	assert.Equal(t, "Present Tense", active.Modules[0].Title)
	require.Len(t, active.Modules[0].Tasks, 2)
	assert.Equal(t, 1, active.Modules[0].Tasks[0].Position)

	history, err := plans.History(ctx, nil, "learner-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	old, err := plans.GetPlan(ctx, nil, first.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)
	assert.NotNil(t, old.DeactivatedAt)
}

func TestPlanActivate_Concurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- RetryOnConflict(ctx, func(ctx context.Context) error {
				return s.Plans().Activate(ctx, nil, samplePlan("learner-c", fmt.Sprintf("M%d", i)))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, err := s.Plans().CountActive(ctx, nil, "learner-c")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPlan_PartialUniqueIndex(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Plans().Activate(ctx, nil, samplePlan("learner-x", "A")))

	rogue := &CurriculumPlan{ID: "rogue", LearnerID: "learner-x", Language: "english", Level: "A1", Provenance: "fallback", Active: true}
	err := MapError(s.DB().Create(rogue).Error)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)
}

func TestPlan_MarkModuleCompleted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := samplePlan("learner-m", "A")
	require.NoError(t, s.Plans().Activate(ctx, nil, p))

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Plans().MarkModuleCompleted(ctx, nil, p.Modules[0].ID, at))
	require.NoError(t, s.Plans().MarkModuleCompleted(ctx, nil, p.Modules[0].ID, at.Add(time.Hour)))

	m, err := s.Plans().GetModule(ctx, nil, p.Modules[0].ID)
	require.NoError(t, err)
	assert.True(t, m.Completed)
	require.NotNil(t, m.CompletedAt)
	assert.True(t, m.CompletedAt.Equal(at))
}

func TestTaskState_CompareAndSwap(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	tasks := s.Tasks()

	st, found, err := tasks.State(ctx, nil, "l1", "t1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "pending", st.Status)

	st.Attempts, st.Status = 1, "in_progress"
	require.NoError(t, tasks.SaveState(ctx, nil, &st, 0))
	assert.EqualValues(t, 1, st.Revision)

	stale := st
	st.Attempts, st.BestCorrect, st.Status = 2, true, "completed"
	require.NoError(t, tasks.SaveState(ctx, nil, &st, 1))

	stale.Attempts = 99
	assert.ErrorIs(t, tasks.SaveState(ctx, nil, &stale, 1), ErrRevisionConflict)

	dup := TaskState{LearnerID: "l1", TaskID: "t1", Status: "pending"}
	assert.ErrorIs(t, tasks.SaveState(ctx, nil, &dup, 0), apperr.ErrConcurrencyConflict)

	got, found, err := tasks.State(ctx, nil, "l1", "t1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, got.Attempts)
	assert.True(t, got.BestCorrect)
	assert.EqualValues(t, 2, got.Revision)
}

func TestTaskAttempts_AppendOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i, ans := range []string{"wrong", "right"} {
		require.NoError(t, s.Tasks().AppendAttempt(ctx, nil, &TaskAttempt{
			LearnerID: "l1", TaskID: "t1", Answer: ans, Correct: i == 1,
			Feedback:  datatypes.JSON(`{"source":"static"}`),
			CreatedAt: time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		}))
	}
	got, err := s.Tasks().Attempts(ctx, nil, "l1", "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "wrong", got[0].Answer)
	assert.True(t, got[1].Correct)
}

func TestGamification_CompareAndSwap(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Gamification()

	st, err := repo.Get(ctx, nil, "l1")
	require.NoError(t, err)
	assert.Zero(t, st.Revision)

	st.TotalXP, st.CurrentStreak, st.LongestStreak, st.LastActivity = 20, 1, 1, "2026-01-01"
	st.History = datatypes.NewJSONType(map[string]int{"2026-01-01": 20})
	require.NoError(t, repo.CompareAndSwap(ctx, nil, &st, 0))

	next := st
	next.TotalXP = 50
	next.History = datatypes.NewJSONType(map[string]int{"2026-01-01": 20, "2026-01-02": 30})
	require.NoError(t, repo.CompareAndSwap(ctx, nil, &next, 1))

	st.TotalXP = 1000
	assert.ErrorIs(t, repo.CompareAndSwap(ctx, nil, &st, 1), ErrRevisionConflict)

	got, err := repo.Get(ctx, nil, "l1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.TotalXP)
	assert.EqualValues(t, 2, got.Revision)
	assert.Equal(t, 30, got.History.Data()["2026-01-02"])
}

func TestRunInTransaction_RollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.Learners().Create(ctx, tx, &Learner{ID: "l-tx", Language: "english"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Learners().Get(ctx, nil, "l-tx")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlacementRepo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Placements()

	test := &PlacementTest{ID: "en-basic", Language: "english", Title: "v1", Items: datatypes.JSONSlice[PlacementItemRecord]{
		{ID: "q1", Type: "cloze", Prompt: "I ___ a student", Accepted: []string{"am"}, Weight: 1, Order: 1},
	}}
	require.NoError(t, repo.UpsertTest(ctx, nil, test))
	test.Title = "v2"
	require.NoError(t, repo.UpsertTest(ctx, nil, test))

	got, err := repo.GetTest(ctx, nil, "en-basic")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)
	require.Len(t, got.Items, 1)
	assert.Equal(t, []string{"am"}, got.Items[0].Accepted)

	list, err := repo.ListTests(ctx, nil, "kazakh")
	require.NoError(t, err)
	assert.Empty(t, list)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AppendResult(ctx, nil, &PlacementResult{LearnerID: "l1", TestID: "en-basic", Level: "A0", CreatedAt: base}))
	require.NoError(t, repo.AppendResult(ctx, nil, &PlacementResult{LearnerID: "l1", TestID: "en-basic", Level: "B2", CreatedAt: base.Add(time.Minute)}))
	latest, err := repo.LatestResult(ctx, nil, "l1")
	require.NoError(t, err)
	assert.Equal(t, "B2", latest.Level)
}

func TestEventRepo(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	events := s.Events()

	for _, ev := range []LLMRequestEventData{
		{Provider: "mock", Model: "mock", Purpose: "curriculum", InputTokens: 100, OutputTokens: 50, LatencyMs: 10, Success: true},
		{Provider: "mock", Model: "mock", Purpose: "curriculum", InputTokens: 20, OutputTokens: 0, LatencyMs: 30, ErrorMessage: "down"},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "feedback", InputTokens: 10, OutputTokens: 5, LatencyMs: 5, Success: true},
	} {
		require.NoError(t, events.AppendLLMRequest(ctx, ev))
	}

	list, err := events.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "feedback", list[0].Purpose)

	filtered, err := events.QueryLLMEvents(ctx, QueryOpts{Purpose: "curriculum"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	one, err := events.GetLLMEvent(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", one.Model)
	_, err = events.GetLLMEvent(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	byPurpose, err := events.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "curriculum", byPurpose[0].Purpose)
	assert.Equal(t, 2, byPurpose[0].Calls)
	assert.Equal(t, 120, byPurpose[0].InputTokens)
	assert.EqualValues(t, 20, byPurpose[0].AvgLatencyMs)

	byModel, err := events.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)

	n, err := events.PruneLLMEvents(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = events.PruneLLMEvents(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, MapError(nil))
	assert.ErrorIs(t, MapError(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, MapError(&pgconn.PgError{Code: "40001"}), apperr.ErrConcurrencyConflict)
	assert.ErrorIs(t, MapError(&pgconn.PgError{Code: "23505"}), apperr.ErrConcurrencyConflict)
	assert.NotErrorIs(t, MapError(&pgconn.PgError{Code: "42P01"}), apperr.ErrConcurrencyConflict)

	plain := errors.New("plain")
	assert.Equal(t, plain, MapError(plain))
	assert.Equal(t, "concurrency_conflict", apperr.KindOf(ErrRevisionConflict))
}

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryOnConflict(ctx, func(context.Context) error {
		calls++
		if calls == 1 {
			return ErrRevisionConflict
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = RetryOnConflict(ctx, func(context.Context) error {
		calls++
		return ErrRevisionConflict
	})
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)
	assert.Equal(t, 2, calls)

	calls = 0
	err = RetryOnConflict(ctx, func(context.Context) error {
		calls++
		return apperr.ErrValidation
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 1, calls)
}
