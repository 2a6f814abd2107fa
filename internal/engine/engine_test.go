package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/cache"
	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/feedback"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/store"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, days)
}

type fixture struct {
	engine *Engine
	store  *store.Store
	clock  *testClock
}

func newFixture(t *testing.T, gen curriculum.GenerateFunc) *fixture {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Driver: store.DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	catalog, err := curriculum.DefaultCatalog()
	require.NoError(t, err)
	mem := cache.NewMemory()
	clock := &testClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}

	e := New(Deps{
		Store:    st,
		Resolver: curriculum.NewResolver(curriculum.DefaultConfig(), catalog, mem, nil),
		Generate: gen,
		Feedback: feedback.NewService(feedback.DefaultConfig(), nil, mem, nil),
		Clock:    clock.Now,
	})
	return &fixture{engine: e, store: st, clock: clock}
}

func (f *fixture) learner(t *testing.T, language string) *Learner {
	t.Helper()
	l, err := f.engine.CreateLearner(context.Background(), "Dana", language)
	require.NoError(t, err)
	return l
}

func englishPlacementTest() *store.PlacementTest {
	return &store.PlacementTest{
		ID:       "en-placement-1",
		Language: "english",
		Title:    "English placement",
		Items: []store.PlacementItemRecord{
			{ID: "q1", Type: "multiple_choice", Prompt: "She ___ to school.", Choices: []string{"go", "goes"}, Accepted: []string{"goes"}, Weight: 1, Order: 1},
			{ID: "q2", Type: "cloze", Prompt: "The ___ sat on the mat.", Accepted: []string{"cat"}, Weight: 1, Order: 2},
			{ID: "q3", Type: "translation", Prompt: "Я голоден.", Accepted: []string{"I am hungry"}, Weight: 2, Order: 3},
			{ID: "q4", Type: "multiple_choice", Prompt: "They ___ happy.", Choices: []string{"is", "are"}, Accepted: []string{"are"}, Weight: 1, Order: 4},
		},
	}
}

func TestSubmitPlacement_EndToEnd(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	l := f.learner(t, "English")
	require.NoError(t, f.engine.ImportPlacementTest(ctx, englishPlacementTest()))

	out, err := f.engine.SubmitPlacement(ctx, l.ID, "en-placement-1", []placement.Answer{
		{ItemID: "q1", Response: "goes"},
		{ItemID: "q2", Response: "Cat "},
		{ItemID: "q3", Response: "I am hungri"},
		{ItemID: "q4", Response: "is"},
	})
	require.NoError(t, err)
	assert.InDelta(t, 80.0, out.Score.Percentage, 1e-9)
	assert.Equal(t, placement.B2, out.Score.Level)

	got, err := f.engine.Learner(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, placement.B2, got.Level)

	// The most recent submission wins.
	_, err = f.engine.SubmitPlacement(ctx, l.ID, "en-placement-1", []placement.Answer{{ItemID: "q1", Response: "go"}})
	require.NoError(t, err)
	got, err = f.engine.Learner(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, placement.A0, got.Level)
}

func TestSubmitPlacement_Errors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.engine.ImportPlacementTest(ctx, englishPlacementTest()))
	kz := f.learner(t, "kazakh")
	en := f.learner(t, "english")

	_, err := f.engine.SubmitPlacement(ctx, kz.ID, "en-placement-1", nil)
	assert.ErrorIs(t, err, ErrLanguageMismatch)

	_, err = f.engine.SubmitPlacement(ctx, en.ID, "en-placement-1", []placement.Answer{{ItemID: "nope", Response: "x"}})
	assert.ErrorIs(t, err, placement.ErrUnknownItem)

	_, err = f.engine.SubmitPlacement(ctx, en.ID, "missing", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.engine.SubmitPlacement(ctx, "ghost", "en-placement-1", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	bad := englishPlacementTest()
	bad.Items[0].Weight = 0
	assert.ErrorIs(t, f.engine.ImportPlacementTest(ctx, bad), apperr.ErrValidation)
}

func TestCreateLearner_UnsupportedLanguage(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.CreateLearner(context.Background(), "X", "klingon")
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestResolveCurriculum_FallbackKeepsOneActivePlan(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	l := f.learner(t, "english")
	require.NoError(t, f.store.Learners().SetLevel(ctx, nil, l.ID, "B2"))

	first, err := f.engine.ResolveCurriculum(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, curriculum.ProvenanceFallback, first.Provenance)
	assert.Equal(t, placement.B2, first.Level)
	assert.Equal(t, placement.B1, first.SourceLevel)
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.Modules[0].Tasks[0].ID)

	second, err := f.engine.ResolveCurriculum(ctx, l.ID)
	require.NoError(t, err)

	n, err := f.store.Plans().CountActive(ctx, nil, l.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	active, err := f.engine.ActivePlan(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Len(t, active.Modules, 3)

	history, err := f.engine.PlanHistory(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestResolveCurriculum_Generated(t *testing.T) {
	doc := `{"modules": [
		{"title": "Greetings", "objectives": ["Say hello"], "checkpoint_criteria": {"accuracy_threshold": 0.8, "min_tasks_completed": 1},
		 "tasks": [{"type": "fill_blank", "prompt": "___, Anna!", "accepted": ["Hello", "Hi"], "difficulty": 1}]},
		{"title": "Numbers", "objectives": ["Count to ten"], "checkpoint_criteria": {"accuracy_threshold": 0.8, "min_tasks_completed": 1}},
		{"title": "Colours", "objectives": ["Name colours"], "checkpoint_criteria": {"accuracy_threshold": 0.8, "min_tasks_completed": 1}}
	]}`
	gen := func(context.Context, string, placement.Level) (json.RawMessage, error) {
		return json.RawMessage(doc), nil
	}
	f := newFixture(t, gen)
	ctx := context.Background()
	l := f.learner(t, "english")

	plan, err := f.engine.ResolveCurriculum(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, curriculum.ProvenanceGenerated, plan.Provenance)
	assert.Equal(t, placement.A0, plan.Level)
	require.Len(t, plan.Modules, 3)
	assert.Equal(t, "Greetings", plan.Modules[0].Title)

	n, err := f.store.Plans().CountActive(ctx, nil, l.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestResolveCurriculum_ConcurrentActivations(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	l := f.learner(t, "kazakh")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.ResolveCurriculum(ctx, l.ID); err != nil {
				t.Errorf("resolve: %v", err)
			}
		}()
	}
	wg.Wait()

	n, err := f.store.Plans().CountActive(ctx, nil, l.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func activePlan(t *testing.T, f *fixture, language string) (*Learner, *curriculum.Plan) {
	t.Helper()
	l := f.learner(t, language)
	plan, err := f.engine.ResolveCurriculum(context.Background(), l.ID)
	require.NoError(t, err)
	return l, plan
}

func TestSubmitAttempt_XPOnlyForFirstCorrect(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	l, plan := activePlan(t, f, "english")
	task := plan.Modules[0].Tasks[2] // translation, difficulty 2

	miss, err := f.engine.SubmitAttempt(ctx, l.ID, task.ID, "Me name Anna")
	require.NoError(t, err)
	assert.False(t, miss.Result.Correct)
	assert.False(t, miss.Counted)
	assert.Zero(t, miss.Award.XP)
	assert.Equal(t, feedback.MessageIncorrect, miss.Feedback.Message)
	assert.Equal(t, task.Rule, miss.Feedback.Rule)
	assert.Equal(t, 1, miss.Gamification.CurrentStreak, "any attempt counts as activity")
	assert.NotEmpty(t, miss.AttemptID)

	hit, err := f.engine.SubmitAttempt(ctx, l.ID, task.ID, "my name is anna")
	require.NoError(t, err)
	assert.True(t, hit.Result.Correct)
	assert.True(t, hit.Counted)
	assert.Equal(t, 20, hit.Award.XP)
	assert.Equal(t, 20, hit.Gamification.TotalXP)
	assert.Equal(t, 2, hit.Task.Attempts)

	again, err := f.engine.SubmitAttempt(ctx, l.ID, task.ID, "My name is Anna")
	require.NoError(t, err)
	assert.False(t, again.Counted)
	assert.Zero(t, again.Award.XP)
	assert.Equal(t, 20, again.Gamification.TotalXP)

	attempts, err := f.engine.Attempts(ctx, l.ID, task.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	xp := 0
	for _, a := range attempts {
		xp += a.AwardedXP
	}
	assert.Equal(t, 20, xp)

	profile, err := f.engine.Profile(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, profile.Gamification.TotalXP)
	assert.EqualValues(t, 3, profile.Gamification.Revision)
	assert.Equal(t, 5, profile.NextMilestone)
}

func TestSubmitAttempt_CompletesModule(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	l, plan := activePlan(t, f, "english")
	module := plan.Modules[0] // accuracy 0.8, two tasks

	first, err := f.engine.SubmitAttempt(ctx, l.ID, module.Tasks[0].ID, module.Tasks[0].Accepted[0])
	require.NoError(t, err)
	assert.False(t, first.ModuleCompleted)
	assert.Equal(t, 1, first.Module.Completed)

	second, err := f.engine.SubmitAttempt(ctx, l.ID, module.Tasks[1].ID, module.Tasks[1].Accepted[0])
	require.NoError(t, err)
	assert.True(t, second.ModuleCompleted)
	assert.Equal(t, 1.0, second.Module.Accuracy)

	active, err := f.engine.ActivePlan(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, active.Modules[0].Completed)
	assert.False(t, active.Modules[1].Completed)

	mp, err := f.engine.ModuleProgress(ctx, l.ID, module.ID)
	require.NoError(t, err)
	assert.True(t, mp.Completed)
	assert.Equal(t, 2, mp.Summary.Attempted)
	assert.Equal(t, 3, mp.Summary.Total)
}

func TestSubmitAttempt_Errors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	l, plan := activePlan(t, f, "english")
	task := plan.Modules[0].Tasks[0]

	_, err := f.engine.SubmitAttempt(ctx, l.ID, task.ID, "   ")
	assert.ErrorIs(t, err, grading.ErrEmptyAnswer)

	_, err = f.engine.SubmitAttempt(ctx, l.ID, "missing", "x")
	assert.ErrorIs(t, err, store.ErrNotFound)

	other := f.learner(t, "english")
	_, err = f.engine.SubmitAttempt(ctx, other.ID, task.ID, "Hello")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.engine.ResolveCurriculum(ctx, l.ID)
	require.NoError(t, err)
	_, err = f.engine.SubmitAttempt(ctx, l.ID, task.ID, "Hello")
	assert.ErrorIs(t, err, ErrTaskNotInActivePlan)
}

func TestRecordAttempt_RechecksPlanInsideTransaction(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	l, plan := activePlan(t, f, "english")
	taskID := plan.Modules[0].Tasks[0].ID

	task, module, err := f.engine.activeTask(ctx, l.ID, taskID)
	require.NoError(t, err)
	result, err := f.engine.evaluator.Evaluate(task.Grading(), "Hello")
	require.NoError(t, err)

	// A resolve lands between the pre-check and the write.
	_, err = f.engine.ResolveCurriculum(ctx, l.ID)
	require.NoError(t, err)

	_, err = f.engine.recordAttempt(ctx, l.ID, task, module, result, "Hello", []byte("{}"), &AttemptOutcome{})
	assert.ErrorIs(t, err, ErrTaskNotInActivePlan)

	attempts, err := f.engine.Attempts(ctx, l.ID, taskID)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestSubmitAttempt_ConcurrentAttemptsAreRaceFree(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	l, plan := activePlan(t, f, "english")

	var tasks []curriculum.Task
	for _, m := range plan.Modules {
		tasks = append(tasks, m.Tasks...)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		awarded int
	)
	for round := range 3 {
		for _, task := range tasks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				answer := task.Accepted[0]
				if round == 0 {
					answer = "definitely wrong"
				}
				out, err := f.engine.SubmitAttempt(ctx, l.ID, task.ID, answer)
				if err != nil {
					t.Errorf("attempt %s: %v", task.ID, err)
					return
				}
				mu.Lock()
				awarded += out.Award.XP
				mu.Unlock()
			}()
		}
	}
	wg.Wait()

	want := 0
	for _, task := range tasks {
		want += 10 * task.Difficulty
	}
	profile, err := f.engine.Profile(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, want, awarded)
	assert.Equal(t, want, profile.Gamification.TotalXP)
	assert.EqualValues(t, 3*len(tasks), profile.Gamification.Revision)
}

func TestCheckIn_Streaks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	l := f.learner(t, "kazakh")

	st, award, err := f.engine.CheckIn(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Zero(t, award.XP)

	f.clock.Advance(1)
	st, _, err = f.engine.CheckIn(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentStreak)

	f.clock.Advance(3)
	st, _, err = f.engine.CheckIn(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 2, st.LongestStreak)
	assert.Zero(t, st.TotalXP)

	_, _, err = f.engine.CheckIn(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
