package engine

import (
	"context"

	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/gamification"
	"github.com/abhisek/lingua/internal/progress"
	"github.com/abhisek/lingua/internal/store"
)

// ModuleProgress is a derived view of one module for one learner.
type ModuleProgress struct {
	ModuleID  string               `json:"module_id"`
	Title     string               `json:"title"`
	Criteria  progress.Criteria    `json:"criteria"`
	Summary   progress.Summary     `json:"summary"`
	Completed bool                 `json:"completed"`
	Tasks     []progress.TaskState `json:"tasks"`
}

// ModuleProgress recomputes a module's summary from the learner's task
// states. Nothing is stored.
func (e *Engine) ModuleProgress(ctx context.Context, learnerID, moduleID string) (*ModuleProgress, error) {
	module, err := e.store.Plans().GetModule(ctx, nil, moduleID)
	if err != nil {
		return nil, err
	}
	plan, err := e.store.Plans().GetPlan(ctx, nil, module.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.LearnerID != learnerID {
		return nil, store.ErrNotFound
	}
	return e.moduleProgress(ctx, learnerID, module)
}

func (e *Engine) moduleProgress(ctx context.Context, learnerID string, module *store.PlanModule) (*ModuleProgress, error) {
	ids := make([]string, 0, len(module.Tasks))
	for _, t := range module.Tasks {
		ids = append(ids, t.ID)
	}
	recs, err := e.store.Tasks().States(ctx, nil, learnerID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]store.TaskState, len(recs))
	for _, r := range recs {
		byID[r.TaskID] = r
	}
	states := make([]progress.TaskState, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			rec = store.TaskState{TaskID: id}
		}
		states = append(states, taskStateFromRecord(rec))
	}
	return &ModuleProgress{
		ModuleID:  module.ID,
		Title:     module.Title,
		Criteria:  progress.Criteria{AccuracyThreshold: module.AccuracyThreshold, MinTasksCompleted: module.MinTasksCompleted},
		Summary:   progress.Aggregate(states),
		Completed: module.Completed,
		Tasks:     states,
	}, nil
}

// Profile is a learner overview.
type Profile struct {
	Learner       Learner            `json:"learner"`
	Gamification  gamification.State `json:"gamification"`
	NextMilestone int                `json:"next_milestone"`
	Plan          *curriculum.Plan   `json:"plan,omitempty"`
	Modules       []ModuleProgress   `json:"modules,omitempty"`
}

// Profile gathers the learner, their ledger and active plan progress.
func (e *Engine) Profile(ctx context.Context, learnerID string) (*Profile, error) {
	rec, err := e.store.Learners().Get(ctx, nil, learnerID)
	if err != nil {
		return nil, err
	}
	state, err := e.ledger.Snapshot(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	p := &Profile{
		Learner:       *learnerFromRecord(rec),
		Gamification:  state,
		NextMilestone: gamification.NextStreakThreshold(state.CurrentStreak),
	}

	planRec, err := e.store.Plans().Active(ctx, nil, learnerID)
	switch {
	case err == nil:
		p.Plan = planFromRecord(planRec)
		for i := range planRec.Modules {
			mp, err := e.moduleProgress(ctx, learnerID, &planRec.Modules[i])
			if err != nil {
				return nil, err
			}
			p.Modules = append(p.Modules, *mp)
		}
	case !isNotFound(err):
		return nil, err
	}
	return p, nil
}

// CheckIn records a day of activity without XP, keeping the streak alive.
func (e *Engine) CheckIn(ctx context.Context, learnerID string) (gamification.State, gamification.Award, error) {
	if _, err := e.store.Learners().Get(ctx, nil, learnerID); err != nil {
		return gamification.State{}, gamification.Award{}, err
	}
	return e.ledger.RecordActivity(ctx, learnerID, 1, false)
}
