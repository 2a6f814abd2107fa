package engine

import (
	"context"
	"fmt"

	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/store"
)

// ResolveCurriculum builds a plan for the learner's current level and makes
// it their single active plan. Generation runs outside the learner lock;
// activation runs under it. A learner who has not been placed starts at A0.
func (e *Engine) ResolveCurriculum(ctx context.Context, learnerID string) (*curriculum.Plan, error) {
	learner, err := e.store.Learners().Get(ctx, nil, learnerID)
	if err != nil {
		return nil, err
	}
	level := placement.Level(learner.Level)
	if level == "" {
		level = placement.A0
	}

	plan, err := e.resolver.Resolve(ctx, curriculum.Request{
		LearnerID: learnerID,
		Language:  learner.Language,
		Level:     level,
	}, e.generate)
	if err != nil {
		return nil, err
	}

	rec := planToRecord(plan)
	unlock := e.locks.Lock(learnerID)
	defer unlock()
	err = store.RetryOnConflict(ctx, func(ctx context.Context) error {
		return e.store.Plans().Activate(ctx, nil, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("activate plan: %w", err)
	}

	e.log.Info("curriculum activated", "learner_id", learnerID, "plan_id", rec.ID,
		"provenance", plan.Provenance, "level", plan.Level, "source_level", plan.SourceLevel)
	return planFromRecord(rec), nil
}

// ActivePlan returns the learner's active plan with module completion.
func (e *Engine) ActivePlan(ctx context.Context, learnerID string) (*curriculum.Plan, error) {
	rec, err := e.store.Plans().Active(ctx, nil, learnerID)
	if err != nil {
		return nil, err
	}
	return planFromRecord(rec), nil
}

// PlanHistory returns every plan the learner has had, newest first,
// without tasks.
func (e *Engine) PlanHistory(ctx context.Context, learnerID string) ([]*curriculum.Plan, error) {
	recs, err := e.store.Plans().History(ctx, nil, learnerID)
	if err != nil {
		return nil, err
	}
	out := make([]*curriculum.Plan, 0, len(recs))
	for i := range recs {
		out = append(out, planFromRecord(&recs[i]))
	}
	return out, nil
}
