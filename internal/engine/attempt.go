package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/feedback"
	"github.com/abhisek/lingua/internal/gamification"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/progress"
	"github.com/abhisek/lingua/internal/store"
)

// AttemptOutcome reports everything one attempt changed.
type AttemptOutcome struct {
	AttemptID       string             `json:"attempt_id"`
	Result          grading.Result     `json:"result"`
	Counted         bool               `json:"counted"`
	Award           gamification.Award `json:"award"`
	Gamification    gamification.State `json:"gamification"`
	Task            progress.TaskState `json:"task"`
	Module          progress.Summary   `json:"module"`
	ModuleCompleted bool               `json:"module_completed"`
	Feedback        feedback.Feedback  `json:"feedback"`
}

// Changeset is the full set of derived updates for one attempt. It is
// computed from a consistent read and applied in one transaction.
type Changeset struct {
	TaskState       store.TaskState
	TaskRevision    int64
	Gamification    gamification.State
	GamificationRev int64
	Attempt         store.TaskAttempt
	CompleteModule  string
}

// SubmitAttempt grades answer for a task in the learner's active plan and
// applies the attempt, task state, XP, streak and module completion
// atomically. Feedback is produced before the transaction starts.
func (e *Engine) SubmitAttempt(ctx context.Context, learnerID, taskID, answer string) (*AttemptOutcome, error) {
	task, module, err := e.activeTask(ctx, learnerID, taskID)
	if err != nil {
		return nil, err
	}

	result, err := e.evaluator.Evaluate(task.Grading(), answer)
	if err != nil {
		return nil, err
	}

	fb := e.feedback.For(ctx, feedback.Request{
		TaskType:        task.Type,
		Prompt:          task.Prompt,
		Answer:          answer,
		Expected:        task.Accepted[0],
		Rule:            task.Rule,
		ExampleContrast: task.ExampleContrast,
	}, result.Correct)
	fbJSON, err := json.Marshal(fb)
	if err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}

	out := &AttemptOutcome{Result: result, Feedback: fb}
	applied, err := e.recordAttempt(ctx, learnerID, task, module, result, answer, fbJSON, out)
	if err != nil {
		return nil, err
	}
	out.AttemptID = applied.Attempt.ID

	if out.ModuleCompleted {
		e.log.Info("module completed", "learner_id", learnerID, "module_id", module.ID)
	}
	return out, nil
}

// recordAttempt applies one graded attempt under the learner lock. The
// plan is checked again inside the transaction, since a resolve may have
// replaced it after activeTask ran.
func (e *Engine) recordAttempt(
	ctx context.Context, learnerID string,
	task curriculum.Task, module *store.PlanModule,
	result grading.Result, answer string, fb []byte, out *AttemptOutcome,
) (*Changeset, error) {
	unlock := e.locks.Lock(learnerID)
	defer unlock()

	var applied *Changeset
	err := store.RetryOnConflict(ctx, func(ctx context.Context) error {
		return e.store.RunInTransaction(ctx, func(tx *gorm.DB) error {
			plan, err := e.store.Plans().GetPlan(ctx, tx, module.PlanID)
			if err != nil {
				return err
			}
			if !plan.Active {
				return ErrTaskNotInActivePlan
			}
			cs, err := e.buildChangeset(ctx, tx, learnerID, task, module, result, answer, fb, out)
			if err != nil {
				return err
			}
			if err := e.applyChangeset(ctx, tx, cs); err != nil {
				return err
			}
			applied = cs
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}
	return applied, nil
}

// activeTask loads a task and checks it belongs to the learner's active
// plan.
func (e *Engine) activeTask(ctx context.Context, learnerID, taskID string) (curriculum.Task, *store.PlanModule, error) {
	rec, err := e.store.Tasks().Get(ctx, nil, taskID)
	if err != nil {
		return curriculum.Task{}, nil, err
	}
	module, err := e.store.Plans().GetModule(ctx, nil, rec.ModuleID)
	if err != nil {
		return curriculum.Task{}, nil, err
	}
	plan, err := e.store.Plans().GetPlan(ctx, nil, module.PlanID)
	if err != nil {
		return curriculum.Task{}, nil, err
	}
	if plan.LearnerID != learnerID {
		return curriculum.Task{}, nil, store.ErrTaskNotFound
	}
	if !plan.Active {
		return curriculum.Task{}, nil, ErrTaskNotInActivePlan
	}
	return taskFromRecord(*rec), module, nil
}

func (e *Engine) buildChangeset(
	ctx context.Context, tx *gorm.DB, learnerID string,
	task curriculum.Task, module *store.PlanModule,
	result grading.Result, answer string, fb []byte, out *AttemptOutcome,
) (*Changeset, error) {
	tasks := e.store.Tasks()

	rec, _, err := tasks.State(ctx, tx, learnerID, task.ID)
	if err != nil {
		return nil, err
	}
	state := taskStateFromRecord(rec)
	counted := state.Record(result.Correct)

	gs, err := (&ledgerStore{repo: e.store.Gamification(), tx: tx}).Load(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	gs.LearnerID = learnerID
	next, award, err := e.ledger.Rules().Advance(gs, task.Difficulty, e.ledger.Today(), counted)
	if err != nil {
		return nil, err
	}

	cs := &Changeset{
		TaskState: store.TaskState{
			LearnerID:   learnerID,
			TaskID:      task.ID,
			Attempts:    state.Attempts,
			BestCorrect: state.BestCorrect,
			Status:      string(state.Status),
		},
		TaskRevision:    rec.Revision,
		Gamification:    next,
		GamificationRev: gs.Revision,
		Attempt: store.TaskAttempt{
			LearnerID:  learnerID,
			TaskID:     task.ID,
			Answer:     answer,
			Correct:    result.Correct,
			Similarity: result.Similarity,
			AwardedXP:  award.XP,
			Feedback:   datatypes.JSON(fb),
			CreatedAt:  e.now().UTC(),
		},
	}

	summary, err := e.moduleSummary(ctx, tx, learnerID, module, &state)
	if err != nil {
		return nil, err
	}
	criteria := progress.Criteria{AccuracyThreshold: module.AccuracyThreshold, MinTasksCompleted: module.MinTasksCompleted}
	if !module.Completed && summary.Meets(criteria) {
		cs.CompleteModule = module.ID
	}

	next.Revision = gs.Revision + 1
	*out = AttemptOutcome{
		Result:          result,
		Counted:         counted,
		Award:           award,
		Gamification:    next,
		Task:            state,
		Module:          summary,
		ModuleCompleted: cs.CompleteModule != "",
		Feedback:        out.Feedback,
	}
	return cs, nil
}

// moduleSummary aggregates the module's task states, substituting
// pending for the task being attempted.
func (e *Engine) moduleSummary(ctx context.Context, tx *gorm.DB, learnerID string, module *store.PlanModule, pending *progress.TaskState) (progress.Summary, error) {
	ids := make([]string, 0, len(module.Tasks))
	for _, t := range module.Tasks {
		ids = append(ids, t.ID)
	}
	recs, err := e.store.Tasks().States(ctx, tx, learnerID, ids)
	if err != nil {
		return progress.Summary{}, err
	}
	byID := make(map[string]progress.TaskState, len(recs))
	for _, r := range recs {
		byID[r.TaskID] = taskStateFromRecord(r)
	}
	if pending != nil {
		byID[pending.TaskID] = *pending
	}
	states := make([]progress.TaskState, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			s = progress.TaskState{TaskID: id, Status: progress.StatusPending}
		}
		states = append(states, s)
	}
	return progress.Aggregate(states), nil
}

func (e *Engine) applyChangeset(ctx context.Context, tx *gorm.DB, cs *Changeset) error {
	if err := e.store.Tasks().SaveState(ctx, tx, &cs.TaskState, cs.TaskRevision); err != nil {
		return err
	}
	gstore := &ledgerStore{repo: e.store.Gamification(), tx: tx}
	if err := gstore.CompareAndSwap(ctx, cs.Gamification, cs.GamificationRev); err != nil {
		return err
	}
	if err := e.store.Tasks().AppendAttempt(ctx, tx, &cs.Attempt); err != nil {
		return err
	}
	if cs.CompleteModule != "" {
		if err := e.store.Plans().MarkModuleCompleted(ctx, tx, cs.CompleteModule, cs.Attempt.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

// Attempts lists the learner's attempts for a task, oldest first.
func (e *Engine) Attempts(ctx context.Context, learnerID, taskID string) ([]store.TaskAttempt, error) {
	if _, err := e.store.Tasks().Get(ctx, nil, taskID); err != nil {
		return nil, err
	}
	return e.store.Tasks().Attempts(ctx, nil, learnerID, taskID)
}
