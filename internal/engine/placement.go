package engine

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/store"
)

// PlacementOutcome is the persisted result of a placement submission.
type PlacementOutcome struct {
	ResultID string                `json:"result_id"`
	Score    placement.ScoreResult `json:"score"`
}

// ImportPlacementTest publishes (or replaces) a placement test after
// checking its items are gradable.
func (e *Engine) ImportPlacementTest(ctx context.Context, t *store.PlacementTest) error {
	if t.ID == "" || t.Language == "" {
		return fmt.Errorf("%w: placement test needs an id and a language", apperr.ErrValidation)
	}
	if len(t.Items) == 0 {
		return fmt.Errorf("%w: placement test %s has no items", apperr.ErrValidation, t.ID)
	}
	seen := make(map[string]bool, len(t.Items))
	for _, it := range t.Items {
		switch {
		case it.ID == "" || seen[it.ID]:
			return fmt.Errorf("%w: item id %q missing or duplicated", apperr.ErrValidation, it.ID)
		case !grading.TaskType(it.Type).Valid() || grading.TaskType(it.Type) == grading.TypeFillBlank:
			return fmt.Errorf("%w: item %s: %q", grading.ErrUnsupportedTaskType, it.ID, it.Type)
		case len(it.Accepted) == 0:
			return fmt.Errorf("%w: item %s", grading.ErrNoAcceptedAnswer, it.ID)
		case it.Weight <= 0:
			return fmt.Errorf("%w: item %s", placement.ErrInvalidWeight, it.ID)
		}
		seen[it.ID] = true
	}
	return e.store.Placements().UpsertTest(ctx, nil, t)
}

// PlacementTests lists published tests for language ("" for all).
func (e *Engine) PlacementTests(ctx context.Context, language string) ([]store.PlacementTest, error) {
	return e.store.Placements().ListTests(ctx, nil, language)
}

func (e *Engine) PlacementTest(ctx context.Context, id string) (*store.PlacementTest, error) {
	return e.store.Placements().GetTest(ctx, nil, id)
}

// SubmitPlacement scores a submission and overwrites the learner's level
// with the result. The result row and the level change commit together.
func (e *Engine) SubmitPlacement(ctx context.Context, learnerID, testID string, answers []placement.Answer) (*PlacementOutcome, error) {
	learner, err := e.store.Learners().Get(ctx, nil, learnerID)
	if err != nil {
		return nil, err
	}
	test, err := e.store.Placements().GetTest(ctx, nil, testID)
	if err != nil {
		return nil, err
	}
	if test.Language != learner.Language {
		return nil, fmt.Errorf("%w: test %s is %s, learner studies %s", ErrLanguageMismatch, test.ID, test.Language, learner.Language)
	}

	score, err := e.estimator.Estimate(itemsFromRecord(test.Items), placement.Submission{LearnerID: learnerID, Answers: answers})
	if err != nil {
		return nil, err
	}

	responses := make(map[string]string, len(answers))
	for _, a := range answers {
		responses[a.ItemID] = a.Response
	}
	result := &store.PlacementResult{
		LearnerID:  learnerID,
		TestID:     testID,
		Raw:        score.Raw,
		Max:        score.Max,
		Percentage: score.Percentage,
		Level:      string(score.Level),
	}
	for _, it := range score.Items {
		result.Answers = append(result.Answers, store.AnswerRecord{
			ItemID:   it.ItemID,
			Response: responses[it.ItemID],
			Correct:  it.Correct,
		})
	}

	unlock := e.locks.Lock(learnerID)
	defer unlock()
	err = e.store.RunInTransaction(ctx, func(tx *gorm.DB) error {
		if err := e.store.Placements().AppendResult(ctx, tx, result); err != nil {
			return err
		}
		return e.store.Learners().SetLevel(ctx, tx, learnerID, string(score.Level))
	})
	if err != nil {
		return nil, fmt.Errorf("save placement result: %w", err)
	}

	e.log.Info("placement scored", "learner_id", learnerID, "test_id", testID,
		"percentage", score.Percentage, "level", score.Level)
	return &PlacementOutcome{ResultID: result.ID, Score: score}, nil
}
