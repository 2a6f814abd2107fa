// Package placement scores placement tests and maps the score to a
// proficiency level.
package placement

import (
	"errors"
	"fmt"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/grading"
)

// Item is one published placement test question.
type Item struct {
	ID       string
	Type     grading.TaskType
	Prompt   string
	Accepted []string
	Choices  []string
	Weight   float64
	Order    int
}

// Answer is the learner's response to one item.
type Answer struct {
	ItemID   string `json:"item_id" yaml:"item_id"`
	Response string `json:"response" yaml:"response"`
}

// Submission is one learner's answers to a placement test.
type Submission struct {
	LearnerID string
	Answers   []Answer
}

// ItemOutcome records how a single item was graded.
type ItemOutcome struct {
	ItemID  string  `json:"item_id"`
	Correct bool    `json:"correct"`
	Weight  float64 `json:"weight"`
}

// ScoreResult is the immutable result of scoring a submission.
type ScoreResult struct {
	Raw        float64       `json:"raw"`
	Max        float64       `json:"max"`
	Percentage float64       `json:"percentage"`
	Level      Level         `json:"level"`
	Items      []ItemOutcome `json:"items"`
}

var (
	// ErrDivisionUndefined is returned when the maximum score is zero.
	ErrDivisionUndefined = fmt.Errorf("%w: maximum score is zero", apperr.ErrValidation)

	// ErrUnknownItem is returned for answers that reference no item.
	ErrUnknownItem = fmt.Errorf("%w: answer references unknown item", apperr.ErrValidation)

	// ErrDuplicateAnswer is returned when an item is answered twice.
	ErrDuplicateAnswer = fmt.Errorf("%w: item answered more than once", apperr.ErrValidation)

	// ErrInvalidWeight is returned for items with a non-positive weight.
	ErrInvalidWeight = fmt.Errorf("%w: item weight must be positive", apperr.ErrValidation)
)

// Estimator turns a scored placement test into a level.
type Estimator struct {
	evaluator *grading.Evaluator
	scale     *Scale
}

// NewEstimator creates an Estimator. Items are graded with evaluator and
// percentages are mapped through scale.
func NewEstimator(evaluator *grading.Evaluator, scale *Scale) *Estimator {
	return &Estimator{evaluator: evaluator, scale: scale}
}

// Scale returns the level scale in use.
func (e *Estimator) Scale() *Scale { return e.scale }

// Estimate scores sub against items. Unanswered and blank items count as
// incorrect; they still contribute to the maximum.
func (e *Estimator) Estimate(items []Item, sub Submission) (ScoreResult, error) {
	byID := make(map[string]Item, len(items))
	var maxScore float64
	for _, it := range items {
		if it.Weight <= 0 {
			return ScoreResult{}, fmt.Errorf("%w: item %s has weight %v", ErrInvalidWeight, it.ID, it.Weight)
		}
		byID[it.ID] = it
		maxScore += it.Weight
	}
	if maxScore == 0 {
		return ScoreResult{}, ErrDivisionUndefined
	}

	responses := make(map[string]string, len(sub.Answers))
	for _, a := range sub.Answers {
		if _, ok := byID[a.ItemID]; !ok {
			return ScoreResult{}, fmt.Errorf("%w: %q", ErrUnknownItem, a.ItemID)
		}
		if _, dup := responses[a.ItemID]; dup {
			return ScoreResult{}, fmt.Errorf("%w: %q", ErrDuplicateAnswer, a.ItemID)
		}
		responses[a.ItemID] = a.Response
	}

	res := ScoreResult{Max: maxScore, Items: make([]ItemOutcome, 0, len(items))}
	for _, it := range items {
		correct, err := e.grade(it, responses[it.ID])
		if err != nil {
			return ScoreResult{}, fmt.Errorf("item %s: %w", it.ID, err)
		}
		if correct {
			res.Raw += it.Weight
		}
		res.Items = append(res.Items, ItemOutcome{ItemID: it.ID, Correct: correct, Weight: it.Weight})
	}

	res.Percentage = roundPct(res.Raw * 100 / res.Max)
	res.Level = e.scale.LevelFor(res.Percentage)
	return res, nil
}

func (e *Estimator) grade(it Item, response string) (bool, error) {
	r, err := e.evaluator.Evaluate(grading.Task{
		Type:     it.Type,
		Accepted: it.Accepted,
		Choices:  it.Choices,
	}, response)
	if errors.Is(err, grading.ErrEmptyAnswer) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return r.Correct, nil
}
