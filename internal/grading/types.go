package grading

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/lingua/internal/apperr"
)

// TaskType identifies how an answer is graded.
type TaskType string

const (
	TypeMultipleChoice TaskType = "multiple_choice"
	TypeCloze          TaskType = "cloze"
	TypeFillBlank      TaskType = "fill_blank"
	TypeTranslation    TaskType = "translation"
)

// Valid reports whether t is a gradable task type.
func (t TaskType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeCloze, TypeFillBlank, TypeTranslation:
		return true
	}
	return false
}

// Difficulty bounds for tasks.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Task is the part of a task definition the evaluator needs.
type Task struct {
	Type TaskType

	// Accepted lists the valid answers. Multiple choice uses the first
	// entry; cloze and fill_blank accept any entry; translation takes the
	// best similarity over all entries.
	Accepted []string

	// Choices are the options shown for multiple choice. The evaluator
	// grades the answer text only; see ResolveChoice for index input.
	Choices []string
}

// ResolveChoice turns a 1-based option number into that option's text for
// multiple-choice tasks. Any other answer is returned unchanged.
func ResolveChoice(task Task, answer string) string {
	if task.Type != TypeMultipleChoice {
		return answer
	}
	idx, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || idx < 1 || idx > len(task.Choices) {
		return answer
	}
	return task.Choices[idx-1]
}

// Result is the outcome of grading one answer.
type Result struct {
	Correct bool `json:"correct"`

	// Similarity is the measured text similarity for translations and 1 or 0
	// for exact-match types.
	Similarity float64 `json:"similarity"`

	// Score is the answer's contribution: 1 or 0 for exact-match types, the
	// similarity for a correct translation.
	Score float64 `json:"score"`
}

var (
	// ErrUnsupportedTaskType is returned for task types the evaluator does
	// not know.
	ErrUnsupportedTaskType = fmt.Errorf("%w: unsupported task type", apperr.ErrValidation)

	// ErrEmptyAnswer is returned when the answer is empty or whitespace.
	// It is distinct from an incorrect answer so callers can ask again.
	ErrEmptyAnswer = fmt.Errorf("%w: empty answer", apperr.ErrValidation)

	// ErrNoAcceptedAnswer is returned for tasks without any accepted answer.
	ErrNoAcceptedAnswer = fmt.Errorf("%w: task has no accepted answer", apperr.ErrValidation)
)
