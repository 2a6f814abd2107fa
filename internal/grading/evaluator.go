// Package grading decides whether a learner's answer to a task is correct.
package grading

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/abhisek/lingua/internal/similarity"
)

// DefaultTranslationThreshold is the minimum similarity for a translation
// to count as correct. The comparison is inclusive.
const DefaultTranslationThreshold = 0.80

// thresholdTolerance absorbs float rounding at the threshold boundary.
const thresholdTolerance = 1e-9

// Evaluator grades answers. It holds no mutable state and is safe for
// concurrent use.
type Evaluator struct {
	threshold float64
}

// NewEvaluator returns an Evaluator using the given translation threshold.
// A threshold outside (0,1] falls back to DefaultTranslationThreshold.
func NewEvaluator(translationThreshold float64) *Evaluator {
	if translationThreshold <= 0 || translationThreshold > 1 {
		translationThreshold = DefaultTranslationThreshold
	}
	return &Evaluator{threshold: translationThreshold}
}

// TranslationThreshold returns the threshold in use.
func (e *Evaluator) TranslationThreshold() float64 {
	return e.threshold
}

// Evaluate grades answer against task.
//
// Normalization: Unicode NFC, case folding, trimmed and collapsed
// whitespace. Cloze and fill_blank also ignore punctuation.
func (e *Evaluator) Evaluate(task Task, answer string) (Result, error) {
	if !task.Type.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedTaskType, task.Type)
	}
	if strings.TrimSpace(answer) == "" {
		return Result{}, ErrEmptyAnswer
	}
	if len(task.Accepted) == 0 {
		return Result{}, ErrNoAcceptedAnswer
	}

	switch task.Type {
	case TypeMultipleChoice:
		return exact(checkMultipleChoice(answer, task)), nil
	case TypeCloze, TypeFillBlank:
		return exact(checkFill(answer, task)), nil
	default:
		return e.checkTranslation(answer, task.Accepted), nil
	}
}

func exact(ok bool) Result {
	if ok {
		return Result{Correct: true, Similarity: 1, Score: 1}
	}
	return Result{}
}

func checkMultipleChoice(answer string, task Task) bool {
	return similarity.Normalize(answer) == similarity.Normalize(task.Accepted[0])
}

// checkFill matches against any accepted entry. fill_blank also ignores
// punctuation on both sides; cloze compares normalized text only.
func checkFill(answer string, task Task) bool {
	clean := similarity.Normalize
	if task.Type == TypeFillBlank {
		clean = func(s string) string { return stripPunctuation(similarity.Normalize(s)) }
	}
	got := clean(answer)
	if got == "" {
		return false
	}
	for _, a := range task.Accepted {
		if clean(a) == got {
			return true
		}
	}
	return false
}

func (e *Evaluator) checkTranslation(answer string, accepted []string) Result {
	got := similarity.Normalize(answer)
	best := 0.0
	for _, a := range accepted {
		if s := similarity.ScoreNormalized(got, similarity.Normalize(a)); s > best {
			best = s
		}
	}
	r := Result{Similarity: best}
	if best >= e.threshold-thresholdTolerance {
		r.Correct = true
		r.Score = best
	}
	return r
}

// stripPunctuation drops punctuation and symbols, then re-collapses spaces.
func stripPunctuation(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
