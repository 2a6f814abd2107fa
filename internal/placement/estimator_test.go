package placement

import (
	"fmt"
	"testing"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEstimator() *Estimator {
	return NewEstimator(grading.NewEvaluator(grading.DefaultTranslationThreshold), DefaultScale())
}

func mixedItems() []Item {
	return []Item{
		{ID: "q1", Type: grading.TypeMultipleChoice, Accepted: []string{"cat"}, Weight: 1, Order: 1},
		{ID: "q2", Type: grading.TypeCloze, Accepted: []string{"am"}, Weight: 1, Order: 2},
		{ID: "q3", Type: grading.TypeTranslation, Accepted: []string{"I am hungry"}, Weight: 2, Order: 3},
		{ID: "q4", Type: grading.TypeMultipleChoice, Accepted: []string{"went"}, Weight: 1, Order: 4},
	}
}

func TestEstimate_WeightedEndToEnd(t *testing.T) {
	res, err := newEstimator().Estimate(mixedItems(), Submission{
		LearnerID: "l1",
		Answers: []Answer{
			{ItemID: "q1", Response: "Cat "},
			{ItemID: "q2", Response: "is"},
			{ItemID: "q3", Response: "I am hungri"},
			{ItemID: "q4", Response: "went"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4.0, res.Raw)
	assert.Equal(t, 5.0, res.Max)
	assert.Equal(t, 80.0, res.Percentage)
	assert.Equal(t, B2, res.Level)
	require.Len(t, res.Items, 4)
	assert.False(t, res.Items[1].Correct)
}

func TestEstimate_UnansweredAndBlankCountAsIncorrect(t *testing.T) {
	res, err := newEstimator().Estimate(mixedItems(), Submission{
		Answers: []Answer{
			{ItemID: "q1", Response: "cat"},
			{ItemID: "q3", Response: "   "},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Raw)
	assert.Equal(t, 20.0, res.Percentage)
	assert.Equal(t, A1, res.Level, "20 percent is the inclusive lower bound of A1")
}

func TestEstimate_AllCorrect(t *testing.T) {
	res, err := newEstimator().Estimate(mixedItems(), Submission{
		Answers: []Answer{
			{ItemID: "q1", Response: "cat"},
			{ItemID: "q2", Response: "am"},
			{ItemID: "q3", Response: "I am hungry"},
			{ItemID: "q4", Response: "WENT"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Percentage)
	assert.Equal(t, C2, res.Level)
}

func TestEstimate_Errors(t *testing.T) {
	e := newEstimator()

	_, err := e.Estimate(nil, Submission{})
	assert.ErrorIs(t, err, ErrDivisionUndefined)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.Estimate(mixedItems(), Submission{Answers: []Answer{{ItemID: "nope", Response: "x"}}})
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = e.Estimate(mixedItems(), Submission{Answers: []Answer{
		{ItemID: "q1", Response: "cat"},
		{ItemID: "q1", Response: "dog"},
	}})
	assert.ErrorIs(t, err, ErrDuplicateAnswer)

	_, err = e.Estimate([]Item{{ID: "z", Type: grading.TypeCloze, Accepted: []string{"a"}, Weight: 0}}, Submission{})
	assert.ErrorIs(t, err, ErrInvalidWeight)

	_, err = e.Estimate([]Item{{ID: "z", Type: "essay", Accepted: []string{"a"}, Weight: 1}},
		Submission{Answers: []Answer{{ItemID: "z", Response: "a"}}})
	assert.ErrorIs(t, err, grading.ErrUnsupportedTaskType)
}

func TestEstimate_HigherScoreNeverLowerLevel(t *testing.T) {
	e := newEstimator()
	items := make([]Item, 20)
	for i := range items {
		items[i] = Item{ID: string(rune('a' + i)), Type: grading.TypeCloze, Accepted: []string{"x"}, Weight: 1}
	}
	prev := Level(A0)
	for correct := 0; correct <= len(items); correct++ {
		var answers []Answer
		for i := 0; i < correct; i++ {
			answers = append(answers, Answer{ItemID: items[i].ID, Response: "x"})
		}
		res, err := e.Estimate(items, Submission{Answers: answers})
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Level.Rank(), prev.Rank(), "%d correct", correct)
		prev = res.Level
	}
}

func TestEstimate_FractionalWeightsOnBandBoundaries(t *testing.T) {
	items := make([]Item, 20)
	for i := range items {
		items[i] = Item{ID: fmt.Sprintf("q%02d", i), Type: grading.TypeCloze, Accepted: []string{"yes"}, Weight: 0.1, Order: i + 1}
	}

	tests := []struct {
		correct int
		pct     float64
		want    Level
	}{
		{3, 15, A0},
		{4, 20, A1},
		{8, 40, A2},
		{11, 55, B1},
		{14, 70, B2},
		{17, 85, C1},
		{19, 95, C2},
		{20, 100, C2},
	}
	for _, tt := range tests {
		sub := Submission{LearnerID: "l1"}
		for i := 0; i < tt.correct; i++ {
			sub.Answers = append(sub.Answers, Answer{ItemID: items[i].ID, Response: "yes"})
		}
		res, err := newEstimator().Estimate(items, sub)
		require.NoError(t, err)
		assert.Equal(t, tt.pct, res.Percentage, "%d correct", tt.correct)
		assert.Equal(t, tt.want, res.Level, "%d correct", tt.correct)
	}
}
