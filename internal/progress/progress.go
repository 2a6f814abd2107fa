// Package progress tracks per-task learner state and derives module
// accuracy summaries from it.
package progress

import "fmt"

// Status is the lifecycle of a task for one learner.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus maps a stored status string back to a Status. Unknown and
// empty values read as pending.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusInProgress, StatusCompleted:
		return Status(s)
	}
	return StatusPending
}

// TaskState tracks one learner's attempts at one task.
type TaskState struct {
	TaskID      string `json:"task_id"`
	Attempts    int    `json:"attempts"`
	BestCorrect bool   `json:"best_correct"`
	Status      Status `json:"status"`
}

// Record applies one graded attempt. It reports whether the attempt counts
// for XP, which is only the first correct answer for the task.
func (s *TaskState) Record(correct bool) (counted bool) {
	s.Attempts++
	counted = correct && !s.BestCorrect
	if correct {
		s.BestCorrect = true
	}
	switch {
	case s.BestCorrect:
		s.Status = StatusCompleted
	default:
		s.Status = StatusInProgress
	}
	return counted
}

// Criteria are a module's completion requirements.
type Criteria struct {
	AccuracyThreshold float64 `json:"accuracy_threshold" yaml:"accuracy_threshold"`
	MinTasksCompleted int     `json:"min_tasks_completed" yaml:"min_tasks_completed"`
}

// Validate checks 0 < AccuracyThreshold <= 1 and MinTasksCompleted >= 1.
func (c Criteria) Validate() error {
	if c.AccuracyThreshold <= 0 || c.AccuracyThreshold > 1 {
		return fmt.Errorf("accuracy_threshold %.2f must be in (0, 1]", c.AccuracyThreshold)
	}
	if c.MinTasksCompleted < 1 {
		return fmt.Errorf("min_tasks_completed %d must be at least 1", c.MinTasksCompleted)
	}
	return nil
}

// Summary is a derived accuracy snapshot over a set of tasks.
type Summary struct {
	Total     int     `json:"total"`
	Attempted int     `json:"attempted"`
	Completed int     `json:"completed"`
	Accuracy  float64 `json:"accuracy"`
}

// Aggregate summarizes states. Accuracy is Completed/Attempted, or 0 when
// nothing has been attempted.
func Aggregate(states []TaskState) Summary {
	sum := Summary{Total: len(states)}
	for _, s := range states {
		if s.Attempts > 0 {
			sum.Attempted++
		}
		if s.BestCorrect {
			sum.Completed++
		}
	}
	if sum.Attempted > 0 {
		sum.Accuracy = float64(sum.Completed) / float64(sum.Attempted)
	}
	return sum
}

// Meets reports whether the summary satisfies c.
func (s Summary) Meets(c Criteria) bool {
	return s.Completed >= c.MinTasksCompleted && s.Accuracy >= c.AccuracyThreshold
}
