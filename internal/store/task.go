package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepo struct {
	db *gorm.DB
}

// Get returns a task by ID.
func (r *TaskRepo) Get(ctx context.Context, tx *gorm.DB, taskID string) (*ModuleTask, error) {
	var t ModuleTask
	if err := conn(r.db, tx).WithContext(ctx).Where("id = ?", taskID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, MapError(err)
	}
	return &t, nil
}

// State returns the learner's state for a task. A task never attempted
// yields a zero-revision pending state and found=false.
func (r *TaskRepo) State(ctx context.Context, tx *gorm.DB, learnerID, taskID string) (TaskState, bool, error) {
	var s TaskState
	err := conn(r.db, tx).WithContext(ctx).
		Where("learner_id = ? AND task_id = ?", learnerID, taskID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TaskState{LearnerID: learnerID, TaskID: taskID, Status: "pending"}, false, nil
	}
	if err != nil {
		return TaskState{}, false, MapError(err)
	}
	return s, true, nil
}

// States returns the learner's states for the given tasks.
func (r *TaskRepo) States(ctx context.Context, tx *gorm.DB, learnerID string, taskIDs []string) ([]TaskState, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	var out []TaskState
	err := conn(r.db, tx).WithContext(ctx).
		Where("learner_id = ? AND task_id IN ?", learnerID, taskIDs).
		Find(&out).Error
	return out, MapError(err)
}

// SaveState writes s if the stored revision still equals expected. The
// stored row ends up with revision expected+1. A first write uses
// expected = 0 and inserts.
func (r *TaskRepo) SaveState(ctx context.Context, tx *gorm.DB, s *TaskState, expected int64) error {
	db := conn(r.db, tx).WithContext(ctx)
	s.Revision = expected + 1

	if expected == 0 {
		// A concurrent first insert trips the primary key instead.
		return MapError(db.Create(s).Error)
	}

	res := db.Model(&TaskState{}).
		Where("learner_id = ? AND task_id = ? AND revision = ?", s.LearnerID, s.TaskID, expected).
		Updates(map[string]any{
			"attempts":     s.Attempts,
			"best_correct": s.BestCorrect,
			"status":       s.Status,
			"revision":     s.Revision,
		})
	if res.Error != nil {
		return MapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRevisionConflict
	}
	return nil
}

// AppendAttempt records an attempt. Attempts are never updated.
func (r *TaskRepo) AppendAttempt(ctx context.Context, tx *gorm.DB, a *TaskAttempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return MapError(conn(r.db, tx).WithContext(ctx).Create(a).Error)
}

// Attempts lists a learner's attempts for a task, oldest first.
func (r *TaskRepo) Attempts(ctx context.Context, tx *gorm.DB, learnerID, taskID string) ([]TaskAttempt, error) {
	var out []TaskAttempt
	err := conn(r.db, tx).WithContext(ctx).
		Where("learner_id = ? AND task_id = ?", learnerID, taskID).
		Order("created_at").
		Find(&out).Error
	return out, MapError(err)
}
