package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LearnerRepo struct {
	db *gorm.DB
}

// Create inserts a learner, assigning an ID when empty.
func (r *LearnerRepo) Create(ctx context.Context, tx *gorm.DB, l *Learner) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return MapError(conn(r.db, tx).WithContext(ctx).Create(l).Error)
}

func (r *LearnerRepo) Get(ctx context.Context, tx *gorm.DB, id string) (*Learner, error) {
	var l Learner
	err := conn(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLearnerNotFound
		}
		return nil, MapError(err)
	}
	return &l, nil
}

func (r *LearnerRepo) List(ctx context.Context, tx *gorm.DB) ([]Learner, error) {
	var out []Learner
	err := conn(r.db, tx).WithContext(ctx).Order("created_at").Find(&out).Error
	return out, MapError(err)
}

// SetLevel overwrites the learner's current level.
func (r *LearnerRepo) SetLevel(ctx context.Context, tx *gorm.DB, id, level string) error {
	res := conn(r.db, tx).WithContext(ctx).Model(&Learner{}).Where("id = ?", id).Update("level", level)
	if res.Error != nil {
		return MapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLearnerNotFound
	}
	return nil
}
