package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlacementRepo struct {
	db *gorm.DB
}

// UpsertTest publishes a test. Re-seeding the same ID replaces its items.
func (r *PlacementRepo) UpsertTest(ctx context.Context, tx *gorm.DB, t *PlacementTest) error {
	err := conn(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"language", "title", "items"}),
	}).Create(t).Error
	return MapError(err)
}

func (r *PlacementRepo) GetTest(ctx context.Context, tx *gorm.DB, id string) (*PlacementTest, error) {
	var t PlacementTest
	if err := conn(r.db, tx).WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlacementNotFound
		}
		return nil, MapError(err)
	}
	return &t, nil
}

// ListTests returns all tests, optionally filtered by language.
func (r *PlacementRepo) ListTests(ctx context.Context, tx *gorm.DB, language string) ([]PlacementTest, error) {
	q := conn(r.db, tx).WithContext(ctx).Order("id")
	if language != "" {
		q = q.Where("language = ?", language)
	}
	var out []PlacementTest
	return out, MapError(q.Find(&out).Error)
}

// AppendResult stores a scored submission.
func (r *PlacementRepo) AppendResult(ctx context.Context, tx *gorm.DB, res *PlacementResult) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	return MapError(conn(r.db, tx).WithContext(ctx).Create(res).Error)
}

// LatestResult returns the most recent result for a learner.
func (r *PlacementRepo) LatestResult(ctx context.Context, tx *gorm.DB, learnerID string) (*PlacementResult, error) {
	var res PlacementResult
	err := conn(r.db, tx).WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Order("created_at DESC").
		First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, MapError(err)
	}
	return &res, nil
}
