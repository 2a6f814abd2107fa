package store

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GamificationRepo struct {
	db *gorm.DB
}

// Get returns the learner's ledger row, or a zero row (revision 0) when the
// learner has no activity yet.
func (r *GamificationRepo) Get(ctx context.Context, tx *gorm.DB, learnerID string) (GamificationState, error) {
	var s GamificationState
	err := conn(r.db, tx).WithContext(ctx).Where("learner_id = ?", learnerID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return GamificationState{LearnerID: learnerID, History: datatypes.NewJSONType(map[string]int{})}, nil
	}
	return s, MapError(err)
}

// CompareAndSwap stores s if the row is still at revision expected, and
// bumps the revision. expected = 0 inserts the first row.
func (r *GamificationRepo) CompareAndSwap(ctx context.Context, tx *gorm.DB, s *GamificationState, expected int64) error {
	db := conn(r.db, tx).WithContext(ctx)
	s.Revision = expected + 1

	if expected == 0 {
		return MapError(db.Create(s).Error)
	}

	res := db.Model(&GamificationState{}).
		Where("learner_id = ? AND revision = ?", s.LearnerID, expected).
		Updates(map[string]any{
			"total_xp":       s.TotalXP,
			"current_streak": s.CurrentStreak,
			"longest_streak": s.LongestStreak,
			"last_activity":  s.LastActivity,
			"history":        s.History,
			"revision":       s.Revision,
		})
	if res.Error != nil {
		return MapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRevisionConflict
	}
	return nil
}
