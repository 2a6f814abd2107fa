package engine

import (
	"context"

	"gorm.io/gorm"

	"github.com/abhisek/lingua/internal/gamification"
	"github.com/abhisek/lingua/internal/store"
)

// ledgerStore adapts the gamification repo to gamification.StateStore,
// optionally bound to a transaction.
type ledgerStore struct {
	repo *store.GamificationRepo
	tx   *gorm.DB
}

func (s *ledgerStore) Load(ctx context.Context, learnerID string) (gamification.State, error) {
	rec, err := s.repo.Get(ctx, s.tx, learnerID)
	if err != nil {
		return gamification.State{}, err
	}
	return gamificationFromRecord(rec)
}

func (s *ledgerStore) CompareAndSwap(ctx context.Context, next gamification.State, expected int64) error {
	return s.repo.CompareAndSwap(ctx, s.tx, gamificationToRecord(next), expected)
}
