package gamification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/learnerlock"
	"github.com/abhisek/lingua/internal/logger"
)

// StateStore persists ledger states with a revision compare-and-swap.
// Load returns a zero-revision state for a learner with no row yet.
// CompareAndSwap fails with an apperr.ErrConcurrencyConflict error when the
// stored revision is no longer expected.
type StateStore interface {
	Load(ctx context.Context, learnerID string) (State, error)
	CompareAndSwap(ctx context.Context, next State, expected int64) error
}

// Ledger applies activities to persisted learner states.
type Ledger struct {
	rules Rules
	store StateStore
	locks *learnerlock.Registry
	now   func() time.Time
	log   *logger.Logger
}

type Option func(*Ledger)

// WithClock overrides the time source used to date activities.
func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

func WithRules(r Rules) Option { return func(l *Ledger) { l.rules = r } }

func WithLogger(log *logger.Logger) Option {
	return func(l *Ledger) { l.log = log.With("service", "GamificationLedger") }
}

func NewLedger(store StateStore, locks *learnerlock.Registry, opts ...Option) *Ledger {
	l := &Ledger{
		rules: DefaultRules(),
		store: store,
		locks: locks,
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, o := range opts {
		o(l)
	}
	if l.locks == nil {
		l.locks = learnerlock.New()
	}
	return l
}

// Today is the current activity day according to the ledger clock.
func (l *Ledger) Today() time.Time { return Day(l.now()) }

// Rules returns the ledger's rules.
func (l *Ledger) Rules() Rules { return l.rules }

// RecordActivity applies one activity for learnerID atomically: under the
// learner's lock, with a revision CAS retried once after a fresh read.
func (l *Ledger) RecordActivity(ctx context.Context, learnerID string, difficulty int, counted bool) (State, Award, error) {
	unlock := l.locks.Lock(learnerID)
	defer unlock()

	st, award, err := l.Apply(ctx, l.store, learnerID, difficulty, counted)
	if errors.Is(err, apperr.ErrConcurrencyConflict) {
		l.log.Debug("gamification CAS conflict, retrying", "learner_id", learnerID)
		st, award, err = l.Apply(ctx, l.store, learnerID, difficulty, counted)
	}
	if err != nil {
		return State{}, Award{}, err
	}
	return st, award, nil
}

// Apply is one read-advance-CAS round against store with no locking or
// retry. Callers that already hold the learner lock and run inside their own
// transaction use it with a transaction-scoped store.
func (l *Ledger) Apply(ctx context.Context, store StateStore, learnerID string, difficulty int, counted bool) (State, Award, error) {
	cur, err := store.Load(ctx, learnerID)
	if err != nil {
		return State{}, Award{}, fmt.Errorf("load gamification state: %w", err)
	}
	cur.LearnerID = learnerID

	next, award, err := l.rules.Advance(cur, difficulty, l.Today(), counted)
	if err != nil {
		return State{}, Award{}, err
	}
	next.Revision = cur.Revision + 1
	if err := store.CompareAndSwap(ctx, next, cur.Revision); err != nil {
		return State{}, Award{}, err
	}
	if award.Milestone > 0 {
		l.log.Info("streak milestone", "learner_id", learnerID, "streak", award.Milestone, "rarity", award.Rarity)
	}
	return next, award, nil
}

// Snapshot loads the current state without modifying it.
func (l *Ledger) Snapshot(ctx context.Context, learnerID string) (State, error) {
	st, err := l.store.Load(ctx, learnerID)
	if err != nil {
		return State{}, err
	}
	st.LearnerID = learnerID
	return st, nil
}
