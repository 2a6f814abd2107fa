// Package engine orchestrates the learning core: it loads records from the
// store, runs the pure components over them and writes their derived
// updates back as one transaction per operation.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/feedback"
	"github.com/abhisek/lingua/internal/gamification"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/learnerlock"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/store"
)

var (
	ErrTaskNotInActivePlan = fmt.Errorf("%w: task is not part of the learner's active plan", apperr.ErrValidation)
	ErrLanguageMismatch    = fmt.Errorf("%w: placement test language differs from the learner's", apperr.ErrValidation)
)

// Deps are the collaborators an Engine needs. Store, Resolver and Catalog
// are required; the rest have defaults.
type Deps struct {
	Store     *store.Store
	Resolver  *curriculum.Resolver
	Generate  curriculum.GenerateFunc // nil disables generation
	Feedback  *feedback.Service
	Evaluator *grading.Evaluator
	Scale     *placement.Scale
	Rules     gamification.Rules
	Locks     *learnerlock.Registry
	Clock     func() time.Time
	Log       *logger.Logger
}

// Engine runs the learning operations. It is safe for concurrent use.
type Engine struct {
	store     *store.Store
	resolver  *curriculum.Resolver
	generate  curriculum.GenerateFunc
	feedback  *feedback.Service
	evaluator *grading.Evaluator
	estimator *placement.Estimator
	ledger    *gamification.Ledger
	locks     *learnerlock.Registry
	now       func() time.Time
	log       *logger.Logger
}

func New(d Deps) *Engine {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Evaluator == nil {
		d.Evaluator = grading.NewEvaluator(grading.DefaultTranslationThreshold)
	}
	if d.Scale == nil {
		d.Scale = placement.DefaultScale()
	}
	if d.Rules.BaseXP <= 0 {
		d.Rules = gamification.DefaultRules()
	}
	if d.Locks == nil {
		d.Locks = learnerlock.New()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Feedback == nil {
		d.Feedback = feedback.NewService(feedback.Config{}, nil, nil, d.Log)
	}

	e := &Engine{
		store:     d.Store,
		resolver:  d.Resolver,
		generate:  d.Generate,
		feedback:  d.Feedback,
		evaluator: d.Evaluator,
		estimator: placement.NewEstimator(d.Evaluator, d.Scale),
		locks:     d.Locks,
		now:       d.Clock,
		log:       d.Log.With("service", "Engine"),
	}
	// The ledger shares the engine's lock registry so check-ins and
	// attempts for one learner serialize against each other.
	e.ledger = gamification.NewLedger(
		&ledgerStore{repo: d.Store.Gamification()},
		d.Locks,
		gamification.WithRules(d.Rules),
		gamification.WithClock(d.Clock),
		gamification.WithLogger(d.Log),
	)
	return e
}

// Ledger exposes the gamification ledger.
func (e *Engine) Ledger() *gamification.Ledger { return e.ledger }

// Catalog exposes the fallback curriculum catalog.
func (e *Engine) Catalog() *curriculum.Catalog { return e.resolver.Catalog() }

func isNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }
