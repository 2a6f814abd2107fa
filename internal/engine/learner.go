package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/store"
)

// Learner is a person studying one language. Level is empty until the
// first placement.
type Learner struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Language  string          `json:"language"`
	Level     placement.Level `json:"level,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func learnerFromRecord(rec *store.Learner) *Learner {
	return &Learner{
		ID:        rec.ID,
		Name:      rec.Name,
		Language:  rec.Language,
		Level:     placement.Level(rec.Level),
		CreatedAt: rec.CreatedAt,
	}
}

// CreateLearner registers a learner for a catalog language.
func (e *Engine) CreateLearner(ctx context.Context, name, language string) (*Learner, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return nil, fmt.Errorf("%w: language is required", apperr.ErrValidation)
	}
	if !e.Catalog().Supports(language) {
		return nil, fmt.Errorf("%w: unsupported language %q", apperr.ErrConfiguration, language)
	}
	rec := &store.Learner{Name: strings.TrimSpace(name), Language: language}
	if err := e.store.Learners().Create(ctx, nil, rec); err != nil {
		return nil, fmt.Errorf("create learner: %w", err)
	}
	e.log.Info("learner created", "learner_id", rec.ID, "language", language)
	return learnerFromRecord(rec), nil
}

func (e *Engine) Learner(ctx context.Context, id string) (*Learner, error) {
	rec, err := e.store.Learners().Get(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return learnerFromRecord(rec), nil
}

func (e *Engine) Learners(ctx context.Context) ([]Learner, error) {
	recs, err := e.store.Learners().List(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Learner, 0, len(recs))
	for i := range recs {
		out = append(out, *learnerFromRecord(&recs[i]))
	}
	return out, nil
}
