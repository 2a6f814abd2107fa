// Package curriculum builds a learner's curriculum plan, either from an
// untrusted generated document that passes the validator chain or from the
// static fallback catalog.
package curriculum

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/progress"
)

// Provenance records where a plan's modules came from.
type Provenance string

const (
	ProvenanceGenerated Provenance = "generated"
	ProvenanceFallback  Provenance = "fallback"
)

// ErrNoFallbackAvailable is returned for languages absent from the catalog.
var ErrNoFallbackAvailable = fmt.Errorf("%w: no fallback curriculum for language", apperr.ErrConfiguration)

// Task is one exercise inside a module.
type Task struct {
	ID              string
	Type            grading.TaskType
	Prompt          string
	Accepted        []string
	Choices         []string
	Difficulty      int
	Rule            string
	ExampleContrast string
}

// Grading returns the part of t the evaluator needs.
func (t Task) Grading() grading.Task {
	return grading.Task{Type: t.Type, Accepted: t.Accepted, Choices: t.Choices}
}

// Module is one ordered unit of a plan.
type Module struct {
	ID          string
	Title       string
	Description string
	Objectives  []string
	Order       int
	Criteria    progress.Criteria
	Completed   bool
	Tasks       []Task
}

// Plan is a learner's curriculum.
type Plan struct {
	ID        string
	LearnerID string
	Language  string
	// Level is the learner's level; SourceLevel is the level whose content
	// was actually used, which differs after a nearest-level fallback.
	Level          placement.Level
	SourceLevel    placement.Level
	Provenance     Provenance
	FallbackReason string
	Active         bool
	Modules        []Module
	CreatedAt      time.Time
}

// Request asks for a plan for one learner.
type Request struct {
	LearnerID string
	Language  string
	Level     placement.Level
}

// GenerateFunc produces an untrusted curriculum document.
type GenerateFunc func(ctx context.Context, language string, level placement.Level) (json.RawMessage, error)

// Generator is implemented by curriculum document producers.
type Generator interface {
	GenerateCurriculum(ctx context.Context, language string, level placement.Level) (json.RawMessage, error)
}

func cloneModules(in []Module) []Module {
	if in == nil {
		return nil
	}
	out := make([]Module, len(in))
	for i, m := range in {
		m.Objectives = slices.Clone(m.Objectives)
		if m.Tasks != nil {
			tasks := make([]Task, len(m.Tasks))
			for j, t := range m.Tasks {
				t.Accepted = slices.Clone(t.Accepted)
				t.Choices = slices.Clone(t.Choices)
				tasks[j] = t
			}
			m.Tasks = tasks
		}
		out[i] = m
	}
	return out
}
