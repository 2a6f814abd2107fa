package api

import (
	"encoding/json"
	"time"

	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/engine"
	"github.com/abhisek/lingua/internal/gamification"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/progress"
	"github.com/abhisek/lingua/internal/store"
)

type CreateLearnerRequest struct {
	Name     string `json:"name" validate:"max=128"`
	Language string `json:"language" validate:"required,max=32"`
}

type PlacementRequest struct {
	TestID  string             `json:"test_id" validate:"required"`
	Answers []placement.Answer `json:"answers" validate:"required,min=1"`
}

// AttemptRequest carries the learner's answer. An empty answer is passed
// through so the evaluator can reject it with its own error.
type AttemptRequest struct {
	Answer string `json:"answer" validate:"max=2000"`
}

type GradeRequest struct {
	Type     grading.TaskType `json:"type" validate:"required"`
	Accepted []string         `json:"accepted" validate:"required,min=1"`
	Choices  []string         `json:"choices"`
	Answer   string           `json:"answer" validate:"max=2000"`
}

// TaskResponse is a task as shown to a learner, without accepted answers.
type TaskResponse struct {
	ID         string           `json:"id"`
	Type       grading.TaskType `json:"type"`
	Prompt     string           `json:"prompt"`
	Choices    []string         `json:"choices,omitempty"`
	Difficulty int              `json:"difficulty"`
}

type ModuleResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Objectives  []string          `json:"objectives"`
	Order       int               `json:"order"`
	Criteria    progress.Criteria `json:"criteria"`
	Completed   bool              `json:"completed"`
	Tasks       []TaskResponse    `json:"tasks,omitempty"`
}

type PlanResponse struct {
	ID             string                `json:"id"`
	LearnerID      string                `json:"learner_id"`
	Language       string                `json:"language"`
	Level          placement.Level       `json:"level"`
	SourceLevel    placement.Level       `json:"source_level"`
	Provenance     curriculum.Provenance `json:"provenance"`
	FallbackReason string                `json:"fallback_reason,omitempty"`
	Active         bool                  `json:"active"`
	CreatedAt      time.Time             `json:"created_at"`
	Modules        []ModuleResponse      `json:"modules"`
}

func planToResponse(p *curriculum.Plan) *PlanResponse {
	if p == nil {
		return nil
	}
	out := &PlanResponse{
		ID:             p.ID,
		LearnerID:      p.LearnerID,
		Language:       p.Language,
		Level:          p.Level,
		SourceLevel:    p.SourceLevel,
		Provenance:     p.Provenance,
		FallbackReason: p.FallbackReason,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		Modules:        make([]ModuleResponse, 0, len(p.Modules)),
	}
	for _, m := range p.Modules {
		mr := ModuleResponse{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Objectives:  m.Objectives,
			Order:       m.Order,
			Criteria:    m.Criteria,
			Completed:   m.Completed,
		}
		for _, t := range m.Tasks {
			mr.Tasks = append(mr.Tasks, TaskResponse{
				ID:         t.ID,
				Type:       t.Type,
				Prompt:     t.Prompt,
				Choices:    t.Choices,
				Difficulty: t.Difficulty,
			})
		}
		out.Modules = append(out.Modules, mr)
	}
	return out
}

type PlacementItemResponse struct {
	ID      string           `json:"id"`
	Type    grading.TaskType `json:"type"`
	Prompt  string           `json:"prompt"`
	Choices []string         `json:"choices,omitempty"`
	Weight  float64          `json:"weight"`
}

type PlacementTestResponse struct {
	ID       string                  `json:"id"`
	Language string                  `json:"language"`
	Title    string                  `json:"title"`
	Items    []PlacementItemResponse `json:"items,omitempty"`
}

func placementTestToResponse(t *store.PlacementTest, withItems bool) PlacementTestResponse {
	out := PlacementTestResponse{ID: t.ID, Language: t.Language, Title: t.Title}
	if !withItems {
		return out
	}
	for _, it := range t.Items {
		out.Items = append(out.Items, PlacementItemResponse{
			ID:      it.ID,
			Type:    grading.TaskType(it.Type),
			Prompt:  it.Prompt,
			Choices: it.Choices,
			Weight:  it.Weight,
		})
	}
	return out
}

type AttemptResponse struct {
	ID         string          `json:"id"`
	Answer     string          `json:"answer"`
	Correct    bool            `json:"correct"`
	Similarity float64         `json:"similarity"`
	AwardedXP  int             `json:"awarded_xp"`
	Feedback   json.RawMessage `json:"feedback,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func attemptToResponse(a store.TaskAttempt) AttemptResponse {
	return AttemptResponse{
		ID:         a.ID,
		Answer:     a.Answer,
		Correct:    a.Correct,
		Similarity: a.Similarity,
		AwardedXP:  a.AwardedXP,
		Feedback:   json.RawMessage(a.Feedback),
		CreatedAt:  a.CreatedAt,
	}
}

type ProfileResponse struct {
	Learner       engine.Learner          `json:"learner"`
	Gamification  gamification.State      `json:"gamification"`
	NextMilestone int                     `json:"next_milestone"`
	Plan          *PlanResponse           `json:"plan,omitempty"`
	Modules       []engine.ModuleProgress `json:"modules,omitempty"`
}

type CheckInResponse struct {
	Gamification gamification.State `json:"gamification"`
	Award        gamification.Award `json:"award"`
}

type CatalogResponse struct {
	Version   string                       `json:"version"`
	Languages map[string][]placement.Level `json:"languages"`
}
