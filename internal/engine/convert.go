package engine

import (
	"gorm.io/datatypes"

	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/gamification"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/progress"
	"github.com/abhisek/lingua/internal/store"
)

func planToRecord(p *curriculum.Plan) *store.CurriculumPlan {
	rec := &store.CurriculumPlan{
		ID:             p.ID,
		LearnerID:      p.LearnerID,
		Language:       p.Language,
		Level:          string(p.Level),
		SourceLevel:    string(p.SourceLevel),
		Provenance:     string(p.Provenance),
		FallbackReason: p.FallbackReason,
	}
	for _, m := range p.Modules {
		mod := store.PlanModule{
			ID:                m.ID,
			Position:          m.Order,
			Title:             m.Title,
			Description:       m.Description,
			Objectives:        datatypes.JSONSlice[string](m.Objectives),
			AccuracyThreshold: m.Criteria.AccuracyThreshold,
			MinTasksCompleted: m.Criteria.MinTasksCompleted,
		}
		for j, t := range m.Tasks {
			mod.Tasks = append(mod.Tasks, store.ModuleTask{
				ID:              t.ID,
				Position:        j + 1,
				Type:            string(t.Type),
				Prompt:          t.Prompt,
				Accepted:        datatypes.JSONSlice[string](t.Accepted),
				Choices:         datatypes.JSONSlice[string](t.Choices),
				Difficulty:      t.Difficulty,
				Rule:            t.Rule,
				ExampleContrast: t.ExampleContrast,
			})
		}
		rec.Modules = append(rec.Modules, mod)
	}
	return rec
}

func planFromRecord(rec *store.CurriculumPlan) *curriculum.Plan {
	p := &curriculum.Plan{
		ID:             rec.ID,
		LearnerID:      rec.LearnerID,
		Language:       rec.Language,
		Level:          placement.Level(rec.Level),
		SourceLevel:    placement.Level(rec.SourceLevel),
		Provenance:     curriculum.Provenance(rec.Provenance),
		FallbackReason: rec.FallbackReason,
		Active:         rec.Active,
		CreatedAt:      rec.CreatedAt,
	}
	for i := range rec.Modules {
		p.Modules = append(p.Modules, moduleFromRecord(&rec.Modules[i]))
	}
	return p
}

func moduleFromRecord(rec *store.PlanModule) curriculum.Module {
	m := curriculum.Module{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Objectives:  []string(rec.Objectives),
		Order:       rec.Position,
		Criteria: progress.Criteria{
			AccuracyThreshold: rec.AccuracyThreshold,
			MinTasksCompleted: rec.MinTasksCompleted,
		},
		Completed: rec.Completed,
	}
	for _, t := range rec.Tasks {
		m.Tasks = append(m.Tasks, taskFromRecord(t))
	}
	return m
}

func taskFromRecord(rec store.ModuleTask) curriculum.Task {
	return curriculum.Task{
		ID:              rec.ID,
		Type:            grading.TaskType(rec.Type),
		Prompt:          rec.Prompt,
		Accepted:        []string(rec.Accepted),
		Choices:         []string(rec.Choices),
		Difficulty:      rec.Difficulty,
		Rule:            rec.Rule,
		ExampleContrast: rec.ExampleContrast,
	}
}

func taskStateFromRecord(rec store.TaskState) progress.TaskState {
	return progress.TaskState{
		TaskID:      rec.TaskID,
		Attempts:    rec.Attempts,
		BestCorrect: rec.BestCorrect,
		Status:      progress.ParseStatus(rec.Status),
	}
}

func itemsFromRecord(recs []store.PlacementItemRecord) []placement.Item {
	items := make([]placement.Item, 0, len(recs))
	for _, r := range recs {
		items = append(items, placement.Item{
			ID:       r.ID,
			Type:     grading.TaskType(r.Type),
			Prompt:   r.Prompt,
			Accepted: r.Accepted,
			Choices:  r.Choices,
			Weight:   r.Weight,
			Order:    r.Order,
		})
	}
	return items
}

func gamificationFromRecord(rec store.GamificationState) (gamification.State, error) {
	last, err := gamification.ParseDay(rec.LastActivity)
	if err != nil {
		return gamification.State{}, err
	}
	return gamification.State{
		LearnerID:     rec.LearnerID,
		TotalXP:       rec.TotalXP,
		CurrentStreak: rec.CurrentStreak,
		LongestStreak: rec.LongestStreak,
		LastActivity:  last,
		History:       rec.History.Data(),
		Revision:      rec.Revision,
	}, nil
}

func gamificationToRecord(s gamification.State) *store.GamificationState {
	history := s.History
	if history == nil {
		history = map[string]int{}
	}
	return &store.GamificationState{
		LearnerID:     s.LearnerID,
		TotalXP:       s.TotalXP,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		LastActivity:  gamification.FormatDay(s.LastActivity),
		History:       datatypes.NewJSONType(history),
		Revision:      s.Revision,
	}
}
