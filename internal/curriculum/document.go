package curriculum

import (
	"slices"
	"strings"

	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/progress"
)

// planDocument is the wire shape of a curriculum, shared by generated
// documents and the catalog file. It is never trusted directly.
type planDocument struct {
	Modules []moduleDoc `json:"modules" yaml:"modules"`
}

type moduleDoc struct {
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Objectives  []string     `json:"objectives" yaml:"objectives"`
	Order       *int         `json:"order,omitempty" yaml:"order,omitempty"`
	Criteria    *criteriaDoc `json:"checkpoint_criteria" yaml:"checkpoint_criteria"`
	Tasks       []taskDoc    `json:"tasks,omitempty" yaml:"tasks,omitempty"`
}

type criteriaDoc struct {
	AccuracyThreshold float64 `json:"accuracy_threshold" yaml:"accuracy_threshold"`
	MinTasksCompleted int     `json:"min_tasks_completed" yaml:"min_tasks_completed"`
}

type taskDoc struct {
	Type            string   `json:"type" yaml:"type"`
	Prompt          string   `json:"prompt" yaml:"prompt"`
	Accepted        []string `json:"accepted" yaml:"accepted"`
	Choices         []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Difficulty      int      `json:"difficulty" yaml:"difficulty"`
	Rule            string   `json:"rule,omitempty" yaml:"rule,omitempty"`
	ExampleContrast string   `json:"example_contrast,omitempty" yaml:"example_contrast,omitempty"`
}

// position is the module's effective 1-based order.
func (m moduleDoc) position(index int) int {
	if m.Order != nil {
		return *m.Order
	}
	return index + 1
}

// modules converts a validated document into trusted modules sorted by
// effective order.
func (d *planDocument) modules() []Module {
	out := make([]Module, 0, len(d.Modules))
	for i, md := range d.Modules {
		m := Module{
			Title:       strings.TrimSpace(md.Title),
			Description: strings.TrimSpace(md.Description),
			Order:       md.position(i),
		}
		for _, o := range md.Objectives {
			m.Objectives = append(m.Objectives, strings.TrimSpace(o))
		}
		if md.Criteria != nil {
			m.Criteria = progress.Criteria{
				AccuracyThreshold: md.Criteria.AccuracyThreshold,
				MinTasksCompleted: md.Criteria.MinTasksCompleted,
			}
		}
		for _, td := range md.Tasks {
			m.Tasks = append(m.Tasks, Task{
				Type:            grading.TaskType(td.Type),
				Prompt:          strings.TrimSpace(td.Prompt),
				Accepted:        slices.Clone(td.Accepted),
				Choices:         slices.Clone(td.Choices),
				Difficulty:      td.Difficulty,
				Rule:            strings.TrimSpace(td.Rule),
				ExampleContrast: strings.TrimSpace(td.ExampleContrast),
			})
		}
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b Module) int { return a.Order - b.Order })
	return out
}
