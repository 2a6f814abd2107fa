package curriculum

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/similarity"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxObjectives     = 10
	maxTasksPerModule = 50
)

// DefaultMaxModules caps the modules accepted in one document.
const DefaultMaxModules = 8

// StructuralValidator checks module counts, required text and criteria.
type StructuralValidator struct {
	MaxModules int
}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(c *Candidate) *ValidationError {
	doc, err := c.decode()
	if err != nil {
		return v.fail("%v", err)
	}
	limit := v.MaxModules
	if limit <= 0 {
		limit = DefaultMaxModules
	}
	switch n := len(doc.Modules); {
	case n == 0:
		return v.fail("document has no modules")
	case n > limit:
		return v.fail("document has %d modules, at most %d allowed", n, limit)
	}

	for i, m := range doc.Modules {
		if verr := v.checkModule(i, m); verr != nil {
			return verr
		}
	}
	return nil
}

func (v *StructuralValidator) checkModule(i int, m moduleDoc) *ValidationError {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		return v.fail("module %d: title is empty", i+1)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return v.fail("module %d: title exceeds %d characters", i+1, maxTitleLen)
	}
	if utf8.RuneCountInString(m.Description) > maxDescriptionLen {
		return v.fail("module %d: description exceeds %d characters", i+1, maxDescriptionLen)
	}
	if len(m.Objectives) == 0 {
		return v.fail("module %d: objectives are empty", i+1)
	}
	if len(m.Objectives) > maxObjectives {
		return v.fail("module %d: more than %d objectives", i+1, maxObjectives)
	}
	for j, o := range m.Objectives {
		if strings.TrimSpace(o) == "" {
			return v.fail("module %d: objective %d is blank", i+1, j+1)
		}
	}
	if m.Criteria == nil {
		return v.fail("module %d: checkpoint_criteria missing", i+1)
	}
	if c := m.Criteria; c.AccuracyThreshold <= 0 || c.AccuracyThreshold > 1 {
		return v.fail("module %d: accuracy_threshold %v must be in (0, 1]", i+1, c.AccuracyThreshold)
	}
	if m.Criteria.MinTasksCompleted < 1 {
		return v.fail("module %d: min_tasks_completed must be at least 1", i+1)
	}
	if len(m.Tasks) > maxTasksPerModule {
		return v.fail("module %d: more than %d tasks", i+1, maxTasksPerModule)
	}
	for j, t := range m.Tasks {
		if msg := checkTask(t); msg != "" {
			return v.fail("module %d task %d: %s", i+1, j+1, msg)
		}
	}
	return nil
}

func checkTask(t taskDoc) string {
	typ := grading.TaskType(t.Type)
	if !typ.Valid() {
		return fmt.Sprintf("unsupported type %q", t.Type)
	}
	if strings.TrimSpace(t.Prompt) == "" {
		return "prompt is empty"
	}
	if t.Difficulty < grading.MinDifficulty || t.Difficulty > grading.MaxDifficulty {
		return fmt.Sprintf("difficulty %d must be between %d and %d", t.Difficulty, grading.MinDifficulty, grading.MaxDifficulty)
	}
	accepted := 0
	for _, a := range t.Accepted {
		if strings.TrimSpace(a) != "" {
			accepted++
		}
	}
	if accepted == 0 || accepted != len(t.Accepted) {
		return "accepted answers must be present and non-blank"
	}
	if typ == grading.TypeMultipleChoice {
		if len(t.Choices) < 2 {
			return "multiple_choice needs at least 2 choices"
		}
		want := similarity.Normalize(t.Accepted[0])
		found := false
		for _, c := range t.Choices {
			if similarity.Normalize(c) == want {
				found = true
				break
			}
		}
		if !found {
			return "accepted answer is not one of the choices"
		}
	}
	return ""
}

func (v *StructuralValidator) fail(format string, args ...any) *ValidationError {
	return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)}
}
