package curriculum

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/grading"
)

func moduleJSON(title string, order int) string {
	orderField := ""
	if order != 0 {
		orderField = fmt.Sprintf(`"order": %d,`, order)
	}
	return fmt.Sprintf(`{
		"title": %q,
		"description": "desc",
		%s
		"objectives": ["first objective", "second objective"],
		"checkpoint_criteria": {"accuracy_threshold": 0.8, "min_tasks_completed": 1},
		"tasks": [
			{"type": "multiple_choice", "prompt": "She ___ to school.", "choices": ["go", "goes"], "accepted": ["goes"], "difficulty": 1, "rule": "3rd person -s", "example_contrast": "She goes / She go"},
			{"type": "translation", "prompt": "Translate: Я голоден.", "accepted": ["I am hungry"], "difficulty": 2}
		]
	}`, title, orderField)
}

func docJSON(modules ...string) string {
	return `{"modules": [` + strings.Join(modules, ",") + `]}`
}

func threeModuleDoc() string {
	return docJSON(moduleJSON("One", 1), moduleJSON("Two", 2), moduleJSON("Three", 3))
}

func TestAccept_ValidDocument(t *testing.T) {
	mods, err := Accept([]byte(threeModuleDoc()), DefaultValidators(8))
	require.NoError(t, err)
	require.Len(t, mods, 3)

	assert.Equal(t, "One", mods[0].Title)
	assert.Equal(t, 1, mods[0].Order)
	assert.Equal(t, 0.8, mods[0].Criteria.AccuracyThreshold)
	require.Len(t, mods[0].Tasks, 2)
	assert.Equal(t, grading.TypeMultipleChoice, mods[0].Tasks[0].Type)
	assert.Equal(t, "3rd person -s", mods[0].Tasks[0].Rule)
}

func TestAccept_FencesAndImplicitOrder(t *testing.T) {
	raw := "```json\n" + docJSON(moduleJSON("First", 0), moduleJSON("Second", 0)) + "\n```"
	mods, err := Accept([]byte(raw), DefaultValidators(8))
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, 1, mods[0].Order)
	assert.Equal(t, 2, mods[1].Order)
}

func TestAccept_SortsByExplicitOrder(t *testing.T) {
	mods, err := Accept([]byte(docJSON(moduleJSON("Later", 5), moduleJSON("Sooner", 2))), DefaultValidators(8))
	require.NoError(t, err)
	assert.Equal(t, "Sooner", mods[0].Title)
	assert.Equal(t, "Later", mods[1].Title)
}

func TestAccept_Rejects(t *testing.T) {
	nine := make([]string, 9)
	for i := range nine {
		nine[i] = moduleJSON(fmt.Sprintf("M%d", i), i+1)
	}
	replace := func(old, new string) string {
		return docJSON(strings.Replace(moduleJSON("One", 1), old, new, 1))
	}

	tests := []struct {
		name      string
		raw       string
		validator string
	}{
		{"malformed json", `{"modules": [`, "schema"},
		{"not an object", `[]`, "schema"},
		{"missing modules", `{}`, "schema"},
		{"title wrong type", `{"modules": [{"title": 3, "objectives": ["x"], "checkpoint_criteria": {"accuracy_threshold": 0.8, "min_tasks_completed": 1}}]}`, "schema"},
		{"unknown task type", replace(`"type": "translation"`, `"type": "essay"`), "schema"},
		{"zero modules", `{"modules": []}`, "structural"},
		{"too many modules", docJSON(nine...), "structural"},
		{"blank title", replace(`"title": "One"`, `"title": "  "`), "structural"},
		{"empty objectives", replace(`["first objective", "second objective"]`, `[]`), "structural"},
		{"blank objective", replace(`"second objective"`, `" "`), "structural"},
		{"zero threshold", replace(`"accuracy_threshold": 0.8`, `"accuracy_threshold": 0`), "structural"},
		{"threshold above one", replace(`"accuracy_threshold": 0.8`, `"accuracy_threshold": 1.5`), "structural"},
		{"zero min tasks", replace(`"min_tasks_completed": 1`, `"min_tasks_completed": 0`), "structural"},
		{"task difficulty", replace(`"difficulty": 2`, `"difficulty": 9`), "structural"},
		{"task without answers", replace(`"accepted": ["I am hungry"]`, `"accepted": []`), "structural"},
		{"answer not a choice", replace(`"accepted": ["goes"]`, `"accepted": ["went"]`), "structural"},
		{"duplicate order", docJSON(moduleJSON("A", 1), moduleJSON("B", 1)), "ordering"},
		{"implicit order collides", docJSON(moduleJSON("A", 2), moduleJSON("B", 0)), "ordering"},
		{"negative order", docJSON(moduleJSON("A", -1)), "ordering"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mods, err := Accept([]byte(tt.raw), DefaultValidators(8))
			require.Error(t, err)
			assert.Nil(t, mods)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
			assert.Equal(t, tt.validator, verr.Validator, verr.Message)
			assert.ErrorIs(t, err, apperr.ErrGenerationUnavailable)
		})
	}
}

func TestDefaultValidators_Order(t *testing.T) {
	names := []string{"schema", "structural", "ordering"}
	for i, v := range DefaultValidators(8) {
		if v.Name() != names[i] {
			t.Errorf("validator %d: got %q, want %q", i, v.Name(), names[i])
		}
	}
}
