package curriculum

import "github.com/abhisek/lingua/internal/llm"

var taskTypes = []any{"multiple_choice", "cloze", "fill_blank", "translation"}

// DocumentSchema is the contract a generated curriculum document must meet
// before structural checks run. Module order and tasks are optional.
var DocumentSchema = &llm.Schema{
	Name:        "curriculum-plan",
	Description: "An ordered list of learning modules for one language and proficiency level",
	Lenient:     true,
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"modules": map[string]any{
				"type":        "array",
				"description": "The modules in the order the learner should take them",
				"items":       moduleSchema,
			},
		},
		"required": []any{"modules"},
	},
}

var moduleSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{
			"type":        "string",
			"description": "Short module title",
		},
		"description": map[string]any{
			"type":        "string",
			"description": "One or two sentences on what the learner will achieve",
		},
		"objectives": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "3 to 5 concrete learning objectives",
		},
		"order": map[string]any{
			"type":        "integer",
			"description": "1-based position of the module in the plan",
		},
		"checkpoint_criteria": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"accuracy_threshold":  map[string]any{"type": "number"},
				"min_tasks_completed": map[string]any{"type": "integer"},
			},
			"required": []any{"accuracy_threshold", "min_tasks_completed"},
		},
		"tasks": map[string]any{
			"type":  "array",
			"items": taskSchema,
		},
	},
	"required": []any{"title", "objectives", "checkpoint_criteria"},
}

var taskSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type":             map[string]any{"type": "string", "enum": taskTypes},
		"prompt":           map[string]any{"type": "string"},
		"accepted":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"choices":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"difficulty":       map[string]any{"type": "integer"},
		"rule":             map[string]any{"type": "string"},
		"example_contrast": map[string]any{"type": "string"},
	},
	"required": []any{"type", "prompt", "accepted", "difficulty"},
}

// SchemaValidator checks the raw document against DocumentSchema.
type SchemaValidator struct{}

func (v *SchemaValidator) Name() string { return "schema" }

func (v *SchemaValidator) Validate(c *Candidate) *ValidationError {
	if err := llm.ValidateJSON(DocumentSchema, c.Raw); err != nil {
		return &ValidationError{Validator: v.Name(), Message: err.Error()}
	}
	return nil
}
