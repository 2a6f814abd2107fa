package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", resolveModel("gemini-flash", geminiModels))
	assert.Equal(t, "gemini-2.5-pro", resolveModel("gemini-pro", geminiModels))
	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-2.0-flash", geminiModels))
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"type":  map[string]any{"type": "string", "enum": []string{"cloze", "translation"}},
			"accuracy_threshold": map[string]any{
				"type": "number", "minimum": 0, "maximum": 1.0,
			},
			"objectives": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string"},
			},
		},
		"required": []any{"title", "objectives"},
	}

	schema := buildGeminiSchema(def)

	require.Equal(t, genai.TypeObject, schema.Type)
	require.Len(t, schema.Properties, 4)
	assert.Equal(t, genai.TypeString, schema.Properties["title"].Type)
	assert.Equal(t, []string{"cloze", "translation"}, schema.Properties["type"].Enum)

	acc := schema.Properties["accuracy_threshold"]
	assert.Equal(t, genai.TypeNumber, acc.Type)
	require.NotNil(t, acc.Minimum)
	require.NotNil(t, acc.Maximum)
	assert.Equal(t, 1.0, *acc.Maximum)

	obj := schema.Properties["objectives"]
	assert.Equal(t, genai.TypeArray, obj.Type)
	require.NotNil(t, obj.Items)
	assert.Equal(t, genai.TypeString, obj.Items.Type)
	require.NotNil(t, obj.MinItems)
	assert.Equal(t, int64(1), *obj.MinItems)

	assert.ElementsMatch(t, []string{"title", "objectives"}, schema.Required)
}
