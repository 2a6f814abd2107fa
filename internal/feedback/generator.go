package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/lingua/internal/llm"
)

const systemPrompt = `You are a helpful language teacher. Provide concise, clear feedback that helps learners understand their mistakes and learn from them.

Rules:
- Explain the relevant grammar or vocabulary rule in one or two sentences.
- Give an example contrasting correct and incorrect usage, as "Correct: ... Incorrect: ...".
- Add a short tip to remember the rule.
- Do not scold the learner.`

// Schema is the shape requested from the model. Tip is optional.
var Schema = &llm.Schema{
	Name:        "task-feedback",
	Description: "Feedback for an incorrect answer to a language exercise",
	Lenient:     true,
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rule":             map[string]any{"type": "string", "description": "Brief explanation of the rule"},
			"example_contrast": map[string]any{"type": "string", "description": "Correct: ... vs Incorrect: ..."},
			"tip":              map[string]any{"type": "string", "description": "Helpful tip to remember"},
		},
		"required": []any{"rule", "example_contrast"},
	},
}

// LLMGenerator produces feedback documents with an LLM provider.
type LLMGenerator struct {
	provider  llm.Provider
	maxTokens int
}

func NewLLMGenerator(provider llm.Provider) *LLMGenerator {
	return &LLMGenerator{provider: provider, maxTokens: 512}
}

func (g *LLMGenerator) GenerateFeedback(ctx context.Context, req Request) (json.RawMessage, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeFeedback)
	resp, err := g.provider.Generate(ctx, llm.UserPrompt(systemPrompt, buildPrompt(req), Schema, g.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("generate feedback: %w", err)
	}
	return resp.Content, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The learner attempted a %s task.\n", req.TaskType)
	if req.Prompt != "" {
		fmt.Fprintf(&b, "Task: %s\n", req.Prompt)
	}
	fmt.Fprintf(&b, "Learner's answer: %s\n", req.Answer)
	fmt.Fprintf(&b, "Correct answer: %s\n", req.Expected)
	return b.String()
}
