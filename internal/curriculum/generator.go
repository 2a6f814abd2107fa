package curriculum

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/lingua/internal/llm"
	"github.com/abhisek/lingua/internal/placement"
)

const systemPrompt = `You are an expert language curriculum designer.

Rules:
- Create a structured, pedagogically sound sequence of modules for the given language and CEFR level.
- Each module has a short title, a one or two sentence description, and 3-5 concrete objectives.
- Each module has checkpoint_criteria: accuracy_threshold between 0.5 and 1.0 and min_tasks_completed of at least 1.
- Number modules with "order" starting at 1.
- Each module may include practice tasks of type multiple_choice, cloze, fill_blank or translation.
- Every task lists its accepted answers. For multiple_choice the first accepted answer must be one of the choices.
- Task difficulty ranges from 1 (easy) to 5 (hard). min_tasks_completed must not exceed the number of tasks.
- Give each task a one-sentence grammar or vocabulary rule and an example contrasting correct and incorrect usage.`

// GeneratorConfig controls LLMGenerator.
type GeneratorConfig struct {
	Modules     int
	MaxTokens   int
	Temperature float64
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{Modules: 3, MaxTokens: 4096, Temperature: 0.4}
}

// LLMGenerator produces curriculum documents with an LLM provider. Its
// output is still untrusted and goes through the Resolver's validators.
// The Resolver owns the retry budget, so each call is a single provider
// attempt.
type LLMGenerator struct {
	provider llm.Provider
	cfg      GeneratorConfig
}

func NewLLMGenerator(provider llm.Provider, cfg GeneratorConfig) *LLMGenerator {
	if cfg.Modules <= 0 {
		cfg.Modules = DefaultGeneratorConfig().Modules
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultGeneratorConfig().MaxTokens
	}
	return &LLMGenerator{provider: llm.WithoutRetry(provider), cfg: cfg}
}

func (g *LLMGenerator) GenerateCurriculum(ctx context.Context, language string, level placement.Level) (json.RawMessage, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeCurriculum)

	req := llm.UserPrompt(systemPrompt, buildPrompt(language, level, g.cfg.Modules), DocumentSchema, g.cfg.MaxTokens)
	req.Temperature = g.cfg.Temperature

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate curriculum: %w", err)
	}
	return resp.Content, nil
}

func buildPrompt(language string, level placement.Level, modules int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Language: %s\n", language)
	fmt.Fprintf(&b, "Level: %s\n", level)
	fmt.Fprintf(&b, "Modules: %d\n", modules)
	b.WriteString("\nCreate the learning roadmap as a JSON object with a \"modules\" array.")
	return b.String()
}
