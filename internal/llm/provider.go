package llm

import (
	"context"
	"encoding/json"
)

// Provider is the single seam between lingua and a language model.
// Callers send a Request and get back JSON they must still treat as untrusted.
type Provider interface {
	// Generate sends a prompt and returns the model output. When req.Schema
	// is set the provider asks for structured output and validates the
	// result against the schema before returning it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes one model call.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, switches the provider to its native structured
	// output mode. When nil the Content of the Response is raw text.
	Schema *Schema

	MaxTokens int

	// Temperature in 0.0 - 1.0. Zero leaves the provider default.
	Temperature float64
}

// Message is a single conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is the JSON structure expected back from the model.
type Schema struct {
	// Name is kebab-case, e.g. "curriculum-plan". It doubles as the tool
	// name for Anthropic and the schema name for OpenAI, and as the cache
	// key for compiled schemas.
	Name        string
	Description string
	Definition  map[string]any
	// Lenient marks schemas with optional properties. Providers that
	// require every property in strict mode send them non-strict.
	Lenient bool
}

// Response holds the model output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds a single-turn request, the common shape for lingua's
// curriculum and feedback calls.
func UserPrompt(system, prompt string, schema *Schema, maxTokens int) Request {
	return Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		Schema:    schema,
		MaxTokens: maxTokens,
	}
}
