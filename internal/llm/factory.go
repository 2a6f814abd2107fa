package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/lingua/internal/logger"
)

// NewProvider creates a Provider from configuration, wrapped with retry and
// logging middleware. A disabled config returns ErrDisabled.
func NewProvider(ctx context.Context, cfg Config, sink LLMEventSink, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "", ProviderNone:
		return nil, ErrDisabled
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller -> retry -> logging -> base, so every attempt gets its own row.
	logged := WithLogging(base, cfg.Provider, sink, log)
	return WithRetry(logged, cfg.Retry, log), nil
}
