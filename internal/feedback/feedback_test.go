package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingua/internal/cache"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/llm"
)

type genFunc func(ctx context.Context, req Request) (json.RawMessage, error)

func (f genFunc) GenerateFeedback(ctx context.Context, req Request) (json.RawMessage, error) {
	return f(ctx, req)
}

var translationReq = Request{
	TaskType:        grading.TypeTranslation,
	Prompt:          "Translate: Я голоден.",
	Answer:          "I have hungry",
	Expected:        "I am hungry",
	Rule:            "English uses to be with adjectives of feeling.",
	ExampleContrast: "Correct: I am hungry. Incorrect: I have hungry.",
}

const goodDoc = `{"rule": "Use 'to be' for states.", "example_contrast": "Correct: I am cold. Incorrect: I have cold.", "tip": "Feelings are states."}`

func TestFor_Correct(t *testing.T) {
	var calls atomic.Int32
	s := NewService(DefaultConfig(), genFunc(func(context.Context, Request) (json.RawMessage, error) {
		calls.Add(1)
		return json.RawMessage(goodDoc), nil
	}), nil, nil)

	fb := s.For(context.Background(), translationReq, true)
	assert.True(t, fb.Correct)
	assert.Equal(t, MessageCorrect, fb.Message)
	assert.Equal(t, translationReq.Rule, fb.Rule)
	assert.Equal(t, SourceStatic, fb.Source)
	assert.Zero(t, calls.Load(), "correct answers never call the generator")

	fb = s.For(context.Background(), Request{Expected: "x"}, true)
	assert.Equal(t, defaultCorrectRule, fb.Rule)
}

func TestFor_IncorrectGenerated(t *testing.T) {
	s := NewService(DefaultConfig(), genFunc(func(context.Context, Request) (json.RawMessage, error) {
		return json.RawMessage("```json\n" + goodDoc + "\n```"), nil
	}), nil, nil)

	fb := s.For(context.Background(), translationReq, false)
	assert.False(t, fb.Correct)
	assert.Equal(t, MessageIncorrect, fb.Message)
	assert.Equal(t, SourceGenerated, fb.Source)
	assert.Equal(t, "Use 'to be' for states.", fb.Rule)
	assert.Equal(t, "Feelings are states.", fb.Tip)
	assert.Equal(t, "I am hungry", fb.CorrectAnswer)
}

func TestFor_FallsBackToStatic(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{"no generator", nil},
		{"error", genFunc(func(context.Context, Request) (json.RawMessage, error) {
			return nil, &llm.ErrProviderUnavailable{}
		})},
		{"blank rule", genFunc(func(context.Context, Request) (json.RawMessage, error) {
			return json.RawMessage(`{"rule": "   ", "example_contrast": "x"}`), nil
		})},
		{"missing example", genFunc(func(context.Context, Request) (json.RawMessage, error) {
			return json.RawMessage(`{"rule": "r"}`), nil
		})},
		{"not json", genFunc(func(context.Context, Request) (json.RawMessage, error) {
			return json.RawMessage(`sorry, I cannot help`), nil
		})},
		{"timeout", genFunc(func(ctx context.Context, _ Request) (json.RawMessage, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Timeout = 20 * time.Millisecond
			s := NewService(cfg, tt.gen, nil, nil)

			fb := s.For(context.Background(), translationReq, false)
			assert.Equal(t, SourceStatic, fb.Source)
			assert.Equal(t, translationReq.Rule, fb.Rule)
			assert.Equal(t, translationReq.ExampleContrast, fb.ExampleContrast)
			assert.Equal(t, MessageIncorrect, fb.Message)
		})
	}
}

func TestFor_StaticWithoutRule(t *testing.T) {
	s := NewService(Config{Enabled: false}, nil, nil, nil)
	fb := s.For(context.Background(), Request{Expected: "goes"}, false)
	assert.Equal(t, `The expected answer is "goes".`, fb.Rule)
}

func TestFor_CachesGeneratedFeedback(t *testing.T) {
	var calls atomic.Int32
	mem := cache.NewMemory()
	s := NewService(DefaultConfig(), genFunc(func(context.Context, Request) (json.RawMessage, error) {
		calls.Add(1)
		return json.RawMessage(goodDoc), nil
	}), mem, nil)

	first := s.For(context.Background(), translationReq, false)
	req := translationReq
	req.Answer = "  i HAVE hungry "
	second := s.For(context.Background(), req, false)

	assert.EqualValues(t, 1, calls.Load(), "normalized answers share a cache entry")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mem.Len())
}

func TestParse_Bounds(t *testing.T) {
	long := make([]byte, maxTipLen+1)
	for i := range long {
		long[i] = 'a'
	}
	doc, _ := json.Marshal(map[string]string{"rule": "r", "example_contrast": "e", "tip": string(long)})
	_, err := parse(doc)
	require.Error(t, err)
	var inv *llm.ErrInvalidResponse
	assert.True(t, errors.As(err, &inv))
}

func TestLLMGenerator(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(goodDoc)})
	raw, err := NewLLMGenerator(mock).GenerateFeedback(context.Background(), translationReq)
	require.NoError(t, err)
	assert.JSONEq(t, goodDoc, string(raw))

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Messages[0].Content, "Learner's answer: I have hungry")
	assert.Contains(t, calls[0].Messages[0].Content, "Correct answer: I am hungry")
}
