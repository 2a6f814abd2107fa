// Package feedback explains graded answers to the learner, preferring
// generated explanations and falling back to the task's static rule.
package feedback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abhisek/lingua/internal/cache"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/llm"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/similarity"
)

const (
	MessageCorrect   = "Correct! Well done!"
	MessageIncorrect = "Not quite right. Here's some help:"

	defaultCorrectRule = "Great job!"
)

// Source says where the explanation came from.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceStatic    Source = "static"
)

// Feedback is what the learner sees after an attempt.
type Feedback struct {
	Correct         bool   `json:"correct"`
	Message         string `json:"message"`
	CorrectAnswer   string `json:"correct_answer"`
	Rule            string `json:"rule"`
	ExampleContrast string `json:"example_contrast"`
	Tip             string `json:"tip,omitempty"`
	Source          Source `json:"source"`
}

// Request describes the attempt to explain.
type Request struct {
	TaskType        grading.TaskType
	Prompt          string
	Answer          string
	Expected        string
	Rule            string
	ExampleContrast string
}

// Generator produces an untrusted feedback document.
type Generator interface {
	GenerateFeedback(ctx context.Context, req Request) (json.RawMessage, error)
}

// Config tunes the feedback service.
type Config struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{Enabled: true, Timeout: 8 * time.Second, CacheTTL: time.Hour}
}

// Service builds feedback. It never fails: any generation problem yields
// static feedback.
type Service struct {
	cfg   Config
	gen   Generator
	cache cache.Cache
	log   *logger.Logger
}

// NewService creates a Service. gen and c may be nil.
func NewService(cfg Config, gen Generator, c cache.Cache, log *logger.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{cfg: cfg, gen: gen, cache: c, log: log.With("service", "Feedback")}
}

// For returns feedback for an attempt graded as correct or not.
func (s *Service) For(ctx context.Context, req Request, correct bool) Feedback {
	if correct {
		return Feedback{
			Correct:         true,
			Message:         MessageCorrect,
			CorrectAnswer:   req.Expected,
			Rule:            orDefault(req.Rule, defaultCorrectRule),
			ExampleContrast: req.ExampleContrast,
			Source:          SourceStatic,
		}
	}

	fb := Feedback{
		Message:         MessageIncorrect,
		CorrectAnswer:   req.Expected,
		Rule:            orDefault(req.Rule, fmt.Sprintf("The expected answer is %q.", req.Expected)),
		ExampleContrast: req.ExampleContrast,
		Source:          SourceStatic,
	}
	if !s.cfg.Enabled || s.gen == nil {
		return fb
	}

	doc, err := s.generated(ctx, req)
	if err != nil {
		s.log.Warn("feedback generation failed, using static rule", "task_type", req.TaskType, "error", err)
		return fb
	}
	fb.Rule = doc.Rule
	fb.ExampleContrast = doc.ExampleContrast
	fb.Tip = doc.Tip
	fb.Source = SourceGenerated
	return fb
}

func (s *Service) generated(ctx context.Context, req Request) (*document, error) {
	key := cacheKey(req)
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			if doc, err := parse(raw); err == nil {
				return doc, nil
			}
		}
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	raw, err := s.gen.GenerateFeedback(gctx, req)
	if err != nil {
		return nil, err
	}
	if gctx.Err() != nil {
		return nil, fmt.Errorf("feedback arrived after deadline: %w", gctx.Err())
	}
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if b, err := json.Marshal(doc); err == nil {
			if err := s.cache.Set(ctx, key, b, s.cfg.CacheTTL); err != nil {
				s.log.Warn("feedback cache write failed", "error", err)
			}
		}
	}
	return doc, nil
}

// document is a generated explanation that passed the shape check.
type document struct {
	Rule            string `json:"rule"`
	ExampleContrast string `json:"example_contrast"`
	Tip             string `json:"tip,omitempty"`
}

const (
	maxRuleLen    = 600
	maxExampleLen = 600
	maxTipLen     = 300
)

// parse applies the shape check to raw: rule and example_contrast must be
// non-blank, all fields bounded in length.
func parse(raw []byte) (*document, error) {
	if err := llm.ValidateJSON(Schema, llm.StripFences(raw)); err != nil {
		return nil, err
	}
	var d document
	if err := json.Unmarshal(llm.StripFences(raw), &d); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: raw, Err: err}
	}
	d.Rule = strings.TrimSpace(d.Rule)
	d.ExampleContrast = strings.TrimSpace(d.ExampleContrast)
	d.Tip = strings.TrimSpace(d.Tip)

	switch {
	case d.Rule == "":
		return nil, shapeError(raw, "rule is empty")
	case d.ExampleContrast == "":
		return nil, shapeError(raw, "example_contrast is empty")
	case utf8.RuneCountInString(d.Rule) > maxRuleLen:
		return nil, shapeError(raw, "rule too long")
	case utf8.RuneCountInString(d.ExampleContrast) > maxExampleLen:
		return nil, shapeError(raw, "example_contrast too long")
	case utf8.RuneCountInString(d.Tip) > maxTipLen:
		return nil, shapeError(raw, "tip too long")
	}
	return &d, nil
}

func shapeError(raw []byte, msg string) error {
	return &llm.ErrInvalidResponse{Content: raw, Err: fmt.Errorf("feedback shape: %s", msg)}
}

func cacheKey(req Request) string {
	h := sha256.New()
	for _, part := range []string{string(req.TaskType), req.Prompt, req.Expected, similarity.Normalize(req.Answer)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cache.Key("feedback", hex.EncodeToString(h.Sum(nil)[:16]))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
