package curriculum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/cache"
	"github.com/abhisek/lingua/internal/llm"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/placement"
)

// Config tunes plan resolution.
type Config struct {
	MaxModules        int           `mapstructure:"max_modules" yaml:"max_modules" validate:"gte=1,lte=32"`
	ModulesRequested  int           `mapstructure:"modules_requested" yaml:"modules_requested" validate:"gte=1,ltefield=MaxModules"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout" yaml:"generation_timeout" validate:"gt=0"`
	GenerationRetries int           `mapstructure:"generation_retries" yaml:"generation_retries" validate:"gte=0,lte=5"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" validate:"gte=0"`
	CatalogPath       string        `mapstructure:"catalog_path" yaml:"catalog_path"`
}

func DefaultConfig() Config {
	return Config{
		MaxModules:        DefaultMaxModules,
		ModulesRequested:  3,
		GenerationTimeout: 20 * time.Second,
		GenerationRetries: 1,
		CacheTTL:          24 * time.Hour,
	}
}

// Resolver produces curriculum plans. Generation failures never escape it:
// they end in a catalog plan with the reason recorded.
type Resolver struct {
	cfg     Config
	catalog *Catalog
	cache   cache.Cache
	chain   []Validator
	group   singleflight.Group
	log     *logger.Logger
}

// NewResolver creates a Resolver. c may be nil to disable caching.
func NewResolver(cfg Config, catalog *Catalog, c cache.Cache, log *logger.Logger) *Resolver {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultConfig().GenerationTimeout
	}
	if cfg.GenerationRetries < 0 {
		cfg.GenerationRetries = 0
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		cfg:     cfg,
		catalog: catalog,
		cache:   c,
		chain:   DefaultValidators(cfg.MaxModules),
		log:     log.With("service", "CurriculumResolver"),
	}
}

// Catalog returns the fallback catalog.
func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Resolve builds a plan for req. gen may be nil, in which case the catalog
// is used directly. The only errors are validation errors for a malformed
// request and ErrNoFallbackAvailable for a language the catalog does not
// cover.
func (r *Resolver) Resolve(ctx context.Context, req Request, gen GenerateFunc) (*Plan, error) {
	language := normalizeLanguage(req.Language)
	if language == "" {
		return nil, fmt.Errorf("%w: language is required", apperr.ErrValidation)
	}
	if !req.Level.Valid() {
		return nil, fmt.Errorf("%w: %q", placement.ErrUnknownLevel, req.Level)
	}
	if !r.catalog.Supports(language) {
		return nil, fmt.Errorf("%w: %q", ErrNoFallbackAvailable, language)
	}

	plan := &Plan{LearnerID: req.LearnerID, Language: language, Level: req.Level}

	modules, genErr := r.generated(ctx, language, req.Level, gen)
	if genErr == nil {
		plan.Provenance = ProvenanceGenerated
		plan.SourceLevel = req.Level
		plan.Modules = modules
		return plan, nil
	}

	fallback, used, err := r.catalog.Lookup(language, req.Level)
	if err != nil {
		return nil, err
	}
	plan.Provenance = ProvenanceFallback
	plan.SourceLevel = used
	plan.Modules = fallback
	plan.FallbackReason = fallbackReason(genErr)
	r.log.Info("using fallback curriculum",
		"language", language, "level", req.Level, "source_level", used, "reason", plan.FallbackReason)
	return plan, nil
}

var errGeneratorDisabled = fmt.Errorf("%w: generator disabled", apperr.ErrGenerationUnavailable)

func fallbackReason(err error) string {
	return fmt.Sprintf("%s: %v", apperr.KindGeneration, err)
}

// generated returns validated generated modules for (language, level).
// Concurrent callers for the same key share one generation.
func (r *Resolver) generated(ctx context.Context, language string, level placement.Level, gen GenerateFunc) ([]Module, error) {
	if gen == nil {
		return nil, errGeneratorDisabled
	}
	key := cacheKey(language, level)

	v, err, shared := r.group.Do(key, func() (any, error) {
		// Callers cannot cancel a shared generation; per-attempt timeouts bound it.
		return r.generate(context.WithoutCancel(ctx), key, language, level, gen)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.log.Debug("shared curriculum generation", "key", key)
	}
	return cloneModules(v.([]Module)), nil
}

func (r *Resolver) generate(ctx context.Context, key, language string, level placement.Level, gen GenerateFunc) ([]Module, error) {
	if mods, ok := r.fromCache(ctx, key); ok {
		return mods, nil
	}

	var lastErr error
	for attempt := 0; attempt <= r.cfg.GenerationRetries; attempt++ {
		raw, err := r.attempt(ctx, language, level, gen)
		if err != nil {
			lastErr = err
			if llm.IsTransient(err) {
				r.log.Warn("curriculum generation attempt failed", "attempt", attempt+1, "error", err)
				continue
			}
			break
		}

		mods, err := Accept(raw, r.chain)
		if err != nil {
			r.log.Warn("generated curriculum rejected", "language", language, "level", level, "error", err)
			return nil, err
		}
		r.toCache(ctx, key, raw)
		return mods, nil
	}
	if !errors.Is(lastErr, apperr.ErrGenerationUnavailable) {
		lastErr = fmt.Errorf("%w: %w", apperr.ErrGenerationUnavailable, lastErr)
	}
	return nil, lastErr
}

type genResult struct {
	raw json.RawMessage
	err error
}

// attempt runs gen once under the generation timeout. A result that
// arrives after the deadline is drained and discarded.
func (r *Resolver) attempt(ctx context.Context, language string, level placement.Level, gen GenerateFunc) (json.RawMessage, error) {
	actx, cancel := context.WithTimeout(ctx, r.cfg.GenerationTimeout)
	defer cancel()

	done := make(chan genResult, 1)
	go func() {
		raw, err := gen(actx, language, level)
		done <- genResult{raw: raw, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && actx.Err() != nil {
			r.log.Warn("discarding late curriculum result", "language", language, "level", level)
			return nil, fmt.Errorf("%w: %w", apperr.ErrGenerationUnavailable, context.DeadlineExceeded)
		}
		return res.raw, res.err
	case <-actx.Done():
		go func() {
			if res := <-done; res.err == nil {
				r.log.Warn("discarding late curriculum result", "language", language, "level", level)
			}
		}()
		return nil, fmt.Errorf("%w: generation timed out after %s: %w",
			apperr.ErrGenerationUnavailable, r.cfg.GenerationTimeout, context.DeadlineExceeded)
	}
}

func (r *Resolver) fromCache(ctx context.Context, key string) ([]Module, bool) {
	if r.cache == nil {
		return nil, false
	}
	raw, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.Warn("curriculum cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	mods, err := Accept(raw, r.chain)
	if err != nil {
		r.log.Warn("cached curriculum failed revalidation", "key", key, "error", err)
		return nil, false
	}
	return mods, true
}

func (r *Resolver) toCache(ctx context.Context, key string, raw json.RawMessage) {
	if r.cache == nil || r.cfg.CacheTTL <= 0 {
		return
	}
	if err := r.cache.Set(ctx, key, llm.StripFences(raw), r.cfg.CacheTTL); err != nil {
		r.log.Warn("curriculum cache write failed", "key", key, "error", err)
	}
}

func cacheKey(language string, level placement.Level) string {
	return cache.Key("curriculum", strings.ToLower(language), string(level))
}
