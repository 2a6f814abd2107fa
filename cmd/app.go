package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/cache"
	"github.com/abhisek/lingua/internal/config"
	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/engine"
	"github.com/abhisek/lingua/internal/feedback"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/llm"
	"github.com/abhisek/lingua/internal/logger"
	"github.com/abhisek/lingua/internal/store"
)

// application is the wired dependency graph shared by the commands that
// touch the database.
type application struct {
	cfg       *config.Config
	log       *logger.Logger
	store     *store.Store
	cache     cache.Cache
	provider  llm.Provider
	evaluator *grading.Evaluator
	engine    *engine.Engine
}

// buildApp loads config and opens the store, cache and LLM provider. An
// unconfigured or broken provider only disables generation.
func buildApp(cmd *cobra.Command) (*application, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	a := &application{cfg: cfg, log: log}
	a.store, err = store.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.cache, err = cache.New(ctx, cfg.Redis, log)
	if err != nil {
		a.store.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	catalog, err := loadCatalog(cfg.Curriculum.CatalogPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	scale, err := cfg.Placement.Scale()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.evaluator = grading.NewEvaluator(cfg.Grading.TranslationThreshold)

	var (
		generate curriculum.GenerateFunc
		fbGen    feedback.Generator
	)
	a.provider, err = llm.NewProvider(ctx, cfg.LLM, a.store.Events(), log)
	switch {
	case err == nil:
		generate = curriculum.NewLLMGenerator(a.provider, curriculum.GeneratorConfig{
			Modules: cfg.Curriculum.ModulesRequested,
		}).GenerateCurriculum
		if cfg.Feedback.Enabled {
			fbGen = feedback.NewLLMGenerator(a.provider)
		}
		log.Info("llm provider ready", "provider", cfg.LLM.Provider)
	case errors.Is(err, llm.ErrDisabled):
		log.Info("llm provider disabled; curricula come from the catalog")
	default:
		log.Warn("llm provider unavailable; curricula come from the catalog", "error", err)
	}

	a.engine = engine.New(engine.Deps{
		Store:     a.store,
		Resolver:  curriculum.NewResolver(cfg.Curriculum, catalog, a.cache, log),
		Generate:  generate,
		Feedback:  feedback.NewService(cfg.Feedback, fbGen, a.cache, log),
		Evaluator: a.evaluator,
		Scale:     scale,
		Rules:     cfg.Gamification,
		Log:       log,
	})
	return a, nil
}

func (a *application) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	a.log.Sync()
}

func loadCatalog(path string) (*curriculum.Catalog, error) {
	if path == "" {
		return curriculum.DefaultCatalog()
	}
	return curriculum.LoadCatalog(path)
}
