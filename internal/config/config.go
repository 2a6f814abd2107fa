// Package config loads lingua's configuration from defaults, an optional
// YAML file and LINGUA_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/cache"
	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/feedback"
	"github.com/abhisek/lingua/internal/gamification"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/llm"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. LINGUA_DATABASE_DSN.
const EnvPrefix = "LINGUA"

// Config holds all application configuration.
type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Database     store.Config       `mapstructure:"database"`
	Redis        cache.Config       `mapstructure:"redis"`
	Server       ServerConfig       `mapstructure:"server"`
	LLM          llm.Config         `mapstructure:"llm"`
	Grading      GradingConfig      `mapstructure:"grading"`
	Placement    PlacementConfig    `mapstructure:"placement"`
	Curriculum   curriculum.Config  `mapstructure:"curriculum"`
	Feedback     feedback.Config    `mapstructure:"feedback"`
	Gamification gamification.Rules `mapstructure:"gamification"`
	Maintenance  MaintenanceConfig  `mapstructure:"maintenance"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode" validate:"oneof=dev development prod production"`
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type GradingConfig struct {
	TranslationThreshold float64 `mapstructure:"translation_threshold" validate:"gt=0,lte=1"`
}

// PlacementConfig is the percentage-to-level table. Bands must be strictly
// ascending in both threshold and level.
type PlacementConfig struct {
	Bands    []placement.Band `mapstructure:"bands" validate:"min=1"`
	TopLevel placement.Level  `mapstructure:"top_level" validate:"required"`
}

// Scale builds the validated placement scale.
func (c PlacementConfig) Scale() (*placement.Scale, error) {
	return placement.NewScale(c.Bands, c.TopLevel)
}

// MaintenanceConfig drives the periodic jobs run by `lingua serve`.
type MaintenanceConfig struct {
	EventRetention time.Duration `mapstructure:"event_retention" validate:"gte=0"`
	Schedule       string        `mapstructure:"schedule"`
}

// Default returns the built-in configuration.
func Default() Config {
	llmCfg := llm.DefaultConfig()
	// Empty means "not chosen"; Load probes the environment for a key.
	llmCfg.Provider = ""
	return Config{
		Log:      LogConfig{Mode: "dev", Level: "info"},
		Database: store.Config{Driver: store.DriverSQLite},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		LLM:          llmCfg,
		Grading:      GradingConfig{TranslationThreshold: grading.DefaultTranslationThreshold},
		Placement:    PlacementConfig{Bands: append([]placement.Band(nil), placement.DefaultBands...), TopLevel: placement.C2},
		Curriculum:   curriculum.DefaultConfig(),
		Feedback:     feedback.DefaultConfig(),
		Gamification: gamification.DefaultRules(),
		Maintenance:  MaintenanceConfig{EventRetention: 30 * 24 * time.Hour, Schedule: "@daily"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	defaults := map[string]any{
		"log.mode":  d.Log.Mode,
		"log.level": d.Log.Level,

		"database.driver": d.Database.Driver,
		"database.dsn":    d.Database.DSN,

		"redis.addr":     d.Redis.Addr,
		"redis.password": d.Redis.Password,
		"redis.db":       d.Redis.DB,
		"redis.prefix":   "lingua",

		"server.addr":             d.Server.Addr,
		"server.read_timeout":     d.Server.ReadTimeout,
		"server.write_timeout":    d.Server.WriteTimeout,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,

		"llm.provider":            d.LLM.Provider,
		"llm.timeout":             d.LLM.Timeout,
		"llm.anthropic.api_key":   "",
		"llm.anthropic.model":     d.LLM.Anthropic.Model,
		"llm.openai.api_key":      "",
		"llm.openai.model":        d.LLM.OpenAI.Model,
		"llm.openai.base_url":     "",
		"llm.gemini.api_key":      "",
		"llm.gemini.model":        d.LLM.Gemini.Model,
		"llm.openrouter.api_key":  "",
		"llm.openrouter.model":    d.LLM.OpenRouter.Model,
		"llm.openrouter.base_url": "",
		"llm.retry.max_attempts":  d.LLM.Retry.MaxAttempts,
		"llm.retry.initial_wait":  d.LLM.Retry.InitialWait,
		"llm.retry.max_wait":      d.LLM.Retry.MaxWait,
		"llm.retry.multiplier":    d.LLM.Retry.Multiplier,

		"grading.translation_threshold": d.Grading.TranslationThreshold,

		"placement.bands":     d.Placement.Bands,
		"placement.top_level": string(d.Placement.TopLevel),

		"curriculum.max_modules":        d.Curriculum.MaxModules,
		"curriculum.modules_requested":  d.Curriculum.ModulesRequested,
		"curriculum.generation_timeout": d.Curriculum.GenerationTimeout,
		"curriculum.generation_retries": d.Curriculum.GenerationRetries,
		"curriculum.cache_ttl":          d.Curriculum.CacheTTL,
		"curriculum.catalog_path":       d.Curriculum.CatalogPath,

		"feedback.enabled":   d.Feedback.Enabled,
		"feedback.timeout":   d.Feedback.Timeout,
		"feedback.cache_ttl": d.Feedback.CacheTTL,

		"gamification.base_xp": d.Gamification.BaseXP,

		"maintenance.event_retention": d.Maintenance.EventRetention,
		"maintenance.schedule":        d.Maintenance.Schedule,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load reads configuration. An explicit path must exist; otherwise
// lingua.yaml is looked up in the working directory and the user config
// directory, and its absence is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read config %s: %v", apperr.ErrConfiguration, path, err)
		}
	} else {
		v.SetConfigName("lingua")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "lingua"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: read config: %v", apperr.ErrConfiguration, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode config: %v", apperr.ErrConfiguration, err)
	}

	if cfg.LLM.Provider == "" {
		if found, ok := llm.DiscoverConfig(cfg.LLM); ok {
			cfg.LLM = found
		} else {
			cfg.LLM.Provider = llm.ProviderNone
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate runs struct tag checks followed by the checks tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}
	if c.Database.Driver == store.DriverPostgres && c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is required for postgres", apperr.ErrConfiguration)
	}
	if _, err := c.Placement.Scale(); err != nil {
		return fmt.Errorf("placement: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}
	if c.Maintenance.Schedule != "" {
		if _, err := cron.ParseStandard(c.Maintenance.Schedule); err != nil {
			return fmt.Errorf("%w: maintenance.schedule: %v", apperr.ErrConfiguration, err)
		}
	}
	return nil
}
