package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/abhisek/lingua/internal/logger"

	// Pure Go SQLite driver (no CGO), registered as "sqlite".
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the database. It is the "database" section of the config file.
type Config struct {
	Driver string `mapstructure:"driver" yaml:"driver" validate:"oneof=sqlite postgres"`
	// DSN is a file path (or ":memory:") for sqlite and a URL for postgres.
	// Empty means DefaultDBPath for sqlite.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// Store holds the gorm handle and hands out repositories.
type Store struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

// Open connects, applies pragmas (sqlite) and migrates the schema.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "Store")

	gcfg := &gorm.Config{
		Logger: gormlogger.New(gormWriter{log}, gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var db *gorm.DB
	switch cfg.Driver {
	case DriverSQLite, "":
		dsn := cfg.DSN
		if dsn == "" {
			p, err := DefaultDBPath()
			if err != nil {
				return nil, err
			}
			dsn = p
		}
		sqlDB, err := openSQLite(dsn)
		if err != nil {
			return nil, err
		}
		db, err = gorm.Open(&gormsqlite.Dialector{DriverName: "sqlite", Conn: sqlDB}, gcfg)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("open database: %w", err)
		}
		cfg.Driver = DriverSQLite
	case DriverPostgres:
		var err error
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	s := &Store{db: db, driver: cfg.Driver, log: log}
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return s, nil
}

// openSQLite opens a single-connection pool. Every statement, and so every
// transaction, is serialized at the pool, and an in-memory database lives
// as long as that one connection.
func openSQLite(dsn string) (*sql.DB, error) {
	if dsn != ":memory:" {
		if err := EnsureDir(dsn); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&Learner{},
		&PlacementTest{},
		&PlacementResult{},
		&CurriculumPlan{},
		&PlanModule{},
		&ModuleTask{},
		&TaskState{},
		&TaskAttempt{},
		&GamificationState{},
		&LLMEvent{},
	); err != nil {
		return err
	}
	// At most one active plan per learner, enforced by the database too.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_curriculum_plans_one_active
		ON curriculum_plans (learner_id) WHERE active`).Error
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB { return s.db }

// Driver returns the active driver name.
func (s *Store) Driver() string { return s.driver }

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RunInTransaction runs fn in a transaction. Driver errors from fn or the
// commit are passed through MapError.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return MapError(s.db.WithContext(ctx).Transaction(fn))
}

func (s *Store) Learners() *LearnerRepo          { return &LearnerRepo{db: s.db} }
func (s *Store) Placements() *PlacementRepo      { return &PlacementRepo{db: s.db} }
func (s *Store) Plans() *PlanRepo                { return &PlanRepo{db: s.db} }
func (s *Store) Tasks() *TaskRepo                { return &TaskRepo{db: s.db} }
func (s *Store) Gamification() *GamificationRepo { return &GamificationRepo{db: s.db} }
func (s *Store) Events() *EventRepo              { return &EventRepo{db: s.db} }

// conn picks the transaction when one is given.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// DefaultDBPath resolves the sqlite file path in priority order:
// LINGUA_DB, then $XDG_DATA_HOME/lingua/lingua.db, then
// ~/.local/share/lingua/lingua.db.
func DefaultDBPath() (string, error) {
	if p := os.Getenv("LINGUA_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "lingua", "lingua.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// gormWriter routes gorm's slow-query and error lines into zap.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Zap().Sugar().Warnf(format, args...)
}
