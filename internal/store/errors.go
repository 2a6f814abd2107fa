package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/abhisek/lingua/internal/apperr"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	ErrLearnerNotFound   = fmt.Errorf("%w: learner", ErrNotFound)
	ErrPlanNotFound      = fmt.Errorf("%w: curriculum plan", ErrNotFound)
	ErrTaskNotFound      = fmt.Errorf("%w: task", ErrNotFound)
	ErrPlacementNotFound = fmt.Errorf("%w: placement test", ErrNotFound)
	ErrLLMEventNotFound  = fmt.Errorf("%w: llm event", ErrNotFound)

	// ErrRevisionConflict means a compare-and-swap found a newer revision.
	ErrRevisionConflict = fmt.Errorf("%w: revision changed", apperr.ErrConcurrencyConflict)
)

// Postgres SQLSTATEs that mean "another writer got there first".
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// MapError normalizes driver and gorm errors into store sentinels and
// apperr kinds. Unknown errors pass through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, apperr.ErrConcurrencyConflict) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", apperr.ErrConcurrencyConflict, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %w", apperr.ErrConcurrencyConflict, err)
		}
		return err
	}

	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", apperr.ErrConcurrencyConflict, err)
		}
		if sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return fmt.Errorf("%w: %w", apperr.ErrConcurrencyConflict, err)
		}
	}
	return err
}

// RetryOnConflict runs fn and, if it fails with a concurrency conflict, runs
// it exactly once more. fn must re-read whatever it writes.
func RetryOnConflict(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if !errors.Is(err, apperr.ErrConcurrencyConflict) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	return fn(ctx)
}
