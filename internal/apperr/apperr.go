// Package apperr defines the error kinds shared by the learning core.
//
// Package-level errors wrap one of the kind sentinels so callers can
// classify any failure with errors.Is without knowing which package
// produced it.
package apperr

import "errors"

var (
	// ErrValidation marks malformed input. Never retried.
	ErrValidation = errors.New("validation error")

	// ErrGenerationUnavailable marks a failed or unusable generator call.
	// The curriculum resolver recovers from it through the fallback catalog.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrConcurrencyConflict marks a learner-scoped update that lost a race
	// twice in a row.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrConfiguration marks missing static configuration, such as a
	// language without any fallback curriculum.
	ErrConfiguration = errors.New("configuration error")
)

// Kind names used in logs and API responses.
const (
	KindValidation   = "validation"
	KindGeneration   = "generation_unavailable"
	KindConflict     = "concurrency_conflict"
	KindConfig       = "configuration"
	KindUnclassified = "internal"
)

// KindOf returns the kind name of err.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrGenerationUnavailable):
		return KindGeneration
	case errors.Is(err, ErrConcurrencyConflict):
		return KindConflict
	case errors.Is(err, ErrConfiguration):
		return KindConfig
	default:
		return KindUnclassified
	}
}
