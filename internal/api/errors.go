package api

import (
	"errors"
	"net/http"

	"github.com/abhisek/lingua/internal/apperr"
	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/store"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusFor maps an error to its HTTP status. The order matters: an empty
// answer is also a validation error but gets its own status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, grading.ErrEmptyAnswer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrConfiguration):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// safeMessage hides internal error text behind a generic message for 5xx.
func safeMessage(status int, err error) string {
	if status >= http.StatusInternalServerError {
		return "an unexpected error occurred"
	}
	return err.Error()
}

func kindFor(err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return "not_found"
	}
	return apperr.KindOf(err)
}
