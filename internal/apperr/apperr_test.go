package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", fmt.Errorf("%w: empty answer", ErrValidation), KindValidation},
		{"generation", fmt.Errorf("curriculum: %w", ErrGenerationUnavailable), KindGeneration},
		{"conflict", fmt.Errorf("save: %w", fmt.Errorf("%w: learner l1", ErrConcurrencyConflict)), KindConflict},
		{"config", fmt.Errorf("%w: no fallback", ErrConfiguration), KindConfig},
		{"other", errors.New("boom"), KindUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
