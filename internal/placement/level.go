package placement

import (
	"fmt"
	"strings"

	"github.com/abhisek/lingua/internal/apperr"
)

// Level is a CEFR-style proficiency level.
type Level string

const (
	A0 Level = "A0"
	A1 Level = "A1"
	A2 Level = "A2"
	B1 Level = "B1"
	B2 Level = "B2"
	C1 Level = "C1"
	C2 Level = "C2"
)

// Levels lists every level from lowest to highest.
var Levels = []Level{A0, A1, A2, B1, B2, C1, C2}

// Rank returns the position of l in Levels, or -1 if l is unknown.
func (l Level) Rank() int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool { return l.Rank() >= 0 }

// ErrUnknownLevel is returned by ParseLevel.
var ErrUnknownLevel = fmt.Errorf("%w: unknown level", apperr.ErrValidation)

// ParseLevel parses a level name case-insensitively.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
	return l, nil
}
