package placement

import (
	"fmt"
	"math"

	"github.com/abhisek/lingua/internal/apperr"
)

// Band maps percentages strictly below Below to Level.
type Band struct {
	Level Level   `mapstructure:"level" yaml:"level" json:"level"`
	Below float64 `mapstructure:"below" yaml:"below" json:"below"`
}

// Scale converts a percentage into a Level using ascending bands. A
// percentage equal to a band's Below belongs to the next band, so ties
// resolve upward. Anything at or above the last band maps to Top.
type Scale struct {
	bands []Band
	top   Level
}

// ErrInvalidScale is returned by NewScale for malformed band tables.
var ErrInvalidScale = fmt.Errorf("%w: invalid level scale", apperr.ErrConfiguration)

// DefaultBands is the standard threshold table.
var DefaultBands = []Band{
	{Level: A0, Below: 20},
	{Level: A1, Below: 40},
	{Level: A2, Below: 55},
	{Level: B1, Below: 70},
	{Level: B2, Below: 85},
	{Level: C1, Below: 95},
}

// DefaultScale returns the scale built from DefaultBands with C2 on top.
func DefaultScale() *Scale {
	s, err := NewScale(DefaultBands, C2)
	if err != nil {
		panic(err)
	}
	return s
}

// NewScale validates bands and returns a Scale. Thresholds must strictly
// increase within (0,100] and levels must strictly increase, ending below
// top. Together these make the mapping monotonic.
func NewScale(bands []Band, top Level) (*Scale, error) {
	if !top.Valid() {
		return nil, fmt.Errorf("%w: top level %q", ErrInvalidScale, top)
	}
	prevBelow := 0.0
	prevRank := -1
	for i, b := range bands {
		if !b.Level.Valid() {
			return nil, fmt.Errorf("%w: band %d has unknown level %q", ErrInvalidScale, i, b.Level)
		}
		if b.Below <= prevBelow || b.Below > 100 {
			return nil, fmt.Errorf("%w: band %d threshold %.2f must be above %.2f and at most 100",
				ErrInvalidScale, i, b.Below, prevBelow)
		}
		if b.Level.Rank() <= prevRank {
			return nil, fmt.Errorf("%w: band %d level %s is not above the previous band", ErrInvalidScale, i, b.Level)
		}
		prevBelow = b.Below
		prevRank = b.Level.Rank()
	}
	if top.Rank() <= prevRank {
		return nil, fmt.Errorf("%w: top level %s must be above %s", ErrInvalidScale, top, bands[len(bands)-1].Level)
	}
	out := make([]Band, len(bands))
	copy(out, bands)
	return &Scale{bands: out, top: top}, nil
}

// pctPrecision is the rounding grid for percentages, so that a score
// landing on a threshold after float division counts as on it.
const pctPrecision = 1e9

// roundPct snaps pct to pctPrecision decimal places.
func roundPct(pct float64) float64 {
	return math.Round(pct*pctPrecision) / pctPrecision
}

// LevelFor maps a percentage in [0,100] to a Level. A percentage on a
// threshold belongs to the higher band.
func (s *Scale) LevelFor(pct float64) Level {
	pct = roundPct(pct)
	for _, b := range s.bands {
		if pct < b.Below {
			return b.Level
		}
	}
	return s.top
}

// Bands returns a copy of the band table.
func (s *Scale) Bands() []Band {
	out := make([]Band, len(s.bands))
	copy(out, s.bands)
	return out
}

// Top returns the level for percentages past the last band.
func (s *Scale) Top() Level { return s.top }
