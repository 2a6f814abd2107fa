// Package gamification turns learner activity into XP, streaks and streak
// milestones.
package gamification

import (
	"fmt"
	"maps"
	"time"

	"github.com/abhisek/lingua/internal/apperr"
)

// DateLayout is how activity dates are keyed in History and persisted.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDifficulty  = fmt.Errorf("%w: difficulty must be between 1 and 5", apperr.ErrValidation)
	ErrActivityOutOfOrder = fmt.Errorf("%w: activity date is before the last recorded activity", apperr.ErrValidation)
)

// State is one learner's ledger.
type State struct {
	LearnerID     string `json:"learner_id"`
	TotalXP       int    `json:"total_xp"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	// LastActivity is a UTC calendar day; zero before the first activity.
	LastActivity time.Time `json:"last_activity"`
	// History maps a DateLayout day to the XP earned that day.
	History  map[string]int `json:"history"`
	Revision int64          `json:"revision"`
}

// Award describes what one activity earned.
type Award struct {
	XP             int  `json:"xp"`
	StreakExtended bool `json:"streak_extended"`
	// Milestone is the streak length just reached when it is one of the
	// celebrated lengths (5, 10, 15, 20, 25, ...), else 0.
	Milestone int    `json:"milestone,omitempty"`
	Rarity    Rarity `json:"rarity,omitempty"`
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a DateLayout string. The empty string yields the zero time.
func ParseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse activity date %q: %w", s, err)
	}
	return t, nil
}

// FormatDay is the inverse of ParseDay.
func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return Day(t).Format(DateLayout)
}

// Rules holds the tunable constants of the ledger.
type Rules struct {
	BaseXP int `mapstructure:"base_xp" yaml:"base_xp" validate:"gt=0"`
}

// DefaultRules awards 10 XP per difficulty point.
func DefaultRules() Rules {
	return Rules{BaseXP: 10}
}

// Advance computes the state after one activity on day today. It does not
// modify s. XP (BaseXP x difficulty) is only added when counted.
func (r Rules) Advance(s State, difficulty int, today time.Time, counted bool) (State, Award, error) {
	if difficulty < 1 || difficulty > 5 {
		return s, Award{}, ErrInvalidDifficulty
	}
	today = Day(today)

	next := s
	next.History = maps.Clone(s.History)
	if next.History == nil {
		next.History = make(map[string]int)
	}

	switch {
	case s.LastActivity.IsZero():
		next.CurrentStreak = 1
	default:
		gap := int(today.Sub(Day(s.LastActivity)).Hours() / 24)
		switch {
		case gap < 0:
			return s, Award{}, ErrActivityOutOfOrder
		case gap == 0:
			if next.CurrentStreak == 0 {
				next.CurrentStreak = 1
			}
		case gap == 1:
			next.CurrentStreak++
		default:
			next.CurrentStreak = 1
		}
	}
	next.LongestStreak = max(next.LongestStreak, next.CurrentStreak)
	next.LastActivity = today

	var award Award
	if counted {
		award.XP = r.BaseXP * difficulty
	}
	next.TotalXP += award.XP
	next.History[FormatDay(today)] += award.XP

	award.StreakExtended = next.CurrentStreak > s.CurrentStreak
	if award.StreakExtended && IsMilestone(next.CurrentStreak) {
		award.Milestone = next.CurrentStreak
		award.Rarity = StreakRarity(next.CurrentStreak)
	}
	return next, award, nil
}

// Advance applies DefaultRules.
func Advance(s State, difficulty int, today time.Time, counted bool) (State, Award, error) {
	return DefaultRules().Advance(s, difficulty, today, counted)
}
