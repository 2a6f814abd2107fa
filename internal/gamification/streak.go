package gamification

var streakThresholds = []int{5, 10, 15, 20}

// NextStreakThreshold returns the next streak milestone above current.
func NextStreakThreshold(current int) int {
	for _, t := range streakThresholds {
		if t > current {
			return t
		}
	}
	// Beyond 20, every 5.
	return ((current / 5) + 1) * 5
}

// IsMilestone reports whether a streak of length n is celebrated.
func IsMilestone(n int) bool {
	return n > 0 && NextStreakThreshold(n-1) == n
}

// Rarity grades a streak milestone.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// StreakRarity returns the rarity for a given streak length.
func StreakRarity(length int) Rarity {
	switch {
	case length >= 20:
		return RarityLegendary
	case length >= 15:
		return RarityEpic
	case length >= 10:
		return RarityRare
	default:
		return RarityCommon
	}
}
