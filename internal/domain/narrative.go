package domain

import (
	"strings"
	"time"
)

// CoherenceRating grades how internally consistent a narrative currently is.
// Ratings follow a bond-style ordinal scale; RatingCollapsed is the terminal
// grade and forces any open position on the narrative to exit.
type CoherenceRating string

const (
	RatingAAA       CoherenceRating = "AAA"
	RatingAA        CoherenceRating = "AA"
	RatingA         CoherenceRating = "A"
	RatingBBB       CoherenceRating = "BBB"
	RatingBB        CoherenceRating = "BB"
	RatingCollapsed CoherenceRating = "D"
)

// Collapsed reports whether the rating has degraded to the worst grade.
func (r CoherenceRating) Collapsed() bool {
	return r == RatingCollapsed
}

// Multiplier returns the expected-profit multiplier for the rating.
// Unlisted grades (including collapsed) get the neutral 1.0.
func (r CoherenceRating) Multiplier() float64 {
	switch r {
	case RatingAAA:
		return 0.5
	case RatingAA:
		return 0.7
	case RatingA:
		return 1.0
	case RatingBBB:
		return 1.2
	case RatingBB:
		return 1.5
	default:
		return 1.0
	}
}

// NarrativeSnapshot is one observation of a narrative's market state.
// Snapshots are immutable; a newer snapshot for the same ID supersedes
// the previous one.
type NarrativeSnapshot struct {
	ID                string
	Content           string
	BeliefPenetration float64 // fraction of the audience that believes, [0,1]
	Volatility30d     float64 // 30-day volatility of belief penetration, >= 0
	CoherenceRating   CoherenceRating
	ObservedAt        time.Time
}

// Narrative exposure categories used by the performance report.
const (
	CategoryGeopolitical = "geopolitical"
	CategoryTechnology   = "technology"
	CategorySystemicRisk = "systemic_risk"
)

// CategorizeNarrative buckets a narrative into a fixed exposure category by
// keyword. Returns "" when no category matches; such narratives carry no
// categorized exposure.
func CategorizeNarrative(content string) string {
	switch {
	case strings.Contains(content, "BRICS"):
		return CategoryGeopolitical
	case strings.Contains(content, "AI"):
		return CategoryTechnology
	case strings.Contains(content, "collapse"):
		return CategorySystemicRisk
	default:
		return ""
	}
}
