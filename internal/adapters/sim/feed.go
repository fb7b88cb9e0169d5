// Package sim provides simulated adapters: a random-walk narrative feed,
// synthetic analyzers, a registry-backed arbiter, and an execution sink that
// fills every trade. Together they let the whole pipeline run end to end
// with no external services.
package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rawelabs/rawe/internal/domain"
)

// Random-walk parameters for the simulated feed.
const (
	beliefStepStddev     = 0.05
	volatilityStepStddev = 0.08
	collapseThreshold    = 0.05 // belief below this collapses the narrative
	downgradedThreshold  = 0.3
)

// NarrativeFeed is a simulated narrative source. Each Step advances every
// narrative's belief penetration and volatility by a random walk and
// re-derives its coherence rating from belief.
type NarrativeFeed struct {
	mu        sync.Mutex
	snapshots map[string]domain.NarrativeSnapshot
	order     []string
	rng       *rand.Rand
	now       func() time.Time
}

// NewNarrativeFeed seeds a feed with the given starting snapshots. The seed
// fixes the walk, so two feeds with equal seeds evolve identically.
func NewNarrativeFeed(seed int64, initial []domain.NarrativeSnapshot) *NarrativeFeed {
	f := &NarrativeFeed{
		snapshots: make(map[string]domain.NarrativeSnapshot, len(initial)),
		rng:       rand.New(rand.NewSource(seed)),
		now:       time.Now,
	}
	for _, snap := range initial {
		f.snapshots[snap.ID] = snap
		f.order = append(f.order, snap.ID)
	}
	return f
}

// DefaultNarratives returns the standard simulated universe.
func DefaultNarratives(now time.Time) []domain.NarrativeSnapshot {
	return []domain.NarrativeSnapshot{
		{
			ID:                "NARR_001",
			Content:           "BRICS nations accelerate de-dollarization push",
			BeliefPenetration: 0.62,
			Volatility30d:     0.45,
			CoherenceRating:   domain.RatingA,
			ObservedAt:        now,
		},
		{
			ID:                "NARR_002",
			Content:           "AI consciousness breakthrough claimed by research lab",
			BeliefPenetration: 0.38,
			Volatility30d:     0.72,
			CoherenceRating:   domain.RatingBB,
			ObservedAt:        now,
		},
		{
			ID:                "NARR_003",
			Content:           "Regional banking collapse contagion fears spread",
			BeliefPenetration: 0.55,
			Volatility30d:     0.58,
			CoherenceRating:   domain.RatingBBB,
			ObservedAt:        now,
		},
	}
}

// Snapshots returns the current snapshot of every narrative in seed order.
func (f *NarrativeFeed) Snapshots(_ context.Context) ([]domain.NarrativeSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.NarrativeSnapshot, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.snapshots[id])
	}
	return out, nil
}

// Get returns the current snapshot for one narrative.
func (f *NarrativeFeed) Get(_ context.Context, id string) (domain.NarrativeSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[id]
	return snap, ok
}

// Step advances every narrative one tick of the random walk.
func (f *NarrativeFeed) Step() {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now().UTC()
	for _, id := range f.order {
		snap := f.snapshots[id]
		snap.BeliefPenetration = clamp01(snap.BeliefPenetration + f.rng.NormFloat64()*beliefStepStddev)
		snap.Volatility30d = clampPositive(snap.Volatility30d + f.rng.NormFloat64()*volatilityStepStddev)
		snap.CoherenceRating = ratingForBelief(snap.BeliefPenetration, snap.CoherenceRating)
		snap.ObservedAt = now
		f.snapshots[id] = snap
	}
}

// ratingForBelief degrades a narrative's rating as belief drains away.
// Collapse is terminal: a collapsed narrative never recovers its grade.
func ratingForBelief(belief float64, current domain.CoherenceRating) domain.CoherenceRating {
	if current.Collapsed() {
		return current
	}
	switch {
	case belief < collapseThreshold:
		return domain.RatingCollapsed
	case belief < downgradedThreshold:
		return domain.RatingBB
	default:
		return current
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampPositive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
