package graph

import (
	"fmt"
	"time"
)

// HypothesisType distinguishes the two hypothesis generators.
type HypothesisType string

const (
	HypothesisUnexplainedConnection HypothesisType = "unexplained_connection"
	HypothesisTemporalAnomaly       HypothesisType = "temporal_anomaly"
)

// Hypothesis is an ephemeral, testable conjecture derived from the current
// graph state.
type Hypothesis struct {
	Type       HypothesisType
	SubjectIDs []string
	Strength   float64 // edge weight or pattern density
	Suggestion string

	// Temporal anomalies only.
	Period time.Time
}

const (
	// unexplainedWeight flags strong edges that carry no citations.
	unexplainedWeight = 0.8

	// anomalyDensity flags temporal clusters dense enough to look
	// coordinated.
	anomalyDensity = 0.5

	// hypothesisWindowDays is the burst window used by the anomaly rule.
	hypothesisWindowDays = 30
)

// GenerateHypotheses derives investigative hypotheses from the graph:
// strong edges without evidence become unexplained connections, and dense
// temporal clusters become temporal anomalies. The two rules run
// independently and their union is returned without deduplication; the
// same structure may legitimately surface through both.
func (g *Graph) GenerateHypotheses() []Hypothesis {
	var out []Hypothesis

	for _, e := range g.allEdges() {
		if e.Weight > unexplainedWeight && len(e.Evidence) == 0 {
			out = append(out, Hypothesis{
				Type:       HypothesisUnexplainedConnection,
				SubjectIDs: []string{e.SourceID, e.TargetID},
				Strength:   e.Weight,
				Suggestion: fmt.Sprintf("Investigate link between %s and %s", e.SourceID, e.TargetID),
			})
		}
	}

	for _, p := range g.FindTemporalPatterns(hypothesisWindowDays) {
		if p.Density > anomalyDensity {
			out = append(out, Hypothesis{
				Type:       HypothesisTemporalAnomaly,
				SubjectIDs: p.NodeIDs,
				Strength:   p.Density,
				Suggestion: "Investigate coordinated activity",
				Period:     p.WindowStart,
			})
		}
	}

	return out
}
