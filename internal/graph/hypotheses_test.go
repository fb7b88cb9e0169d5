package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateHypotheses_EmptyGraph(t *testing.T) {
	assert.Empty(t, New().GenerateHypotheses())
}

func TestGenerateHypotheses_UnexplainedConnection(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "shell_co"})
	g.AddNode(Node{ID: "official"})
	require.NoError(t, g.AddEdge("shell_co", "official", "payments", 0.95, nil))

	hyps := g.GenerateHypotheses()
	require.Len(t, hyps, 1)
	h := hyps[0]
	assert.Equal(t, HypothesisUnexplainedConnection, h.Type)
	assert.Equal(t, []string{"shell_co", "official"}, h.SubjectIDs)
	assert.Equal(t, 0.95, h.Strength)
	assert.Equal(t, "Investigate link between shell_co and official", h.Suggestion)
}

func TestGenerateHypotheses_EvidencedEdgeIsExplained(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	require.NoError(t, g.AddEdge("a", "b", "payments", 0.95, []string{"bank-records"}))

	assert.Empty(t, g.GenerateHypotheses())
}

func TestGenerateHypotheses_WeightAtThresholdIsNotFlagged(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	require.NoError(t, g.AddEdge("a", "b", "payments", 0.8, nil))

	assert.Empty(t, g.GenerateHypotheses())
}

func TestGenerateHypotheses_TemporalAnomaly(t *testing.T) {
	g := New()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	// 16 nodes in one day → density 16/30 > 0.5.
	for i := 0; i < 16; i++ {
		id := string(rune('a' + i))
		g.AddNode(Node{ID: id, Content: id, Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}

	hyps := g.GenerateHypotheses()
	require.NotEmpty(t, hyps)
	h := hyps[0]
	assert.Equal(t, HypothesisTemporalAnomaly, h.Type)
	assert.Len(t, h.SubjectIDs, 16)
	assert.Equal(t, "Investigate coordinated activity", h.Suggestion)
	assert.Equal(t, base, h.Period)
}

func TestGenerateHypotheses_SparseBurstBelowDensity(t *testing.T) {
	g := New()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	// 4 nodes across 20 days: a burst, but density 4/30 < 0.5.
	for i := 0; i < 4; i++ {
		id := string(rune('a' + i))
		g.AddNode(Node{ID: id, Content: id, Timestamp: base.AddDate(0, 0, i*5)})
	}

	assert.Empty(t, g.GenerateHypotheses())
}

func TestGenerateHypotheses_BothRulesAccumulate(t *testing.T) {
	g := New()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 16; i++ {
		id := string(rune('a' + i))
		g.AddNode(Node{ID: id, Content: id, Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}
	require.NoError(t, g.AddEdge("a", "b", "linked", 0.9, nil))

	hyps := g.GenerateHypotheses()

	var connections, anomalies int
	for _, h := range hyps {
		switch h.Type {
		case HypothesisUnexplainedConnection:
			connections++
		case HypothesisTemporalAnomaly:
			anomalies++
		}
	}
	assert.Equal(t, 1, connections)
	assert.Greater(t, anomalies, 0)
}

// --- alignment ---

func TestAlignmentScores_FractionOfPhrases(t *testing.T) {
	sigs := SignatureSet{
		"campaign_x": {"dedollarization", "gold backing"},
		"campaign_y": {"lab leak"},
	}
	scores := AlignmentScores("BRICS Dedollarization push gains steam", sigs)
	assert.InDelta(t, 0.5, scores["campaign_x"], 0.0001)
	_, present := scores["campaign_y"]
	assert.False(t, present)
}

func TestEnrichAlignment_StoresScores(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "n1", Content: "gold backing announced"})
	g.EnrichAlignment("n1", SignatureSet{"campaign_x": {"gold backing"}})

	n, _ := g.Node("n1")
	scores, ok := n.Metadata[MetadataAlignmentKey].(map[string]float64)
	require.True(t, ok)
	assert.Equal(t, 1.0, scores["campaign_x"])
}

func TestEnrichAlignment_UnknownNodeIgnored(t *testing.T) {
	g := New()
	g.EnrichAlignment("ghost", SignatureSet{"x": {"y"}})
	assert.Equal(t, 0, g.NodeCount())
}
