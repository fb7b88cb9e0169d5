package graph

import "strings"

// MetadataAlignmentKey is the metadata key under which alignment scores are
// stored on a node.
const MetadataAlignmentKey = "alignment"

// SignatureSet maps a campaign label to the signature phrases associated
// with it.
type SignatureSet map[string][]string

// AlignmentScores scores content against each signature set: the fraction
// of the set's phrases present in the content. Labels with zero overlap are
// omitted.
func AlignmentScores(content string, signatures SignatureSet) map[string]float64 {
	lower := strings.ToLower(content)
	scores := make(map[string]float64)
	for label, phrases := range signatures {
		if len(phrases) == 0 {
			continue
		}
		hits := 0
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				hits++
			}
		}
		if hits > 0 {
			scores[label] = float64(hits) / float64(len(phrases))
		}
	}
	return scores
}

// EnrichAlignment computes alignment scores for a node's content and
// records them under MetadataAlignmentKey. Unknown IDs are ignored.
func (g *Graph) EnrichAlignment(id string, signatures SignatureSet) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	scores := AlignmentScores(n.Content, signatures)
	if len(scores) > 0 {
		g.EnrichMetadata(id, map[string]any{MetadataAlignmentKey: scores})
	}
}
