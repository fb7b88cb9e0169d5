package graph

import (
	"sort"
	"time"
)

// PatternType distinguishes the two cluster detectors.
type PatternType string

const (
	PatternTemporalCluster PatternType = "temporal_cluster"
	PatternNetworkCluster  PatternType = "network_cluster"
)

// Pattern is an ephemeral cluster finding, recomputed on demand and never
// persisted as a mutable entity.
type Pattern struct {
	Type    PatternType
	NodeIDs []string
	Density float64

	// Temporal clusters only.
	WindowStart time.Time

	// Network clusters only: degree centrality restricted to the community.
	Centrality map[string]float64
}

const (
	// minTemporalCluster is the burst size a window must exceed to count.
	minTemporalCluster = 3

	// minCommunitySize is the smallest community worth reporting.
	minCommunitySize = 2

	// maxPartitionPasses bounds the community refinement loop.
	maxPartitionPasses = 20
)

// FindTemporalPatterns detects bursts of timestamped activity. Every
// timestamped node starts a candidate window of windowDays; windows holding
// more than minTemporalCluster nodes become temporal_cluster patterns with
// density = clusterSize / windowDays. Overlapping clusters are expected and
// deliberately not deduplicated; downstream ranking by density picks the
// informative ones.
func (g *Graph) FindTemporalPatterns(windowDays int) []Pattern {
	if windowDays <= 0 {
		return nil
	}

	timestamped := make([]*Node, 0, len(g.nodes))
	for _, id := range g.sortedNodeIDs() {
		if n := g.nodes[id]; !n.Timestamp.IsZero() {
			timestamped = append(timestamped, n)
		}
	}
	sort.SliceStable(timestamped, func(i, j int) bool {
		return timestamped[i].Timestamp.Before(timestamped[j].Timestamp)
	})

	var patterns []Pattern
	for i, start := range timestamped {
		var ids []string
		for _, n := range timestamped[i:] {
			days := int(n.Timestamp.Sub(start.Timestamp) / (24 * time.Hour))
			if days > windowDays {
				break
			}
			ids = append(ids, n.ID)
		}
		if len(ids) > minTemporalCluster {
			patterns = append(patterns, Pattern{
				Type:        PatternTemporalCluster,
				NodeIDs:     ids,
				Density:     float64(len(ids)) / float64(windowDays),
				WindowStart: start.Timestamp,
			})
		}
	}
	return patterns
}

// FindNetworkPatterns partitions the undirected projection of the graph into
// modularity-improving communities and reports each community larger than
// minCommunitySize as a network_cluster pattern with its directed-subgraph
// density and per-node degree centrality.
func (g *Graph) FindNetworkPatterns() []Pattern {
	communities := g.partition()

	var groups [][]string
	for _, members := range communities {
		if len(members) <= minCommunitySize {
			continue
		}
		sort.Strings(members)
		groups = append(groups, members)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i][0] < groups[j][0]
	})

	var patterns []Pattern
	for _, members := range groups {
		patterns = append(patterns, Pattern{
			Type:       PatternNetworkCluster,
			NodeIDs:    members,
			Density:    g.subgraphDensity(members),
			Centrality: g.subgraphCentrality(members),
		})
	}
	return patterns
}

// undirectedAdjacency projects directed edges onto symmetric weights. When
// both directions exist, the heavier one wins.
func (g *Graph) undirectedAdjacency() map[string]map[string]float64 {
	adj := make(map[string]map[string]float64, len(g.nodes))
	add := func(a, b string, w float64) {
		if adj[a] == nil {
			adj[a] = make(map[string]float64)
		}
		if w > adj[a][b] {
			adj[a][b] = w
		}
	}
	for _, e := range g.allEdges() {
		if e.SourceID == e.TargetID {
			continue
		}
		add(e.SourceID, e.TargetID, e.Weight)
		add(e.TargetID, e.SourceID, e.Weight)
	}
	return adj
}

// partition runs a single-level greedy modularity optimization (the local
// move phase of Louvain) over the undirected projection. Nodes are visited
// in lexical order so the partition is deterministic.
func (g *Graph) partition() map[int][]string {
	ids := g.sortedNodeIDs()
	adj := g.undirectedAdjacency()

	// Total edge weight and per-node weighted degree.
	degree := make(map[string]float64, len(ids))
	var m float64
	for _, id := range ids {
		for _, w := range adj[id] {
			degree[id] += w
			m += w
		}
	}
	m /= 2 // every undirected edge counted twice

	community := make(map[string]int, len(ids))
	for i, id := range ids {
		community[id] = i
	}

	if m > 0 {
		commTotal := make(map[int]float64, len(ids)) // sum of degrees per community
		for _, id := range ids {
			commTotal[community[id]] += degree[id]
		}

		for pass := 0; pass < maxPartitionPasses; pass++ {
			moved := false
			for _, id := range ids {
				current := community[id]
				commTotal[current] -= degree[id]

				// Weight from id into each neighboring community.
				weightTo := map[int]float64{current: 0}
				for nb, w := range adj[id] {
					if nb == id {
						continue
					}
					weightTo[community[nb]] += w
				}

				best, bestGain := current, modularityGain(weightTo[current], commTotal[current], degree[id], m)
				candidates := make([]int, 0, len(weightTo))
				for c := range weightTo {
					candidates = append(candidates, c)
				}
				sort.Ints(candidates)
				for _, c := range candidates {
					gain := modularityGain(weightTo[c], commTotal[c], degree[id], m)
					if gain > bestGain {
						best, bestGain = c, gain
					}
				}

				commTotal[best] += degree[id]
				if best != current {
					community[id] = best
					moved = true
				}
			}
			if !moved {
				break
			}
		}
	}

	out := make(map[int][]string)
	for _, id := range ids {
		out[community[id]] = append(out[community[id]], id)
	}
	return out
}

// modularityGain is the modularity delta of attaching a node with degree k
// to a community, given the node's edge weight into it and the community's
// total degree.
func modularityGain(weightIn, commTotal, k, m float64) float64 {
	return weightIn/m - commTotal*k/(2*m*m)
}

// subgraphDensity is directed density m/(n·(n-1)) over the induced subgraph.
func (g *Graph) subgraphDensity(members []string) float64 {
	n := len(members)
	if n < 2 {
		return 0
	}
	inSet := make(map[string]bool, n)
	for _, id := range members {
		inSet[id] = true
	}
	edges := 0
	for _, id := range members {
		for target := range g.edges[id] {
			if inSet[target] {
				edges++
			}
		}
	}
	return float64(edges) / float64(n*(n-1))
}

// subgraphCentrality is degree centrality (in+out over n-1) restricted to
// the induced subgraph.
func (g *Graph) subgraphCentrality(members []string) map[string]float64 {
	n := len(members)
	out := make(map[string]float64, n)
	if n < 2 {
		for _, id := range members {
			out[id] = 0
		}
		return out
	}
	inSet := make(map[string]bool, n)
	for _, id := range members {
		inSet[id] = true
	}
	deg := make(map[string]int, n)
	for _, id := range members {
		for target := range g.edges[id] {
			if inSet[target] {
				deg[id]++
				deg[target]++
			}
		}
	}
	for _, id := range members {
		out[id] = float64(deg[id]) / float64(n-1)
	}
	return out
}
