// Package graph implements the investigative pattern graph: a weighted
// directed graph over typed nodes that detects temporal and structural
// clusters and turns unexplained structure into testable hypotheses.
package graph

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// NodeType classifies what an investigative node represents.
type NodeType string

const (
	NodeEntity   NodeType = "entity"
	NodeEvent    NodeType = "event"
	NodeConcept  NodeType = "concept"
	NodeEvidence NodeType = "evidence"
)

// Node is an investigative entity, event, concept, or piece of evidence.
// Nodes are created on ingestion and never deleted within a session; only
// Metadata may be enriched after creation.
type Node struct {
	ID         string
	Content    string
	Type       NodeType
	Timestamp  time.Time // zero = untimestamped
	Confidence float64   // [0,1]
	Sources    []string
	Metadata   map[string]any
}

// Edge is a directed, weighted, evidenced connection between two nodes.
// At most one edge exists per ordered pair; re-adding overwrites.
type Edge struct {
	SourceID     string
	TargetID     string
	Relationship string
	Weight       float64 // [0,1]
	Evidence     []string
}

// UnknownNodeError reports an edge referencing a node that is not in the
// graph. Fatal to the call, not to the process.
type UnknownNodeError struct {
	NodeID string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("graph: unknown node %q", e.NodeID)
}

// NodeID derives a stable short identifier from node content.
func NodeID(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:8]
}

// Graph is the in-memory pattern graph. Not safe for concurrent use; the
// owning component serializes access.
type Graph struct {
	nodes map[string]*Node
	edges map[string]map[string]*Edge // source -> target -> edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string]map[string]*Edge),
	}
}

// AddNode inserts or overwrites a node by ID. Duplicate IDs are upserts,
// not errors.
func (g *Graph) AddNode(n Node) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	g.nodes[n.ID] = &n
}

// Node returns the node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, targets := range g.edges {
		total += len(targets)
	}
	return total
}

// AddEdge connects two existing nodes. Both endpoints must already be in
// the graph; otherwise an UnknownNodeError for the missing endpoint is
// returned. An edge for the same ordered pair overwrites the previous one.
func (g *Graph) AddEdge(sourceID, targetID, relationship string, weight float64, evidence []string) error {
	if _, ok := g.nodes[sourceID]; !ok {
		return &UnknownNodeError{NodeID: sourceID}
	}
	if _, ok := g.nodes[targetID]; !ok {
		return &UnknownNodeError{NodeID: targetID}
	}
	if g.edges[sourceID] == nil {
		g.edges[sourceID] = make(map[string]*Edge)
	}
	g.edges[sourceID][targetID] = &Edge{
		SourceID:     sourceID,
		TargetID:     targetID,
		Relationship: relationship,
		Weight:       weight,
		Evidence:     evidence,
	}
	return nil
}

// Edge returns the edge for the ordered pair, if present.
func (g *Graph) Edge(sourceID, targetID string) (*Edge, bool) {
	e, ok := g.edges[sourceID][targetID]
	return e, ok
}

// EnrichMetadata merges the given keys into a node's metadata map.
// Unknown node IDs are ignored; enrichment is best-effort.
func (g *Graph) EnrichMetadata(id string, meta map[string]any) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for k, v := range meta {
		n.Metadata[k] = v
	}
}

// sortedNodeIDs returns all node IDs in lexical order. Iteration order over
// maps is randomized; every derived computation sorts first so results are
// deterministic.
func (g *Graph) sortedNodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// allEdges returns every edge, ordered by (source, target).
func (g *Graph) allEdges() []*Edge {
	out := make([]*Edge, 0, g.EdgeCount())
	for _, src := range g.sortedNodeIDs() {
		targets := g.edges[src]
		ids := make([]string, 0, len(targets))
		for id := range targets {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			out = append(out, targets[id])
		}
	}
	return out
}

// VizNode and VizEdge are the fixed-field records handed to external
// renderers. Field names are a contract; rendering is out of scope.
type VizNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type VizEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// VisualizationData flattens the graph into plain node/edge lists.
func (g *Graph) VisualizationData() ([]VizNode, []VizEdge) {
	nodes := make([]VizNode, 0, len(g.nodes))
	for _, id := range g.sortedNodeIDs() {
		n := g.nodes[id]
		nodes = append(nodes, VizNode{ID: n.ID, Label: n.Content, Type: string(n.Type)})
	}
	edges := make([]VizEdge, 0, g.EdgeCount())
	for _, e := range g.allEdges() {
		edges = append(edges, VizEdge{Source: e.SourceID, Target: e.TargetID, Weight: e.Weight})
	}
	return nodes, edges
}
