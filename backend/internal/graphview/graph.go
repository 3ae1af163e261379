// Package graphview turns a node/edge list from the graph query layer into
// a rendering-ready structure: community assignment, centrality-based
// sizing, force-directed positions, and pure derived view state for hover
// and filtering. It never writes back to the graph store.
package graphview

import (
	"sort"

	"mindweave/backend/internal/graph"
)

// Graph is an in-memory undirected weighted graph
type Graph struct {
	nodes       []string
	adj         map[string]map[string]float64
	edgeCount   int
	totalWeight float64
}

// NewGraph returns an empty graph
func NewGraph() *Graph {
	return &Graph{adj: make(map[string]map[string]float64)}
}

// Build constructs a graph from query-layer data. Edges referencing unknown
// nodes and duplicate edges are skipped, matching the renderer's tolerance.
func Build(data *graph.Data) *Graph {
	g := NewGraph()
	for _, node := range data.Nodes {
		g.AddNode(node.ID)
	}
	for _, edge := range data.Edges {
		g.AddEdge(edge.Source, edge.Target, edge.Similarity)
	}
	return g
}

// AddNode adds a node if not already present
func (g *Graph) AddNode(id string) {
	if _, ok := g.adj[id]; ok {
		return
	}
	g.adj[id] = make(map[string]float64)
	g.nodes = append(g.nodes, id)
}

// AddEdge adds an undirected weighted edge. Returns false for self-loops,
// unknown endpoints, or duplicates.
func (g *Graph) AddEdge(a, b string, weight float64) bool {
	if a == b {
		return false
	}
	if _, ok := g.adj[a]; !ok {
		return false
	}
	if _, ok := g.adj[b]; !ok {
		return false
	}
	if _, ok := g.adj[a][b]; ok {
		return false
	}
	g.adj[a][b] = weight
	g.adj[b][a] = weight
	g.edgeCount++
	g.totalWeight += weight
	return true
}

// Order returns the node count
func (g *Graph) Order() int {
	return len(g.nodes)
}

// Size returns the edge count
func (g *Graph) Size() int {
	return g.edgeCount
}

// TotalWeight returns the sum of edge weights
func (g *Graph) TotalWeight() float64 {
	return g.totalWeight
}

// Nodes returns node ids in insertion order
func (g *Graph) Nodes() []string {
	return g.nodes
}

// HasNode reports whether id is in the graph
func (g *Graph) HasNode(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Neighbors returns the sorted direct neighbors of a node
func (g *Graph) Neighbors(id string) []string {
	neighbors := make([]string, 0, len(g.adj[id]))
	for n := range g.adj[id] {
		neighbors = append(neighbors, n)
	}
	sort.Strings(neighbors)
	return neighbors
}

// Weight returns the weight of edge (a,b), 0 when absent
func (g *Graph) Weight(a, b string) float64 {
	return g.adj[a][b]
}

// WeightedDegree returns the sum of weights of edges touching a node
func (g *Graph) WeightedDegree(id string) float64 {
	var deg float64
	for _, w := range g.adj[id] {
		deg += w
	}
	return deg
}
