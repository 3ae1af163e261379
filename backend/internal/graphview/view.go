package graphview

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mindweave/backend/internal/graph"
	"mindweave/backend/pkg/logger"
)

// Ten distinct community hues, cycled when detection finds more
var communityColors = []string{
	"#6366f1", // indigo
	"#ec4899", // pink
	"#14b8a6", // teal
	"#f97316", // orange
	"#8b5cf6", // violet
	"#22c55e", // green
	"#ef4444", // red
	"#06b6d4", // cyan
	"#eab308", // yellow
	"#64748b", // slate
}

var typeColors = map[string]string{
	"note": "#3b82f6",
	"link": "#22c55e",
	"file": "#f97316",
}

const defaultBorderColor = "#888"

// EnrichedNode is a query-layer node with analytics attached
type EnrichedNode struct {
	graph.Node
	Community   int     `json:"community"`
	Rank        float64 `json:"rank"`
	Size        float64 `json:"size"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Color       string  `json:"color"`
	BorderColor string  `json:"border_color"`
}

// EnrichedGraph is the rendering-ready analytics result
type EnrichedGraph struct {
	Nodes          []EnrichedNode `json:"nodes"`
	Edges          []graph.Edge   `json:"edges"`
	CommunityCount int            `json:"community_count"`

	g *Graph
}

// Enrich runs the three analytics stages over a query result. Each stage
// has an explicit fallback so analytics failure never blocks rendering:
// community detection falls back to a single community, centrality to a
// uniform 1/n score, layout to the random initial positions.
func Enrich(data *graph.Data, opts LayoutOptions) *EnrichedGraph {
	log := logger.Named("graphview")
	g := Build(data)
	n := g.Order()

	communities, err := detectCommunities(g)
	if err != nil {
		log.Warn("Community detection failed, using single community", zap.Error(err))
		communities = make(map[string]int, n)
		for _, id := range g.Nodes() {
			communities[id] = 0
		}
	}

	ranks, err := computePageRank(g)
	if err != nil {
		log.Warn("Centrality failed, using uniform scores", zap.Error(err))
		ranks = make(map[string]float64, n)
		for _, id := range g.Nodes() {
			ranks[id] = 1.0 / float64(n)
		}
	}
	normalized := normalizeRanks(ranks)

	positions := RandomPositions(g, opts.Seed)
	laidOut, err := ForceLayout(g, positions, opts)
	if err != nil {
		log.Warn("Layout failed, keeping random positions", zap.Error(err))
		laidOut = positions
	}

	seen := make(map[int]bool)
	nodes := make([]EnrichedNode, 0, len(data.Nodes))
	for _, node := range data.Nodes {
		community := communities[node.ID]
		seen[community] = true

		border, ok := typeColors[node.Type]
		if !ok {
			border = defaultBorderColor
		}

		nodes = append(nodes, EnrichedNode{
			Node:        node,
			Community:   community,
			Rank:        ranks[node.ID],
			Size:        6 + normalized[node.ID]*18,
			X:           laidOut[node.ID].X,
			Y:           laidOut[node.ID].Y,
			Color:       communityColors[community%len(communityColors)],
			BorderColor: border,
		})
	}

	return &EnrichedGraph{
		Nodes:          nodes,
		Edges:          data.Edges,
		CommunityCount: len(seen),
		g:              g,
	}
}

// detectCommunities converts internal panics to errors so the fallback
// covers them too
func detectCommunities(g *Graph) (communities map[string]int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("community detection panic: %v", r)
		}
	}()
	return Communities(g)
}

func computePageRank(g *Graph) (ranks map[string]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pagerank panic: %v", r)
		}
	}()
	return PageRank(g)
}

// ============================================================================
// Interactive View State
// ============================================================================

// ViewState derives hover and filter presentation from an enriched graph
// without mutating it, so nothing leaks between renders.
type ViewState struct {
	graph      *EnrichedGraph
	hovered    string
	search     string
	typeFilter string
}

// RenderNode is a node with presentation flags applied
type RenderNode struct {
	EnrichedNode
	Hidden      bool `json:"hidden"`
	Dimmed      bool `json:"dimmed"`
	Highlighted bool `json:"highlighted"`
}

// RenderEdge is an edge with presentation flags applied
type RenderEdge struct {
	graph.Edge
	Hidden bool `json:"hidden"`
}

// NewViewState creates view state over an enriched graph
func NewViewState(g *EnrichedGraph) *ViewState {
	return &ViewState{graph: g}
}

// SetHovered marks a node as hovered; empty clears the hover
func (v *ViewState) SetHovered(nodeID string) {
	v.hovered = nodeID
}

// SetSearch sets the free-text filter; empty clears it
func (v *ViewState) SetSearch(query string) {
	v.search = query
}

// SetTypeFilter sets the content-type filter; "" or "all" clears it
func (v *ViewState) SetTypeFilter(contentType string) {
	v.typeFilter = contentType
}

// Render computes the current presentation. The search and type filters
// compose: a node hidden by either stays hidden. Hovering highlights the
// node and its direct neighbors, dims the rest, and hides edges that do
// not connect two members of the neighbor set.
func (v *ViewState) Render() ([]RenderNode, []RenderEdge) {
	var neighborSet map[string]bool
	if v.hovered != "" && v.graph.g.HasNode(v.hovered) {
		neighborSet = make(map[string]bool)
		neighborSet[v.hovered] = true
		for _, n := range v.graph.g.Neighbors(v.hovered) {
			neighborSet[n] = true
		}
	}

	hidden := make(map[string]bool, len(v.graph.Nodes))
	nodes := make([]RenderNode, 0, len(v.graph.Nodes))
	for _, node := range v.graph.Nodes {
		rn := RenderNode{EnrichedNode: node}
		rn.Hidden = v.hiddenBySearch(&node) || v.hiddenByType(&node)
		hidden[node.ID] = rn.Hidden
		if neighborSet != nil {
			if neighborSet[node.ID] {
				rn.Highlighted = true
			} else {
				rn.Dimmed = true
			}
		}
		nodes = append(nodes, rn)
	}

	edges := make([]RenderEdge, 0, len(v.graph.Edges))
	for _, edge := range v.graph.Edges {
		re := RenderEdge{Edge: edge}
		re.Hidden = hidden[edge.Source] || hidden[edge.Target]
		if neighborSet != nil && (!neighborSet[edge.Source] || !neighborSet[edge.Target]) {
			re.Hidden = true
		}
		edges = append(edges, re)
	}

	return nodes, edges
}

func (v *ViewState) hiddenBySearch(node *EnrichedNode) bool {
	if v.search == "" {
		return false
	}
	query := strings.ToLower(v.search)
	if strings.Contains(strings.ToLower(node.Title), query) {
		return false
	}
	for _, tag := range node.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return false
		}
	}
	return true
}

func (v *ViewState) hiddenByType(node *EnrichedNode) bool {
	if v.typeFilter == "" || v.typeFilter == "all" {
		return false
	}
	return node.Type != v.typeFilter
}
