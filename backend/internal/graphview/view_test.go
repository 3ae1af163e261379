package graphview

import (
	"math"
	"testing"

	"mindweave/backend/internal/graph"
)

func clusteredData() *graph.Data {
	return &graph.Data{
		Nodes: []graph.Node{
			{ID: "a", Title: "Go Concurrency", Type: "note", Tags: []string{"go"}},
			{ID: "b", Title: "Go Channels", Type: "note", Tags: []string{"go"}},
			{ID: "c", Title: "Goroutine Patterns", Type: "link", Tags: []string{"go", "patterns"}},
			{ID: "d", Title: "React Hooks", Type: "note", Tags: []string{"react"}},
			{ID: "e", Title: "React State", Type: "link", Tags: []string{"react"}},
			{ID: "f", Title: "Component design.pdf", Type: "file", Tags: []string{"react"}},
		},
		Edges: []graph.Edge{
			{Source: "a", Target: "b", Similarity: 0.9},
			{Source: "b", Target: "c", Similarity: 0.9},
			{Source: "a", Target: "c", Similarity: 0.9},
			{Source: "d", Target: "e", Similarity: 0.9},
			{Source: "e", Target: "f", Similarity: 0.9},
			{Source: "d", Target: "f", Similarity: 0.9},
			{Source: "c", Target: "d", Similarity: 0.3},
		},
	}
}

func TestEnrich_AttachesAnalytics(t *testing.T) {
	opts := DefaultLayoutOptions()
	opts.Seed = 42

	enriched := Enrich(clusteredData(), opts)

	if len(enriched.Nodes) != 6 {
		t.Fatalf("Expected 6 enriched nodes, got %d", len(enriched.Nodes))
	}
	if enriched.CommunityCount != 2 {
		t.Errorf("Expected 2 communities, got %d", enriched.CommunityCount)
	}
	if len(enriched.Edges) != 7 {
		t.Errorf("Expected edges passed through, got %d", len(enriched.Edges))
	}

	byID := make(map[string]EnrichedNode)
	var rankSum float64
	for _, node := range enriched.Nodes {
		byID[node.ID] = node
		rankSum += node.Rank

		if node.Size < 6 || node.Size > 24 {
			t.Errorf("Size for %s outside visual range: %v", node.ID, node.Size)
		}
		if node.Color == "" {
			t.Errorf("Missing community color for %s", node.ID)
		}
		if node.Community == byID["a"].Community {
			if node.Color != byID["a"].Color {
				t.Errorf("Same community, different color: %s vs a", node.ID)
			}
		}
	}
	if math.Abs(rankSum-1) > 1e-3 {
		t.Errorf("Expected ranks to sum to 1, got %v", rankSum)
	}

	if byID["a"].Community == byID["d"].Community {
		t.Error("Expected the two clusters in different communities")
	}
	if byID["a"].BorderColor != typeColors["note"] {
		t.Errorf("Expected note border color, got %s", byID["a"].BorderColor)
	}
	if byID["c"].BorderColor != typeColors["link"] {
		t.Errorf("Expected link border color, got %s", byID["c"].BorderColor)
	}
	if byID["f"].BorderColor != typeColors["file"] {
		t.Errorf("Expected file border color, got %s", byID["f"].BorderColor)
	}
}

func TestEnrich_UnknownTypeGetsDefaultBorder(t *testing.T) {
	data := &graph.Data{
		Nodes: []graph.Node{
			{ID: "a", Title: "A", Type: "mystery"},
			{ID: "b", Title: "B", Type: "note"},
		},
		Edges: []graph.Edge{{Source: "a", Target: "b", Similarity: 0.5}},
	}

	enriched := Enrich(data, DefaultLayoutOptions())
	if enriched.Nodes[0].BorderColor != defaultBorderColor {
		t.Errorf("Expected default border for unknown type, got %s", enriched.Nodes[0].BorderColor)
	}
}

func TestEnrich_EdgelessGraphFallsBack(t *testing.T) {
	data := &graph.Data{
		Nodes: []graph.Node{
			{ID: "a", Title: "A", Type: "note"},
			{ID: "b", Title: "B", Type: "note"},
			{ID: "c", Title: "C", Type: "note"},
		},
		Edges: []graph.Edge{},
	}

	enriched := Enrich(data, DefaultLayoutOptions())

	if enriched.CommunityCount != 1 {
		t.Errorf("Expected single fallback community, got %d", enriched.CommunityCount)
	}
	for _, node := range enriched.Nodes {
		if node.Community != 0 {
			t.Errorf("Expected fallback community 0 for %s, got %d", node.ID, node.Community)
		}
		if math.Abs(node.Rank-1.0/3) > 1e-3 {
			t.Errorf("Expected uniform rank for %s, got %v", node.ID, node.Rank)
		}
		if node.Size != 6 {
			t.Errorf("Expected minimum size for flat ranks, got %v", node.Size)
		}
	}
}

func TestEnrich_EmptyGraph(t *testing.T) {
	enriched := Enrich(&graph.Data{Nodes: []graph.Node{}, Edges: []graph.Edge{}}, DefaultLayoutOptions())
	if len(enriched.Nodes) != 0 {
		t.Errorf("Expected no nodes, got %d", len(enriched.Nodes))
	}
	if enriched.CommunityCount != 0 {
		t.Errorf("Expected zero communities, got %d", enriched.CommunityCount)
	}
}

func TestViewState_HoverHighlightsNeighborhood(t *testing.T) {
	view := NewViewState(Enrich(clusteredData(), DefaultLayoutOptions()))
	view.SetHovered("a")

	nodes, edges := view.Render()

	flags := make(map[string]RenderNode)
	for _, node := range nodes {
		flags[node.ID] = node
	}
	for _, id := range []string{"a", "b", "c"} {
		if !flags[id].Highlighted || flags[id].Dimmed {
			t.Errorf("Expected %s highlighted, got %+v", id, flags[id])
		}
	}
	for _, id := range []string{"d", "e", "f"} {
		if flags[id].Highlighted || !flags[id].Dimmed {
			t.Errorf("Expected %s dimmed, got %+v", id, flags[id])
		}
	}

	for _, edge := range edges {
		withinHover := edge.Source != "d" && edge.Source != "e" && edge.Source != "f" &&
			edge.Target != "d" && edge.Target != "e" && edge.Target != "f"
		if withinHover && edge.Hidden {
			t.Errorf("Expected edge %s-%s visible under hover", edge.Source, edge.Target)
		}
		if !withinHover && !edge.Hidden {
			t.Errorf("Expected edge %s-%s hidden under hover", edge.Source, edge.Target)
		}
	}

	// Clearing the hover resets presentation
	view.SetHovered("")
	nodes, edges = view.Render()
	for _, node := range nodes {
		if node.Dimmed || node.Highlighted || node.Hidden {
			t.Errorf("Expected clean state for %s, got %+v", node.ID, node)
		}
	}
	for _, edge := range edges {
		if edge.Hidden {
			t.Errorf("Expected edge %s-%s visible, got hidden", edge.Source, edge.Target)
		}
	}
}

func TestViewState_HoverUnknownNodeIsIgnored(t *testing.T) {
	view := NewViewState(Enrich(clusteredData(), DefaultLayoutOptions()))
	view.SetHovered("ghost")

	nodes, _ := view.Render()
	for _, node := range nodes {
		if node.Dimmed || node.Highlighted {
			t.Errorf("Expected no hover effect for unknown node, got %+v", node)
		}
	}
}

func TestViewState_SearchFiltersTitleAndTags(t *testing.T) {
	view := NewViewState(Enrich(clusteredData(), DefaultLayoutOptions()))
	view.SetSearch("REACT")

	nodes, edges := view.Render()
	for _, node := range nodes {
		matched := node.ID == "d" || node.ID == "e" || node.ID == "f"
		if matched && node.Hidden {
			t.Errorf("Expected %s visible for search, got hidden", node.ID)
		}
		if !matched && !node.Hidden {
			t.Errorf("Expected %s hidden for search", node.ID)
		}
	}
	for _, edge := range edges {
		visible := !edge.Hidden
		withinMatch := (edge.Source == "d" || edge.Source == "e" || edge.Source == "f") &&
			(edge.Target == "d" || edge.Target == "e" || edge.Target == "f")
		if visible != withinMatch {
			t.Errorf("Edge %s-%s visibility %v, expected %v", edge.Source, edge.Target, visible, withinMatch)
		}
	}

	// Tag match keeps a node visible even when the title misses
	view.SetSearch("patterns")
	nodes, _ = view.Render()
	for _, node := range nodes {
		if node.ID == "c" && node.Hidden {
			t.Error("Expected tag match to keep c visible")
		}
		if node.ID == "a" && !node.Hidden {
			t.Error("Expected a hidden for unmatched search")
		}
	}
}

func TestViewState_FiltersCompose(t *testing.T) {
	view := NewViewState(Enrich(clusteredData(), DefaultLayoutOptions()))
	view.SetSearch("go")
	view.SetTypeFilter("link")

	nodes, _ := view.Render()
	for _, node := range nodes {
		// Only c matches both the search and the type filter
		if node.ID == "c" {
			if node.Hidden {
				t.Error("Expected c visible under combined filters")
			}
			continue
		}
		if !node.Hidden {
			t.Errorf("Expected %s hidden under combined filters", node.ID)
		}
	}

	view.SetTypeFilter("all")
	view.SetSearch("")
	nodes, _ = view.Render()
	for _, node := range nodes {
		if node.Hidden {
			t.Errorf("Expected %s visible after clearing filters", node.ID)
		}
	}
}
