package graphview

import (
	"reflect"
	"testing"
)

// twoClusters builds two tightly-knit triangles joined by one weak bridge
func twoClusters() *Graph {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		g.AddNode(id)
	}
	g.AddEdge("a", "b", 0.9)
	g.AddEdge("b", "c", 0.9)
	g.AddEdge("a", "c", 0.9)
	g.AddEdge("d", "e", 0.9)
	g.AddEdge("e", "f", 0.9)
	g.AddEdge("d", "f", 0.9)
	g.AddEdge("c", "d", 0.3)
	return g
}

func TestCommunities_SeparatesClusters(t *testing.T) {
	communities, err := Communities(twoClusters())
	if err != nil {
		t.Fatalf("Communities failed: %v", err)
	}

	if communities["a"] != communities["b"] || communities["b"] != communities["c"] {
		t.Errorf("Expected a,b,c in one community, got %v", communities)
	}
	if communities["d"] != communities["e"] || communities["e"] != communities["f"] {
		t.Errorf("Expected d,e,f in one community, got %v", communities)
	}
	if communities["a"] == communities["d"] {
		t.Errorf("Expected the triangles in different communities, got %v", communities)
	}

	// Dense renumbering in insertion order
	if communities["a"] != 0 || communities["d"] != 1 {
		t.Errorf("Expected dense ids 0 and 1, got %v", communities)
	}
}

func TestCommunities_Deterministic(t *testing.T) {
	first, err := Communities(twoClusters())
	if err != nil {
		t.Fatalf("Communities failed: %v", err)
	}
	second, err := Communities(twoClusters())
	if err != nil {
		t.Fatalf("Communities failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical partitions, got %v and %v", first, second)
	}
}

func TestCommunities_EmptyGraph(t *testing.T) {
	communities, err := Communities(NewGraph())
	if err != nil {
		t.Fatalf("Expected no error for empty graph, got %v", err)
	}
	if len(communities) != 0 {
		t.Errorf("Expected empty partition, got %v", communities)
	}
}

func TestCommunities_EdgelessGraphErrors(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")
	g.AddNode("b")

	_, err := Communities(g)
	if err != ErrNoEdges {
		t.Errorf("Expected ErrNoEdges, got %v", err)
	}
}
