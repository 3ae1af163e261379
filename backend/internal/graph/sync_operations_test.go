package graph

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"mindweave/backend/internal/store"
)

func TestUpsertContent_MergesNodeAndReplacesTagEdges(t *testing.T) {
	source := &fakeSource{content: map[string]*store.Content{
		"c1": {ID: "c1", UserID: "u1", Title: "Go notes", Type: "note",
			Tags: []string{"go", "concurrency"}, AutoTags: []string{"go", "programming"}},
	}}
	session := &fakeSession{}
	repo := newFakeRepository(source, session)

	if err := repo.UpsertContent(context.Background(), "c1"); err != nil {
		t.Fatalf("UpsertContent failed: %v", err)
	}

	if len(session.calls) != 3 {
		t.Fatalf("Expected 3 statements, got %d", len(session.calls))
	}
	if session.closed != 1 {
		t.Errorf("Expected session closed once, got %d", session.closed)
	}

	merge := session.calls[0]
	if !strings.Contains(merge.cypher, "MERGE (c:Content {id: $id})") {
		t.Errorf("First statement should merge the content node, got %q", merge.cypher)
	}
	if merge.params["userId"] != "u1" || merge.params["title"] != "Go notes" {
		t.Errorf("Unexpected merge params: %v", merge.params)
	}

	// Stale tag edges must be deleted before new ones are created
	if !strings.Contains(session.calls[1].cypher, "TAGGED_WITH]->() DELETE r") {
		t.Errorf("Second statement should delete old tag edges, got %q", session.calls[1].cypher)
	}

	create := session.calls[2]
	wantTags := []interface{}{"go", "concurrency", "programming"}
	if !reflect.DeepEqual(create.params["tags"], wantTags) {
		t.Errorf("Expected deduplicated tag union %v, got %v", wantTags, create.params["tags"])
	}
}

func TestUpsertContent_IdempotentStatementSequence(t *testing.T) {
	source := &fakeSource{content: map[string]*store.Content{
		"c1": {ID: "c1", UserID: "u1", Title: "Note", Type: "note", Tags: []string{"a"}},
	}}
	session := &fakeSession{}
	repo := newFakeRepository(source, session)

	for i := 0; i < 2; i++ {
		if err := repo.UpsertContent(context.Background(), "c1"); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	// Delete precedes create on every run, so re-running cannot leave
	// duplicate edges
	if len(session.calls) != 6 {
		t.Fatalf("Expected 6 statements over two runs, got %d", len(session.calls))
	}
	for _, base := range []int{0, 3} {
		if !strings.Contains(session.calls[base+1].cypher, "DELETE r") {
			t.Errorf("Run starting at %d missing tag edge delete", base)
		}
	}
}

func TestUpsertContent_MissingRowIsNoOp(t *testing.T) {
	session := &fakeSession{}
	repo := newFakeRepository(&fakeSource{}, session)

	if err := repo.UpsertContent(context.Background(), "gone"); err != nil {
		t.Fatalf("Expected nil error for missing content, got %v", err)
	}
	if len(session.calls) != 0 {
		t.Errorf("Expected no graph statements for missing content, got %d", len(session.calls))
	}
}

func TestUpsertContent_NoTagsSkipsTagStatement(t *testing.T) {
	source := &fakeSource{content: map[string]*store.Content{
		"c1": {ID: "c1", UserID: "u1", Title: "Untagged", Type: "link"},
	}}
	session := &fakeSession{}
	repo := newFakeRepository(source, session)

	if err := repo.UpsertContent(context.Background(), "c1"); err != nil {
		t.Fatalf("UpsertContent failed: %v", err)
	}
	// Merge + delete only; nothing to create
	if len(session.calls) != 2 {
		t.Fatalf("Expected 2 statements, got %d", len(session.calls))
	}
}

func TestDeleteContent_DetachDeletes(t *testing.T) {
	session := &fakeSession{}
	repo := newFakeRepository(&fakeSource{}, session)

	if err := repo.DeleteContent(context.Background(), "c1"); err != nil {
		t.Fatalf("DeleteContent failed: %v", err)
	}
	call := session.queryContaining("DETACH DELETE")
	if call == nil {
		t.Fatal("Expected a DETACH DELETE statement")
	}
	if call.params["id"] != "c1" {
		t.Errorf("Expected id param c1, got %v", call.params["id"])
	}
}

func TestSyncSimilarityEdges_NoEmbeddingIsNoOp(t *testing.T) {
	// fakeSource returns nil for unknown ids, as if no embedding was generated
	session := &fakeSession{}
	repo := newFakeRepository(&fakeSource{similar: map[string][]store.Similarity{}}, session)

	if err := repo.SyncSimilarityEdges(context.Background(), "c1", "u1"); err != nil {
		t.Fatalf("Expected nil error for missing embedding, got %v", err)
	}
	if len(session.calls) != 0 {
		t.Errorf("Expected no graph statements, got %d", len(session.calls))
	}
}

func TestSyncSimilarityEdges_ReplacesEdges(t *testing.T) {
	source := &fakeSource{similar: map[string][]store.Similarity{
		"c1": {{ContentID: "c2", Score: 0.8}, {ContentID: "c3", Score: 0.5}},
	}}
	session := &fakeSession{}
	repo := newFakeRepository(source, session)

	if err := repo.SyncSimilarityEdges(context.Background(), "c1", "u1"); err != nil {
		t.Fatalf("SyncSimilarityEdges failed: %v", err)
	}

	if len(session.calls) != 2 {
		t.Fatalf("Expected delete + create, got %d statements", len(session.calls))
	}
	if !strings.Contains(session.calls[0].cypher, "SIMILAR_TO]-() DELETE r") {
		t.Errorf("First statement should delete old similarity edges, got %q", session.calls[0].cypher)
	}
	edges := session.calls[1].params["edges"].([]interface{})
	if len(edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(edges))
	}
}

func TestSyncSimilarityEdges_AllNeighborsBelowThreshold(t *testing.T) {
	// Embedding exists but nothing qualifies: stale edges must still be
	// deleted, and nothing recreated
	source := &fakeSource{similar: map[string][]store.Similarity{
		"c1": {},
	}}
	// Force the map entry to be non-nil but empty
	source.similar["c1"] = []store.Similarity{}
	session := &fakeSession{}
	repo := newFakeRepository(source, session)

	if err := repo.SyncSimilarityEdges(context.Background(), "c1", "u1"); err != nil {
		t.Fatalf("SyncSimilarityEdges failed: %v", err)
	}
	if len(session.calls) != 1 {
		t.Fatalf("Expected exactly the delete statement, got %d", len(session.calls))
	}
	if !strings.Contains(session.calls[0].cypher, "DELETE r") {
		t.Errorf("Expected delete statement, got %q", session.calls[0].cypher)
	}
}

func TestSyncSimilarityEdges_CanonicalPairOrder(t *testing.T) {
	source := &fakeSource{similar: map[string][]store.Similarity{
		"z9": {{ContentID: "a1", Score: 0.7}},
	}}
	session := &fakeSession{}
	repo := newFakeRepository(source, session)

	if err := repo.SyncSimilarityEdges(context.Background(), "z9", "u1"); err != nil {
		t.Fatalf("SyncSimilarityEdges failed: %v", err)
	}

	edges := session.calls[1].params["edges"].([]interface{})
	edge := edges[0].(map[string]interface{})
	if edge["source"] != "a1" || edge["target"] != "z9" {
		t.Errorf("Expected canonical pair (a1, z9), got (%v, %v)", edge["source"], edge["target"])
	}
}

func TestSyncOperations_UnavailableIsNoOp(t *testing.T) {
	repo := NewRepository(nil, &fakeSource{}, DefaultOptions())
	ctx := context.Background()

	if err := repo.UpsertContent(ctx, "c1"); err != nil {
		t.Errorf("UpsertContent should no-op when unavailable, got %v", err)
	}
	if err := repo.DeleteContent(ctx, "c1"); err != nil {
		t.Errorf("DeleteContent should no-op when unavailable, got %v", err)
	}
	if err := repo.SyncSimilarityEdges(ctx, "c1", "u1"); err != nil {
		t.Errorf("SyncSimilarityEdges should no-op when unavailable, got %v", err)
	}
}
