package graph

import (
	"context"

	"mindweave/backend/internal/store"
)

// ============================================================================
// Graph Mirror Types
// ============================================================================

// Node is a content node as returned by the query layer
type Node struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Type  string   `json:"type"`
	Tags  []string `json:"tags"`
}

// Edge is a similarity edge between two content nodes. Edges are
// undirected; Source always carries the lexicographically smaller id.
type Edge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Similarity float64 `json:"similarity"`
}

// Data is a node/edge list returned by the query layer
type Data struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// TagCluster groups content items sharing a tag
type TagCluster struct {
	Tag        string   `json:"tag"`
	ContentIDs []string `json:"content_ids"`
	Count      int      `json:"count"`
}

// SyncResult reports what a full resync created
type SyncResult struct {
	NodesCreated int `json:"nodes_created"`
	EdgesCreated int `json:"edges_created"`
}

// ContentSource is the store-of-record interface the sync engines read from.
// *store.Store satisfies it; tests substitute fakes.
type ContentSource interface {
	GetContent(ctx context.Context, id string) (*store.Content, error)
	ListContent(ctx context.Context, userID string) ([]store.Content, error)
	SimilarContent(ctx context.Context, contentID, userID string, minScore float64, limit int) ([]store.Similarity, error)
	PairSimilarities(ctx context.Context, userID string, minScore float64, maxPairs int) ([]store.PairSimilarity, error)
}

// Options tunes the similarity mirror
type Options struct {
	MinSimilarity float64 // edges below this score must not exist
	NeighborLimit int     // top-K neighbors on incremental sync
	MaxEdges      int     // similarity edge cap on full resync
}

// DefaultOptions returns the standard tuning
func DefaultOptions() Options {
	return Options{
		MinSimilarity: 0.3,
		NeighborLimit: 50,
		MaxEdges:      500,
	}
}
