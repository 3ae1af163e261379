package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "mindweave/backend/pkg/errors"
)

// ============================================================================
// Full Resync
// ============================================================================

// FullSync clears a user's subgraph and rebuilds it from the store of
// record: content nodes, tag edges, then pairwise similarity edges capped
// at MaxEdges, strongest first. The phases are not transactional: a
// partial failure leaves a partially-rebuilt graph, and recovery is to run
// it again (the first statement clears unconditionally). Concurrent full
// syncs for the same user are unsafe; callers must serialize them.
func (r *Repository) FullSync(ctx context.Context, userID string) (*SyncResult, error) {
	result := &SyncResult{}
	if !r.Available() {
		return result, nil
	}

	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MATCH (c:Content {userId: $userId}) DETACH DELETE c`,
		map[string]interface{}{"userId": userID})
	if err != nil {
		return result, apperrors.NewGraphOperationFailed("clear user graph", userID, err)
	}

	items, err := r.source.ListContent(ctx, userID)
	if err != nil {
		return result, err
	}
	if len(items) == 0 {
		return result, nil
	}

	nodes := make([]interface{}, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, map[string]interface{}{
			"id":    item.ID,
			"title": item.Title,
			"type":  item.Type,
		})
	}
	_, err = session.Run(ctx, `
		UNWIND $items AS item
		CREATE (c:Content {id: item.id, title: item.title, type: item.type, userId: $userId})`,
		map[string]interface{}{"items": nodes, "userId": userID})
	if err != nil {
		return result, apperrors.NewGraphOperationFailed("create content nodes", userID, err)
	}
	result.NodesCreated = len(items)

	var tagEdges []interface{}
	for _, item := range items {
		for _, tag := range item.AllTags() {
			tagEdges = append(tagEdges, map[string]interface{}{
				"contentId": item.ID,
				"tag":       tag,
			})
		}
	}
	if len(tagEdges) > 0 {
		_, err = session.Run(ctx, `
			UNWIND $edges AS edge
			MERGE (t:Tag {name: edge.tag})
			WITH t, edge
			MATCH (c:Content {id: edge.contentId})
			CREATE (c)-[:TAGGED_WITH]->(t)`,
			map[string]interface{}{"edges": tagEdges})
		if err != nil {
			return result, apperrors.NewGraphOperationFailed("create tag edges", userID, err)
		}
	}
	result.EdgesCreated = len(tagEdges)

	pairs, err := r.source.PairSimilarities(ctx, userID, r.opts.MinSimilarity, r.opts.MaxEdges)
	if err != nil {
		return result, err
	}
	if len(pairs) > 0 {
		edges := make([]interface{}, 0, len(pairs))
		for _, pair := range pairs {
			edges = append(edges, map[string]interface{}{
				"source": pair.Source,
				"target": pair.Target,
				"score":  pair.Score,
			})
		}
		_, err = session.Run(ctx, `
			UNWIND $edges AS edge
			MATCH (c1:Content {id: edge.source})
			MATCH (c2:Content {id: edge.target})
			CREATE (c1)-[:SIMILAR_TO {score: edge.score}]->(c2)`,
			map[string]interface{}{"edges": edges})
		if err != nil {
			return result, apperrors.NewGraphOperationFailed("create similarity edges", userID, err)
		}
	}
	result.EdgesCreated += len(pairs)

	r.logger.Info("Full graph resync complete",
		zap.String("user_id", userID),
		zap.Int("nodes_created", result.NodesCreated),
		zap.Int("edges_created", result.EdgesCreated),
	)
	return result, nil
}
