package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "mindweave/backend/pkg/errors"
)

// ============================================================================
// Incremental Sync Operations
// ============================================================================

// UpsertContent mirrors a single content row into the graph: merges the
// Content node, then replaces its TAGGED_WITH edges with the deduplicated
// union of tags and auto-tags. A row that no longer exists in the store is
// a no-op, not an error, since deletes race with sync.
func (r *Repository) UpsertContent(ctx context.Context, contentID string) error {
	if !r.Available() {
		return nil
	}

	item, err := r.source.GetContent(ctx, contentID)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err = session.Run(ctx, `
		MERGE (c:Content {id: $id})
		SET c.title = $title, c.type = $type, c.userId = $userId`,
		map[string]interface{}{
			"id":     item.ID,
			"title":  item.Title,
			"type":   item.Type,
			"userId": item.UserID,
		})
	if err != nil {
		return apperrors.NewGraphOperationFailed("merge content node", contentID, err)
	}

	// Tag sets can shrink; an additive merge would leak stale edges.
	// Delete everything, then recreate.
	_, err = session.Run(ctx, `
		MATCH (c:Content {id: $id})-[r:TAGGED_WITH]->() DELETE r`,
		map[string]interface{}{"id": item.ID})
	if err != nil {
		return apperrors.NewGraphOperationFailed("delete tag edges", contentID, err)
	}

	tags := item.AllTags()
	if len(tags) > 0 {
		_, err = session.Run(ctx, `
			UNWIND $tags AS tagName
			MERGE (t:Tag {name: tagName})
			WITH t
			MATCH (c:Content {id: $id})
			MERGE (c)-[:TAGGED_WITH]->(t)`,
			map[string]interface{}{"tags": toInterfaceSlice(tags), "id": item.ID})
		if err != nil {
			return apperrors.NewGraphOperationFailed("create tag edges", contentID, err)
		}
	}

	r.logger.Debug("Content synced to graph",
		zap.String("content_id", contentID),
		zap.Int("tags", len(tags)),
	)
	return nil
}

// DeleteContent removes a content node and every edge touching it.
// Side-effect-free when the node is already absent.
func (r *Repository) DeleteContent(ctx context.Context, contentID string) error {
	if !r.Available() {
		return nil
	}

	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MATCH (c:Content {id: $id}) DETACH DELETE c`,
		map[string]interface{}{"id": contentID})
	if err != nil {
		return apperrors.NewGraphOperationFailed("delete content node", contentID, err)
	}

	r.logger.Debug("Content removed from graph", zap.String("content_id", contentID))
	return nil
}

// SyncSimilarityEdges recomputes a node's SIMILAR_TO edges from the vector
// store. This is a full replace, not a merge: a neighbor that dropped below
// threshold must lose its edge, which only recomputation can detect. A
// content item with no embedding yet is a no-op; embeddings lag creation.
func (r *Repository) SyncSimilarityEdges(ctx context.Context, contentID, userID string) error {
	if !r.Available() {
		return nil
	}

	hits, err := r.source.SimilarContent(ctx, contentID, userID, r.opts.MinSimilarity, r.opts.NeighborLimit)
	if err != nil {
		return err
	}
	// nil means no embedding exists; empty means the embedding exists but
	// nothing qualifies. Stale edges still have to go in the latter case.
	if hits == nil {
		return nil
	}

	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err = session.Run(ctx, `
		MATCH (c:Content {id: $id})-[r:SIMILAR_TO]-() DELETE r`,
		map[string]interface{}{"id": contentID})
	if err != nil {
		return apperrors.NewGraphOperationFailed("delete similarity edges", contentID, err)
	}

	if len(hits) > 0 {
		edges := make([]interface{}, 0, len(hits))
		for _, hit := range hits {
			src, dst := contentID, hit.ContentID
			if dst < src {
				src, dst = dst, src
			}
			edges = append(edges, map[string]interface{}{
				"source": src,
				"target": dst,
				"score":  hit.Score,
			})
		}

		_, err = session.Run(ctx, `
			UNWIND $edges AS edge
			MATCH (c1:Content {id: edge.source})
			MATCH (c2:Content {id: edge.target})
			MERGE (c1)-[r:SIMILAR_TO]->(c2)
			SET r.score = edge.score`,
			map[string]interface{}{"edges": edges})
		if err != nil {
			return apperrors.NewGraphOperationFailed("create similarity edges", contentID, err)
		}
	}

	r.logger.Debug("Similarity edges synced",
		zap.String("content_id", contentID),
		zap.String("user_id", userID),
		zap.Int("edges", len(hits)),
	)
	return nil
}
