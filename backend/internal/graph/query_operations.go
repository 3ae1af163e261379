package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Read-Only Query Layer
// ============================================================================

// GetFullGraph returns a user's similarity edges with score >= minSimilarity,
// strongest first, capped at limit, plus details for every node referenced
// by a returned edge. Nodes with no qualifying edge are omitted; this is a
// relationship graph, not an inventory list. Returns (nil, nil) when the
// graph store is unavailable.
func (r *Repository) GetFullGraph(ctx context.Context, userID string, minSimilarity float64, limit int) (*Data, error) {
	if !r.Available() {
		return nil, nil
	}

	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.Run(ctx, `
		MATCH (c1:Content {userId: $userId})-[r:SIMILAR_TO]-(c2:Content {userId: $userId})
		WHERE r.score >= $minSimilarity AND c1.id < c2.id
		RETURN c1.id AS source, c2.id AS target, r.score AS similarity
		ORDER BY r.score DESC
		LIMIT $limit`,
		map[string]interface{}{
			"userId":        userID,
			"minSimilarity": minSimilarity,
			"limit":         limit,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query graph edges: %w", err)
	}

	edges := collectEdges(records)
	if len(edges) == 0 {
		// Skip the node query entirely when nothing qualifies
		return &Data{Nodes: []Node{}, Edges: []Edge{}}, nil
	}

	nodes, err := r.fetchNodeDetails(ctx, session, userID, edgeNodeIDs(edges))
	if err != nil {
		return nil, err
	}

	return &Data{Nodes: nodes, Edges: edges}, nil
}

// GetNodeNeighborhood returns every similarity edge reachable within hops
// hops of nodeID inside the user's subgraph, plus details for every node
// touched. hops is clamped to 1..5 to bound path expansion.
func (r *Repository) GetNodeNeighborhood(ctx context.Context, nodeID, userID string, hops int) (*Data, error) {
	if !r.Available() {
		return nil, nil
	}

	safeHops := hops
	if safeHops < 1 {
		safeHops = 1
	}
	if safeHops > 5 {
		safeHops = 5
	}

	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	// Variable-length bounds cannot be parameterized; safeHops is a
	// clamped int, never user input verbatim.
	query := fmt.Sprintf(`
		MATCH path = (start:Content {id: $nodeId, userId: $userId})-[:SIMILAR_TO*1..%d]-(neighbor:Content {userId: $userId})
		WITH relationships(path) AS rels
		UNWIND rels AS r
		WITH r, startNode(r) AS s, endNode(r) AS e
		RETURN DISTINCT
			CASE WHEN s.id < e.id THEN s.id ELSE e.id END AS source,
			CASE WHEN s.id < e.id THEN e.id ELSE s.id END AS target,
			r.score AS similarity`, safeHops)

	records, err := session.Run(ctx, query, map[string]interface{}{
		"nodeId": nodeID,
		"userId": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query neighborhood: %w", err)
	}

	edges := collectEdges(records)
	if len(edges) == 0 {
		return &Data{Nodes: []Node{}, Edges: []Edge{}}, nil
	}

	nodes, err := r.fetchNodeDetails(ctx, session, userID, edgeNodeIDs(edges))
	if err != nil {
		return nil, err
	}

	return &Data{Nodes: nodes, Edges: edges}, nil
}

// GetShortestPath returns the shortest similarity path (by hop count)
// between two of a user's nodes, as edges plus details for every node on
// the path. Empty when either endpoint is missing or no path exists.
func (r *Repository) GetShortestPath(ctx context.Context, sourceID, targetID, userID string) (*Data, error) {
	if !r.Available() {
		return nil, nil
	}

	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.Run(ctx, `
		MATCH (s:Content {id: $sourceId, userId: $userId}),
		      (t:Content {id: $targetId, userId: $userId}),
		      path = shortestPath((s)-[:SIMILAR_TO*]-(t))
		WITH nodes(path) AS ns, relationships(path) AS rels
		UNWIND rels AS r
		WITH ns, r, startNode(r) AS s, endNode(r) AS e
		RETURN DISTINCT
			CASE WHEN s.id < e.id THEN s.id ELSE e.id END AS source,
			CASE WHEN s.id < e.id THEN e.id ELSE s.id END AS target,
			r.score AS similarity,
			[n IN ns | n.id] AS nodeIds`,
		map[string]interface{}{
			"sourceId": sourceID,
			"targetId": targetID,
			"userId":   userID,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query shortest path: %w", err)
	}

	if len(records) == 0 {
		return &Data{Nodes: []Node{}, Edges: []Edge{}}, nil
	}

	edges := collectEdges(records)

	// Path node ids include intermediate nodes; collect across records
	idSet := make(map[string]bool)
	var ids []string
	for _, record := range records {
		for _, id := range getStringSliceFromRecord(record, "nodeIds") {
			if !idSet[id] {
				idSet[id] = true
				ids = append(ids, id)
			}
		}
	}

	nodes, err := r.fetchNodeDetails(ctx, session, userID, ids)
	if err != nil {
		return nil, err
	}

	return &Data{Nodes: nodes, Edges: edges}, nil
}

// GetTagClusters groups a user's content by shared tag, returning every tag
// carried by at least minCount distinct items, largest cluster first.
func (r *Repository) GetTagClusters(ctx context.Context, userID string, minCount int) ([]TagCluster, error) {
	if !r.Available() {
		return nil, nil
	}

	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	records, err := session.Run(ctx, `
		MATCH (c:Content {userId: $userId})-[:TAGGED_WITH]->(t:Tag)
		WITH t, COLLECT(c.id) AS contentIds
		WHERE SIZE(contentIds) >= $minCount
		RETURN t.name AS tag, contentIds, SIZE(contentIds) AS count
		ORDER BY count DESC`,
		map[string]interface{}{
			"userId":   userID,
			"minCount": minCount,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query tag clusters: %w", err)
	}

	clusters := make([]TagCluster, 0, len(records))
	for _, record := range records {
		clusters = append(clusters, TagCluster{
			Tag:        getStringFromRecord(record, "tag"),
			ContentIDs: getStringSliceFromRecord(record, "contentIds"),
			Count:      getIntFromRecord(record, "count"),
		})
	}
	return clusters, nil
}

// fetchNodeDetails loads full node attributes (with collected tags) for a
// set of content ids within one user's subgraph.
func (r *Repository) fetchNodeDetails(ctx context.Context, session graphSession, userID string, ids []string) ([]Node, error) {
	records, err := session.Run(ctx, `
		MATCH (c:Content {userId: $userId})
		WHERE c.id IN $ids
		OPTIONAL MATCH (c)-[:TAGGED_WITH]->(t:Tag)
		RETURN c.id AS id, c.title AS title, c.type AS type, COLLECT(t.name) AS tags`,
		map[string]interface{}{
			"userId": userID,
			"ids":    toInterfaceSlice(ids),
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query node details: %w", err)
	}

	nodes := make([]Node, 0, len(records))
	for _, record := range records {
		nodes = append(nodes, Node{
			ID:    getStringFromRecord(record, "id"),
			Title: getStringFromRecord(record, "title"),
			Type:  getStringFromRecord(record, "type"),
			Tags:  getStringSliceFromRecord(record, "tags"),
		})
	}
	return nodes, nil
}

func collectEdges(records []*neo4j.Record) []Edge {
	edges := make([]Edge, 0, len(records))
	for _, record := range records {
		edges = append(edges, Edge{
			Source:     getStringFromRecord(record, "source"),
			Target:     getStringFromRecord(record, "target"),
			Similarity: getFloat64FromRecord(record, "similarity"),
		})
	}
	return edges
}

func edgeNodeIDs(edges []Edge) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, edge := range edges {
		if !seen[edge.Source] {
			seen[edge.Source] = true
			ids = append(ids, edge.Source)
		}
		if !seen[edge.Target] {
			seen[edge.Target] = true
			ids = append(ids, edge.Target)
		}
	}
	return ids
}
