package store

import (
	"context"
	"fmt"
	"math"
	"sort"

	apperrors "mindweave/backend/pkg/errors"
)

// Similarity is a scored neighbor of a content item
type Similarity struct {
	ContentID string  `json:"content_id"`
	Score     float64 `json:"score"`
}

// PairSimilarity is a scored unordered pair. Source is always the
// lexicographically smaller content id.
type PairSimilarity struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Score  float64 `json:"score"`
}

// SimilarContent returns the top-limit content items owned by userID with
// cosine similarity to contentID at or above minScore, excluding the item
// itself, ordered by descending score. Degenerate comparisons (NaN) are
// excluded. Returns (nil, nil) when contentID has no embedding yet, and a
// non-nil empty slice when the embedding exists but no neighbor qualifies.
func (s *Store) SimilarContent(ctx context.Context, contentID, userID string, minScore float64, limit int) ([]Similarity, error) {
	target, err := s.GetEmbedding(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}

	vectors, err := s.userEmbeddings(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Non-nil from here on: callers distinguish "no embedding" (nil) from
	// "embedding exists, nothing qualifies" (empty), and the latter still
	// requires them to drop stale edges.
	hits := []Similarity{}
	for id, vector := range vectors {
		if id == contentID {
			continue
		}
		score := CosineSimilarity(target, vector)
		if math.IsNaN(score) || score < minScore {
			continue
		}
		hits = append(hits, Similarity{ContentID: id, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ContentID < hits[j].ContentID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// PairSimilarities computes all pairwise cosine similarities among a user's
// content embeddings at or above minScore, ordered by descending score and
// capped at maxPairs to keep the most meaningful edges under the cap.
func (s *Store) PairSimilarities(ctx context.Context, userID string, minScore float64, maxPairs int) ([]PairSimilarity, error) {
	vectors, err := s.userEmbeddings(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var pairs []PairSimilarity
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			score := CosineSimilarity(vectors[ids[i]], vectors[ids[j]])
			if math.IsNaN(score) || score < minScore {
				continue
			}
			pairs = append(pairs, PairSimilarity{Source: ids[i], Target: ids[j], Score: score})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		if pairs[i].Source != pairs[j].Source {
			return pairs[i].Source < pairs[j].Source
		}
		return pairs[i].Target < pairs[j].Target
	})
	if maxPairs > 0 && len(pairs) > maxPairs {
		pairs = pairs[:maxPairs]
	}
	return pairs, nil
}

// userEmbeddings loads every embedding owned by a user keyed by content id
func (s *Store) userEmbeddings(ctx context.Context, userID string) (map[string][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.content_id, e.vector
		FROM embeddings e
		INNER JOIN content c ON c.id = e.content_id
		WHERE c.user_id = ?`, userID)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed(fmt.Sprintf("load embeddings for user %s", userID), err)
	}
	defer rows.Close()

	vectors := make(map[string][]float32)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, apperrors.NewStoreQueryFailed("scan embedding row", err)
		}
		vectors[id] = decodeVector(blob)
	}
	return vectors, rows.Err()
}
