package graphview

import (
	"errors"
	"math"
)

const (
	pagerankDamping = 0.85
	pagerankMaxIter = 100
	pagerankTol     = 1e-6
)

// ErrNoConvergence is returned when power iteration fails to settle
var ErrNoConvergence = errors.New("graphview: pagerank failed to converge")

// PageRank computes an eigenvector-style importance score per node over the
// undirected link structure, weights included. Scores sum to 1. Returns
// ErrNoConvergence when the iteration budget runs out.
func PageRank(g *Graph) (map[string]float64, error) {
	n := g.Order()
	if n == 0 {
		return map[string]float64{}, nil
	}

	nodes := g.Nodes()
	rank := make(map[string]float64, n)
	for _, id := range nodes {
		rank[id] = 1.0 / float64(n)
	}

	for iter := 0; iter < pagerankMaxIter; iter++ {
		next := make(map[string]float64, n)

		// Rank mass of isolated nodes is spread uniformly
		var danglingMass float64
		for _, id := range nodes {
			if g.WeightedDegree(id) == 0 {
				danglingMass += rank[id]
			}
		}

		base := (1-pagerankDamping)/float64(n) + pagerankDamping*danglingMass/float64(n)
		for _, id := range nodes {
			next[id] = base
		}
		for _, id := range nodes {
			deg := g.WeightedDegree(id)
			if deg == 0 {
				continue
			}
			share := pagerankDamping * rank[id] / deg
			for _, neighbor := range g.Neighbors(id) {
				next[neighbor] += share * g.Weight(id, neighbor)
			}
		}

		var delta float64
		for _, id := range nodes {
			delta += math.Abs(next[id] - rank[id])
		}
		rank = next
		if delta < pagerankTol {
			return rank, nil
		}
	}

	return nil, ErrNoConvergence
}

// normalizeRanks min-max normalizes scores into [0,1] to drive a bounded
// visual size range. A flat distribution normalizes to all zeros.
func normalizeRanks(ranks map[string]float64) map[string]float64 {
	if len(ranks) == 0 {
		return map[string]float64{}
	}
	minRank := math.Inf(1)
	maxRank := math.Inf(-1)
	for _, r := range ranks {
		minRank = math.Min(minRank, r)
		maxRank = math.Max(maxRank, r)
	}
	span := maxRank - minRank
	if span == 0 {
		span = 1
	}
	normalized := make(map[string]float64, len(ranks))
	for id, r := range ranks {
		normalized[id] = (r - minRank) / span
	}
	return normalized
}
