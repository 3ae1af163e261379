package graphview

import (
	"errors"
)

const maxCommunityPasses = 20

// ErrNoEdges is returned when modularity is undefined (edgeless graph)
var ErrNoEdges = errors.New("graphview: modularity undefined for a graph with no edges")

// Communities partitions the graph by modularity-optimizing local moving:
// every node starts in its own community and greedily moves to the
// neighboring community with the best modularity gain until no move
// improves. Community ids are renumbered densely in node insertion order,
// so output is deterministic for a given input.
func Communities(g *Graph) (map[string]int, error) {
	if g.Order() == 0 {
		return map[string]int{}, nil
	}
	if g.TotalWeight() == 0 {
		return nil, ErrNoEdges
	}

	m2 := 2 * g.TotalWeight()
	nodes := g.Nodes()

	community := make(map[string]int, len(nodes))
	degree := make(map[string]float64, len(nodes))
	sumTot := make([]float64, len(nodes))
	for i, id := range nodes {
		community[id] = i
		degree[id] = g.WeightedDegree(id)
		sumTot[i] = degree[id]
	}

	for pass := 0; pass < maxCommunityPasses; pass++ {
		improved := false

		for _, id := range nodes {
			current := community[id]

			// Detach the node while evaluating moves
			sumTot[current] -= degree[id]

			// Weight from this node into each neighboring community
			weightTo := make(map[int]float64)
			for _, neighbor := range g.Neighbors(id) {
				weightTo[community[neighbor]] += g.Weight(id, neighbor)
			}

			best := current
			bestGain := weightTo[current] - sumTot[current]*degree[id]/m2
			for c, w := range weightTo {
				if c == current {
					continue
				}
				gain := w - sumTot[c]*degree[id]/m2
				if gain > bestGain || (gain == bestGain && c < best) {
					best = c
					bestGain = gain
				}
			}

			sumTot[best] += degree[id]
			community[id] = best
			if best != current {
				improved = true
			}
		}

		if !improved {
			break
		}
	}

	// Renumber densely by first appearance
	renumber := make(map[int]int)
	result := make(map[string]int, len(nodes))
	for _, id := range nodes {
		c := community[id]
		dense, ok := renumber[c]
		if !ok {
			dense = len(renumber)
			renumber[c] = dense
		}
		result[id] = dense
	}
	return result, nil
}
