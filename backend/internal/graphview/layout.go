package graphview

import (
	"errors"
	"math"
	"math/rand"
)

// Point is a 2D layout position
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutOptions tunes the force-directed layout
type LayoutOptions struct {
	Iterations int
	Gravity    float64
	Repulsion  float64
	Seed       int64
}

// DefaultLayoutOptions matches the renderer's settings
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		Iterations: 200,
		Gravity:    0.05,
		Repulsion:  10,
	}
}

// RandomPositions seeds every node with a position in [-100, 100)²
func RandomPositions(g *Graph, seed int64) map[string]Point {
	rng := rand.New(rand.NewSource(seed))
	positions := make(map[string]Point, g.Order())
	for _, id := range g.Nodes() {
		positions[id] = Point{
			X: rng.Float64()*200 - 100,
			Y: rng.Float64()*200 - 100,
		}
	}
	return positions
}

// ForceLayout runs an iterative force-directed layout from the given
// initial positions: pairwise repulsion, attraction along edges scaled by
// similarity, and gravity toward the origin, with displacement cooled
// linearly over the iteration budget. The input map is not mutated.
func ForceLayout(g *Graph, initial map[string]Point, opts LayoutOptions) (map[string]Point, error) {
	if opts.Iterations <= 0 {
		return nil, errors.New("graphview: layout iterations must be positive")
	}
	nodes := g.Nodes()
	positions := make(map[string]Point, len(nodes))
	for _, id := range nodes {
		p, ok := initial[id]
		if !ok {
			return nil, errors.New("graphview: missing initial position for node " + id)
		}
		positions[id] = p
	}
	if len(nodes) < 2 {
		return positions, nil
	}

	area := 200.0 * 200.0
	k := math.Sqrt(area / float64(len(nodes)))

	for iter := 0; iter < opts.Iterations; iter++ {
		disp := make(map[string]Point, len(nodes))

		// Repulsion between every pair
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				a, b := nodes[i], nodes[j]
				dx := positions[a].X - positions[b].X
				dy := positions[a].Y - positions[b].Y
				dist := math.Hypot(dx, dy)
				if dist < 1e-9 {
					dx, dy, dist = 1e-4, 1e-4, math.Sqrt2*1e-4
				}
				force := opts.Repulsion * k * k / dist
				fx, fy := dx/dist*force, dy/dist*force
				disp[a] = Point{disp[a].X + fx, disp[a].Y + fy}
				disp[b] = Point{disp[b].X - fx, disp[b].Y - fy}
			}
		}

		// Attraction along edges, stronger for more similar pairs
		for _, a := range nodes {
			for _, b := range g.Neighbors(a) {
				if b <= a {
					continue
				}
				dx := positions[a].X - positions[b].X
				dy := positions[a].Y - positions[b].Y
				dist := math.Hypot(dx, dy)
				if dist < 1e-9 {
					continue
				}
				force := dist * dist / k * g.Weight(a, b)
				fx, fy := dx/dist*force, dy/dist*force
				disp[a] = Point{disp[a].X - fx, disp[a].Y - fy}
				disp[b] = Point{disp[b].X + fx, disp[b].Y + fy}
			}
		}

		// Gravity toward the origin keeps disconnected components nearby
		for _, id := range nodes {
			disp[id] = Point{
				disp[id].X - positions[id].X*opts.Gravity,
				disp[id].Y - positions[id].Y*opts.Gravity,
			}
		}

		// Cool displacement over the budget
		temp := 10.0 * (1 - float64(iter)/float64(opts.Iterations))
		for _, id := range nodes {
			d := disp[id]
			dist := math.Hypot(d.X, d.Y)
			if dist < 1e-9 {
				continue
			}
			limited := math.Min(dist, temp)
			positions[id] = Point{
				positions[id].X + d.X/dist*limited,
				positions[id].Y + d.Y/dist*limited,
			}
		}
	}

	return positions, nil
}
