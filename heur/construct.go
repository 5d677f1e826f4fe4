// Package heur holds the constructive and refinement heuristics the exact
// algorithms lean on: nearest neighbour, 2-opt and component patching.
package heur

import (
	"time"

	"git.solver4all.com/azaryc2s/tspmip"
)

// NearestNeighbor builds a tour from start, always moving to the closest unvisited
// node. Ties go to the smallest index.
func NearestNeighbor(d *tspmip.Distances, start int) tspmip.Tour {
	n := d.N()
	path := make([]int, 0, n)
	visited := make([]bool, n)
	curr := start
	for len(path) < n {
		path = append(path, curr)
		visited[curr] = true
		next, best := -1, 0.0
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			if dist := d.Dist(curr, j); next < 0 || dist < best {
				next, best = j, dist
			}
		}
		if next < 0 {
			break
		}
		curr = next
	}
	return tspmip.NewTour(d, path)
}

// BestStart runs NearestNeighbor from every node until the deadline and keeps the
// cheapest tour. At least one start is always tried. A zero deadline means no limit.
func BestStart(d *tspmip.Distances, deadline time.Time) tspmip.Tour {
	best := NearestNeighbor(d, 0)
	for s := 1; s < d.N(); s++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		if t := NearestNeighbor(d, s); t.Cost < best.Cost {
			best = t
		}
	}
	return best
}
