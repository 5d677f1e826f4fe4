package heur

import (
	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/sec"
)

// Patch merges the cycles of a successor array into a single tour. Each step joins
// two components by the cheapest exchange of edges (i, succ i) and (j, succ j) for
// (i, succ j) and (j, succ i), which needs no segment reversal.
func Patch(d *tspmip.Distances, succ []int) tspmip.SuccTour {
	s := append([]int(nil), succ...)
	n := len(s)
	for {
		comps := sec.FromSucc(s)
		if comps.Count <= 1 {
			break
		}
		bi, bj, best := -1, -1, 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if comps.Map[i] == comps.Map[j] {
					continue
				}
				delta := d.Dist(i, s[j]) + d.Dist(j, s[i]) - d.Dist(i, s[i]) - d.Dist(j, s[j])
				if bi < 0 || delta < best {
					bi, bj, best = i, j, delta
				}
			}
		}
		s[bi], s[bj] = s[bj], s[bi]
	}
	return tspmip.SuccTour{Succ: s, Cost: tspmip.SuccCost(d, s)}
}
