package heur

import (
	"time"

	"git.solver4all.com/azaryc2s/tspmip"
)

// improvementEps is the minimum gain for a 2-opt move to be applied.
const improvementEps = 1e-9

// TwoOpt applies first-improvement 2-opt moves on a copy of t until no improving
// move exists or the deadline passes. A zero deadline means no limit.
func TwoOpt(d *tspmip.Distances, t tspmip.Tour, deadline time.Time) tspmip.Tour {
	n := len(t.Path)
	cur := t.Clone()
	if n < 4 {
		cur.Cost = tspmip.PathCost(d, cur.Path)
		return cur
	}
	p := cur.Path

	step := 0
	expired := func() bool {
		step++
		if deadline.IsZero() || step&2047 != 0 {
			return false
		}
		return time.Now().After(deadline)
	}

	improved, stopped := true, false
	for improved && !stopped {
		improved = false
	scan:
		for i := 0; i < n-2; i++ {
			for k := i + 2; k < n; k++ {
				if i == 0 && k == n-1 {
					continue
				}
				if expired() {
					stopped = true
					break scan
				}
				a, b := p[i], p[i+1]
				c, e := p[k], p[(k+1)%n]
				delta := d.Dist(a, c) + d.Dist(b, e) - d.Dist(a, b) - d.Dist(c, e)
				if delta < -improvementEps {
					reverse(p[i+1 : k+1])
					improved = true
				}
			}
		}
	}
	cur.Cost = tspmip.PathCost(d, p)
	return cur
}

func reverse(s []int) {
	for l, r := 0, len(s)-1; l < r; l, r = l+1, r-1 {
		s[l], s[r] = s[r], s[l]
	}
}
