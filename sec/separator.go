package sec

import (
	"fmt"
	"strconv"
	"strings"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/mip"
)

// Cut builds the SEC Σ_{i<j ∈ S} x_ij <= |S|-1 over the nodes of S, ascending.
func Cut(members []int, n int) mip.Row {
	row := mip.Row{
		Terms: make([]mip.Term, 0, len(members)*(len(members)-1)/2),
		Sense: mip.LessEqual,
		RHS:   float64(len(members) - 1),
	}
	for a := 0; a < len(members); a++ {
		for b := a + 1; b < len(members); b++ {
			row.Terms = append(row.Terms, mip.Term{Index: tspmip.EdgeIndex(members[a], members[b], n), Coef: 1.0})
		}
	}
	return row
}

// Separate returns one SEC per component of size >= 2, in ascending component id.
// A single component yields no cuts.
func Separate(c Components) []mip.Row {
	return separate(c, nil)
}

func separate(c Components, keep func(members []int) bool) []mip.Row {
	if c.Count < 2 {
		return nil
	}
	n := len(c.Map)
	var cuts []mip.Row
	for k := 1; k <= c.Count; k++ {
		members := c.Members(k)
		if len(members) < 2 || (keep != nil && !keep(members)) {
			continue
		}
		cut := Cut(members, n)
		cut.Name = fmt.Sprintf("sec(%s)", SubsetKey(members))
		cuts = append(cuts, cut)
	}
	return cuts
}

// SubsetKey identifies a node subset given in ascending order.
func SubsetKey(members []int) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

// Pool remembers the node subsets that already own a cut.
type Pool struct {
	seen map[string]struct{}
}

func NewPool() *Pool {
	return &Pool{seen: make(map[string]struct{})}
}

// Add records members and reports whether they were new.
func (p *Pool) Add(members []int) bool {
	key := SubsetKey(members)
	if _, ok := p.seen[key]; ok {
		return false
	}
	p.seen[key] = struct{}{}
	return true
}

func (p *Pool) Len() int {
	return len(p.seen)
}

// Separate is the package level Separate restricted to subsets not seen before.
// The returned subsets are recorded.
func (p *Pool) Separate(c Components) []mip.Row {
	return separate(c, p.Add)
}
