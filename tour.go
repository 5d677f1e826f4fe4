package tspmip

import (
	"math"

	"github.com/pkg/errors"
)

// Epsilon is the tolerance used when comparing tour costs.
const Epsilon = 1e-9

var (
	ErrNotDistinct  = errors.New("tour does not visit every node exactly once")
	ErrCostMismatch = errors.New("tour cost does not match the sum of its edges")
)

// Tour is the path representation: the visiting order of all nodes.
type Tour struct {
	Path []int
	Cost float64
}

// SuccTour is the successor representation: Succ[i] is the node visited after i.
type SuccTour struct {
	Succ []int
	Cost float64
}

func NewTour(d *Distances, path []int) Tour {
	p := make([]int, len(path))
	copy(p, path)
	return Tour{Path: p, Cost: PathCost(d, p)}
}

// IsDistinct reports whether path is a permutation of [0, n).
func IsDistinct(path []int, n int) bool {
	if len(path) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range path {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func PathCost(d *Distances, path []int) float64 {
	cost := 0.0
	for i := 0; i < len(path); i++ {
		cost += d.Dist(path[i], path[(i+1)%len(path)])
	}
	return cost
}

func SuccCost(d *Distances, succ []int) float64 {
	cost := 0.0
	for i := 0; i < len(succ); i++ {
		cost += d.Dist(i, succ[i])
	}
	return cost
}

func IsEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= Epsilon*scale
}

// Check validates distinctness and the cached cost.
func (t Tour) Check(d *Distances) error {
	if !IsDistinct(t.Path, d.N()) {
		return ErrNotDistinct
	}
	if actual := PathCost(d, t.Path); !IsEqual(t.Cost, actual) {
		return errors.Wrapf(ErrCostMismatch, "cached %.9f, actual %.9f", t.Cost, actual)
	}
	return nil
}

func (t Tour) Clone() Tour {
	return Tour{Path: append([]int(nil), t.Path...), Cost: t.Cost}
}

// Succ converts the tour to the successor representation.
func (t Tour) Succ() SuccTour {
	succ := make([]int, len(t.Path))
	for i := 0; i < len(t.Path); i++ {
		succ[t.Path[i]] = t.Path[(i+1)%len(t.Path)]
	}
	return SuccTour{Succ: succ, Cost: t.Cost}
}

// Path walks the successor cycle starting at node 0. A successor array holding more
// than one cycle yields a path that repeats nodes and fails Check.
func (s SuccTour) Path() Tour {
	n := len(s.Succ)
	path := make([]int, n)
	if n == 0 {
		return Tour{Path: path, Cost: s.Cost}
	}
	curr := 0
	for i := 0; i < n; i++ {
		path[i] = curr
		curr = s.Succ[curr]
	}
	return Tour{Path: path, Cost: s.Cost}
}

// EdgeIndices returns the column of every edge of the tour, in path order.
func (t Tour) EdgeIndices(n int) []int {
	idx := make([]int, len(t.Path))
	for i := range t.Path {
		idx[i] = EdgeIndex(t.Path[i], t.Path[(i+1)%len(t.Path)], n)
	}
	return idx
}

// Vars converts the tour to the 0/1 vector of edge variables.
func (t Tour) Vars(n int) []float64 {
	x := make([]float64, EdgeCount(n))
	for _, idx := range t.EdgeIndices(n) {
		x[idx] = 1.0
	}
	return x
}

// UpdateIncumbent copies cand into best when cand is valid and strictly cheaper.
func UpdateIncumbent(d *Distances, cand Tour, best *Tour) bool {
	if best.Path != nil && cand.Cost >= best.Cost {
		return false
	}
	if cand.Check(d) != nil {
		return false
	}
	*best = cand.Clone()
	return true
}
