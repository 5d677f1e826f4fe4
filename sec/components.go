// Package sec finds the connected components of an integral edge selection and
// builds the subtour elimination constraints that cut them off.
package sec

import (
	"github.com/pkg/errors"

	"git.solver4all.com/azaryc2s/tspmip"
)

// ErrMalformed means a node does not have exactly two selected incident edges.
var ErrMalformed = errors.New("edge selection is not 2-regular")

// Components maps every node to a component id in 1..Count.
type Components struct {
	Map   []int
	Count int
}

// FromSucc labels the cycles of a successor array in order of their smallest node.
func FromSucc(succ []int) Components {
	c := Components{Map: make([]int, len(succ))}
	for i := range succ {
		if c.Map[i] != 0 {
			continue
		}
		c.Count++
		for j := i; c.Map[j] == 0; j = succ[j] {
			c.Map[j] = c.Count
		}
	}
	return c
}

// SuccFromVars rebuilds a successor array from an integral vector of edge variables.
func SuccFromVars(x []float64, n int) ([]int, error) {
	if len(x) < tspmip.EdgeCount(n) {
		return nil, errors.Wrapf(ErrMalformed, "%d values for %d nodes", len(x), n)
	}
	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if x[tspmip.EdgeIndex(i, j, n)] > 0.5 {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}
	for i, a := range adj {
		if len(a) != 2 {
			return nil, errors.Wrapf(ErrMalformed, "node %d has degree %d", i, len(a))
		}
	}

	succ := make([]int, n)
	seen := make([]bool, n)
	for start := 0; start < n; start++ {
		if seen[start] {
			continue
		}
		prev, curr := -1, start
		for {
			seen[curr] = true
			next := adj[curr][0]
			if next == prev {
				next = adj[curr][1]
			}
			succ[curr] = next
			prev, curr = curr, next
			if curr == start {
				break
			}
		}
	}
	return succ, nil
}

// FromVars is SuccFromVars followed by FromSucc.
func FromVars(x []float64, n int) ([]int, Components, error) {
	succ, err := SuccFromVars(x, n)
	if err != nil {
		return nil, Components{}, err
	}
	return succ, FromSucc(succ), nil
}

// Sizes returns the node count of every component; Sizes()[k-1] belongs to id k.
func (c Components) Sizes() []int {
	sizes := make([]int, c.Count)
	for _, k := range c.Map {
		sizes[k-1]++
	}
	return sizes
}

// Members returns the nodes of component id in ascending order.
func (c Components) Members(id int) []int {
	var nodes []int
	for i, k := range c.Map {
		if k == id {
			nodes = append(nodes, i)
		}
	}
	return nodes
}
