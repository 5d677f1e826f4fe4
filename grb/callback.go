package grb

import (
	"git.solver4all.com/azaryc2s/gorobi/gurobi"
	"github.com/pkg/errors"

	"git.solver4all.com/azaryc2s/tspmip/mip"
)

type candidateContext struct {
	solver *Solver
	cbdata gurobi.CPVoid
	x      []float64
	obj    float64
	active bool
}

func (c *candidateContext) CandidatePoint() ([]float64, float64, error) {
	if !c.active {
		return nil, 0, mip.ErrNotInCallback
	}
	return append([]float64(nil), c.x...), c.obj, nil
}

func (c *candidateContext) RejectCandidate(cuts []mip.Row) error {
	if !c.active {
		return mip.ErrNotInCallback
	}
	for _, cut := range cuts {
		ind, val := cut.Split()
		if err := gurobi.CbLazy(c.cbdata, len(ind), ind, val, sense(cut.Sense), cut.RHS); err != nil {
			return mip.Primitive("CbLazy", err)
		}
	}
	return nil
}

// PostIncumbent keeps the cheapest tour posted since the last MIPNODE.
func (c *candidateContext) PostIncumbent(x []float64, obj float64) error {
	if !c.active {
		return mip.ErrNotInCallback
	}
	if len(x) != c.solver.nvars {
		return errors.Errorf("posted solution has %d values for %d columns", len(x), c.solver.nvars)
	}
	s := c.solver
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil || obj < s.pending.obj {
		s.pending = &pendingPost{x: append([]float64(nil), x...), obj: obj}
	}
	return nil
}
