package bnb

import (
	"github.com/pkg/errors"

	"git.solver4all.com/azaryc2s/tspmip/mip"
)

type posted struct {
	x   []float64
	obj float64
}

// candidateContext is handed to the callback for one integral point. It is only
// valid while the callback runs.
type candidateContext struct {
	solver   *Solver
	x        []float64
	obj      float64
	active   bool
	rejected bool
	cuts     []mip.Row
	posted   []posted
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
		if err := c.solver.checkRow(cut); err != nil {
			return err
		}
	}
	c.rejected = true
	c.cuts = append(c.cuts, cuts...)
	return nil
}

// PostIncumbent records x as a heuristic solution. It is taken as is, without
// checking it against the model.
func (c *candidateContext) PostIncumbent(x []float64, obj float64) error {
	if !c.active {
		return mip.ErrNotInCallback
	}
	if len(x) != len(c.solver.cols) {
		return errors.Errorf("posted solution has %d values for %d columns", len(x), len(c.solver.cols))
	}
	c.posted = append(c.posted, posted{x: append([]float64(nil), x...), obj: obj})
	return nil
}
