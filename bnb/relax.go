package bnb

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"git.solver4all.com/azaryc2s/tspmip/mip"
)

type lpResult struct {
	x          []float64
	obj        float64
	infeasible bool
}

// equality is one row of the standard form before sign normalization:
// a*y + slack*s = rhs, where slack is 0, +1 or -1.
type equality struct {
	a     []float64
	slack float64
	rhs   float64
}

// relax solves the LP relaxation under node bounds lb, ub. Fixed columns are
// substituted, the others shifted to y = x - lb, finite upper bounds become rows and
// every row gets either its slack or an artificial column as initial basic variable.
// Artificials carry a big-M cost; a positive artificial in the optimum means the
// relaxation is infeasible.
func (s *Solver) relax(lb, ub []float64) (lpResult, error) {
	n := len(s.cols)
	x := make([]float64, n)
	pos := make([]int, n)
	var free []int
	for j := 0; j < n; j++ {
		if ub[j] < lb[j]-feasTol {
			return lpResult{infeasible: true}, nil
		}
		if ub[j]-lb[j] <= feasTol {
			x[j], pos[j] = lb[j], -1
			continue
		}
		x[j], pos[j] = lb[j], len(free)
		free = append(free, j)
	}
	nf := len(free)

	var eqs []equality
	for _, r := range s.rows {
		a := make([]float64, nf)
		rhs := r.RHS
		nz := false
		for _, t := range r.Terms {
			rhs -= t.Coef * lb[t.Index]
			if k := pos[t.Index]; k >= 0 && t.Coef != 0 {
				a[k] += t.Coef
				nz = true
			}
		}
		if !nz {
			if !satisfied(r.Sense, 0, rhs) {
				return lpResult{infeasible: true}, nil
			}
			continue
		}
		eqs = append(eqs, equality{a: a, slack: slackSign(r.Sense), rhs: rhs})
	}
	for k, j := range free {
		if math.IsInf(ub[j], 1) {
			continue
		}
		a := make([]float64, nf)
		a[k] = 1
		eqs = append(eqs, equality{a: a, slack: 1, rhs: ub[j] - lb[j]})
	}

	if len(eqs) == 0 {
		for _, j := range free {
			if s.cols[j].obj < 0 {
				return lpResult{}, errors.Errorf("column %d is unbounded", j)
			}
		}
		return lpResult{x: x, obj: s.objective(x)}, nil
	}

	m := len(eqs)
	ncols := nf
	slackCol := make([]int, m)
	for i, e := range eqs {
		slackCol[i] = -1
		if e.slack != 0 {
			slackCol[i] = ncols
			ncols++
		}
	}
	basic := make([]int, m)
	artCol := make([]int, m)
	signs := make([]float64, m)
	for i, e := range eqs {
		signs[i] = 1
		if e.rhs < 0 {
			signs[i] = -1
		}
		artCol[i] = -1
		if slackCol[i] >= 0 && e.slack*signs[i] > 0 {
			basic[i] = slackCol[i]
			continue
		}
		artCol[i] = ncols
		basic[i] = ncols
		ncols++
	}

	bigM := 1.0
	for _, c := range s.cols {
		bigM += math.Abs(c.obj)
	}
	bigM *= 1e3

	A := mat.NewDense(m, ncols, nil)
	b := make([]float64, m)
	c := make([]float64, ncols)
	for k, j := range free {
		c[k] = s.cols[j].obj
	}
	for i, e := range eqs {
		for k, v := range e.a {
			if v != 0 {
				A.Set(i, k, signs[i]*v)
			}
		}
		if slackCol[i] >= 0 {
			A.Set(i, slackCol[i], signs[i]*e.slack)
		}
		if artCol[i] >= 0 {
			A.Set(i, artCol[i], 1)
			c[artCol[i]] = bigM
		}
		b[i] = signs[i] * e.rhs
	}

	y, err := s.simplex(c, A, b, basic)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return lpResult{infeasible: true}, nil
		}
		return lpResult{}, mip.Primitive("simplex", err)
	}
	for _, col := range artCol {
		if col >= 0 && y[col] > feasTol {
			return lpResult{infeasible: true}, nil
		}
	}
	for k, j := range free {
		x[j] = lb[j] + y[k]
	}
	return lpResult{x: x, obj: s.objective(x)}, nil
}

const (
	// perturbation is the scale of the first right-hand side perturbation, every
	// further attempt multiplies it by ten.
	perturbation    = 1e-7
	simplexAttempts = 3
	reducedCostTol  = 1e-9
)

// simplex solves min c*y, A*y = b, y >= 0 starting from basic. gonum pivots with
// Dantzig's rule and only falls back to Bland's rule on zero steps, where it gives up
// on ill-conditioned bases, so the right-hand side is perturbed by distinct random
// amounts to keep every basis nondegenerate. The optimal basis is then re-solved
// against the unperturbed b.
func (s *Solver) simplex(c []float64, A *mat.Dense, b []float64, basic []int) ([]float64, error) {
	var err error
	scale := perturbation
	for attempt := 0; attempt < simplexAttempts; attempt++ {
		pb := make([]float64, len(b))
		for i, v := range b {
			pb[i] = v + scale*(1+s.rng.Float64())
		}
		var y []float64
		y, err = runSimplex(c, A, pb, basic)
		if err == nil {
			return vertex(A, b, y), nil
		}
		if errors.Is(err, lp.ErrInfeasible) {
			return nil, err
		}
		s.log.WithError(err).WithFields(logrus.Fields{"model": s.name, "attempt": attempt}).Debug("Simplex failed, retrying with a larger perturbation")
		scale *= 10
	}
	return nil, err
}

// runSimplex turns the panics gonum raises on a bad initial basis into errors.
func runSimplex(c []float64, A mat.Matrix, b []float64, basic []int) (y []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			y, err = nil, errors.Errorf("simplex: %v", r)
		}
	}()
	_, y, err = lp.Simplex(c, A, b, reducedCostTol, basic)
	return y, err
}

// vertex recomputes the basic values of y for the right-hand side b. The basis is
// read off the nonzero entries, which number exactly len(b) when y came from a
// nondegenerate problem. y is returned unchanged when that does not hold.
func vertex(A *mat.Dense, b, y []float64) []float64 {
	m := len(b)
	var basis []int
	for k, v := range y {
		if v != 0 {
			basis = append(basis, k)
		}
	}
	if len(basis) != m {
		return y
	}
	ab := mat.NewDense(m, m, nil)
	for i, k := range basis {
		ab.SetCol(i, mat.Col(nil, k, A))
	}
	var xb mat.VecDense
	if err := xb.SolveVec(ab, mat.NewVecDense(m, append([]float64(nil), b...))); err != nil {
		return y
	}
	x := make([]float64, len(y))
	for i, k := range basis {
		v := xb.AtVec(i)
		if v < -feasTol {
			return y
		}
		x[k] = math.Max(v, 0)
	}
	return x
}

func slackSign(sense mip.Sense) float64 {
	switch sense {
	case mip.LessEqual:
		return 1
	case mip.GreaterEqual:
		return -1
	}
	return 0
}

func satisfied(sense mip.Sense, lhs, rhs float64) bool {
	switch sense {
	case mip.LessEqual:
		return lhs <= rhs+feasTol
	case mip.GreaterEqual:
		return lhs >= rhs-feasTol
	}
	return math.Abs(lhs-rhs) <= feasTol
}
