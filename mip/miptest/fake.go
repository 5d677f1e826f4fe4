// Package miptest provides a scripted mip.Solver for controller tests.
package miptest

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"

	"git.solver4all.com/azaryc2s/tspmip/mip"
)

type Var struct {
	Obj, LB, UB float64
	Type        mip.VarType
	Name        string
}

type BoundCall struct {
	Idx   []int
	Kinds []mip.BoundKind
	Vals  []float64
}

type Post struct {
	X   []float64
	Obj float64
}

// Candidate records what the callback did with one fired candidate.
type Candidate struct {
	Rejected bool
	Cuts     []mip.Row
	Posts    []Post
}

// Fake records every model change. Optimize calls Script, or reports the last MIP
// start as optimal solution when Script is nil.
type Fake struct {
	mu sync.Mutex

	Vars       []Var
	Rows       []mip.Row
	RHSCalls   map[int][]float64
	Starts     [][]float64
	BoundCalls []BoundCall
	Limits     []time.Duration
	Written    []string
	Closed     bool

	Callback mip.CandidateFunc
	Script   func(f *Fake, call int) (mip.Status, error)

	Sol   []float64
	Obj   float64
	Bound float64
}

func New() *Fake {
	return &Fake{RHSCalls: make(map[int][]float64)}
}

func (f *Fake) AddVar(obj, lb, ub float64, vtype mip.VarType, name string) (int, error) {
	f.Vars = append(f.Vars, Var{Obj: obj, LB: lb, UB: ub, Type: vtype, Name: name})
	return len(f.Vars) - 1, nil
}

func (f *Fake) AddConstr(row mip.Row) (int, error) {
	f.Rows = append(f.Rows, row)
	return len(f.Rows) - 1, nil
}

func (f *Fake) SetRHS(row int, rhs float64) error {
	if row < 0 || row >= len(f.Rows) {
		return errors.Errorf("row %d out of range", row)
	}
	f.Rows[row].RHS = rhs
	f.RHSCalls[row] = append(f.RHSCalls[row], rhs)
	return nil
}

func (f *Fake) SetBounds(idx []int, kinds []mip.BoundKind, vals []float64) error {
	f.BoundCalls = append(f.BoundCalls, BoundCall{
		Idx:   append([]int(nil), idx...),
		Kinds: append([]mip.BoundKind(nil), kinds...),
		Vals:  append([]float64(nil), vals...),
	})
	for k, j := range idx {
		switch kinds[k] {
		case mip.Lower:
			f.Vars[j].LB = vals[k]
		case mip.Upper:
			f.Vars[j].UB = vals[k]
		case mip.Both:
			f.Vars[j].LB, f.Vars[j].UB = vals[k], vals[k]
		}
	}
	return nil
}

func (f *Fake) SetCandidateCallback(fn mip.CandidateFunc) error {
	f.Callback = fn
	return nil
}

func (f *Fake) AddMIPStart(x []float64) error {
	f.Starts = append(f.Starts, append([]float64(nil), x...))
	return nil
}

func (f *Fake) Optimize(_ context.Context, limit time.Duration) (mip.Status, error) {
	f.Limits = append(f.Limits, limit)
	if f.Script != nil {
		return f.Script(f, len(f.Limits))
	}
	if len(f.Starts) == 0 {
		return mip.Infeasible, nil
	}
	f.Sol = f.Starts[len(f.Starts)-1]
	f.Obj = f.Objective(f.Sol)
	f.Bound = f.Obj
	return mip.Optimal, nil
}

func (f *Fake) Solution() ([]float64, float64, error) {
	if f.Sol == nil {
		return nil, 0, mip.ErrNoSolution
	}
	return append([]float64(nil), f.Sol...), f.Obj, nil
}

func (f *Fake) ObjBound() float64 {
	return f.Bound
}

func (f *Fake) NumVars() int {
	return len(f.Vars)
}

func (f *Fake) Write(path string) error {
	f.Written = append(f.Written, path)
	return nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Objective is c·x over the recorded variables.
func (f *Fake) Objective(x []float64) float64 {
	obj := 0.0
	for j, v := range f.Vars {
		obj += v.Obj * x[j]
	}
	return obj
}

// Fixed counts the variables whose lower bound is currently 1.
func (f *Fake) Fixed() int {
	count := 0
	for _, v := range f.Vars {
		if math.Abs(v.LB-1) < 1e-9 {
			count++
		}
	}
	return count
}

// Fire hands x to the installed callback as an integral candidate.
func (f *Fake) Fire(x []float64, obj float64) (Candidate, error) {
	if f.Callback == nil {
		return Candidate{}, errors.New("no candidate callback installed")
	}
	cc := &candidateContext{fake: f, x: x, obj: obj, active: true}
	err := f.Callback(cc)
	cc.active = false
	return cc.rec, err
}

type candidateContext struct {
	fake   *Fake
	x      []float64
	obj    float64
	active bool
	rec    Candidate
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
	c.rec.Rejected = true
	c.rec.Cuts = append(c.rec.Cuts, cuts...)
	c.fake.mu.Lock()
	c.fake.Rows = append(c.fake.Rows, cuts...)
	c.fake.mu.Unlock()
	return nil
}

func (c *candidateContext) PostIncumbent(x []float64, obj float64) error {
	if !c.active {
		return mip.ErrNotInCallback
	}
	c.rec.Posts = append(c.rec.Posts, Post{X: append([]float64(nil), x...), Obj: obj})
	return nil
}
