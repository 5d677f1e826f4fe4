// Package bnb is a small depth-first branch-and-cut solver implementing mip.Solver.
// LP relaxations are solved with gonum's simplex; integer-feasible relaxations are
// handed to the candidate callback, which may reject them with lazy cuts.
package bnb

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip/mip"
)

const (
	intTol  = 1e-6
	feasTol = 1e-6
	objTol  = 1e-9
)

type column struct {
	obj   float64
	lb    float64
	ub    float64
	vtype mip.VarType
	name  string
}

type node struct {
	lb, ub []float64
	// bound is the relaxation value of the parent.
	bound float64
}

type Solver struct {
	name      string
	log       logrus.FieldLogger
	nodeLimit int

	cols     []column
	rows     []mip.Row
	callback mip.CandidateFunc
	starts   [][]float64

	incumbent []float64
	incObj    float64
	bound     float64
	nodes     int

	// rng draws the right-hand side perturbation of the relaxations.
	rng *rand.Rand
}

type Option func(*Solver)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Solver) { s.log = l }
}

// WithNodeLimit stops Optimize after n nodes. Zero means no limit.
func WithNodeLimit(n int) Option {
	return func(s *Solver) { s.nodeLimit = n }
}

// WithSeed seeds the right-hand side perturbation used by the LP relaxations.
func WithSeed(seed int64) Option {
	return func(s *Solver) { s.rng = rand.New(rand.NewSource(seed)) }
}

func New(name string, opts ...Option) *Solver {
	s := &Solver{name: name, incObj: math.Inf(1), bound: math.Inf(-1), rng: rand.New(rand.NewSource(1))}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		s.log = l
	}
	return s
}

func (s *Solver) AddVar(obj, lb, ub float64, vtype mip.VarType, name string) (int, error) {
	if math.IsInf(lb, 0) || math.IsNaN(lb) {
		return -1, errors.Errorf("variable %s: finite lower bound required", name)
	}
	if ub < lb {
		return -1, errors.Errorf("variable %s: bounds [%v,%v] are empty", name, lb, ub)
	}
	s.cols = append(s.cols, column{obj: obj, lb: lb, ub: ub, vtype: vtype, name: name})
	return len(s.cols) - 1, nil
}

func (s *Solver) AddConstr(row mip.Row) (int, error) {
	if err := s.checkRow(row); err != nil {
		return -1, err
	}
	s.rows = append(s.rows, row)
	return len(s.rows) - 1, nil
}

func (s *Solver) checkRow(row mip.Row) error {
	for _, t := range row.Terms {
		if t.Index < 0 || t.Index >= len(s.cols) {
			return errors.Errorf("row %s references column %d of %d", row.Name, t.Index, len(s.cols))
		}
	}
	return nil
}

func (s *Solver) SetRHS(row int, rhs float64) error {
	if row < 0 || row >= len(s.rows) {
		return errors.Errorf("row %d out of range", row)
	}
	s.rows[row].RHS = rhs
	return nil
}

func (s *Solver) SetBounds(idx []int, kinds []mip.BoundKind, vals []float64) error {
	if len(idx) != len(kinds) || len(idx) != len(vals) {
		return errors.Errorf("bounds arrays differ in length: %d, %d, %d", len(idx), len(kinds), len(vals))
	}
	for k, j := range idx {
		if j < 0 || j >= len(s.cols) {
			return errors.Errorf("column %d out of range", j)
		}
		switch kinds[k] {
		case mip.Lower:
			s.cols[j].lb = vals[k]
		case mip.Upper:
			s.cols[j].ub = vals[k]
		case mip.Both:
			s.cols[j].lb, s.cols[j].ub = vals[k], vals[k]
		}
	}
	return nil
}

func (s *Solver) SetCandidateCallback(fn mip.CandidateFunc) error {
	s.callback = fn
	return nil
}

func (s *Solver) AddMIPStart(x []float64) error {
	if len(x) != len(s.cols) {
		return errors.Errorf("mip start has %d values for %d columns", len(x), len(s.cols))
	}
	s.starts = append(s.starts, append([]float64(nil), x...))
	return nil
}

func (s *Solver) NumVars() int {
	return len(s.cols)
}

func (s *Solver) NumRows() int {
	return len(s.rows)
}

// Nodes is the number of nodes processed by the last Optimize call.
func (s *Solver) Nodes() int {
	return s.nodes
}

func (s *Solver) Solution() ([]float64, float64, error) {
	if s.incumbent == nil {
		return nil, 0, mip.ErrNoSolution
	}
	return append([]float64(nil), s.incumbent...), s.incObj, nil
}

func (s *Solver) ObjBound() float64 {
	return s.bound
}

func (s *Solver) Close() error {
	return nil
}

// Optimize explores the tree depth first. The previous incumbent and every MIP start
// are checked against the current model first and seed the cutoff. A limit <= 0 means
// no time limit. The context and the deadline are checked before every LP solve.
func (s *Solver) Optimize(ctx context.Context, limit time.Duration) (mip.Status, error) {
	var deadline time.Time
	if limit > 0 {
		deadline = time.Now().Add(limit)
	}
	start := time.Now()

	starts := s.starts
	if s.incumbent != nil {
		starts = append(starts[:len(starts):len(starts)], s.incumbent)
	}
	s.incumbent, s.incObj, s.nodes = nil, math.Inf(1), 0
	root := &node{lb: make([]float64, len(s.cols)), ub: make([]float64, len(s.cols)), bound: math.Inf(-1)}
	for j, c := range s.cols {
		root.lb[j], root.ub[j] = c.lb, c.ub
	}
	stack := []*node{root}

	status := mip.Unknown
	for _, x := range starts {
		if status = stopped(ctx, deadline); status != mip.Unknown {
			break
		}
		if err := s.tryStart(x); err != nil {
			return mip.Unknown, err
		}
	}
	for status == mip.Unknown && len(stack) > 0 {
		if status = stopped(ctx, deadline); status != mip.Unknown {
			break
		}
		if s.nodeLimit > 0 && s.nodes >= s.nodeLimit {
			status = mip.NodeLimit
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if nd.bound >= s.incObj-objTol {
			continue
		}
		s.nodes++
		children, stop, err := s.solveNode(ctx, deadline, nd)
		if err != nil {
			return mip.Unknown, err
		}
		if stop != mip.Unknown {
			// the interrupted node stays open for the bound
			stack = append(stack, nd)
			status = stop
			break
		}
		stack = append(stack, children...)
	}

	if status == mip.Unknown {
		if s.incumbent != nil {
			status = mip.Optimal
		} else {
			status = mip.Infeasible
		}
	}
	s.bound = s.incObj
	for _, nd := range stack {
		if nd.bound < s.bound {
			s.bound = nd.bound
		}
	}
	s.log.WithFields(logrus.Fields{
		"model":  s.name,
		"status": status,
		"nodes":  s.nodes,
		"rows":   len(s.rows),
		"obj":    s.incObj,
		"bound":  s.bound,
		"time":   time.Since(start).String(),
	}).Debug("Optimization finished")
	return status, nil
}

// stopped reports Interrupted or TimeLimit once ctx is done or the deadline has
// passed, Unknown otherwise. A zero deadline never passes.
func stopped(ctx context.Context, deadline time.Time) mip.Status {
	if ctx.Err() != nil {
		return mip.Interrupted
	}
	if !deadline.IsZero() && !time.Now().Before(deadline) {
		return mip.TimeLimit
	}
	return mip.Unknown
}

// solveNode solves the relaxation of nd, re-solving while the callback rejects the
// integral point with violated cuts, and returns the children to explore. A status
// other than Unknown means the search has to stop before nd was finished.
func (s *Solver) solveNode(ctx context.Context, deadline time.Time, nd *node) ([]*node, mip.Status, error) {
	for {
		if stop := stopped(ctx, deadline); stop != mip.Unknown {
			return nil, stop, nil
		}
		res, err := s.relax(nd.lb, nd.ub)
		if err != nil {
			return nil, mip.Unknown, err
		}
		if res.infeasible || res.obj >= s.incObj-objTol {
			return nil, mip.Unknown, nil
		}
		j := s.branchVar(res.x)
		if j >= 0 {
			down := &node{lb: append([]float64(nil), nd.lb...), ub: append([]float64(nil), nd.ub...), bound: res.obj}
			up := &node{lb: append([]float64(nil), nd.lb...), ub: append([]float64(nil), nd.ub...), bound: res.obj}
			down.ub[j] = math.Floor(res.x[j])
			up.lb[j] = math.Ceil(res.x[j])
			// up is popped first
			return []*node{down, up}, mip.Unknown, nil
		}
		x := s.round(res.x)
		accepted, progress, err := s.candidate(x, res.obj)
		if err != nil {
			return nil, mip.Unknown, err
		}
		if accepted {
			s.offer(x, res.obj)
			return nil, mip.Unknown, nil
		}
		if !progress {
			s.log.WithField("model", s.name).Debug("Candidate rejected without a violated cut, pruning node")
			return nil, mip.Unknown, nil
		}
	}
}

func (s *Solver) branchVar(x []float64) int {
	best, bestDist := -1, 1.0
	for j, c := range s.cols {
		if c.vtype == mip.Continuous {
			continue
		}
		frac := x[j] - math.Floor(x[j])
		if frac < intTol || frac > 1-intTol {
			continue
		}
		if dist := math.Abs(frac - 0.5); dist < bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

func (s *Solver) round(x []float64) []float64 {
	r := append([]float64(nil), x...)
	for j, c := range s.cols {
		if c.vtype != mip.Continuous {
			r[j] = math.Round(r[j])
		}
	}
	return r
}

func (s *Solver) objective(x []float64) float64 {
	obj := 0.0
	for j, c := range s.cols {
		obj += c.obj * x[j]
	}
	return obj
}

func (s *Solver) offer(x []float64, obj float64) {
	if obj < s.incObj-objTol {
		s.incumbent = append([]float64(nil), x...)
		s.incObj = obj
		s.log.WithFields(logrus.Fields{"model": s.name, "obj": obj}).Debug("New incumbent")
	}
}

// tryStart validates a start vector against bounds, integrality and rows before
// giving it to the callback like any other candidate.
func (s *Solver) tryStart(x []float64) error {
	if len(x) != len(s.cols) {
		return nil
	}
	for j, c := range s.cols {
		if x[j] < c.lb-feasTol || x[j] > c.ub+feasTol {
			return nil
		}
		if c.vtype != mip.Continuous && math.Abs(x[j]-math.Round(x[j])) > intTol {
			return nil
		}
	}
	for _, r := range s.rows {
		if r.Violated(x, feasTol) {
			return nil
		}
	}
	obj := s.objective(x)
	if obj >= s.incObj-objTol {
		return nil
	}
	accepted, _, err := s.candidate(x, obj)
	if err != nil {
		return err
	}
	if accepted {
		s.offer(x, obj)
	}
	return nil
}

// candidate runs the callback on an integral point. progress reports whether the
// rejection added at least one cut violated by x.
func (s *Solver) candidate(x []float64, obj float64) (accepted, progress bool, err error) {
	if s.callback == nil {
		return true, false, nil
	}
	cc := &candidateContext{solver: s, x: x, obj: obj, active: true}
	err = s.callback(cc)
	cc.active = false
	if err != nil {
		return false, false, errors.Wrap(err, "candidate callback")
	}
	for _, p := range cc.posted {
		s.offer(p.x, p.obj)
	}
	if !cc.rejected {
		return true, false, nil
	}
	for _, cut := range cc.cuts {
		if cut.Violated(x, feasTol) {
			progress = true
		}
	}
	s.rows = append(s.rows, cc.cuts...)
	return false, progress, nil
}
