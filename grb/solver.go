/* Copyright 2021, Arkadiusz Zarychta, arkadiusz.zarychta@h-brs.de */
/* Copyright 2021, Gurobi Optimization, LLC */

// Package grb implements mip.Solver on top of Gurobi. Lazy cuts are added in the
// MIPSOL callback and posted tours are handed back to Gurobi at the next MIPNODE.
package grb

import (
	"context"
	"sync"
	"time"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip/mip"
)

// errAborted is the code returned from the callback to stop Gurobi.
const errAborted = 10011

type pendingPost struct {
	x   []float64
	obj float64
}

type Solver struct {
	env   *gurobi.Env
	model *gurobi.Model
	log   logrus.FieldLogger

	nvars int
	nrows int

	callback mip.CandidateFunc

	mu      sync.Mutex
	pending *pendingPost
	cbErr   error
	ctx     context.Context
}

// New loads a Gurobi environment logging to logFile and creates an empty model.
func New(name, logFile string, log logrus.FieldLogger) (*Solver, error) {
	env, err := gurobi.LoadEnv(logFile)
	if err != nil {
		return nil, mip.Primitive("LoadEnv", err)
	}
	if err = env.SetIntParam("LogToConsole", int32(0)); err != nil {
		env.Free()
		return nil, mip.Primitive("SetIntParam(LogToConsole)", err)
	}
	model, err := env.NewModel(name, 0, nil, nil, nil, nil, nil)
	if err != nil {
		env.Free()
		return nil, mip.Primitive("NewModel", err)
	}
	// Must set LazyConstraints parameter when using lazy constraints
	if err = model.SetIntParam(gurobi.INT_PAR_LAZYCONSTRAINTS, 1); err != nil {
		model.Free()
		env.Free()
		return nil, mip.Primitive("SetIntParam(LazyConstraints)", err)
	}
	return &Solver{env: env, model: model, log: log}, nil
}

func (s *Solver) AddVar(obj, lb, ub float64, vtype mip.VarType, name string) (int, error) {
	var vt int8 = gurobi.BINARY
	if vtype == mip.Continuous {
		vt = gurobi.CONTINUOUS
	}
	if err := s.model.AddVar(nil, nil, obj, lb, ub, vt, name); err != nil {
		return -1, mip.Primitive("AddVar", err)
	}
	s.nvars++
	return s.nvars - 1, nil
}

func sense(sn mip.Sense) int8 {
	switch sn {
	case mip.LessEqual:
		return gurobi.LESS_EQUAL
	case mip.GreaterEqual:
		return gurobi.GREATER_EQUAL
	}
	return gurobi.EQUAL
}

func (s *Solver) AddConstr(row mip.Row) (int, error) {
	ind, val := row.Split()
	if err := s.model.AddConstr(ind, val, sense(row.Sense), row.RHS, row.Name); err != nil {
		return -1, mip.Primitive("AddConstr", err)
	}
	s.nrows++
	return s.nrows - 1, nil
}

func (s *Solver) SetRHS(row int, rhs float64) error {
	if row < 0 || row >= s.nrows {
		return errors.Errorf("row %d out of range", row)
	}
	return mip.Primitive("SetDblAttrElem(RHS)", s.model.SetDblAttrElem(gurobi.DBL_ATTR_RHS, int32(row), rhs))
}

func (s *Solver) SetBounds(idx []int, kinds []mip.BoundKind, vals []float64) error {
	if len(idx) != len(kinds) || len(idx) != len(vals) {
		return errors.Errorf("bounds arrays differ in length: %d, %d, %d", len(idx), len(kinds), len(vals))
	}
	for k, j := range idx {
		if kinds[k] == mip.Lower || kinds[k] == mip.Both {
			if err := s.model.SetDblAttrElem(gurobi.DBL_ATTR_LB, int32(j), vals[k]); err != nil {
				return mip.Primitive("SetDblAttrElem(LB)", err)
			}
		}
		if kinds[k] == mip.Upper || kinds[k] == mip.Both {
			if err := s.model.SetDblAttrElem(gurobi.DBL_ATTR_UB, int32(j), vals[k]); err != nil {
				return mip.Primitive("SetDblAttrElem(UB)", err)
			}
		}
	}
	return nil
}

func (s *Solver) SetCandidateCallback(fn mip.CandidateFunc) error {
	s.callback = fn
	if err := s.model.SetCallbackFuncGo(dispatch, s); err != nil {
		return mip.Primitive("SetCallbackFuncGo", err)
	}
	return nil
}

func (s *Solver) AddMIPStart(x []float64) error {
	if len(x) != s.nvars {
		return errors.Errorf("mip start has %d values for %d columns", len(x), s.nvars)
	}
	return mip.Primitive("SetDblAttrArray(Start)", s.model.SetDblAttrArray(gurobi.DBL_ATTR_START, 0, x))
}

// Optimization status codes of the Gurobi C API.
const (
	statusOptimal     = 2
	statusInfeasible  = 3
	statusInfOrUnbd   = 4
	statusNodeLimit   = 8
	statusTimeLimit   = 9
	statusInterrupted = 11
)

// noTimeLimit is GRB_INFINITY, the default of the TimeLimit parameter.
const noTimeLimit = 1e100

// Optimize runs Gurobi for at most limit, or without a time limit when limit <= 0.
func (s *Solver) Optimize(ctx context.Context, limit time.Duration) (mip.Status, error) {
	seconds := noTimeLimit
	if limit > 0 {
		seconds = limit.Seconds()
	}
	// the parameter persists on the model, so it is reset on every call
	if err := s.model.SetDblParam("TimeLimit", seconds); err != nil {
		return mip.Unknown, mip.Primitive("SetDblParam(TimeLimit)", err)
	}
	s.mu.Lock()
	s.ctx, s.cbErr, s.pending = ctx, nil, nil
	s.mu.Unlock()

	err := s.model.Optimize()

	s.mu.Lock()
	cbErr := s.cbErr
	s.mu.Unlock()
	if cbErr != nil {
		return mip.Unknown, cbErr
	}
	if ctx.Err() != nil {
		return mip.Interrupted, nil
	}
	if err != nil {
		return mip.Unknown, mip.Primitive("Optimize", err)
	}
	status, err := s.model.GetIntAttr(gurobi.INT_ATTR_STATUS)
	if err != nil {
		return mip.Unknown, mip.Primitive("GetIntAttr(Status)", err)
	}
	st, ok := toStatus(int(status))
	if !ok {
		s.log.WithField("status", status).Warn("Unmapped Gurobi status")
	}
	return st, nil
}

func toStatus(code int) (mip.Status, bool) {
	switch code {
	case statusOptimal:
		return mip.Optimal, true
	case statusTimeLimit:
		return mip.TimeLimit, true
	case statusInfOrUnbd, statusInfeasible:
		return mip.Infeasible, true
	case statusNodeLimit:
		return mip.NodeLimit, true
	case statusInterrupted:
		return mip.Interrupted, true
	}
	return mip.Unknown, false
}

func (s *Solver) Solution() ([]float64, float64, error) {
	count, err := s.model.GetIntAttr(gurobi.INT_ATTR_SOLCOUNT)
	if err != nil {
		return nil, 0, mip.Primitive("GetIntAttr(SolCount)", err)
	}
	if count == 0 {
		return nil, 0, mip.ErrNoSolution
	}
	x, err := s.model.GetDblAttrArray(gurobi.DBL_ATTR_X, 0, int32(s.nvars))
	if err != nil {
		return nil, 0, mip.Primitive("GetDblAttrArray(X)", err)
	}
	obj, err := s.model.GetDblAttr(gurobi.DBL_ATTR_OBJVAL)
	if err != nil {
		return nil, 0, mip.Primitive("GetDblAttr(ObjVal)", err)
	}
	return x, obj, nil
}

func (s *Solver) ObjBound() float64 {
	bound, err := s.model.GetDblAttr(gurobi.DBL_ATTR_OBJBOUND)
	if err != nil {
		s.log.WithError(err).Warn("Couldn't retrieve the objective bound")
		return 0
	}
	return bound
}

func (s *Solver) NumVars() int {
	return s.nvars
}

func (s *Solver) Write(path string) error {
	return mip.Primitive("Write", s.model.Write(path))
}

func (s *Solver) Close() error {
	s.model.Free()
	s.env.Free()
	return nil
}

func (s *Solver) fail(err error) int32 {
	s.mu.Lock()
	if s.cbErr == nil {
		s.cbErr = err
	}
	s.mu.Unlock()
	return errAborted
}

// dispatch is registered with Gurobi. Candidates arrive at MIPSOL; a tour posted
// there can only be injected at the following MIPNODE.
func dispatch(model *gurobi.Model, cbdata gurobi.CPVoid, where int32, usrdata interface{}) int32 {
	s := usrdata.(*Solver)
	s.mu.Lock()
	cancelled := s.ctx != nil && s.ctx.Err() != nil
	s.mu.Unlock()
	if cancelled {
		return errAborted
	}

	switch where {
	case gurobi.CB_MIPSOL:
		if s.callback == nil {
			return 0
		}
		x, err := gurobi.CbGetDblArray(cbdata, where, gurobi.CB_MIPSOL_SOL, s.nvars)
		if err != nil {
			return s.fail(mip.Primitive("CbGetDblArray(MIPSOL_SOL)", err))
		}
		obj, err := gurobi.CbGetDbl(cbdata, where, gurobi.CB_MIPSOL_OBJ)
		if err != nil {
			return s.fail(mip.Primitive("CbGetDbl(MIPSOL_OBJ)", err))
		}
		cc := &candidateContext{solver: s, cbdata: cbdata, x: x, obj: obj, active: true}
		err = s.callback(cc)
		cc.active = false
		if err != nil {
			return s.fail(errors.Wrap(err, "candidate callback"))
		}
	case gurobi.CB_MIPNODE:
		s.mu.Lock()
		p := s.pending
		s.mu.Unlock()
		if p == nil {
			return 0
		}
		objbst, err := gurobi.CbGetDbl(cbdata, where, gurobi.CB_MIPNODE_OBJBST)
		if err != nil {
			return s.fail(mip.Primitive("CbGetDbl(MIPNODE_OBJBST)", err))
		}
		if objbst <= p.obj {
			s.log.WithFields(logrus.Fields{"best": objbst, "posted": p.obj}).Debug("Incumbent already better than the posted tour, skipping")
		} else if val, err := gurobi.CbSolution(cbdata, p.x); err != nil {
			s.log.WithError(err).Warn("Couldn't set the heuristic solution")
		} else {
			s.log.WithField("obj", val).Debug("Heuristic solution set")
		}
		s.mu.Lock()
		if s.pending == p {
			s.pending = nil
		}
		s.mu.Unlock()
	}
	return 0
}
