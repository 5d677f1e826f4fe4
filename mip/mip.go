// Package mip is the contract between the TSP engine and a MIP solver backend.
package mip

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

type Sense int8

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	}
	return "?"
}

type VarType int8

const (
	Binary VarType = iota
	Continuous
)

type BoundKind int8

const (
	Lower BoundKind = iota
	Upper
	Both
)

type Status int

const (
	Unknown Status = iota
	Optimal
	TimeLimit
	NodeLimit
	Infeasible
	Interrupted
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case TimeLimit:
		return "TIME_LIMIT"
	case NodeLimit:
		return "NODE_LIMIT"
	case Infeasible:
		return "INFEASIBLE"
	case Interrupted:
		return "INTERRUPTED"
	}
	return "UNKNOWN"
}

var (
	ErrNoSolution = errors.New("no feasible solution available")
	// ErrNotInCallback is returned by a candidate context used after its callback returned.
	ErrNotInCallback = errors.New("candidate context used outside of its callback")
)

// PrimitiveError is a failure inside a solver API call. The engine treats it as fatal.
type PrimitiveError struct {
	Op  string
	Err error
}

func (e *PrimitiveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PrimitiveError) Cause() error { return e.Err }

func (e *PrimitiveError) Unwrap() error { return e.Err }

// Primitive wraps err as a *PrimitiveError, or returns nil.
func Primitive(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PrimitiveError{Op: op, Err: err}
}

// CandidateContext is valid only while the candidate callback that received it runs.
type CandidateContext interface {
	// CandidatePoint returns the variable values and objective of the candidate.
	CandidatePoint() ([]float64, float64, error)
	// RejectCandidate discards the candidate and adds all cuts at once.
	RejectCandidate(cuts []Row) error
	// PostIncumbent injects a feasible solution with its objective, unchecked.
	PostIncumbent(x []float64, obj float64) error
}

// CandidateFunc is invoked once per integer-feasible candidate. A returned error
// aborts the optimization and surfaces from Optimize.
type CandidateFunc func(ctx CandidateContext) error

type Solver interface {
	AddVar(obj, lb, ub float64, vtype VarType, name string) (int, error)
	// AddConstr returns the index of the new row.
	AddConstr(row Row) (int, error)
	SetRHS(row int, rhs float64) error
	SetBounds(idx []int, kinds []BoundKind, vals []float64) error
	SetCandidateCallback(fn CandidateFunc) error
	AddMIPStart(x []float64) error

	// Optimize runs branch-and-cut for at most limit. A limit <= 0 means no time
	// limit, so callers spending a budget must stop before it reaches zero.
	Optimize(ctx context.Context, limit time.Duration) (Status, error)
	// Solution returns the incumbent of the last Optimize call.
	Solution() ([]float64, float64, error)
	ObjBound() float64

	NumVars() int
	Write(path string) error
	Close() error
}
