package mip

import (
	"fmt"
	"strings"
)

type Term struct {
	Index int
	Coef  float64
}

// Row is a sparse linear constraint. Terms keep their insertion order.
type Row struct {
	Terms []Term
	Sense Sense
	RHS   float64
	Name  string
}

func (r Row) NNZ() int {
	return len(r.Terms)
}

func (r Row) Activity(x []float64) float64 {
	a := 0.0
	for _, t := range r.Terms {
		a += t.Coef * x[t.Index]
	}
	return a
}

// Violated reports whether x breaks the row by more than tol.
func (r Row) Violated(x []float64, tol float64) bool {
	a := r.Activity(x)
	switch r.Sense {
	case LessEqual:
		return a > r.RHS+tol
	case GreaterEqual:
		return a < r.RHS-tol
	}
	return a > r.RHS+tol || a < r.RHS-tol
}

// Split returns the parallel index and coefficient arrays some solver APIs expect.
func (r Row) Split() ([]int32, []float64) {
	ind := make([]int32, len(r.Terms))
	val := make([]float64, len(r.Terms))
	for k, t := range r.Terms {
		ind[k] = int32(t.Index)
		val[k] = t.Coef
	}
	return ind, val
}

func (r Row) String() string {
	var b strings.Builder
	if r.Name != "" {
		b.WriteString(r.Name)
		b.WriteString(": ")
	}
	for k, t := range r.Terms {
		if k > 0 {
			b.WriteString(" + ")
		}
		fmt.Fprintf(&b, "%g x%d", t.Coef, t.Index)
	}
	fmt.Fprintf(&b, " %s %g", r.Sense, r.RHS)
	return b.String()
}
