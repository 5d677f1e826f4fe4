package bnb

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"

	"git.solver4all.com/azaryc2s/tspmip/mip"
)

// Write dumps the model, including lazy cuts added so far, in CPLEX LP format.
func (s *Solver) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err = s.writeLP(w); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return w.Flush()
}

func (s *Solver) writeLP(w io.Writer) error {
	name := func(j int) string {
		if s.cols[j].name != "" {
			return s.cols[j].name
		}
		return fmt.Sprintf("C%d", j)
	}
	fmt.Fprintf(w, "\\ Model %s\nMinimize\n obj:", s.name)
	for j, c := range s.cols {
		if c.obj != 0 {
			fmt.Fprintf(w, " %+g %s", c.obj, name(j))
		}
	}
	fmt.Fprint(w, "\nSubject To\n")
	for i, r := range s.rows {
		rn := r.Name
		if rn == "" {
			rn = fmt.Sprintf("R%d", i)
		}
		fmt.Fprintf(w, " %s:", rn)
		for _, t := range r.Terms {
			fmt.Fprintf(w, " %+g %s", t.Coef, name(t.Index))
		}
		fmt.Fprintf(w, " %s %g\n", r.Sense, r.RHS)
	}
	fmt.Fprint(w, "Bounds\n")
	for j, c := range s.cols {
		if c.vtype == mip.Binary && c.lb == 0 && c.ub == 1 {
			continue
		}
		if math.IsInf(c.ub, 1) {
			fmt.Fprintf(w, " %s >= %g\n", name(j), c.lb)
			continue
		}
		fmt.Fprintf(w, " %g <= %s <= %g\n", c.lb, name(j), c.ub)
	}
	fmt.Fprint(w, "Binaries\n")
	for j, c := range s.cols {
		if c.vtype == mip.Binary {
			fmt.Fprintf(w, " %s\n", name(j))
		}
	}
	_, err := fmt.Fprint(w, "End\n")
	return err
}
