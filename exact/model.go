package exact

import (
	"fmt"

	"github.com/pkg/errors"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/mip"
)

// dumpLimit is the node count below which verbose runs write the model file.
const dumpLimit = 11

// BuildModel adds one binary column per edge, weighted by its length, in edge index
// order, and the degree row Σ_{e∋h} x_e = 2 for every node h.
func BuildModel(run *Run) error {
	n := run.N()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			idx, err := run.Solver.AddVar(run.Dist.Dist(i, j), 0, 1, mip.Binary, fmt.Sprintf("x(%d,%d)", i+1, j+1))
			if err != nil {
				return errors.Wrapf(err, "adding x(%d,%d)", i+1, j+1)
			}
			if want := tspmip.EdgeIndex(i, j, n); idx != want {
				return errors.Errorf("x(%d,%d) got column %d, expected %d", i+1, j+1, idx, want)
			}
		}
	}
	for h := 0; h < n; h++ {
		row := mip.Row{Terms: make([]mip.Term, 0, n-1), Sense: mip.Equal, RHS: 2, Name: fmt.Sprintf("degree(%d)", h+1)}
		for i := 0; i < n; i++ {
			if i != h {
				row.Terms = append(row.Terms, mip.Term{Index: tspmip.EdgeIndex(i, h, n), Coef: 1.0})
			}
		}
		if _, err := run.Solver.AddConstr(row); err != nil {
			return errors.Wrapf(err, "adding %s", row.Name)
		}
	}
	run.Log.WithField("columns", run.Solver.NumVars()).Debug("Model built")

	if run.Settings.Verbose && n < dumpLimit && run.Settings.ModelFile != "" {
		if err := run.Solver.Write(run.Settings.ModelFile); err != nil {
			run.Log.WithError(err).Warn("Couldn't write the model file")
		}
	}
	return nil
}
