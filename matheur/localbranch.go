package matheur

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/exact"
	"git.solver4all.com/azaryc2s/tspmip/mip"
)

// Neighbourhood is the local branching row Σ_{e∈t} x_e >= N-k: at most k edges of t
// may be replaced.
func Neighbourhood(t tspmip.Tour, n, k, iteration int) mip.Row {
	row := mip.Row{Sense: mip.GreaterEqual, RHS: float64(n - k), Name: fmt.Sprintf("local_branching(%d)", iteration)}
	for _, idx := range t.EdgeIndices(n) {
		row.Terms = append(row.Terms, mip.Term{Index: idx, Coef: 1.0})
	}
	return row
}

// RunLocalBranching searches the k-opt neighbourhood of the incumbent with a time
// limited sub-solve per iteration. The row of an iteration is retired afterwards by
// setting its right-hand side to 0. Without improvement k grows by the configured
// step; once the neighbourhood holds every tour a finished solve proves optimality.
func RunLocalBranching(ctx context.Context, run *exact.Run) (*exact.Result, error) {
	cb, installed, err := exact.Install(run)
	if err != nil {
		return nil, err
	}
	best, err := start(run, installed)
	if err != nil {
		return nil, err
	}
	n := run.N()
	set := run.Settings.LocalBranching
	k := set.K
	res := &exact.Result{Status: mip.TimeLimit}

	for ctx.Err() == nil {
		limit := run.Timer.SubLimit(set.SubLimitDivisor)
		if limit <= 0 {
			break
		}
		res.Iterations++
		run.Stats.MatheurIterations.WithLabelValues(localBranching).Inc()
		row, err := run.Solver.AddConstr(Neighbourhood(best, n, k, res.Iterations))
		if err != nil {
			return nil, errors.Wrap(err, "adding local branching row")
		}
		if err = run.Solver.AddMIPStart(best.Vars(n)); err != nil {
			return nil, errors.Wrap(err, "adding incumbent as mip start")
		}

		status, err := run.Optimize(ctx, limit)
		if retErr := errors.Wrap(run.Solver.SetRHS(row, 0), "retiring local branching row"); err == nil {
			err = retErr
		}
		if err != nil {
			return nil, err
		}

		before := best.Cost
		improved, err := exact.Collect(run, cb, &best)
		if err != nil {
			return nil, err
		}
		log := run.Log.WithFields(logrus.Fields{"iteration": res.Iterations, "k": k, "status": status, "cost": best.Cost})
		if improved {
			run.Stats.MatheurImprovement.WithLabelValues(localBranching).Inc()
			log.WithField("previous", before).Info("Local branching improved the incumbent")
			continue
		}
		if status == mip.Optimal && k >= n {
			res.Status, res.Optimal, res.LowerBound = mip.Optimal, true, best.Cost
			log.Info("Neighbourhood covers all tours, incumbent is optimal")
			break
		}
		if status == mip.Optimal {
			k += set.KStep
			log.WithField("next_k", k).Debug("Neighbourhood exhausted, enlarging it")
		}
	}
	if ctx.Err() != nil {
		res.Status = mip.Interrupted
	}
	res.Tour = best
	res.Cuts = cb.Cuts()
	return res.Finish(run)
}
