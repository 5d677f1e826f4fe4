package exact

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/heur"
	"git.solver4all.com/azaryc2s/tspmip/mip"
	"git.solver4all.com/azaryc2s/tspmip/sec"
)

// ErrNoProgress means an iteration produced only cuts that were already added.
var ErrNoProgress = errors.New("separation produced no new cut")

// RunBenders solves the degree relaxation, cuts off every subtour of its solution
// and solves again until the solution is a single tour or the budget is spent. With
// patch, disconnected solutions are merged into a tour that becomes the incumbent
// and the MIP start of the next solve.
func RunBenders(ctx context.Context, run *Run, patch bool) (*Result, error) {
	if err := BuildModel(run); err != nil {
		return nil, err
	}
	n := run.N()
	res := &Result{Status: mip.Unknown}
	var best tspmip.Tour
	if run.Settings.MIPStart {
		t, ok, err := MIPStart(run)
		if err != nil {
			return nil, err
		}
		if ok {
			best = t
		}
	}

	pool := sec.NewPool()
	for {
		if ctx.Err() != nil {
			res.Status = mip.Interrupted
			break
		}
		// read once: a solver given a zero limit would run without one
		limit := run.Timer.Remaining()
		if limit <= 0 {
			res.Status = mip.TimeLimit
			break
		}
		res.Iterations++
		run.Stats.BendersIterations.Inc()

		status, err := run.Optimize(ctx, limit)
		if err != nil {
			return nil, err
		}
		res.Status = status
		if status == mip.Infeasible {
			return nil, errors.Errorf("relaxation is infeasible in iteration %d", res.Iterations)
		}
		x, obj, err := run.Solver.Solution()
		if errors.Cause(err) == mip.ErrNoSolution && status != mip.Optimal {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading solution of iteration %d", res.Iterations)
		}
		if status == mip.Optimal && obj > res.LowerBound {
			res.LowerBound = obj
		}

		succ, comps, err := sec.FromVars(x, n)
		if err != nil {
			return nil, errors.Wrapf(err, "analyzing solution of iteration %d", res.Iterations)
		}
		log := run.Log.WithFields(logrus.Fields{"iteration": res.Iterations, "obj": obj, "components": comps.Count})
		if comps.Count == 1 {
			tour := tspmip.SuccTour{Succ: succ, Cost: tspmip.SuccCost(run.Dist, succ)}.Path()
			tspmip.UpdateIncumbent(run.Dist, tour, &best)
			res.Optimal = status == mip.Optimal
			log.Debug("Solution is a single tour")
			break
		}

		if patch {
			patched := heur.Patch(run.Dist, succ).Path()
			refined := heur.TwoOpt(run.Dist, patched, run.Deadline())
			run.Stats.Patched.Inc()
			if tspmip.UpdateIncumbent(run.Dist, refined, &best) {
				log.WithField("cost", best.Cost).Debug("Patched tour is the new incumbent")
				if err = run.Solver.AddMIPStart(best.Vars(n)); err != nil {
					return nil, errors.Wrap(err, "adding patched tour as mip start")
				}
			}
		}

		cuts := pool.Separate(comps)
		if len(cuts) == 0 {
			return nil, errors.Wrapf(ErrNoProgress, "iteration %d", res.Iterations)
		}
		for _, cut := range cuts {
			if _, err = run.Solver.AddConstr(cut); err != nil {
				return nil, errors.Wrapf(err, "adding %s", cut.Name)
			}
		}
		res.Cuts += len(cuts)
		run.Stats.SECs.Add(float64(len(cuts)))
		log.WithField("cuts", len(cuts)).Debug("Subtours cut off")

		if status != mip.Optimal {
			break
		}
	}

	res.Tour = best
	if !res.Optimal {
		res.Status = finalStatus(res.Status)
	}
	return res.Finish(run)
}

// finalStatus reports an unfinished loop as time limit unless the solver gave a
// more specific reason.
func finalStatus(s mip.Status) mip.Status {
	switch s {
	case mip.Interrupted, mip.NodeLimit, mip.TimeLimit:
		return s
	}
	return mip.TimeLimit
}
