package exact

import (
	"context"

	"github.com/pkg/errors"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/mip"
)

// Install builds the model, registers the candidate callback and, when enabled,
// adds the initial tour as MIP start. The returned tour is empty without a start.
func Install(run *Run) (*Callback, tspmip.Tour, error) {
	if err := BuildModel(run); err != nil {
		return nil, tspmip.Tour{}, err
	}
	cb := NewCallback(run, NewPoster(run, DefaultRefiner))
	if err := run.Solver.SetCandidateCallback(cb.Handle); err != nil {
		return nil, tspmip.Tour{}, errors.Wrap(err, "installing candidate callback")
	}
	var start tspmip.Tour
	if run.Settings.MIPStart {
		t, ok, err := MIPStart(run)
		if err != nil {
			return nil, tspmip.Tour{}, err
		}
		if ok {
			start = t
		}
	}
	return cb, start, nil
}

// Collect folds the solver's solution and the callback's posted tours into best.
// It reports whether best changed.
func Collect(run *Run, cb *Callback, best *tspmip.Tour) (bool, error) {
	improved := false
	x, _, err := run.Solver.Solution()
	switch {
	case errors.Cause(err) == mip.ErrNoSolution:
	case err != nil:
		return false, errors.Wrap(err, "reading solution")
	default:
		cmd, err := Decide(run.Dist, x)
		if err != nil {
			return false, errors.Wrap(err, "analyzing solution")
		}
		if cmd.Kind == Accept {
			improved = tspmip.UpdateIncumbent(run.Dist, cmd.Tour, best)
		} else {
			run.Log.WithField("components", cmd.Components).Warn("Solver returned a disconnected solution")
		}
	}
	if posted, ok := cb.Best(); ok && tspmip.UpdateIncumbent(run.Dist, posted, best) {
		improved = true
	}
	return improved, nil
}

// RunCandidate solves the model in one branch-and-cut run in which the candidate
// callback rejects subtours and posts refined tours.
func RunCandidate(ctx context.Context, run *Run) (*Result, error) {
	cb, best, err := Install(run)
	if err != nil {
		return nil, err
	}
	status := mip.TimeLimit
	if limit := run.Timer.Remaining(); limit > 0 {
		if status, err = run.Optimize(ctx, limit); err != nil {
			return nil, err
		}
	}
	if _, err = Collect(run, cb, &best); err != nil {
		return nil, err
	}
	res := &Result{
		Tour:       best,
		Status:     status,
		Optimal:    status == mip.Optimal,
		LowerBound: run.Solver.ObjBound(),
		Iterations: 1,
		Cuts:       cb.Cuts(),
	}
	return res.Finish(run)
}
