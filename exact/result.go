package exact

import (
	"time"

	"github.com/pkg/errors"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/mip"
)

// ErrNoTour means the run ended without any valid tour.
var ErrNoTour = errors.New("no tour found")

// Result is what every algorithm returns. Optimal is false whenever the budget ran
// out, in which case Tour is the best one found so far.
type Result struct {
	Tour       tspmip.Tour
	Elapsed    time.Duration
	Status     mip.Status
	Optimal    bool
	LowerBound float64
	Iterations int
	Cuts       int
}

// Finish validates the tour and stamps the elapsed time.
func (r *Result) Finish(run *Run) (*Result, error) {
	r.Elapsed = run.Timer.Elapsed()
	if r.Tour.Path == nil {
		return nil, errors.Wrapf(ErrNoTour, "after %s (%s)", r.Elapsed, r.Status)
	}
	if err := r.Tour.Check(run.Dist); err != nil {
		return nil, errors.Wrap(ErrInvalidTour, err.Error())
	}
	run.Log.WithField("cost", r.Tour.Cost).WithField("optimal", r.Optimal).WithField("time", r.Elapsed.String()).Info("Run finished")
	return r, nil
}

// Solution converts the result into the record stored with the instance.
func (r *Result) Solution(run *Run) *tspmip.Solution {
	return &tspmip.Solution{
		Algorithm:  run.Alg,
		Cost:       r.Tour.Cost,
		LowerBound: r.LowerBound,
		Optimal:    r.Optimal,
		Status:     r.Status.String(),
		Route:      append([]int(nil), r.Tour.Path...),
		Iterations: r.Iterations,
		Cuts:       r.Cuts,
		RunID:      run.ID,
		Time:       r.Elapsed.String(),
	}
}
