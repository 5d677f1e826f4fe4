// Package matheur runs matheuristics on top of the exact model: hard fixing and
// local branching. Both keep the candidate callback installed, so every sub-solve
// still returns tours.
package matheur

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/exact"
	"git.solver4all.com/azaryc2s/tspmip/mip"
)

const (
	hardFixing     = "hard_fixing"
	localBranching = "local_branching"
)

// Sample draws k items without replacement by reservoir sampling. All items are
// returned when k >= len(items).
func Sample(items []int, k int, rng *rand.Rand) []int {
	if k >= len(items) {
		return append([]int(nil), items...)
	}
	if k <= 0 {
		return nil
	}
	res := append([]int(nil), items[:k]...)
	for i := k; i < len(items); i++ {
		if j := rng.Intn(i + 1); j < k {
			res[j] = items[i]
		}
	}
	return res
}

func bounds(idx []int, val float64) ([]mip.BoundKind, []float64) {
	kinds := make([]mip.BoundKind, len(idx))
	vals := make([]float64, len(idx))
	for k := range idx {
		kinds[k] = mip.Lower
		vals[k] = val
	}
	return kinds, vals
}

// start returns the tour the matheuristics begin from: the initial tour, or the
// nearest neighbour tour when that one could not be built in time.
func start(run *exact.Run, installed tspmip.Tour) (tspmip.Tour, error) {
	if installed.Path != nil {
		return installed, nil
	}
	t, ok := exact.InitialTour(run)
	if ok || t.Check(run.Dist) == nil {
		return t, nil
	}
	return tspmip.Tour{}, errors.Wrap(exact.ErrNoTour, "no initial tour for the matheuristic")
}

// RunHardFixing repeatedly fixes a random ⌊ratio·N⌋ edges of the incumbent to 1,
// solves for limit/divisor seconds from the incumbent and releases the edges again.
func RunHardFixing(ctx context.Context, run *exact.Run) (*exact.Result, error) {
	cb, installed, err := exact.Install(run)
	if err != nil {
		return nil, err
	}
	best, err := start(run, installed)
	if err != nil {
		return nil, err
	}
	n := run.N()
	set := run.Settings.HardFixing
	nfix := int(float64(n) * set.FixRatio)
	res := &exact.Result{Status: mip.TimeLimit}

	for ctx.Err() == nil {
		limit := run.Timer.SubLimit(set.SubLimitDivisor)
		if limit <= 0 {
			break
		}
		res.Iterations++
		run.Stats.MatheurIterations.WithLabelValues(hardFixing).Inc()
		fixed := Sample(best.EdgeIndices(n), nfix, run.Rand)
		kinds, ones := bounds(fixed, 1)
		if err = run.Solver.SetBounds(fixed, kinds, ones); err != nil {
			return nil, errors.Wrap(err, "fixing edges")
		}
		if err = run.Solver.AddMIPStart(best.Vars(n)); err != nil {
			release(run, fixed)
			return nil, errors.Wrap(err, "adding incumbent as mip start")
		}

		_, err = run.Optimize(ctx, limit)
		if relErr := release(run, fixed); err == nil {
			err = relErr
		}
		if err != nil {
			return nil, err
		}

		before := best.Cost
		improved, err := exact.Collect(run, cb, &best)
		if err != nil {
			return nil, err
		}
		log := run.Log.WithFields(logrus.Fields{"iteration": res.Iterations, "fixed": len(fixed), "limit": limit.String(), "cost": best.Cost})
		if improved {
			run.Stats.MatheurImprovement.WithLabelValues(hardFixing).Inc()
			log.WithField("previous", before).Info("Hard fixing improved the incumbent")
		} else {
			log.Debug("Hard fixing iteration")
		}
	}
	if ctx.Err() != nil {
		res.Status = mip.Interrupted
	}
	res.Tour = best
	res.Cuts = cb.Cuts()
	return res.Finish(run)
}

// release resets the lower bounds of fixed to 0.
func release(run *exact.Run, fixed []int) error {
	kinds, zeros := bounds(fixed, 0)
	return errors.Wrap(run.Solver.SetBounds(fixed, kinds, zeros), "releasing edges")
}
