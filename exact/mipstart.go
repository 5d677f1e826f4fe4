package exact

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/heur"
)

// startDivisor gives the share of the global budget spent on the initial tour.
const startDivisor = 10

// InitialTour builds the best nearest neighbour tour over all start nodes and
// refines it with 2-opt, both within limit/10. ok is false when the budget ran out
// before refinement finished or the tour is invalid.
func InitialTour(run *Run) (tspmip.Tour, bool) {
	start := time.Now()
	deadline := start.Add(run.Timer.SubLimit(startDivisor))
	t := heur.BestStart(run.Dist, deadline)
	t = heur.TwoOpt(run.Dist, t, deadline)
	log := run.Log.WithFields(logrus.Fields{"cost": t.Cost, "took": time.Since(start).String()})
	if time.Now().After(deadline) {
		log.Info("Initial tour exceeded its time budget")
		return t, false
	}
	if err := t.Check(run.Dist); err != nil {
		log.WithError(err).Warn("Initial tour is invalid")
		return tspmip.Tour{}, false
	}
	log.Debug("Initial tour")
	return t, true
}

// MIPStart adds the initial tour as MIP start. The tour is returned only when it
// was added.
func MIPStart(run *Run) (tspmip.Tour, bool, error) {
	t, ok := InitialTour(run)
	if !ok {
		return tspmip.Tour{}, false, nil
	}
	if err := run.Solver.AddMIPStart(t.Vars(run.N())); err != nil {
		return tspmip.Tour{}, false, errors.Wrap(err, "adding mip start")
	}
	return t, true, nil
}
