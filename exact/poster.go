package exact

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/heur"
	"git.solver4all.com/azaryc2s/tspmip/mip"
	"git.solver4all.com/azaryc2s/tspmip/stats"
)

// ErrInvalidTour is returned when neither the refined tour nor the one it started
// from passes validation.
var ErrInvalidTour = errors.New("tour failed validation")

// Refiner improves a tour until the deadline.
type Refiner func(d *tspmip.Distances, t tspmip.Tour, deadline time.Time) tspmip.Tour

// Poster turns tours into solver incumbents.
type Poster struct {
	dist     *tspmip.Distances
	refine   Refiner
	deadline func() time.Time
	log      logrus.FieldLogger
	stats    *stats.Collector
}

// NewPoster refines with 2-opt bounded by the run budget. A nil refiner disables
// refinement.
func NewPoster(run *Run, refine Refiner) *Poster {
	return &Poster{dist: run.Dist, refine: refine, deadline: run.Deadline, log: run.Log, stats: run.Stats}
}

// DefaultRefiner is the 2-opt local search.
var DefaultRefiner Refiner = heur.TwoOpt

// Prepare refines and validates t. A refined tour that fails validation is dropped
// in favour of t. The returned tour carries its recomputed cost.
func (p *Poster) Prepare(t tspmip.Tour) (tspmip.Tour, []float64, error) {
	use := t
	if p.refine != nil {
		refined := p.refine(p.dist, t, p.deadline())
		if err := refined.Check(p.dist); err != nil {
			p.log.WithError(err).Warn("Refined tour is invalid, falling back to the original one")
			p.stats.PostFallbacks.Inc()
		} else {
			use = refined
		}
	}
	if err := use.Check(p.dist); err != nil {
		return tspmip.Tour{}, nil, errors.Wrap(ErrInvalidTour, err.Error())
	}
	use = use.Clone()
	use.Cost = tspmip.PathCost(p.dist, use.Path)
	return use, use.Vars(p.dist.N()), nil
}

// Post prepares t and injects it into the running search.
func (p *Poster) Post(ctx mip.CandidateContext, t tspmip.Tour) (tspmip.Tour, error) {
	use, x, err := p.Prepare(t)
	if err != nil {
		return tspmip.Tour{}, err
	}
	if err = ctx.PostIncumbent(x, use.Cost); err != nil {
		return tspmip.Tour{}, errors.Wrap(err, "posting incumbent")
	}
	p.stats.Posted.Inc()
	p.log.WithFields(logrus.Fields{"cost": use.Cost, "candidate": t.Cost}).Debug("Posted tour")
	return use, nil
}
