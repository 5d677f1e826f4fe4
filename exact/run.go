// Package exact holds the exact algorithms for the symmetric TSP: the Benders loop
// and branch-and-cut with the candidate callback, plus the pieces they share.
package exact

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/mip"
	"git.solver4all.com/azaryc2s/tspmip/stats"
)

// Run is everything one algorithm run works with. It is created by the caller and
// passed to every component; nothing here is global.
type Run struct {
	ID       string
	Alg      string
	Dist     *tspmip.Distances
	Solver   mip.Solver
	Settings tspmip.Settings
	Log      *logrus.Entry
	Stats    *stats.Collector
	Timer    *tspmip.Timer
	Rand     *rand.Rand
}

func NewRun(alg string, d *tspmip.Distances, solver mip.Solver, set tspmip.Settings, log logrus.FieldLogger) (*Run, error) {
	if d.N() < 3 {
		return nil, errors.Errorf("instance needs at least 3 nodes, got %d", d.N())
	}
	if err := set.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}
	id := uuid.New().String()
	return &Run{
		ID:       id,
		Alg:      alg,
		Dist:     d,
		Solver:   solver,
		Settings: set,
		Log:      log.WithFields(logrus.Fields{"run": id, "alg": alg}),
		Stats:    stats.New(id, alg),
		Timer:    tspmip.NewTimer(set.Limit()),
		Rand:     rand.New(rand.NewSource(set.Seed)),
	}, nil
}

func (r *Run) N() int {
	return r.Dist.N()
}

// Deadline converts the remaining budget into a wall-clock deadline for heuristics.
func (r *Run) Deadline() time.Time {
	return time.Now().Add(r.Timer.Remaining())
}

// Optimize calls the solver with limit and records how long it took.
func (r *Run) Optimize(ctx context.Context, limit time.Duration) (mip.Status, error) {
	start := time.Now()
	status, err := r.Solver.Optimize(ctx, limit)
	took := time.Since(start)
	r.Stats.SolveSeconds.Observe(took.Seconds())
	if err != nil {
		return status, errors.Wrap(err, "optimize")
	}
	r.Log.WithFields(logrus.Fields{"status": status, "limit": limit.String(), "took": took.String()}).Debug("Solve finished")
	return status, nil
}
