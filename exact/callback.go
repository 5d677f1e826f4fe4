package exact

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/mip"
	"git.solver4all.com/azaryc2s/tspmip/sec"
)

type CommandKind int

const (
	// Reject discards the candidate and adds Cuts.
	Reject CommandKind = iota
	// Accept posts Tour as incumbent.
	Accept
)

func (k CommandKind) String() string {
	if k == Reject {
		return "reject"
	}
	return "accept"
}

// Command is the answer to one integral candidate.
type Command struct {
	Kind       CommandKind
	Cuts       []mip.Row
	Tour       tspmip.Tour
	Components int
}

// Decide maps an integral edge vector to a command: one SEC per component when the
// edges form several cycles, the tour otherwise.
func Decide(d *tspmip.Distances, x []float64) (Command, error) {
	succ, comps, err := sec.FromVars(x, d.N())
	if err != nil {
		return Command{}, err
	}
	if comps.Count > 1 {
		return Command{Kind: Reject, Cuts: sec.Separate(comps), Components: comps.Count}, nil
	}
	st := tspmip.SuccTour{Succ: succ, Cost: tspmip.SuccCost(d, succ)}
	return Command{Kind: Accept, Tour: st.Path(), Components: 1}, nil
}

// Callback is installed as candidate callback. It may be called from several solver
// threads; the tour it keeps is read by the controller after Optimize returns.
type Callback struct {
	run    *Run
	poster *Poster

	mu       sync.Mutex
	best     tspmip.Tour
	cuts     int
	rejected int
}

func NewCallback(run *Run, poster *Poster) *Callback {
	return &Callback{run: run, poster: poster}
}

// Handle retrieves the candidate, decides and carries the command out. Any error
// aborts the optimization.
func (cb *Callback) Handle(ctx mip.CandidateContext) error {
	x, obj, err := ctx.CandidatePoint()
	if err != nil {
		return errors.Wrap(err, "retrieving candidate")
	}
	cmd, err := Decide(cb.run.Dist, x)
	if err != nil {
		return errors.Wrap(err, "analyzing candidate")
	}
	switch cmd.Kind {
	case Reject:
		if err = ctx.RejectCandidate(cmd.Cuts); err != nil {
			return errors.Wrap(err, "rejecting candidate")
		}
		cb.mu.Lock()
		cb.cuts += len(cmd.Cuts)
		cb.rejected++
		cb.mu.Unlock()
		cb.run.Stats.Rejected.Inc()
		cb.run.Stats.SECs.Add(float64(len(cmd.Cuts)))
		cb.run.Log.WithFields(logrus.Fields{"obj": obj, "components": cmd.Components, "cuts": len(cmd.Cuts)}).Debug("Candidate rejected")
	case Accept:
		posted, err := cb.poster.Post(ctx, cmd.Tour)
		if err != nil {
			return err
		}
		cb.mu.Lock()
		tspmip.UpdateIncumbent(cb.run.Dist, posted, &cb.best)
		cb.mu.Unlock()
	}
	return nil
}

// Best returns the cheapest tour posted so far.
func (cb *Callback) Best() (tspmip.Tour, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.best.Clone(), cb.best.Path != nil
}

func (cb *Callback) Cuts() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.cuts
}

func (cb *Callback) Rejected() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.rejected
}
