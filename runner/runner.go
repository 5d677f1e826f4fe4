// Package runner turns an instance, a set of settings and an algorithm name into one
// finished run. It owns the choice of backend so the command-line tools stay thin.
package runner

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/bnb"
	"git.solver4all.com/azaryc2s/tspmip/exact"
	"git.solver4all.com/azaryc2s/tspmip/matheur"
	"git.solver4all.com/azaryc2s/tspmip/mip"
	"git.solver4all.com/azaryc2s/tspmip/stats"
)

const (
	Benders        = "BENDERS"
	BendersPatch   = "BENDERS_PATCH"
	Candidate      = "CANDIDATE"
	HardFixing     = "HARD_FIXING"
	LocalBranching = "LOCAL_BRANCHING"
)

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

type Algorithm func(ctx context.Context, run *exact.Run) (*exact.Result, error)

var algorithms = map[string]Algorithm{
	Benders: func(ctx context.Context, run *exact.Run) (*exact.Result, error) {
		return exact.RunBenders(ctx, run, false)
	},
	BendersPatch: func(ctx context.Context, run *exact.Run) (*exact.Result, error) {
		return exact.RunBenders(ctx, run, true)
	},
	Candidate:      exact.RunCandidate,
	HardFixing:     matheur.RunHardFixing,
	LocalBranching: matheur.RunLocalBranching,
}

// Names lists the known algorithms in lexical order.
func Names() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup is case insensitive.
func Lookup(name string) (string, Algorithm, error) {
	canonical := strings.ToUpper(strings.TrimSpace(name))
	alg, ok := algorithms[canonical]
	if !ok {
		return "", nil, errors.Wrapf(ErrUnknownAlgorithm, "%q, expected one of %s", name, strings.Join(Names(), ", "))
	}
	return canonical, alg, nil
}

// NewSolver opens the backend selected by set.Backend.
func NewSolver(set tspmip.Settings, name string, log logrus.FieldLogger) (mip.Solver, error) {
	switch set.Backend {
	case tspmip.BackendGurobi:
		logFile := ""
		if set.Verbose {
			logFile = name + ".gurobi.log"
		}
		s, err := openGurobi(name, logFile, log)
		if err != nil {
			return nil, errors.Wrap(err, "opening gurobi")
		}
		return s, nil
	case tspmip.BackendBNB:
		return bnb.New(name, bnb.WithLogger(log), bnb.WithNodeLimit(set.BNB.NodeLimit), bnb.WithSeed(set.Seed)), nil
	}
	return nil, errors.Errorf("unknown backend %q", set.Backend)
}

// Outcome is a finished run ready to be stored with its instance.
type Outcome struct {
	Result   *exact.Result
	Solution *tspmip.Solution
	Stats    *stats.Collector
}

// Solve runs alg on inst with a fresh backend that is closed before returning.
func Solve(ctx context.Context, inst *tspmip.Instance, alg string, set tspmip.Settings, log logrus.FieldLogger) (*Outcome, error) {
	name, algorithm, err := Lookup(alg)
	if err != nil {
		return nil, err
	}
	if err = set.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}
	d := tspmip.NewDistances(inst.NodeCoordinates, inst.EdgeWeightType)

	model := inst.Name
	if model == "" {
		model = "tsp"
	}
	solver, err := NewSolver(set, model, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := solver.Close(); cerr != nil {
			log.WithError(cerr).Warn("Closing the solver failed")
		}
	}()

	run, err := exact.NewRun(name, d, solver, set, log)
	if err != nil {
		return nil, err
	}
	run.Log.WithFields(logrus.Fields{"instance": inst.Name, "n": d.N(), "backend": set.Backend}).Info("Starting run")
	res, err := algorithm(ctx, run)
	if err != nil {
		return nil, errors.Wrapf(err, "%s on %s", name, model)
	}
	return &Outcome{Result: res, Solution: res.Solution(run), Stats: run.Stats}, nil
}
