//go:build nogurobi

package runner

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip/mip"
)

// openGurobi always fails in builds without the cgo Gurobi binding.
func openGurobi(name, logFile string, log logrus.FieldLogger) (mip.Solver, error) {
	return nil, errors.New("built without gurobi support")
}
