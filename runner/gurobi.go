//go:build !nogurobi

package runner

import (
	"github.com/sirupsen/logrus"

	"git.solver4all.com/azaryc2s/tspmip/grb"
	"git.solver4all.com/azaryc2s/tspmip/mip"
)

func openGurobi(name, logFile string, log logrus.FieldLogger) (mip.Solver, error) {
	s, err := grb.New(name, logFile, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}
