package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"git.solver4all.com/azaryc2s/tspmip"
)

var header = []string{"Name", "Algorithm", "Optimal", "Status", "Time", "Cost", "LBound", "Gap", "Dimension", "Comment"}

func main() {
	app := cli.NewApp()
	app.Name = "analyzer"
	app.Usage = "print a CSV report over the solved instances of a directory"
	app.ArgsUsage = "DIR"
	app.Action = func(c *cli.Context) error {
		if c.NArg() < 1 {
			return errors.New("no directory passed")
		}
		return analyze(c.Args().First(), os.Stdout)
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("Analyzer failed")
	}
}

func analyze(dirName string, out io.Writer) error {
	dir, err := ioutil.ReadDir(dirName)
	if err != nil {
		return errors.Wrapf(err, "opening directory %s", dirName)
	}
	w := csv.NewWriter(out)
	if err = w.Write(header); err != nil {
		return err
	}
	for _, f := range dir {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		inst, err := tspmip.ReadInstance(filepath.Join(dirName, f.Name()))
		if err != nil {
			logrus.WithError(err).Warn("Skipping file")
			continue
		}
		if err = w.Write(Row(inst)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Row summarizes one instance. The stored route is re-evaluated and any mismatch
// is reported in the comment column.
func Row(inst *tspmip.Instance) []string {
	var sol tspmip.Solution
	if inst.Solution != nil {
		sol = *inst.Solution
	}
	comment := sol.Comment
	if err := check(inst, sol); err != nil {
		comment = strings.TrimSpace(fmt.Sprintf("%s ANALYZER: Error = %s", comment, err))
	}
	return []string{
		inst.Name,
		sol.Algorithm,
		strconv.FormatBool(sol.Optimal),
		sol.Status,
		sol.Time,
		strconv.FormatFloat(sol.Cost, 'f', 4, 64),
		strconv.FormatFloat(sol.LowerBound, 'f', 4, 64),
		strconv.FormatFloat(sol.Gap(sol.LowerBound), 'f', 4, 64),
		strconv.Itoa(inst.Dimension),
		comment,
	}
}

func check(inst *tspmip.Instance, sol tspmip.Solution) error {
	if sol.Route == nil {
		return errors.New("no route")
	}
	d := tspmip.NewDistances(inst.NodeCoordinates, inst.EdgeWeightType)
	return tspmip.Tour{Path: sol.Route, Cost: sol.Cost}.Check(d)
}
