package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/runner"
)

var algs tspmip.ArrayStringFlags

func main() {
	app := cli.NewApp()
	app.Name = "solver"
	app.Usage = "solve symmetric TSP instances with lazy subtour elimination"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "input, i", Value: "input.json", Usage: "path to the input instance"},
		cli.StringFlag{Name: "output, o", Usage: "path to the output file. By default the input file is overwritten with the solution added"},
		cli.GenericFlag{Name: "alg, a", Value: &algs, Usage: "algorithm to run, repeatable: " + strings.Join(runner.Names(), ", ")},
		cli.StringFlag{Name: "config, c", Usage: "YAML settings file"},
		cli.Float64Flag{Name: "tl", Usage: "time limit in seconds"},
		cli.Int64Flag{Name: "seed", Usage: "seed of the random number generator"},
		cli.StringFlag{Name: "backend", Usage: "MIP backend: bnb or gurobi"},
		cli.BoolTFlag{Name: "mipstart", Usage: "start from a nearest neighbour + 2-opt tour"},
		cli.BoolFlag{Name: "verbose, v", Usage: "debug logging and model dump for small instances"},
		cli.StringFlag{Name: "modelfile", Usage: "where the model is dumped in verbose mode"},
		cli.StringFlag{Name: "metrics", Usage: "write run metrics in Prometheus text format to this file"},
		cli.StringFlag{Name: "logfile", Usage: "copy the log to this file"},
	}
	app.Action = solve

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("Solver failed")
	}
}

// settings loads the config file and applies the flags that were given explicitly.
func settings(c *cli.Context) (tspmip.Settings, error) {
	set, err := tspmip.LoadSettings(c.String("config"))
	if err != nil {
		return set, err
	}
	if c.IsSet("tl") {
		set.TimeLimit = c.Float64("tl")
	}
	if c.IsSet("seed") {
		set.Seed = c.Int64("seed")
	}
	if c.IsSet("backend") {
		set.Backend = c.String("backend")
	}
	if c.IsSet("mipstart") {
		set.MIPStart = c.BoolT("mipstart")
	}
	if c.Bool("verbose") {
		set.Verbose = true
	}
	if c.IsSet("modelfile") {
		set.ModelFile = c.String("modelfile")
	}
	if c.IsSet("metrics") {
		set.MetricsFile = c.String("metrics")
	}
	if c.IsSet("logfile") {
		set.LogFile = c.String("logfile")
	}
	return set, set.Validate()
}

func logger(set tspmip.Settings) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if set.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if set.LogFile == "" {
		return log, io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(set.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening log file %s", set.LogFile)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return log, f, nil
}

// outputPath keeps one file per algorithm when several are run.
func outputPath(base, alg string, many bool) string {
	if !many {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s_%s%s", strings.TrimSuffix(base, ext), alg, ext)
}

func solve(c *cli.Context) error {
	set, err := settings(c)
	if err != nil {
		return err
	}
	log, closer, err := logger(set)
	if err != nil {
		return err
	}
	defer closer.Close()

	inputF := c.String("input")
	inst, err := tspmip.ReadInstance(inputF)
	if err != nil {
		return err
	}
	outputF := c.String("output")
	if outputF == "" {
		outputF = inputF
	}
	if len(algs) == 0 {
		algs = tspmip.ArrayStringFlags{runner.Benders}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sysInfo := tspmip.CollectSysInfo()
	var metrics strings.Builder
	for _, alg := range algs {
		out, err := runner.Solve(ctx, inst, alg, set, log)
		if err != nil {
			return err
		}
		out.Solution.System = sysInfo
		inst.Solution = out.Solution

		path := outputPath(outputF, out.Solution.Algorithm, len(algs) > 1)
		if err = tspmip.WriteInstance(path, inst); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"alg":     out.Solution.Algorithm,
			"cost":    out.Solution.Cost,
			"optimal": out.Solution.Optimal,
			"gap":     fmt.Sprintf("%.4f%%", out.Solution.Gap(out.Solution.LowerBound)),
			"file":    path,
		}).Info("Solution written")

		if err = out.Stats.WriteText(&metrics); err != nil {
			return err
		}
	}

	if set.MetricsFile != "" {
		if err = os.WriteFile(set.MetricsFile, []byte(metrics.String()), 0644); err != nil {
			return errors.Wrapf(err, "writing metrics %s", set.MetricsFile)
		}
	}
	return nil
}
