package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"git.solver4all.com/azaryc2s/tspmip"
	"git.solver4all.com/azaryc2s/tspmip/runner"
)

var nodes tspmip.ArrayIntFlags

func main() {
	app := cli.NewApp()
	app.Name = "generator"
	app.Usage = "generate random uniform TSP instances"
	app.Flags = []cli.Flag{
		cli.GenericFlag{Name: "n", Value: &nodes, Usage: "number of nodes, repeatable"},
		cli.StringFlag{Name: "name", Value: "random", Usage: "name prefix for the instances"},
		cli.IntFlag{Name: "count", Value: 10, Usage: "number of instances per size"},
		cli.IntFlag{Name: "x", Value: 10000, Usage: "max value on the x-axis"},
		cli.IntFlag{Name: "y", Value: 10000, Usage: "max value on the y-axis"},
		cli.StringFlag{Name: "w", Value: tspmip.EUC_2D, Usage: "EDGE_WEIGHT_TYPE: EUC_2D, CEIL_2D or EXACT_2D"},
		cli.Int64Flag{Name: "seed", Value: 1, Usage: "seed of the coordinate generator"},
		cli.StringFlag{Name: "dir", Value: ".", Usage: "output directory"},
		cli.StringFlag{Name: "alg", Usage: "solve each instance with this algorithm and store the tour"},
		cli.Float64Flag{Name: "tl", Value: 60, Usage: "time limit in seconds when solving"},
	}
	app.Action = generate

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("Generator failed")
	}
}

// Generate draws n integer coordinates uniformly from [0,xTo) x [0,yTo).
func Generate(name string, n, xTo, yTo int, weightType string, rng *rand.Rand) *tspmip.Instance {
	coords := make([][]float64, n)
	for node := range coords {
		coords[node] = []float64{float64(rng.Intn(xTo)), float64(rng.Intn(yTo))}
	}
	return &tspmip.Instance{
		Name:            name,
		Type:            "TSP",
		Dimension:       n,
		DisplayDataType: "COORD_DISPLAY",
		EdgeWeightType:  weightType,
		NodeCoordinates: coords,
	}
}

func generate(c *cli.Context) error {
	if len(nodes) == 0 {
		return errors.New("no instance size given, use -n")
	}
	w := c.String("w")
	if w != tspmip.EUC_2D && w != tspmip.CEIL_2D && w != tspmip.EXACT_2D {
		return errors.Errorf("unsupported edge weight type %q", w)
	}
	rng := rand.New(rand.NewSource(c.Int64("seed")))
	set := tspmip.DefaultSettings()
	set.TimeLimit = c.Float64("tl")
	set.Seed = c.Int64("seed")
	log := logrus.StandardLogger()

	for l := 0; l < c.Int("count"); l++ {
		for _, n := range nodes {
			name := fmt.Sprintf("%s_%d_%d", c.String("name"), n, l)
			inst := Generate(name, n, c.Int("x"), c.Int("y"), w, rng)
			inst.Comment = fmt.Sprintf("%s instance Nr. %d with %d nodes, seed %d", c.String("name"), l, n, c.Int64("seed"))

			if alg := c.String("alg"); alg != "" {
				out, err := runner.Solve(context.Background(), inst, alg, set, log)
				if err != nil {
					return err
				}
				out.Solution.System = tspmip.CollectSysInfo()
				inst.Solution = out.Solution
			}
			path := filepath.Join(c.String("dir"), name+".json")
			if err := tspmip.WriteInstance(path, inst); err != nil {
				return err
			}
			log.WithField("file", path).Info("Instance written")
		}
	}
	return nil
}
