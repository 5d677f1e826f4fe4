package main

import (
	"bufio"
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

func main() {
	app := cli.NewApp()
	app.Name = "converter-tsplib"
	app.Usage = "convert the TSPLIB .tsp files of a directory into JSON instances"
	app.ArgsUsage = "DIR"
	app.Action = func(c *cli.Context) error {
		if c.NArg() < 1 {
			return errors.New("no directory passed")
		}
		return convertDir(c.Args().First())
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("Converter failed")
	}
}

func convertDir(targetDir string) error {
	files, err := ioutil.ReadDir(targetDir)
	if err != nil {
		return errors.Wrapf(err, "reading directory %s", targetDir)
	}
	for _, f := range files {
		if !strings.HasSuffix(f.Name(), ".tsp") {
			continue
		}
		fileName := filepath.Join(targetDir, f.Name())
		log := logrus.WithField("file", fileName)
		inst, err := convertFile(fileName)
		if err != nil {
			log.WithError(err).Warn("Skipping file")
			continue
		}
		out := strings.TrimSuffix(fileName, ".tsp") + ".json"
		if err = tspmip.WriteInstance(out, inst); err != nil {
			return err
		}
		log.WithField("n", inst.Dimension).Info("Converted")
	}
	return nil
}

func convertFile(fileName string) (*tspmip.Instance, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads a symmetric TSPLIB instance with EUC_2D or CEIL_2D node coordinates.
func Parse(r io.Reader) (*tspmip.Instance, error) {
	inst := &tspmip.Instance{DisplayDataType: "COORD_DISPLAY"}
	scanner := bufio.NewScanner(r)
	nodeCoordSection := false
	line := 0
	for scanner.Scan() {
		line++
		t := strings.TrimSpace(scanner.Text())
		if t == "" {
			continue
		}
		if t == "EOF" {
			break
		}
		if nodeCoordSection {
			fields := strings.Fields(t)
			if len(fields) < 3 {
				return nil, errors.Errorf("line %d: expected index and two coordinates", line)
			}
			x, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: parsing x", line)
			}
			y, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: parsing y", line)
			}
			inst.NodeCoordinates = append(inst.NodeCoordinates, []float64{x, y})
			continue
		}
		if t == "NODE_COORD_SECTION" {
			nodeCoordSection = true
			continue
		}
		key, value, ok := strings.Cut(t, ":")
		if !ok {
			return nil, errors.Errorf("line %d: unsupported section %q", line, t)
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "NAME":
			inst.Name = value
		case "COMMENT":
			inst.Comment = value
		case "TYPE":
			if value != "TSP" {
				return nil, errors.Errorf("problem type %s is not a symmetric TSP", value)
			}
			inst.Type = value
		case "DIMENSION":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: parsing dimension", line)
			}
			inst.Dimension = n
		case "EDGE_WEIGHT_TYPE":
			if value != tspmip.EUC_2D && value != tspmip.CEIL_2D {
				return nil, errors.Errorf("edge weight type %s is not supported", value)
			}
			inst.EdgeWeightType = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inst.Dimension != len(inst.NodeCoordinates) {
		return nil, errors.Errorf("dimension %d but %d coordinates", inst.Dimension, len(inst.NodeCoordinates))
	}
	return inst, nil
}
