package main

import (
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"git.solver4all.com/azaryc2s/tspmip"
)

func main() {
	app := cli.NewApp()
	app.Name = "formatter"
	app.Usage = "put the number arrays of instance files back on single lines"
	app.ArgsUsage = "FILE..."
	app.Action = func(c *cli.Context) error {
		if c.NArg() == 0 {
			return errors.New("no files passed")
		}
		failed := 0
		for _, fileName := range c.Args() {
			if err := format(fileName); err != nil {
				logrus.WithError(err).WithField("file", fileName).Error("Formatting failed")
				failed++
			}
		}
		if failed > 0 {
			return errors.Errorf("%d of %d files failed", failed, c.NArg())
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("Formatter failed")
	}
}

func format(fileName string) error {
	fileContent, err := ioutil.ReadFile(fileName)
	if err != nil {
		return errors.Wrap(err, "reading")
	}
	formatted := []byte(tspmip.SanitizeJsonArrayLineBreaks(string(fileContent)))
	if !json.Valid(formatted) {
		return errors.New("result is not valid JSON, file left untouched")
	}
	return errors.Wrap(ioutil.WriteFile(fileName, formatted, 0644), "writing")
}
