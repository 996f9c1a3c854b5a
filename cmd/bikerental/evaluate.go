package main

import (
	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/evaluation"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

type evaluateOptions struct {
	model     string
	data      string
	hasHeader bool
	noColor   bool
}

func runEvaluate(o evaluateOptions) error {
	if o.data == "" {
		return bkerrors.NewValidationError("data", "labeled CSV path is required", o.data)
	}
	engine, err := loadEngine(o.model)
	if err != nil {
		return err
	}
	ds, err := dataset.LoadCSV(o.data, o.hasHeader)
	if err != nil {
		return err
	}
	m, err := evaluation.Evaluate(engine.Model(), ds)
	if err != nil {
		return err
	}
	p := newPrinter(o.noColor)
	p.Metrics(engine.Model().Metadata.Trainer, m)
	return nil
}

func evaluateCmd() *commander.Command {
	var o evaluateOptions
	var logLevel string
	cmd := &commander.Command{
		UsageLine: "evaluate -model <artifact> -data <csv>",
		Short:     "evaluate a stored model on labeled data",
		Flag:      *flag.NewFlagSet("evaluate", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&o.model, "model", "models/bike_rental_model.gob", "model artifact")
	cmd.Flag.StringVar(&o.data, "data", "", "labeled CSV")
	cmd.Flag.BoolVar(&o.hasHeader, "header", true, "CSV has a header row")
	cmd.Flag.BoolVar(&o.noColor, "no-color", false, "disable coloured output")
	cmd.Flag.StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	cmd.Run = func(_ *commander.Command, _ []string) error {
		if err := setupLogging(logLevel, ""); err != nil {
			return err
		}
		return runEvaluate(o)
	}
	return cmd
}
