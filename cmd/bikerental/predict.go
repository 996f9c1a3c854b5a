package main

import (
	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/YuminosukeSato/bikerental/dataset"
)

type predictOptions struct {
	model   string
	record  dataset.RawRecord
	samples bool
	noColor bool
}

func runPredict(o predictOptions) error {
	engine, err := loadEngine(o.model)
	if err != nil {
		return err
	}
	records := []dataset.RawRecord{o.record}
	if o.samples {
		records = dataset.SampleRecords()
	}
	results, err := engine.PredictBatch(records)
	if err != nil {
		return err
	}
	p := newPrinter(o.noColor)
	for i, r := range records {
		p.Prediction(r, results[i])
	}
	return nil
}

func predictCmd() *commander.Command {
	var o predictOptions
	var logLevel string
	r := &o.record
	cmd := &commander.Command{
		UsageLine: "predict -model <artifact> -season .. -windspeed ..",
		Short:     "predict the rental type of one record",
		Long: `
predict whether a rental is long-term from its context

	$ bikerental predict -season 3 -month 7 -hour 17 -weekday 3 -working-day 1 \
		-weather 1 -temperature 25 -humidity 65 -windspeed 10
	$ bikerental predict -samples
`,
		Flag: *flag.NewFlagSet("predict", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&o.model, "model", "models/bike_rental_model.gob", "model artifact")
	cmd.Flag.BoolVar(&o.samples, "samples", false, "predict the built-in sample records")
	cmd.Flag.BoolVar(&o.noColor, "no-color", false, "disable coloured output")
	cmd.Flag.StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	cmd.Flag.IntVar(&r.Season, "season", 1, "season (1-4)")
	cmd.Flag.IntVar(&r.Month, "month", 1, "month (1-12)")
	cmd.Flag.IntVar(&r.Hour, "hour", 0, "hour (0-23)")
	cmd.Flag.IntVar(&r.Holiday, "holiday", 0, "holiday (0/1)")
	cmd.Flag.IntVar(&r.Weekday, "weekday", 0, "weekday (0-6)")
	cmd.Flag.IntVar(&r.WorkingDay, "working-day", 0, "working day (0/1)")
	cmd.Flag.IntVar(&r.WeatherCondition, "weather", 1, "weather condition code (1-4)")
	cmd.Flag.Float64Var(&r.Temperature, "temperature", 0, "temperature")
	cmd.Flag.Float64Var(&r.Humidity, "humidity", 0, "humidity")
	cmd.Flag.Float64Var(&r.Windspeed, "windspeed", 0, "windspeed")
	cmd.Run = func(_ *commander.Command, _ []string) error {
		if err := setupLogging(logLevel, ""); err != nil {
			return err
		}
		return runPredict(o)
	}
	return cmd
}
