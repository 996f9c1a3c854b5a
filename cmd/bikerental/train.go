package main

import (
	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"github.com/YuminosukeSato/bikerental/config"
	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/inference"
	"github.com/YuminosukeSato/bikerental/pipeline"
	"github.com/YuminosukeSato/bikerental/report"
	"github.com/YuminosukeSato/bikerental/store"
)

type trainOptions struct {
	config    string
	data      string
	out       string
	roc       string
	rankBy    string
	seed      int64
	synthetic int
	noColor   bool
}

// resolveConfig は設定ファイルを読み、フラグで上書きする
func resolveConfig(o trainOptions) (config.Config, error) {
	cfg := config.Default()
	if o.config != "" {
		var err error
		if cfg, err = config.Load(o.config); err != nil {
			return config.Config{}, err
		}
	}
	if o.data != "" {
		cfg.TrainingDataPath = o.data
	}
	if o.out != "" {
		cfg.ModelArtifactPath = o.out
	}
	if o.rankBy != "" {
		cfg.RankBy = o.rankBy
	}
	if o.seed >= 0 {
		cfg.Seed = o.seed
	}
	return cfg, cfg.Validate()
}

func runTrain(o trainOptions) error {
	cfg, err := resolveConfig(o)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	p := newPrinter(o.noColor)

	var ds *dataset.Dataset
	if o.synthetic > 0 {
		ds = dataset.Synthetic(o.synthetic, cfg.Seed)
	} else if ds, err = dataset.LoadCSV(cfg.TrainingDataPath, cfg.HasHeader); err != nil {
		return err
	}

	res, err := pipeline.Run(ds, cfg.Catalog(), cfg.PipelineOptions())
	if err != nil {
		return err
	}
	for _, r := range res.Selection.Ranking {
		p.Metrics(r.Name, r.Metrics)
	}
	p.Selection(res.Selection)
	p.Params(res.Model().Params())

	if o.roc != "" {
		var curves []report.ROCSeries
		for _, c := range res.Candidates {
			if c.Err != nil {
				continue
			}
			s, err := report.ROC(c.Name, c.Model, res.Split.Test)
			if err != nil {
				return err
			}
			curves = append(curves, s)
		}
		if err := report.SaveROC(o.roc, curves...); err != nil {
			return err
		}
	}

	engine, err := inference.NewEngine(res.Model())
	if err != nil {
		return err
	}
	samples := dataset.SampleRecords()
	preds, err := engine.PredictBatch(samples)
	if err != nil {
		return err
	}
	for i, r := range samples {
		p.Prediction(r, preds[i])
	}

	if err := store.Save(res.Model(), cfg.ModelArtifactPath); err != nil {
		return err
	}
	p.Saved(cfg.ModelArtifactPath)
	return nil
}

func trainCmd() *commander.Command {
	var o trainOptions
	cmd := &commander.Command{
		UsageLine: "train [-config <file>] [-data <csv>] [-out <artifact>] [options]",
		Short:     "train every candidate, select the best and save it",
		Long: `
train all candidate algorithms on the training data, compare them on a held-out
partition, print the comparison and persist the winner

	$ bikerental train -config train.yaml -roc models/roc.png
	$ bikerental train -synthetic 1000 -seed 42
`,
		Flag: *flag.NewFlagSet("train", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&o.config, "config", "", "configuration file (.json, .yaml)")
	cmd.Flag.StringVar(&o.data, "data", "", "training CSV (overrides training_data_path)")
	cmd.Flag.StringVar(&o.out, "out", "", "model artifact (overrides model_artifact_path)")
	cmd.Flag.StringVar(&o.roc, "roc", "", "write ROC curves of all candidates to this image")
	cmd.Flag.StringVar(&o.rankBy, "rank", "", "ranking metric: auc, f1, accuracy, logloss")
	cmd.Flag.Int64Var(&o.seed, "seed", -1, "random seed (overrides seed)")
	cmd.Flag.IntVar(&o.synthetic, "synthetic", 0, "train on n synthetic records instead of a CSV")
	cmd.Flag.BoolVar(&o.noColor, "no-color", false, "disable coloured output")
	cmd.Run = func(_ *commander.Command, _ []string) error {
		return runTrain(o)
	}
	return cmd
}
