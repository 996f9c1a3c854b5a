// Package bikerental predicts whether a bicycle-sharing rental is short-term
// or long-term from its context: season, month, hour, holiday and working-day
// flags, weather, temperature, humidity and windspeed.
//
// The module is a supervised-learning workflow built from small packages:
//
//	dataset        raw records, CSV loading, synthetic fixture
//	preprocessing  FeatureEncoder (one-hot + min-max normalisation, frozen after Fit)
//	evaluation     seeded train/test split and metrics (accuracy, AUC, F1, log-loss)
//	trainer        catalog of candidate algorithms
//	sklearn/...    GradientBoostedTrees, DecisionForest, RegularizedLogisticRegression
//	pipeline       split → fit encoder → train candidates → select the best
//	store          single-file gob artifact with atomic save
//	inference      concurrent-safe prediction engine
//	config, report, cmd/bikerental  configuration, text/ROC reports and the CLI
//
// # Quick Start
//
//	ds := dataset.Synthetic(1000, 42)
//	res, err := pipeline.Run(ds, trainer.DefaultCatalog(trainer.DefaultOptions()), pipeline.DefaultOptions())
//	if err != nil {
//	    // *errors.NoViableModelError when every candidate failed
//	}
//	_ = store.Save(res.Model(), "models/bike_rental_model.gob")
//
//	m, _ := store.Load("models/bike_rental_model.gob")
//	engine, _ := inference.NewEngine(m)
//	p, _ := engine.Predict(dataset.SampleRecords()[0])
//	fmt.Println(p.PredictedLabel, p.Probability)
//
// # Error Handling
//
// Errors carry stack traces (cockroachdb/errors) and are typed: DataError,
// ConvergenceError, NoViableModelError, IOError, CorruptArtifactError,
// ValidationError, NotFittedError and DimensionError, all in pkg/errors.
// Use errors.As to inspect them.
//
// # Logging
//
// pkg/log provides a slog-compatible structured Logger. Call
// log.SetupLogger("info", "console") once at startup; library code never
// writes to stdout.
package bikerental
