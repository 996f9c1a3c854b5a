// Package lightgbm provides a pure Go, LightGBM-style gradient boosting trainer
// for binary classification.
//
// Trees are grown leaf-wise (best-first): at every step the leaf whose best
// split has the largest gain is split, until NumLeaves is reached or no split
// improves the regularized objective. Split gain and leaf values come from the
// second-order approximation of binary log-loss:
//
//	gain = 0.5 * (GL²/(HL+λ) + GR²/(HR+λ) - G²/(H+λ))
//	leaf = -G / (H + λ)
//
// # Basic Usage
//
//	trainer := lightgbm.NewTrainer(lightgbm.DefaultParams())
//	clf, err := trainer.Fit(examples)
//	if err != nil {
//	    // *errors.ConvergenceError for degenerate input
//	}
//	p, _ := clf.PredictProba(features)
//
// # Defaults
//
//	NumLeaves      50
//	NumIterations  100
//	LearningRate   0.1
//	Lambda (L2)    1.0
//	MinDataInLeaf  20
//
// # Callbacks
//
// Training progress can be observed with callbacks run after every round:
//
//	var history map[string][]float64
//	trainer.WithCallbacks(lightgbm.RecordEvaluation(&history))
//
// Training is deterministic for a given Seed, parameters and input; with
// BaggingFraction < 1 the bag drawn every BaggingFreq rounds depends only on Seed.
package lightgbm
