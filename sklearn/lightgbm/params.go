package lightgbm

import (
	"math"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// TrainingParams contains all training hyperparameters
type TrainingParams struct {
	// Basic parameters
	NumIterations int     `json:"num_iterations" yaml:"num_iterations"`
	LearningRate  float64 `json:"learning_rate" yaml:"learning_rate"`
	NumLeaves     int     `json:"num_leaves" yaml:"num_leaves"`
	MaxDepth      int     `json:"max_depth" yaml:"max_depth"`
	MinDataInLeaf int     `json:"min_data_in_leaf" yaml:"min_data_in_leaf"`

	// Regularization
	Lambda         float64 `json:"lambda_l2" yaml:"lambda_l2"`
	MinGainToSplit float64 `json:"min_gain_to_split" yaml:"min_gain_to_split"`

	// Sampling
	BaggingFraction float64 `json:"bagging_fraction" yaml:"bagging_fraction"`
	BaggingFreq     int     `json:"bagging_freq" yaml:"bagging_freq"`

	// Histogram parameters
	MaxBin int `json:"max_bin" yaml:"max_bin"`

	// Objective
	Objective string `json:"objective" yaml:"objective"`

	// Other
	Seed                int `json:"seed" yaml:"seed"`
	NumThreads          int `json:"num_threads" yaml:"num_threads"`
	EarlyStoppingRounds int `json:"early_stopping_rounds" yaml:"early_stopping_rounds"`
}

// DefaultParams returns the leaf-wise boosting defaults: 50 leaves,
// 100 iterations, learning rate 0.1 and L2 1.0.
func DefaultParams() TrainingParams {
	return TrainingParams{
		NumIterations:   100,
		LearningRate:    0.1,
		NumLeaves:       50,
		MinDataInLeaf:   20,
		Lambda:          1.0,
		BaggingFraction: 1.0,
		MaxBin:          255,
		Objective:       "binary",
		NumThreads:      1,
	}
}

// withDefaults fills zero values the same way NewTrainer always has.
func (p TrainingParams) withDefaults() TrainingParams {
	d := DefaultParams()
	if p.NumIterations == 0 {
		p.NumIterations = d.NumIterations
	}
	if p.LearningRate == 0 {
		p.LearningRate = d.LearningRate
	}
	if p.NumLeaves == 0 {
		p.NumLeaves = d.NumLeaves
	}
	if p.MaxBin == 0 {
		p.MaxBin = d.MaxBin
	}
	if p.MinDataInLeaf == 0 {
		p.MinDataInLeaf = d.MinDataInLeaf
	}
	if p.BaggingFraction == 0 {
		p.BaggingFraction = d.BaggingFraction
	}
	if p.Objective == "" {
		p.Objective = d.Objective
	}
	if p.NumThreads == 0 {
		p.NumThreads = d.NumThreads
	}
	return p
}

// Validate はハイパーパラメータの範囲を検査する
func (p TrainingParams) Validate() error {
	switch {
	case p.NumIterations < 1:
		return bkerrors.NewValidationError("num_iterations", "must be positive", p.NumIterations)
	case !finite(p.LearningRate) || p.LearningRate <= 0:
		return bkerrors.NewValidationError("learning_rate", "must be a positive finite number", p.LearningRate)
	case p.NumLeaves < 2:
		return bkerrors.NewValidationError("num_leaves", "must be at least 2", p.NumLeaves)
	case p.MinDataInLeaf < 1:
		return bkerrors.NewValidationError("min_data_in_leaf", "must be positive", p.MinDataInLeaf)
	case !finite(p.Lambda) || p.Lambda < 0:
		return bkerrors.NewValidationError("lambda_l2", "must be a non-negative finite number", p.Lambda)
	case !finite(p.MinGainToSplit) || p.MinGainToSplit < 0:
		return bkerrors.NewValidationError("min_gain_to_split", "must be a non-negative finite number", p.MinGainToSplit)
	case !finite(p.BaggingFraction) || p.BaggingFraction <= 0 || p.BaggingFraction > 1:
		return bkerrors.NewValidationError("bagging_fraction", "must be in (0, 1]", p.BaggingFraction)
	case p.BaggingFreq < 0:
		return bkerrors.NewValidationError("bagging_freq", "must be non-negative", p.BaggingFreq)
	case p.MaxBin < 2:
		return bkerrors.NewValidationError("max_bin", "must be at least 2", p.MaxBin)
	case p.EarlyStoppingRounds < 0:
		return bkerrors.NewValidationError("early_stopping_rounds", "must be non-negative", p.EarlyStoppingRounds)
	}
	return nil
}

// ToMap returns the parameters with LightGBM parameter names, for logging and reports.
func (p TrainingParams) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"num_iterations":    p.NumIterations,
		"learning_rate":     p.LearningRate,
		"num_leaves":        p.NumLeaves,
		"max_depth":         p.MaxDepth,
		"min_data_in_leaf":  p.MinDataInLeaf,
		"lambda_l2":         p.Lambda,
		"min_gain_to_split": p.MinGainToSplit,
		"bagging_fraction":  p.BaggingFraction,
		"bagging_freq":      p.BaggingFreq,
		"max_bin":           p.MaxBin,
		"objective":         p.Objective,
		"seed":              p.Seed,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
