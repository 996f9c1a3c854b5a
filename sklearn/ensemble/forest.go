// Package ensemble provides DecisionForest, a FastTree-style boosted forest
// for binary classification.
//
// DecisionForest differs from the leaf-wise lightgbm trainer in three ways:
// trees grow depth-wise (level by level, left to right), every tree sees a
// seeded bag of rows, and the split search of every node is spread across
// features on a worker pool. Features are reduced in index order so the
// resulting forest does not depend on scheduling.
package ensemble

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/YuminosukeSato/bikerental/core/model"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pkg/log"
	"github.com/YuminosukeSato/bikerental/sklearn/lightgbm"
	"github.com/YuminosukeSato/bikerental/sklearn/tree"
)

// Kind is the classifier kind reported by DecisionForest models.
const Kind = "DecisionForest"

// Params は DecisionForest のハイパーパラメータ
type Params struct {
	NumTrees        int     `json:"num_trees" yaml:"num_trees"`
	NumLeaves       int     `json:"num_leaves" yaml:"num_leaves"`
	LearningRate    float64 `json:"learning_rate" yaml:"learning_rate"`
	MinDataInLeaf   int     `json:"min_data_in_leaf" yaml:"min_data_in_leaf"`
	Lambda          float64 `json:"lambda_l2" yaml:"lambda_l2"`
	BaggingFraction float64 `json:"bagging_fraction" yaml:"bagging_fraction"`
	MaxBin          int     `json:"max_bin" yaml:"max_bin"`
	Seed            int64   `json:"seed" yaml:"seed"`
	Workers         int     `json:"workers" yaml:"workers"`
}

// DefaultParams returns 100 trees of 50 leaves with learning rate 0.1.
func DefaultParams() Params {
	return Params{
		NumTrees:        100,
		NumLeaves:       50,
		LearningRate:    0.1,
		MinDataInLeaf:   10,
		Lambda:          1.0,
		BaggingFraction: 0.7,
		MaxBin:          255,
		Workers:         runtime.NumCPU(),
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.NumTrees == 0 {
		p.NumTrees = d.NumTrees
	}
	if p.NumLeaves == 0 {
		p.NumLeaves = d.NumLeaves
	}
	if p.LearningRate == 0 {
		p.LearningRate = d.LearningRate
	}
	if p.MinDataInLeaf == 0 {
		p.MinDataInLeaf = d.MinDataInLeaf
	}
	if p.BaggingFraction == 0 {
		p.BaggingFraction = d.BaggingFraction
	}
	if p.MaxBin == 0 {
		p.MaxBin = d.MaxBin
	}
	if p.Workers == 0 {
		p.Workers = d.Workers
	}
	return p
}

// Validate checks hyperparameter ranges.
func (p Params) Validate() error {
	switch {
	case p.NumTrees < 1:
		return bkerrors.NewValidationError("num_trees", "must be positive", p.NumTrees)
	case p.NumLeaves < 2:
		return bkerrors.NewValidationError("num_leaves", "must be at least 2", p.NumLeaves)
	case math.IsNaN(p.LearningRate) || math.IsInf(p.LearningRate, 0) || p.LearningRate <= 0:
		return bkerrors.NewValidationError("learning_rate", "must be a positive finite number", p.LearningRate)
	case p.MinDataInLeaf < 1:
		return bkerrors.NewValidationError("min_data_in_leaf", "must be positive", p.MinDataInLeaf)
	case math.IsNaN(p.Lambda) || math.IsInf(p.Lambda, 0) || p.Lambda < 0:
		return bkerrors.NewValidationError("lambda_l2", "must be a non-negative finite number", p.Lambda)
	case math.IsNaN(p.BaggingFraction) || p.BaggingFraction <= 0 || p.BaggingFraction > 1:
		return bkerrors.NewValidationError("bagging_fraction", "must be in (0, 1]", p.BaggingFraction)
	case p.MaxBin < 2:
		return bkerrors.NewValidationError("max_bin", "must be at least 2", p.MaxBin)
	case p.Workers < 1:
		return bkerrors.NewValidationError("workers", "must be positive", p.Workers)
	}
	return nil
}

// Forest trains DecisionForest models.
type Forest struct {
	params Params
}

// NewForest creates a trainer; zero-valued parameters take their defaults.
func NewForest(params Params) *Forest {
	return &Forest{params: params.withDefaults()}
}

// Name returns the catalog name of this trainer.
func (f *Forest) Name() string { return Kind }

// Params returns the effective parameters.
func (f *Forest) Params() Params { return f.params }

// Fit implements the trainer contract; see Train.
func (f *Forest) Fit(examples []model.LabeledExample) (model.Classifier, error) {
	m, err := f.Train(examples)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Train は depth-wise に成長する木を NumTrees 本ブースティングする
//
// FastTree と同様に初期スコアは 0 から始める。各木は Seed から決まる
// BaggingFraction 分の行だけで成長させ、スコアは全行について更新する。
func (f *Forest) Train(examples []model.LabeledExample) (*Model, error) {
	logger := log.GetLoggerWithName("ensemble.forest")

	if err := f.params.Validate(); err != nil {
		return nil, bkerrors.NewConvergenceError(Kind, "invalid hyperparameters", err)
	}
	X, y, err := model.Design(Kind, examples)
	if err != nil {
		return nil, err
	}
	rows, cols := X.Dims()

	grower := tree.NewGrower(X, tree.Params{
		NumLeaves:     f.params.NumLeaves,
		MinDataInLeaf: f.params.MinDataInLeaf,
		Lambda:        f.params.Lambda,
		MaxBin:        f.params.MaxBin,
		Growth:        tree.DepthWise,
		Workers:       f.params.Workers,
	})
	sampler := lightgbm.NewSamplingStrategy(f.params.Seed, f.params.BaggingFraction, 1)
	objective := lightgbm.NewBinaryLoglossObjective()

	m := &Model{NumFeat: cols, Config: f.params}
	scores := make([]float64, rows)
	grad := make([]float64, rows)
	hess := make([]float64, rows)

	begin := time.Now()
	for i := 0; i < f.params.NumTrees; i++ {
		for r := range scores {
			grad[r] = objective.CalculateGradient(scores[r], y[r])
			hess[r] = objective.CalculateHessian(scores[r], y[r])
		}
		bag := sampler.SampleInstances(rows, i)
		tr := grower.Grow(bag, grad, hess, f.params.LearningRate)
		m.Add(tr, X, scores)

		if err := bkerrors.CheckNumericalStability(Kind+".Fit", scores, i); err != nil {
			return nil, bkerrors.NewConvergenceError(Kind, "scores are not finite", err)
		}
		if i%10 == 0 && logger.Enabled(context.Background(), log.LevelDebug) {
			logger.Debug("Forest progress", log.IterationKey, i, "leaves", tr.NumLeaves, "depth", tr.Depth)
		}
	}

	logger.Info("Training finished",
		log.ModelNameKey, Kind,
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.IterationKey, len(m.Trees),
		log.DurationMsKey, time.Since(begin).Milliseconds(),
	)
	return m, nil
}

// Model is a trained DecisionForest.
type Model struct {
	tree.Ensemble

	NumFeat int
	Config  Params
}

// Kind implements model.Classifier.
func (m *Model) Kind() string { return Kind }

// NumFeatures implements model.Classifier.
func (m *Model) NumFeatures() int { return m.NumFeat }

// RawScore returns the summed tree output before the sigmoid.
func (m *Model) RawScore(x []float64) (float64, error) {
	if len(x) != m.NumFeat {
		return 0, bkerrors.NewDimensionError(Kind+".RawScore", m.NumFeat, len(x), 1)
	}
	s := m.Raw(x)
	if err := bkerrors.CheckScalar(Kind+".RawScore", s, 0); err != nil {
		return 0, err
	}
	return s, nil
}

// PredictProba returns the probability of the long-term class.
func (m *Model) PredictProba(x []float64) (float64, error) {
	s, err := m.RawScore(x)
	if err != nil {
		return 0, err
	}
	return bkerrors.Sigmoid(s), nil
}

// Validate implements model.Validator.
func (m *Model) Validate() error {
	if m.NumFeat <= 0 {
		return bkerrors.NewValidationError("num_features", "must be positive", m.NumFeat)
	}
	return m.Ensemble.Validate(m.NumFeat)
}

// Params implements model.Describer.
func (m *Model) Params() map[string]interface{} {
	return map[string]interface{}{
		"num_trees":        len(m.Trees),
		"num_leaves":       m.Config.NumLeaves,
		"learning_rate":    m.Config.LearningRate,
		"min_data_in_leaf": m.Config.MinDataInLeaf,
		"lambda_l2":        m.Config.Lambda,
		"bagging_fraction": m.Config.BaggingFraction,
		"seed":             m.Config.Seed,
	}
}

// FeatureImportance returns split counts ("split") or total gain ("gain") per feature.
func (m *Model) FeatureImportance(importanceType string) []float64 {
	return m.Ensemble.FeatureImportance(m.NumFeat, importanceType)
}

func (m *Model) String() string {
	return fmt.Sprintf("%s(trees=%d, leaves=%d, learning_rate=%g)",
		Kind, len(m.Trees), m.Config.NumLeaves, m.Config.LearningRate)
}
