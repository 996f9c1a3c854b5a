package lightgbm

import (
	"fmt"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/sklearn/tree"
)

// Kind is the classifier kind reported by GradientBoostedTrees models.
const Kind = "GradientBoostedTrees"

// Model は学習済みの勾配ブースティング二値分類器
//
// 生スコアは初期スコア（正例率の対数オッズ）と各木の出力の和で、
// 確率はそのシグモイド。学習後は不変で、並行に呼び出してよい。
type Model struct {
	tree.Ensemble

	NumFeat       int
	Config        TrainingParams
	BestIteration int
}

// Kind implements model.Classifier.
func (m *Model) Kind() string { return Kind }

// NumFeatures implements model.Classifier.
func (m *Model) NumFeatures() int { return m.NumFeat }

// RawScore returns the margin before the sigmoid.
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
	p := m.Config.ToMap()
	p["num_trees"] = len(m.Trees)
	return p
}

// FeatureImportance returns split counts ("split") or total gain ("gain") per feature.
func (m *Model) FeatureImportance(importanceType string) []float64 {
	return m.Ensemble.FeatureImportance(m.NumFeat, importanceType)
}

// String returns a short description for logs.
func (m *Model) String() string {
	return fmt.Sprintf("%s(trees=%d, leaves=%d, learning_rate=%g)",
		Kind, len(m.Trees), m.Config.NumLeaves, m.Config.LearningRate)
}
