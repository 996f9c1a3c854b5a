// Package pipeline は学習ワークフローの各ステージ（分割、エンコーダ学習、候補学習、選択）と、
// その成果物である Model を提供する。
//
// 各ステージは明示的な入力と出力を持つ関数で、単独でテストできる。
// 永続化は store パッケージが担い、ここでは何も保存しない。
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/bikerental/core/model"
	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/evaluation"
	"github.com/YuminosukeSato/bikerental/metrics"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/preprocessing"
)

// Metadata は学習済みモデルの来歴
type Metadata struct {
	ID        string
	Trainer   string
	CreatedAt time.Time
	Metrics   evaluation.Metrics
	TrainSize int
	TestSize  int
	Seed      int64
}

// Model は凍結済みエンコーダと学習済み分類器の組で、学習と永続化の単位
//
// 生成後は変更せず、所有権ごと受け渡す。予測メソッドは並行に呼び出してよい。
type Model struct {
	Encoder    *preprocessing.FeatureEncoder
	Classifier model.Classifier
	Metadata   Metadata
}

// PredictionResult は1件の推論結果
type PredictionResult struct {
	PredictedLabel bool    // true は長期レンタル
	Probability    float64 // 長期レンタルの確率
	Score          float64 // シグモイド前のスコア
}

// NewModel wraps a fitted encoder and classifier with fresh metadata.
func NewModel(enc *preprocessing.FeatureEncoder, clf model.Classifier, trainerName string) *Model {
	return &Model{
		Encoder:    enc,
		Classifier: clf,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Trainer:   trainerName,
			CreatedAt: time.Now().UTC(),
		},
	}
}

func (m *Model) encode(r dataset.RawRecord) ([]float64, error) {
	if m == nil || m.Encoder == nil || m.Classifier == nil {
		return nil, bkerrors.NewNotFittedError("Model", "Predict")
	}
	x, err := m.Encoder.Encode(r)
	if err != nil {
		return nil, err
	}
	if len(x) != m.Classifier.NumFeatures() {
		return nil, bkerrors.NewDimensionError("Model.Predict", m.Classifier.NumFeatures(), len(x), 1)
	}
	return x, nil
}

// PredictProbability implements evaluation.Predictor.
func (m *Model) PredictProbability(r dataset.RawRecord) (float64, error) {
	x, err := m.encode(r)
	if err != nil {
		return 0, err
	}
	return m.Classifier.PredictProba(x)
}

// Predict は1件のレコードを分類する。閾値は 0.5
func (m *Model) Predict(r dataset.RawRecord) (PredictionResult, error) {
	x, err := m.encode(r)
	if err != nil {
		return PredictionResult{}, err
	}
	score, err := m.Classifier.RawScore(x)
	if err != nil {
		return PredictionResult{}, err
	}
	p, err := m.Classifier.PredictProba(x)
	if err != nil {
		return PredictionResult{}, err
	}
	return PredictionResult{
		PredictedLabel: p >= metrics.DefaultThreshold,
		Probability:    p,
		Score:          score,
	}, nil
}

// Params returns the classifier hyperparameters when the classifier reports them.
func (m *Model) Params() map[string]interface{} {
	if d, ok := m.Classifier.(model.Describer); ok {
		return d.Params()
	}
	return nil
}
