// Package inference は学習済みモデルを使った推論を提供する。
//
// Engine は読み込み後に変更されない Model を包むだけなので、
// 一つの Engine を複数の goroutine から同時に使ってよい。
// 語彙外カテゴリの件数は Model ではなく Engine ごとに数える。
package inference

import (
	"sync/atomic"

	"github.com/YuminosukeSato/bikerental/core/parallel"
	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/metrics"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pkg/log"
	"github.com/YuminosukeSato/bikerental/pipeline"
)

// Engine は1つの Model に対する推論器
type Engine struct {
	model   *pipeline.Model
	logger  log.Logger
	unknown atomic.Int64
}

// NewEngine は m を使う Engine を作成する。m が未学習なら NotFittedError
func NewEngine(m *pipeline.Model) (*Engine, error) {
	if m == nil || m.Encoder == nil || m.Classifier == nil {
		return nil, bkerrors.NewNotFittedError("Engine", "NewEngine")
	}
	if !m.Encoder.State.IsFitted() {
		return nil, bkerrors.NewNotFittedError("FeatureEncoder", "NewEngine")
	}
	return &Engine{
		model: m,
		logger: log.GetLoggerWithName("inference").With(
			log.ModelNameKey, m.Metadata.Trainer,
			log.EstimatorIDKey, m.Metadata.ID,
			log.PhaseKey, log.PhaseInference,
		),
	}, nil
}

// Model returns the wrapped model.
func (e *Engine) Model() *pipeline.Model {
	return e.model
}

// UnknownCategories はこの Engine が推論したレコードのうち、
// 学習語彙にないカテゴリ値の延べ件数を返す
func (e *Engine) UnknownCategories() int64 {
	return e.unknown.Load()
}

// countUnknown returns the running total after adding r's unseen categories.
func (e *Engine) countUnknown(r dataset.RawRecord) int64 {
	if n := len(e.model.Encoder.UnknownFields(r)); n > 0 {
		return e.unknown.Add(int64(n))
	}
	return e.unknown.Load()
}

// Predict は1件のレコードを分類する。ラベルが付いていても無視する
func (e *Engine) Predict(r dataset.RawRecord) (pipeline.PredictionResult, error) {
	if err := r.Validate(); err != nil {
		return pipeline.PredictionResult{}, err
	}
	unknown := e.countUnknown(r)
	res, err := e.model.Predict(r.Unlabeled())
	if err != nil {
		e.logger.Warn("Prediction failed",
			log.OperationKey, log.OperationPredict,
			log.ErrAttrKey, err,
		)
		return pipeline.PredictionResult{}, err
	}
	e.logger.Debug("Prediction",
		log.OperationKey, log.OperationPredict,
		log.ConfidenceKey, res.Probability,
		log.ThresholdKey, metrics.DefaultThreshold,
		log.UnknownCategoriesKey, unknown,
	)
	return res, nil
}

// PredictBatch は records を並列に推論し、入力と同じ順序で結果を返す
//
// いずれかのレコードが失敗した場合、最も小さい添字のエラーを返す。
func (e *Engine) PredictBatch(records []dataset.RawRecord) ([]pipeline.PredictionResult, error) {
	out := make([]pipeline.PredictionResult, len(records))
	err := parallel.ParallelizeErr(len(records), func(start, end int) error {
		for i := start; i < end; i++ {
			if err := records[i].Validate(); err != nil {
				return bkerrors.Wrapf(err, "record %d", i)
			}
			e.countUnknown(records[i])
			res, err := e.model.Predict(records[i].Unlabeled())
			if err != nil {
				return bkerrors.Wrapf(err, "record %d", i)
			}
			out[i] = res
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Batch prediction",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, len(out),
		log.UnknownCategoriesKey, e.unknown.Load(),
	)
	return out, nil
}
