package evaluation

import (
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bikerental/core/parallel"
	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/metrics"
	"github.com/YuminosukeSato/bikerental/pkg/errors"
)

// Predictor は凍結済みエンコーダを内部で適用し、生レコードから長期レンタルの確率を返す
type Predictor interface {
	PredictProbability(r dataset.RawRecord) (float64, error)
}

// Metrics は一つの (モデル, テストデータ) 組に対する評価結果
type Metrics struct {
	Accuracy float64
	AUC      float64
	F1       float64
	LogLoss  float64

	Precision         float64
	Recall            float64
	NegativePrecision float64
	NegativeRecall    float64
	LogLossReduction  float64
	AUPRC             float64
	Brier             float64
	Confusion         metrics.ConfusionMatrix
	Samples           int
}

// MarshalZerologObject は評価結果を構造化ログに埋め込む
func (m Metrics) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("accuracy", m.Accuracy).
		Float64("auc", m.AUC).
		Float64("f1", m.F1).
		Float64("log_loss", m.LogLoss).
		Float64("auprc", m.AUPRC).
		Int("samples", m.Samples)
}

// Scores は test の各レコードについて正解ラベル（0/1）と予測確率を返す
// ラベルのないレコードは DataError になる。
func Scores(p Predictor, test *dataset.Dataset) (yTrue, yProb *mat.VecDense, err error) {
	labels, err := test.Labels()
	if err != nil {
		return nil, nil, err
	}
	n := len(labels)
	if n == 0 {
		return nil, nil, errors.NewValueError("Evaluate", errors.ErrEmptyData.Error())
	}

	yTrue = mat.NewVecDense(n, nil)
	for i, l := range labels {
		if l {
			yTrue.SetVec(i, 1)
		}
	}

	probs := make([]float64, n)
	err = parallel.ParallelizeErr(n, func(start, end int) error {
		for i := start; i < end; i++ {
			prob, err := p.PredictProbability(test.At(i))
			if err != nil {
				return err
			}
			if err := errors.CheckScalar("PredictProbability", prob, i); err != nil {
				return err
			}
			probs[i] = prob
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return yTrue, mat.NewVecDense(n, probs), nil
}

// Evaluate は p を test 上で評価する。閾値は 0.5。読み取り専用で副作用はない。
func Evaluate(p Predictor, test *dataset.Dataset) (Metrics, error) {
	yTrue, yProb, err := Scores(p, test)
	if err != nil {
		return Metrics{}, err
	}
	return FromScores(yTrue, yProb)
}

// FromScores は正解ラベルと確率から Metrics を組み立てる
func FromScores(yTrue, yProb *mat.VecDense) (Metrics, error) {
	yPred := metrics.Threshold(yProb, metrics.DefaultThreshold)

	cm, err := metrics.NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return Metrics{}, err
	}
	auc, err := metrics.AUC(yTrue, yProb)
	if err != nil {
		return Metrics{}, err
	}
	logLoss, err := metrics.BinaryLogLoss(yTrue, yProb)
	if err != nil {
		return Metrics{}, err
	}
	auprc, err := metrics.AUPRC(yTrue, yProb)
	if err != nil {
		return Metrics{}, err
	}
	brier, err := metrics.BrierScore(yTrue, yProb)
	if err != nil {
		return Metrics{}, err
	}

	positiveRate := mat.Sum(yTrue) / float64(yTrue.Len())
	return Metrics{
		Accuracy:          cm.Accuracy(),
		AUC:               auc,
		F1:                cm.F1(),
		LogLoss:           logLoss,
		Precision:         cm.Precision(),
		Recall:            cm.Recall(),
		NegativePrecision: cm.NegativePrecision(),
		NegativeRecall:    cm.NegativeRecall(),
		LogLossReduction:  metrics.LogLossReduction(logLoss, positiveRate),
		AUPRC:             auprc,
		Brier:             brier,
		Confusion:         cm,
		Samples:           cm.Total(),
	}, nil
}
