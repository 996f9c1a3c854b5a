package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bikerental/pkg/errors"
)

// ConfusionMatrix は二値分類の混同行列（正例 = 1 = 長期レンタル）
type ConfusionMatrix struct {
	TP, FP, TN, FN int
}

// NewConfusionMatrix は 0/1 の正解ラベルと予測ラベルから混同行列を作る
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (ConfusionMatrix, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return ConfusionMatrix{}, err
	}
	if _, err := checkBinary("ConfusionMatrix", yTrue); err != nil {
		return ConfusionMatrix{}, err
	}
	if _, err := checkBinary("ConfusionMatrix", yPred); err != nil {
		return ConfusionMatrix{}, err
	}

	var cm ConfusionMatrix
	for i := 0; i < n; i++ {
		actual := yTrue.AtVec(i) == 1
		predicted := yPred.AtVec(i) == 1
		switch {
		case actual && predicted:
			cm.TP++
		case !actual && predicted:
			cm.FP++
		case !actual && !predicted:
			cm.TN++
		default:
			cm.FN++
		}
	}
	return cm, nil
}

// Total returns the number of samples.
func (c ConfusionMatrix) Total() int { return c.TP + c.FP + c.TN + c.FN }

// Accuracy returns (TP+TN)/total.
func (c ConfusionMatrix) Accuracy() float64 {
	return errors.SafeDivide(float64(c.TP+c.TN), float64(c.Total()))
}

// Precision returns TP/(TP+FP), 0 when nothing was predicted positive.
func (c ConfusionMatrix) Precision() float64 {
	return errors.SafeDivide(float64(c.TP), float64(c.TP+c.FP))
}

// Recall returns TP/(TP+FN), 0 when there are no positives.
func (c ConfusionMatrix) Recall() float64 {
	return errors.SafeDivide(float64(c.TP), float64(c.TP+c.FN))
}

// NegativePrecision returns TN/(TN+FN).
func (c ConfusionMatrix) NegativePrecision() float64 {
	return errors.SafeDivide(float64(c.TN), float64(c.TN+c.FN))
}

// NegativeRecall returns TN/(TN+FP).
func (c ConfusionMatrix) NegativeRecall() float64 {
	return errors.SafeDivide(float64(c.TN), float64(c.TN+c.FP))
}

// F1 returns the harmonic mean of precision and recall, 0 when both are 0.
func (c ConfusionMatrix) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// F1Score は 0/1 の予測ラベルから F1 を計算する
func F1Score(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.F1(), nil
}
