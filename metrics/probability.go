package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bikerental/pkg/errors"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var diff mat.VecDense
	diff.SubVec(yTrue, yPred)
	return mat.Dot(&diff, &diff) / float64(n), nil
}

// BrierScore は確率予測と 0/1 ラベルの平均二乗誤差を計算する
func BrierScore(yTrue, yProb *mat.VecDense) (float64, error) {
	if _, err := checkPair("BrierScore", yTrue, yProb); err != nil {
		return 0, err
	}
	if _, err := checkBinary("BrierScore", yTrue); err != nil {
		return 0, err
	}
	return MSE(yTrue, yProb)
}

// AUPRC は適合率-再現率曲線下面積を平均適合率（average precision）として計算する
//
// AP = Σ (R_k - R_{k-1}) · P_k。同点スコアは一つの閾値としてまとめて扱う。
// 正例が存在しない場合は UndefinedMetricWarning を出して 0 を返す。
func AUPRC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUPRC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	nPos, err := checkBinary("AUPRC", yTrue)
	if err != nil {
		return 0, err
	}
	if nPos == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUPRC", "no positive samples in y_true", 0))
		return 0, nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return yScore.AtVec(idx[a]) > yScore.AtVec(idx[b]) })

	var ap, prevRecall float64
	tp, seen := 0, 0
	for start := 0; start < n; {
		end := start
		for end < n && yScore.AtVec(idx[end]) == yScore.AtVec(idx[start]) {
			if yTrue.AtVec(idx[end]) == 1 {
				tp++
			}
			end++
		}
		seen = end
		recall := float64(tp) / float64(nPos)
		precision := float64(tp) / float64(seen)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
		start = end
	}
	return ap, nil
}
