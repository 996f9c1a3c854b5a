// Package metrics は二値分類の評価指標を gonum のベクトル上で計算します。
//
// ラベルは 0/1、スコアは任意の実数（確率である必要はない）を受け付けます。
// LogLoss と Brier スコアのみ確率を前提とします。
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/bikerental/pkg/errors"
)

// LogLossEpsilon は log(0) を避けるための確率のクリップ幅
const LogLossEpsilon = 1e-15

// DefaultThreshold は確率から予測ラベルを決める閾値
const DefaultThreshold = 0.5

// checkPair は入力ベクトルの長さを検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// checkBinary はラベルが0か1であることを検証し、正例数を返す
func checkBinary(op string, yTrue *mat.VecDense) (int, error) {
	pos := 0
	for i := 0; i < yTrue.Len(); i++ {
		switch yTrue.AtVec(i) {
		case 1:
			pos++
		case 0:
		default:
			return 0, errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return pos, nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AUC はROC曲線下面積をランク統計（Mann-Whitney U）で計算する
//
// 同点スコアには平均順位を与える。片方のクラスしか存在しない場合は
// 定義できないため UndefinedMetricWarning を出して 0.5 を返す。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	nPos, err := checkBinary("AUC", yTrue)
	if err != nil {
		return 0, err
	}
	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	ranks := averageRanks(yScore)
	var rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			rankSum += ranks[i]
		}
	}
	u := rankSum - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// averageRanks は1始まりの順位を返す。同点は平均順位になる。
func averageRanks(v *mat.VecDense) []float64 {
	n := v.Len()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v.AtVec(idx[a]) < v.AtVec(idx[b]) })

	ranks := make([]float64, n)
	for start := 0; start < n; {
		end := start + 1
		for end < n && v.AtVec(idx[end]) == v.AtVec(idx[start]) {
			end++
		}
		// 順位 start+1 .. end の平均
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			ranks[idx[k]] = avg
		}
		start = end
	}
	return ranks
}

// BinaryLogLoss は平均対数損失を計算する
// 確率は [ε, 1-ε]（ε = LogLossEpsilon）にクリップされるため結果は常に有限。
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	if _, err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yProb.AtVec(i), LogLossEpsilon, 1-LogLossEpsilon)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// LogLossReduction は事前確率のみのモデルに対する対数損失の相対改善
// (H(prior) - logLoss) / H(prior) を返す。事前分布が退化している場合は 0。
func LogLossReduction(logLoss, positiveRate float64) float64 {
	if positiveRate <= 0 || positiveRate >= 1 {
		return 0
	}
	prior := stat.Entropy([]float64{positiveRate, 1 - positiveRate})
	return (prior - logLoss) / prior
}

// Threshold は確率ベクトルを閾値で 0/1 ラベルに変換する（p >= threshold で 1）
func Threshold(yProb *mat.VecDense, threshold float64) *mat.VecDense {
	out := mat.NewVecDense(yProb.Len(), nil)
	for i := 0; i < yProb.Len(); i++ {
		if yProb.AtVec(i) >= threshold {
			out.SetVec(i, 1)
		}
	}
	return out
}

// ROCCurve は閾値を降順に動かしたときの (FPR, TPR) 点列を返す
// 先頭は (0, 0)、末尾は (1, 1)。同点スコアは一点にまとめる。
func ROCCurve(yTrue, yScore *mat.VecDense) (fpr, tpr []float64, err error) {
	n, err := checkPair("ROCCurve", yTrue, yScore)
	if err != nil {
		return nil, nil, err
	}
	nPos, err := checkBinary("ROCCurve", yTrue)
	if err != nil {
		return nil, nil, err
	}
	nNeg := n - nPos

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return yScore.AtVec(idx[a]) > yScore.AtVec(idx[b]) })

	fpr = []float64{0}
	tpr = []float64{0}
	tp, fp := 0, 0
	for start := 0; start < n; {
		end := start
		for end < n && yScore.AtVec(idx[end]) == yScore.AtVec(idx[start]) {
			if yTrue.AtVec(idx[end]) == 1 {
				tp++
			} else {
				fp++
			}
			end++
		}
		fpr = append(fpr, errors.SafeDivide(float64(fp), float64(nNeg)))
		tpr = append(tpr, errors.SafeDivide(float64(tp), float64(nPos)))
		start = end
	}
	return fpr, tpr, nil
}
