package model

import (
	"gonum.org/v1/gonum/mat"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// LabeledExample は正規化済み特徴ベクトルと二値ラベルの組
// 生成後に変更してはならない
type LabeledExample struct {
	Features []float64
	Label    bool
}

// Design はサンプル列を学習用の計画行列とラベルベクトルに変換する
//
// 戻り値の行列は入力と記憶域を共有しないため、学習器が入力を変更することはない。
// 空の入力、特徴量数の不一致、単一クラスのラベルはいずれもエラーになる。
func Design(algorithm string, examples []LabeledExample) (*mat.Dense, []float64, error) {
	if len(examples) == 0 {
		return nil, nil, bkerrors.NewConvergenceError(algorithm, "no training examples", bkerrors.ErrEmptyData)
	}
	nFeatures := len(examples[0].Features)
	if nFeatures == 0 {
		return nil, nil, bkerrors.NewConvergenceError(algorithm, "examples have no features", bkerrors.ErrEmptyData)
	}

	X := mat.NewDense(len(examples), nFeatures, nil)
	y := make([]float64, len(examples))
	var positives int
	for i, ex := range examples {
		if len(ex.Features) != nFeatures {
			return nil, nil, bkerrors.NewConvergenceError(algorithm, "inconsistent feature width",
				bkerrors.NewDimensionError(algorithm+".Fit", nFeatures, len(ex.Features), 1))
		}
		if err := bkerrors.CheckNumericalStability(algorithm+".Fit", ex.Features, 0); err != nil {
			return nil, nil, bkerrors.NewConvergenceError(algorithm, "non-finite feature value", err)
		}
		X.SetRow(i, ex.Features)
		if ex.Label {
			y[i] = 1
			positives++
		}
	}
	if positives == 0 || positives == len(examples) {
		return nil, nil, bkerrors.NewConvergenceError(algorithm, "degenerate labels", bkerrors.ErrSingleClass)
	}
	return X, y, nil
}
