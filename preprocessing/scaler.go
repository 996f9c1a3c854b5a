package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bikerental/core/model"
	"github.com/YuminosukeSato/bikerental/pkg/errors"
)

// constantRangeEps 以下の幅しかない列は定数列として扱う
const constantRangeEps = 1e-12

// MinMaxScaler はscikit-learn互換のMin-Maxスケーラー
// データを指定した範囲（デフォルト[0,1]）にスケーリングする。
// Clip が true の場合、学習範囲外の値は外挿せず範囲の端に丸める。
type MinMaxScaler struct {
	State *model.StateManager

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量のスケール (max - min)。定数列では0
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64

	// Clip は範囲外の値を FeatureRange に丸めるかどうか
	Clip bool
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// パラメータ:
//   - featureRange: スケーリング後の範囲 [min, max] (デフォルト: [0, 1])
//   - clip: 学習範囲外の値をクリップするかどうか
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0.0, 1.0}, true)
//	err := scaler.Fit(X)
//	row, err := scaler.TransformRow([]float64{21.5, 0.63, 12.0})
func NewMinMaxScaler(featureRange [2]float64, clip bool) *MinMaxScaler {
	return &MinMaxScaler{
		State:        model.NewStateManager("MinMaxScaler"),
		FeatureRange: featureRange,
		Clip:         clip,
	}
}

// NewMinMaxScalerDefault は[0,1]範囲・クリップ有効でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0}, true)
}

// Fit は訓練データから最小値・最大値を計算する
//
// パラメータ:
//   - X: 訓練データ (n_samples × n_features の行列)
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewValueError("MinMaxScaler.Fit", errors.ErrEmptyData.Error())
	}

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, X)
		lo, hi := col[0], col[0]
		for _, v := range col[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsNaN(hi) || math.IsInf(hi, 0) {
			return errors.NewValueError("MinMaxScaler.Fit", fmt.Sprintf("column %d contains non-finite values", j))
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi
		if hi-lo > constantRangeEps {
			m.Scale[j] = hi - lo
		}
	}

	m.State.MarkFitted(c, r)
	return nil
}

// TransformRow はベクトル1本をスケーリングした新しいスライスを返す
func (m *MinMaxScaler) TransformRow(x []float64) ([]float64, error) {
	if err := m.State.RequireFitted("TransformRow"); err != nil {
		return nil, err
	}
	if err := m.State.RequireFeatures("MinMaxScaler.TransformRow", len(x)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = m.scale(j, v)
	}
	return out, nil
}

// scale: X_scaled = (X - X.min) / (X.max - X.min) * (max - min) + min
// 定数列は範囲の下端に写像する
func (m *MinMaxScaler) scale(j int, v float64) float64 {
	lo, hi := m.FeatureRange[0], m.FeatureRange[1]
	if m.Scale[j] == 0 {
		return lo
	}
	scaled := (v-m.DataMin[j])/m.Scale[j]*(hi-lo) + lo
	if m.Clip {
		scaled = errors.ClipValue(scaled, lo, hi)
	}
	return scaled
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.State.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	nFeatures, _ := m.State.GetDimensions()
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], nFeatures)
}
