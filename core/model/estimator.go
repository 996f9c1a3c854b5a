package model

// Classifier は学習済みの二値分類器のインターフェース
//
// 入力は FeatureEncoder が出力した正規化済み特徴ベクトルで、
// 出力は正例（長期レンタル）の確率。実装は学習後に不変であり、
// 複数の goroutine から同時に呼び出して安全でなければならない。
type Classifier interface {
	// Kind は分類器の種類名（"GradientBoostedTrees" 等）を返す
	Kind() string

	// NumFeatures は学習時の特徴量数を返す
	NumFeatures() int

	// RawScore はシグモイド適用前のスコア（マージン）を返す
	RawScore(x []float64) (float64, error)

	// PredictProba は正例の確率を [0, 1] で返す
	PredictProba(x []float64) (float64, error)
}

// Predictor は生の特徴ベクトルから確率を得るための最小インターフェース
type Predictor interface {
	PredictProba(x []float64) (float64, error)
}

// Validator は復元した分類器が予測に使える状態かを検査できる分類器のインターフェース
type Validator interface {
	// Validate は内部構造が壊れていれば error を返す
	Validate() error
}

// Describer はハイパーパラメータを報告できる分類器のインターフェース
type Describer interface {
	// Params はログやレポート向けのハイパーパラメータを返す
	Params() map[string]interface{}
}
