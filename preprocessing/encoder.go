// Package preprocessing は生レコードを正規化済み特徴ベクトルへ変換する前処理を提供します。
//
// FeatureEncoder は学習用パーティションでのみ Fit され、以降は凍結されたパラメータを
// テスト・推論で共有します。
package preprocessing

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bikerental/core/model"
	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pkg/log"
)

// Category field names accepted by DecodeCategory.
const (
	FieldSeason  = "season"
	FieldWeather = "weather_condition"
)

// numericNames is the order of the min-max normalised tail of the vector.
var numericNames = []string{
	"month", "hour", "holiday", "weekday", "working_day",
	"temperature", "humidity", "windspeed",
}

// EncoderParams は永続化用の凍結パラメータ
type EncoderParams struct {
	SeasonVocab  []int
	WeatherVocab []int
	DataMin      []float64
	DataMax      []float64
}

// FeatureEncoder は RawRecord を
// one-hot(season) ++ one-hot(weather_condition) ++ 数値8列（[0,1] 正規化）
// の特徴ベクトルに変換する。
//
// 学習語彙にないカテゴリはゼロベクトルに写像される（情報は失われる）。
// Fit 後は読み取り専用で、複数 goroutine から安全に Encode できる。
// 語彙外の件数は数えない。推論側で UnknownFields を使って集計する。
type FeatureEncoder struct {
	State   *model.StateManager
	season  *OneHot
	weather *OneHot
	scaler  *MinMaxScaler
	logger  log.Logger
}

// NewFeatureEncoder は未学習のエンコーダを作成する
func NewFeatureEncoder() *FeatureEncoder {
	return &FeatureEncoder{
		State:  model.NewStateManager("FeatureEncoder"),
		scaler: NewMinMaxScalerDefault(),
		logger: log.GetLoggerWithName("preprocessing"),
	}
}

// Fit は学習データから語彙と各数値列の最小値・最大値を求める
func (e *FeatureEncoder) Fit(ds *dataset.Dataset) error {
	n := ds.Len()
	if n == 0 {
		return errors.NewValueError("FeatureEncoder.Fit", errors.ErrEmptyData.Error())
	}

	seasons := make([]int, n)
	weathers := make([]int, n)
	numeric := mat.NewDense(n, len(numericNames), nil)
	for i := 0; i < n; i++ {
		r := ds.At(i)
		seasons[i] = r.Season
		weathers[i] = r.WeatherCondition
		numeric.SetRow(i, numericRow(r))
	}

	e.season = FitOneHot(FieldSeason, seasons)
	e.weather = FitOneHot(FieldWeather, weathers)
	if err := e.scaler.Fit(numeric); err != nil {
		return err
	}
	e.State.MarkFitted(e.NumFeatures(), n)

	e.logger.Debug("FeatureEncoder fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, e.NumFeatures(),
	)
	return nil
}

func numericRow(r dataset.RawRecord) []float64 {
	return []float64{
		float64(r.Month), float64(r.Hour), float64(r.Holiday), float64(r.Weekday),
		float64(r.WorkingDay), r.Temperature, r.Humidity, r.Windspeed,
	}
}

// NumFeatures は出力ベクトルの長さを返す（未学習なら0）
func (e *FeatureEncoder) NumFeatures() int {
	if e.season == nil || e.weather == nil {
		return 0
	}
	return e.season.Width() + e.weather.Width() + len(numericNames)
}

// FeatureNames は出力ベクトルの各要素名を返す
func (e *FeatureEncoder) FeatureNames() []string {
	if e.season == nil || e.weather == nil {
		return nil
	}
	names := make([]string, 0, e.NumFeatures())
	for _, c := range e.season.Vocab {
		names = append(names, fmt.Sprintf("%s=%d", FieldSeason, c))
	}
	for _, c := range e.weather.Vocab {
		names = append(names, fmt.Sprintf("%s=%d", FieldWeather, c))
	}
	return append(names, numericNames...)
}

// Encode は凍結済みパラメータで1件を変換する
func (e *FeatureEncoder) Encode(r dataset.RawRecord) ([]float64, error) {
	if err := e.State.RequireFitted("Encode"); err != nil {
		return nil, err
	}

	out := make([]float64, e.NumFeatures())
	sw := e.season.Width()
	ww := e.weather.Width()
	e.encodeCategory(e.season, out[:sw], r.Season)
	e.encodeCategory(e.weather, out[sw:sw+ww], r.WeatherCondition)

	scaled, err := e.scaler.TransformRow(numericRow(r))
	if err != nil {
		return nil, err
	}
	copy(out[sw+ww:], scaled)
	return out, nil
}

func (e *FeatureEncoder) encodeCategory(o *OneHot, dst []float64, code int) {
	if err := o.EncodeInto(dst, code); err != nil {
		if e.logger.Enabled(context.Background(), log.LevelDebug) {
			e.logger.Debug("Unknown category encoded as zero vector",
				log.OperationKey, log.OperationEncode,
				log.PhaseKey, log.PhasePreprocessing,
				log.ErrAttrKey, err,
			)
		}
	}
}

// EncodeLabeled は学習・評価用にラベル付きで変換する
func (e *FeatureEncoder) EncodeLabeled(r dataset.RawRecord) (model.LabeledExample, error) {
	if !r.HasLabel {
		return model.LabeledExample{}, errors.NewDataError("", 0, "rental_type", "record has no label", nil)
	}
	x, err := e.Encode(r)
	if err != nil {
		return model.LabeledExample{}, err
	}
	return model.LabeledExample{Features: x, Label: r.RentalType}, nil
}

// EncodeDataset はデータセット全体を順序を保って変換する
func (e *FeatureEncoder) EncodeDataset(ds *dataset.Dataset) ([]model.LabeledExample, error) {
	out := make([]model.LabeledExample, ds.Len())
	for i := range out {
		r := ds.At(i)
		if !r.HasLabel {
			return nil, errors.NewDataError("dataset", i+1, "rental_type", "record has no label", nil)
		}
		ex, err := e.EncodeLabeled(r)
		if err != nil {
			return nil, err
		}
		out[i] = ex
	}
	return out, nil
}

// DecodeCategory は特徴ベクトル（または該当 one-hot 部分）からカテゴリを復元する
//
// slice には Encode の出力全体、またはそのフィールドの one-hot 部分のみを渡せる。
// ゼロベクトル（語彙外）の場合は false を返す。
func (e *FeatureEncoder) DecodeCategory(field string, slice []float64) (int, bool) {
	if !e.State.IsFitted() {
		return 0, false
	}
	sw, ww := e.season.Width(), e.weather.Width()
	full := len(slice) == e.NumFeatures()
	switch field {
	case FieldSeason:
		if full {
			slice = slice[:sw]
		}
		return e.season.Decode(slice)
	case FieldWeather:
		if full {
			slice = slice[sw : sw+ww]
		}
		return e.weather.Decode(slice)
	}
	return 0, false
}

// UnknownFields は r のうち学習語彙にないカテゴリ列の名前を返す（未学習なら nil）
func (e *FeatureEncoder) UnknownFields(r dataset.RawRecord) []string {
	if !e.State.IsFitted() {
		return nil
	}
	var fields []string
	if !e.season.Contains(r.Season) {
		fields = append(fields, FieldSeason)
	}
	if !e.weather.Contains(r.WeatherCondition) {
		fields = append(fields, FieldWeather)
	}
	return fields
}

// Params は永続化用に凍結パラメータのコピーを返す
func (e *FeatureEncoder) Params() (EncoderParams, error) {
	if err := e.State.RequireFitted("Params"); err != nil {
		return EncoderParams{}, err
	}
	return EncoderParams{
		SeasonVocab:  append([]int(nil), e.season.Vocab...),
		WeatherVocab: append([]int(nil), e.weather.Vocab...),
		DataMin:      append([]float64(nil), e.scaler.DataMin...),
		DataMax:      append([]float64(nil), e.scaler.DataMax...),
	}, nil
}

// FromParams は保存済みパラメータからエンコーダを復元する
func FromParams(p EncoderParams) (*FeatureEncoder, error) {
	if len(p.SeasonVocab) == 0 || len(p.WeatherVocab) == 0 {
		return nil, errors.NewValidationError("vocab", "must not be empty", p)
	}
	for _, v := range [][]int{p.SeasonVocab, p.WeatherVocab} {
		for i := 1; i < len(v); i++ {
			if v[i] <= v[i-1] {
				return nil, errors.NewValidationError("vocab", "must be strictly increasing", v)
			}
		}
	}
	if len(p.DataMin) != len(numericNames) || len(p.DataMax) != len(numericNames) {
		return nil, errors.NewValidationError("data_min/data_max",
			fmt.Sprintf("must have %d entries", len(numericNames)), len(p.DataMin))
	}

	e := NewFeatureEncoder()
	e.season = NewOneHot(FieldSeason, p.SeasonVocab)
	e.weather = NewOneHot(FieldWeather, p.WeatherVocab)

	e.scaler.DataMin = append([]float64(nil), p.DataMin...)
	e.scaler.DataMax = append([]float64(nil), p.DataMax...)
	e.scaler.Scale = make([]float64, len(p.DataMin))
	for j := range p.DataMin {
		if p.DataMax[j] < p.DataMin[j] {
			return nil, errors.NewValidationError("data_max", "must not be below data_min", p.DataMax[j])
		}
		if p.DataMax[j]-p.DataMin[j] > constantRangeEps {
			e.scaler.Scale[j] = p.DataMax[j] - p.DataMin[j]
		}
	}
	e.scaler.State.MarkFitted(len(numericNames), 0)
	e.State.MarkFitted(e.NumFeatures(), 0)
	return e, nil
}
