package preprocessing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/pkg/errors"
)

func trainFixture() *dataset.Dataset {
	return dataset.MustNew([]dataset.RawRecord{
		{Season: 1, Month: 1, Hour: 0, Holiday: 0, Weekday: 0, WorkingDay: 0,
			WeatherCondition: 1, Temperature: 0, Humidity: 40, Windspeed: 0},
		{Season: 3, Month: 7, Hour: 12, Holiday: 1, Weekday: 3, WorkingDay: 1,
			WeatherCondition: 2, Temperature: 20, Humidity: 60, Windspeed: 10},
		{Season: 4, Month: 12, Hour: 23, Holiday: 0, Weekday: 6, WorkingDay: 1,
			WeatherCondition: 2, Temperature: 30, Humidity: 80, Windspeed: 20},
	})
}

func fittedEncoder(t *testing.T) *FeatureEncoder {
	t.Helper()
	enc := NewFeatureEncoder()
	require.NoError(t, enc.Fit(trainFixture()))
	return enc
}

func TestFeatureEncoder_Layout(t *testing.T) {
	enc := fittedEncoder(t)

	// season vocab {1,3,4}, weather vocab {1,2}, 8 numeric columns
	assert.Equal(t, 13, enc.NumFeatures())
	assert.Equal(t, []string{
		"season=1", "season=3", "season=4",
		"weather_condition=1", "weather_condition=2",
		"month", "hour", "holiday", "weekday", "working_day",
		"temperature", "humidity", "windspeed",
	}, enc.FeatureNames())

	x, err := enc.Encode(trainFixture().At(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, x[:3])
	assert.Equal(t, []float64{0, 1}, x[3:5])
	assert.InDelta(t, 6.0/11.0, x[5], 1e-12)  // month 7 in [1,12]
	assert.InDelta(t, 12.0/23.0, x[6], 1e-12) // hour 12 in [0,23]
	assert.InDelta(t, 1.0, x[7], 1e-12)       // holiday
	assert.InDelta(t, 0.5, x[8], 1e-12)       // weekday 3 in [0,6]
	assert.InDelta(t, 1.0, x[9], 1e-12)       // working_day
	assert.InDelta(t, 2.0/3.0, x[10], 1e-12)  // temperature
	assert.InDelta(t, 0.5, x[11], 1e-12)      // humidity
	assert.InDelta(t, 0.5, x[12], 1e-12)      // windspeed
}

func TestFeatureEncoder_NotFitted(t *testing.T) {
	enc := NewFeatureEncoder()
	_, err := enc.Encode(trainFixture().At(0))
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))

	_, err = enc.Params()
	assert.True(t, errors.As(err, &nf))
}

func TestFeatureEncoder_FitEmpty(t *testing.T) {
	enc := NewFeatureEncoder()
	err := enc.Fit(dataset.MustNew(nil))
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

func TestFeatureEncoder_CategoryRoundTrip(t *testing.T) {
	enc := fittedEncoder(t)
	for _, r := range trainFixture().Records() {
		x, err := enc.Encode(r)
		require.NoError(t, err)

		season, ok := enc.DecodeCategory(FieldSeason, x)
		require.True(t, ok)
		assert.Equal(t, r.Season, season)

		weather, ok := enc.DecodeCategory(FieldWeather, x[3:5])
		require.True(t, ok)
		assert.Equal(t, r.WeatherCondition, weather)
	}

	_, ok := enc.DecodeCategory("hour", make([]float64, 13))
	assert.False(t, ok)
}

func TestFeatureEncoder_UnknownCategoryZeroSlice(t *testing.T) {
	enc := fittedEncoder(t)
	r := trainFixture().At(1)
	r.Season = 2           // not in {1,3,4}
	r.WeatherCondition = 4 // not in {1,2}

	x, err := enc.Encode(r)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, x[:5])
	assert.Equal(t, []string{FieldSeason, FieldWeather}, enc.UnknownFields(r))
	assert.Empty(t, enc.UnknownFields(trainFixture().At(1)))
	assert.Nil(t, NewFeatureEncoder().UnknownFields(r))

	_, ok := enc.DecodeCategory(FieldSeason, x)
	assert.False(t, ok)
}

func TestFeatureEncoder_ClampsOutOfRange(t *testing.T) {
	enc := fittedEncoder(t)
	r := trainFixture().At(1)
	r.Temperature = 45 // above fitted max 30
	r.Humidity = 5     // below fitted min 40
	r.Windspeed = 1000

	x, err := enc.Encode(r)
	require.NoError(t, err)
	for j, v := range x {
		assert.GreaterOrEqual(t, v, 0.0, "feature %d", j)
		assert.LessOrEqual(t, v, 1.0, "feature %d", j)
	}
	assert.Equal(t, 1.0, x[10])
	assert.Equal(t, 0.0, x[11])
	assert.Equal(t, 1.0, x[12])
}

func TestFeatureEncoder_SyntheticBounds(t *testing.T) {
	train := dataset.Synthetic(300, 3)
	test := dataset.Synthetic(100, 4)
	enc := NewFeatureEncoder()
	require.NoError(t, enc.Fit(train))

	examples, err := enc.EncodeDataset(test)
	require.NoError(t, err)
	require.Len(t, examples, 100)
	for _, ex := range examples {
		assert.Len(t, ex.Features, enc.NumFeatures())
		for _, v := range ex.Features {
			assert.True(t, v >= 0 && v <= 1)
		}
	}
}

func TestFeatureEncoder_EncodeLabeledRequiresLabel(t *testing.T) {
	enc := fittedEncoder(t)
	_, err := enc.EncodeLabeled(trainFixture().At(0))
	var de *errors.DataError
	require.True(t, errors.As(err, &de))

	ex, err := enc.EncodeLabeled(trainFixture().At(0).Labeled(true))
	require.NoError(t, err)
	assert.True(t, ex.Label)

	_, err = enc.EncodeDataset(trainFixture())
	assert.True(t, errors.As(err, &de))
}

func TestFeatureEncoder_ParamsRoundTrip(t *testing.T) {
	enc := fittedEncoder(t)
	params, err := enc.Params()
	require.NoError(t, err)

	restored, err := FromParams(params)
	require.NoError(t, err)

	inputs := dataset.Synthetic(20, 9)
	for _, r := range inputs.Records() {
		a, err := enc.Encode(r)
		require.NoError(t, err)
		b, err := restored.Encode(r)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestFromParams_Invalid(t *testing.T) {
	good := EncoderParams{
		SeasonVocab:  []int{1, 2},
		WeatherVocab: []int{1},
		DataMin:      make([]float64, 8),
		DataMax:      make([]float64, 8),
	}
	_, err := FromParams(good)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(p *EncoderParams)
	}{
		{"empty vocab", func(p *EncoderParams) { p.SeasonVocab = nil }},
		{"unsorted vocab", func(p *EncoderParams) { p.WeatherVocab = []int{2, 1} }},
		{"short min", func(p *EncoderParams) { p.DataMin = []float64{0} }},
		{"max below min", func(p *EncoderParams) { p.DataMin = []float64{1, 0, 0, 0, 0, 0, 0, 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := good
			p.DataMin = append([]float64(nil), good.DataMin...)
			tt.mutate(&p)
			_, err := FromParams(p)
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestFeatureEncoder_ConcurrentEncode(t *testing.T) {
	enc := fittedEncoder(t)
	inputs := dataset.Synthetic(50, 11).Records()
	want := make([][]float64, len(inputs))
	for i, r := range inputs {
		x, err := enc.Encode(r)
		require.NoError(t, err)
		want[i] = x
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, r := range inputs {
				x, err := enc.Encode(r)
				assert.NoError(t, err)
				assert.Equal(t, want[i], x)
			}
		}()
	}
	wg.Wait()
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
	})
	s := NewMinMaxScalerDefault()
	require.NoError(t, s.Fit(X))
	for i, want := range []float64{0, 0.5, 1} {
		row, err := s.TransformRow(mat.Row(nil, i, X))
		require.NoError(t, err)
		assert.Equal(t, []float64{want, 0}, row, "constant column maps to 0")
	}

	row, err := s.TransformRow([]float64{10, 9})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, row)

	_, err = s.TransformRow([]float64{1})
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))

	unclipped := NewMinMaxScaler([2]float64{0, 1}, false)
	require.NoError(t, unclipped.Fit(X))
	row, err = unclipped.TransformRow([]float64{5, 5})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, row[0], 1e-12)
	assert.Contains(t, unclipped.String(), "n_features=2")
}
