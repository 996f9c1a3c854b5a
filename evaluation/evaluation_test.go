package evaluation

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/pkg/errors"
)

func TestSplitDataset_SizesAndDisjoint(t *testing.T) {
	ds := dataset.Synthetic(1000, 42)
	split, err := SplitDataset(ds, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, 800, split.Train.Len())
	assert.Equal(t, 200, split.Test.Len())

	// union as a multiset equals the source
	key := func(r dataset.RawRecord) dataset.RawRecord { return r }
	counts := make(map[dataset.RawRecord]int)
	for _, r := range ds.Records() {
		counts[key(r)]++
	}
	for _, part := range []*dataset.Dataset{split.Train, split.Test} {
		for _, r := range part.Records() {
			counts[key(r)]--
		}
	}
	for r, c := range counts {
		assert.Zero(t, c, "record %+v", r)
	}
}

func TestSplitDataset_PartitionsIndices(t *testing.T) {
	// records differing only in Hour make every row distinguishable
	records := make([]dataset.RawRecord, 24)
	for i := range records {
		records[i] = dataset.RawRecord{Season: 1, Month: 1, Hour: i, WeatherCondition: 1}.Labeled(i%2 == 0)
	}
	ds := dataset.MustNew(records)

	for _, fraction := range []float64{0.1, 0.25, 0.5, 0.9} {
		split, err := SplitDataset(ds, fraction, 7)
		require.NoError(t, err)
		assert.Equal(t, ds.Len(), split.Train.Len()+split.Test.Len())

		var hours []int
		for _, part := range []*dataset.Dataset{split.Train, split.Test} {
			for _, r := range part.Records() {
				hours = append(hours, r.Hour)
			}
		}
		sort.Ints(hours)
		for i, h := range hours {
			assert.Equal(t, i, h, "fraction %v", fraction)
		}

		// |test| is within one record of n*fraction
		assert.InDelta(t, float64(ds.Len())*fraction, float64(split.Test.Len()), 1.0)
	}
}

func TestSplitDataset_Deterministic(t *testing.T) {
	ds := dataset.Synthetic(300, 5)
	a, err := SplitDataset(ds, 0.3, 99)
	require.NoError(t, err)
	b, err := SplitDataset(ds, 0.3, 99)
	require.NoError(t, err)
	assert.Equal(t, a.Train.Records(), b.Train.Records())
	assert.Equal(t, a.Test.Records(), b.Test.Records())

	c, err := SplitDataset(ds, 0.3, 100)
	require.NoError(t, err)
	assert.NotEqual(t, a.Test.Records(), c.Test.Records())
}

func TestSplitDataset_InvalidFraction(t *testing.T) {
	ds := dataset.Synthetic(10, 1)
	for _, f := range []float64{0, 1, -0.1, 1.5} {
		_, err := SplitDataset(ds, f, 1)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve), "fraction %v", f)
	}

	_, err := SplitDataset(dataset.MustNew(nil), 0.2, 1)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

// hourPredictor scores records by hour so tests can reason about rankings.
type hourPredictor struct {
	fail bool
}

func (h hourPredictor) PredictProbability(r dataset.RawRecord) (float64, error) {
	if h.fail {
		return 0, errors.New("scoring failed")
	}
	return float64(r.Hour) / 23, nil
}

func hourDataset() *dataset.Dataset {
	// label true for afternoon hours, with one noisy record
	var records []dataset.RawRecord
	for h := 0; h < 24; h++ {
		label := h >= 12
		if h == 5 {
			label = true
		}
		records = append(records, dataset.RawRecord{Season: 2, Month: 4, Hour: h, WeatherCondition: 1}.Labeled(label))
	}
	return dataset.MustNew(records)
}

func TestEvaluate(t *testing.T) {
	m, err := Evaluate(hourPredictor{}, hourDataset())
	require.NoError(t, err)

	assert.Equal(t, 24, m.Samples)
	// threshold 0.5 -> hour >= 11.5 predicted positive; hour 5 is a FN
	assert.Equal(t, 12, m.Confusion.TP)
	assert.Equal(t, 1, m.Confusion.FN)
	assert.Equal(t, 0, m.Confusion.FP)
	assert.Equal(t, 11, m.Confusion.TN)
	assert.InDelta(t, 23.0/24.0, m.Accuracy, 1e-12)

	// positives 5,12..23 vs negatives 0..4,6..11: only 5 loses to 6..11
	assert.InDelta(t, 1-6.0/(13*11), m.AUC, 1e-12)
	assert.InDelta(t, 2*12.0/(2*12+1), m.F1, 1e-12)

	for _, v := range []float64{m.Accuracy, m.AUC, m.F1, m.Precision, m.Recall, m.AUPRC, m.Brier} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Greater(t, m.LogLoss, 0.0)
	assert.Greater(t, m.LogLossReduction, 0.0)
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate(hourPredictor{fail: true}, hourDataset())
	assert.Error(t, err)

	unlabeled := dataset.MustNew([]dataset.RawRecord{{Season: 1, Month: 1, WeatherCondition: 1}})
	_, err = Evaluate(hourPredictor{}, unlabeled)
	var de *errors.DataError
	assert.True(t, errors.As(err, &de))

	_, err = Evaluate(hourPredictor{}, dataset.MustNew(nil))
	assert.Error(t, err)
}
