// Package evaluation は学習/テスト分割と、学習済みモデルの評価を提供します。
package evaluation

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pkg/log"
)

// Split は互いに素な学習・テスト用データセットの組
type Split struct {
	Train *dataset.Dataset
	Test  *dataset.Dataset
}

// SplitDataset はシード付きの並べ替えで ds を分割する
//
// テスト件数は round(n·fraction)。同じ ds・fraction・seed なら常に同じ分割になる。
// fraction は (0, 1) の範囲でなければならない。
func SplitDataset(ds *dataset.Dataset, fraction float64, seed int64) (Split, error) {
	if math.IsNaN(fraction) || fraction <= 0 || fraction >= 1 {
		return Split{}, errors.NewValidationError("test_fraction", "must be in (0, 1)", fraction)
	}
	n := ds.Len()
	if n == 0 {
		return Split{}, errors.NewValueError("SplitDataset", errors.ErrEmptyData.Error())
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	testCount := int(math.Round(float64(n) * fraction))
	trainCount := n - testCount

	train, err := ds.Subset(indices[:trainCount])
	if err != nil {
		return Split{}, err
	}
	test, err := ds.Subset(indices[trainCount:])
	if err != nil {
		return Split{}, err
	}

	log.GetLoggerWithName("evaluation").Debug("Dataset split",
		log.OperationKey, log.OperationSplit,
		log.TrainSizeKey, train.Len(),
		log.TestSizeKey, test.Len(),
		log.RandomSeedKey, seed,
	)
	return Split{Train: train, Test: test}, nil
}
