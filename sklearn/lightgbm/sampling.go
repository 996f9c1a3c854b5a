package lightgbm

import (
	"math/rand"
	"sort"
)

// SamplingStrategy handles row sampling (bagging) for training
//
// 乱数列はシードのみで決まるので、同じパラメータとデータからは同じ木が得られる。
type SamplingStrategy struct {
	rng             *rand.Rand
	baggingFraction float64
	baggingFreq     int
	current         []int
}

// NewSamplingStrategy creates a new sampling strategy
func NewSamplingStrategy(seed int64, baggingFraction float64, baggingFreq int) *SamplingStrategy {
	return &SamplingStrategy{
		rng:             rand.New(rand.NewSource(seed)),
		baggingFraction: baggingFraction,
		baggingFreq:     baggingFreq,
	}
}

// SampleInstances samples training instances for the tree of the given iteration.
// A new bag is drawn every baggingFreq iterations and reused in between.
// The returned indices are sorted.
func (s *SamplingStrategy) SampleInstances(numInstances int, iteration int) []int {
	if s.baggingFraction >= 1.0 || s.baggingFraction <= 0 || s.baggingFreq <= 0 {
		return allInstances(numInstances)
	}
	if s.current != nil && iteration%s.baggingFreq != 0 {
		return s.current
	}

	numSample := int(float64(numInstances) * s.baggingFraction)
	if numSample < 1 {
		numSample = 1
	}
	if numSample > numInstances {
		numSample = numInstances
	}

	// Partial Fisher-Yates, sample without replacement
	perm := allInstances(numInstances)
	for i := 0; i < numSample; i++ {
		j := i + s.rng.Intn(numInstances-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	bag := perm[:numSample]
	sort.Ints(bag)
	s.current = bag
	return bag
}

func allInstances(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
