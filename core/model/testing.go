package model

import "math/rand"

// SeparableExamples は学習器のテスト用に、特徴量3つの決定的なサンプル列を生成する
//
// ラベルは x0 + 0.5*x1 > 0.75 で決まり、x2 はラベルと無関係なノイズ。
// 同じ n と seed からは常に同じ列が得られる。
func SeparableExamples(n int, seed int64) []LabeledExample {
	rng := rand.New(rand.NewSource(seed))
	out := make([]LabeledExample, n)
	for i := range out {
		x := []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		out[i] = LabeledExample{Features: x, Label: x[0]+0.5*x[1] > 0.75}
	}
	return out
}

// CloneExamples returns a deep copy, for asserting that trainers leave their input untouched.
func CloneExamples(examples []LabeledExample) []LabeledExample {
	out := make([]LabeledExample, len(examples))
	for i, ex := range examples {
		out[i] = LabeledExample{Features: append([]float64(nil), ex.Features...), Label: ex.Label}
	}
	return out
}
