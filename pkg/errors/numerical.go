package errors

import "math"

const (
	// logFloor は log(0) を避けるための下限
	logFloor = 1e-15
	// expCeil を超える指数は math.Exp が +Inf になる
	expCeil = 700.0
	// divideEpsilon 未満の分母は 0 とみなす
	divideEpsilon = 1e-10
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckNumericalStability は values に NaN/Inf が含まれていれば
// NumericalInstabilityError を返します。iteration は学習ラウンド番号です。
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if !finite(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar is CheckNumericalStability for a single value.
func CheckScalar(operation string, value float64, iteration int) error {
	if finite(value) {
		return nil
	}
	return NewNumericalInstabilityError(operation, []float64{value}, iteration)
}

// SafeDivide は分母がほぼ 0 のとき 0 を返します。
// 陽性のない ROC 軸や空の混同行列で使われます。
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < divideEpsilon {
		return 0
	}
	return numerator / denominator
}

// ClipValue clamps value to [lo, hi].
func ClipValue(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// StabilizeLog returns log(max(value, 1e-15)).
func StabilizeLog(value float64) float64 {
	return math.Log(math.Max(value, logFloor))
}

func clampedExp(v float64) float64 {
	switch {
	case v > expCeil:
		return math.Exp(expCeil)
	case v < -expCeil:
		return 0
	}
	return math.Exp(v)
}

// Sigmoid は生スコアを確率へ写します。|z| が大きくてもオーバーフローしません。
func Sigmoid(z float64) float64 {
	if z < 0 {
		ez := clampedExp(z)
		return ez / (1 + ez)
	}
	return 1 / (1 + clampedExp(-z))
}
