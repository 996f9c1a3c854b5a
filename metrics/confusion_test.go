package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bikerental/pkg/errors"
)

func TestConfusionMatrix(t *testing.T) {
	yTrue := vec(1, 1, 1, 0, 0, 0, 0)
	yPred := vec(1, 1, 0, 1, 0, 0, 0)

	cm, err := NewConfusionMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.Equal(t, ConfusionMatrix{TP: 2, FP: 1, TN: 3, FN: 1}, cm)
	assert.Equal(t, 7, cm.Total())
	assert.InDelta(t, 5.0/7.0, cm.Accuracy(), 1e-12)
	assert.InDelta(t, 2.0/3.0, cm.Precision(), 1e-12)
	assert.InDelta(t, 2.0/3.0, cm.Recall(), 1e-12)
	assert.InDelta(t, 3.0/4.0, cm.NegativePrecision(), 1e-12)
	assert.InDelta(t, 3.0/4.0, cm.NegativeRecall(), 1e-12)
	assert.InDelta(t, 2.0/3.0, cm.F1(), 1e-12)
}

func TestF1Score(t *testing.T) {
	tests := []struct {
		name  string
		yTrue *mat.VecDense
		yPred *mat.VecDense
		want  float64
	}{
		{"perfect", vec(1, 0, 1), vec(1, 0, 1), 1},
		{"no positive predictions", vec(1, 0, 1), vec(0, 0, 0), 0},
		{"no positives at all", vec(0, 0, 0), vec(0, 0, 0), 0},
		{"half", vec(1, 1, 0, 0), vec(1, 0, 1, 0), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := F1Score(tt.yTrue, tt.yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := F1Score(vec(1, 0), vec(0.7, 0))
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve), "predictions must be hard labels")
}

func TestAUC_SingleClassWarns(t *testing.T) {
	var warned []error
	errors.SetWarningHandler(func(w error) { warned = append(warned, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	got, err := AUC(vec(1, 1, 1), vec(0.2, 0.5, 0.9))
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)
	require.Len(t, warned, 1)
	var uw *errors.UndefinedMetricWarning
	assert.True(t, errors.As(warned[0], &uw))
}

func TestAUPRC(t *testing.T) {
	tests := []struct {
		name   string
		yTrue  *mat.VecDense
		yScore *mat.VecDense
		want   float64
	}{
		{"perfect ranking", vec(0, 0, 1, 1), vec(0.1, 0.2, 0.8, 0.9), 1},
		// ranked: 0.8(1) 0.4(0) 0.35(1) 0.1(0) -> 0.5*1 + 0.5*(2/3)
		{"typical", vec(0, 0, 1, 1), vec(0.1, 0.4, 0.35, 0.8), 0.5 + 1.0/3.0},
		// a single tied threshold yields the positive rate
		{"all tied", vec(0, 1, 0, 1), vec(0.5, 0.5, 0.5, 0.5), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUPRC(tt.yTrue, tt.yScore)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	errors.SetWarningHandler(func(error) {})
	got, err := AUPRC(vec(0, 0), vec(0.1, 0.9))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestBrierScore(t *testing.T) {
	got, err := BrierScore(vec(1, 0, 1, 0), vec(0.9, 0.1, 0.6, 0.5))
	require.NoError(t, err)
	assert.InDelta(t, (0.01+0.01+0.16+0.25)/4, got, 1e-12)

	_, err = BrierScore(vec(2, 0), vec(0.1, 0.2))
	assert.Error(t, err)

	mse, err := MSE(vec(1, 2, 3), vec(1, 2, 5))
	require.NoError(t, err)
	assert.InDelta(t, 4.0/3.0, mse, 1e-12)
}

func TestLogLossReduction(t *testing.T) {
	prior := -(0.25*math.Log(0.25) + 0.75*math.Log(0.75))

	assert.InDelta(t, 0.0, LogLossReduction(prior, 0.25), 1e-12)
	assert.InDelta(t, 1.0, LogLossReduction(0, 0.25), 1e-12)
	assert.Less(t, LogLossReduction(2*prior, 0.25), 0.0)
	assert.Equal(t, 0.0, LogLossReduction(0.3, 0))
	assert.Equal(t, 0.0, LogLossReduction(0.3, 1))
}

func TestThreshold(t *testing.T) {
	got := Threshold(vec(0.49, 0.5, 0.51, 0), DefaultThreshold)
	assert.Equal(t, []float64{0, 1, 1, 0}, got.RawVector().Data)
}

func TestMetricBounds_RandomInputs(t *testing.T) {
	n := 200
	yTrue := mat.NewVecDense(n, nil)
	yProb := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if (i*7)%3 == 0 {
			yTrue.SetVec(i, 1)
		}
		yProb.SetVec(i, math.Mod(float64(i)*0.6180339887, 1))
	}

	auc, err := AUC(yTrue, yProb)
	require.NoError(t, err)
	f1, err := F1Score(yTrue, Threshold(yProb, DefaultThreshold))
	require.NoError(t, err)
	acc, err := Accuracy(yTrue, Threshold(yProb, DefaultThreshold))
	require.NoError(t, err)
	ll, err := BinaryLogLoss(yTrue, yProb)
	require.NoError(t, err)

	for _, v := range []float64{auc, f1, acc} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.GreaterOrEqual(t, ll, 0.0)
	assert.False(t, math.IsInf(ll, 0))
}

func TestROCCurve(t *testing.T) {
	fpr, tpr, err := ROCCurve(vec(0, 0, 1, 1), vec(0.1, 0.4, 0.35, 0.8))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0.5, 0.5, 1}, fpr)
	assert.Equal(t, []float64{0, 0.5, 0.5, 1, 1}, tpr)

	// trapezoidal area under the points equals the rank AUC
	var area float64
	for i := 1; i < len(fpr); i++ {
		area += (fpr[i] - fpr[i-1]) * (tpr[i] + tpr[i-1]) / 2
	}
	auc, err := AUC(vec(0, 0, 1, 1), vec(0.1, 0.4, 0.35, 0.8))
	require.NoError(t, err)
	assert.InDelta(t, auc, area, 1e-12)
}
