package lightgbm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/bikerental/core/model"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

func trainingAccuracy(t *testing.T, clf model.Classifier, examples []model.LabeledExample) float64 {
	t.Helper()
	correct := 0
	for _, ex := range examples {
		p, err := clf.PredictProba(ex.Features)
		require.NoError(t, err)
		require.True(t, p >= 0 && p <= 1)
		if (p >= 0.5) == ex.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(examples))
}

func TestTrainer_FitSeparableData(t *testing.T) {
	examples := model.SeparableExamples(400, 1)
	trainer := NewTrainer(DefaultParams())

	clf, err := trainer.Fit(examples)
	require.NoError(t, err)

	assert.Equal(t, Kind, clf.Kind())
	assert.Equal(t, 3, clf.NumFeatures())
	assert.Greater(t, trainingAccuracy(t, clf, examples), 0.9)

	holdout := model.SeparableExamples(200, 2)
	assert.Greater(t, trainingAccuracy(t, clf, holdout), 0.85)
}

func TestTrainer_Defaults(t *testing.T) {
	p := NewTrainer(TrainingParams{}).Params()
	assert.Equal(t, 100, p.NumIterations)
	assert.Equal(t, 0.1, p.LearningRate)
	assert.Equal(t, 50, p.NumLeaves)
	assert.Equal(t, 20, p.MinDataInLeaf)
	assert.Equal(t, 1.0, p.BaggingFraction)
	assert.Equal(t, 255, p.MaxBin)
	assert.Equal(t, "binary", p.Objective)
	assert.Equal(t, Kind, NewTrainer(p).Name())
}

func TestTrainer_Deterministic(t *testing.T) {
	examples := model.SeparableExamples(300, 3)
	params := DefaultParams()
	params.NumIterations = 20
	params.BaggingFraction = 0.7
	params.BaggingFreq = 1
	params.Seed = 11

	a, err := NewTrainer(params).Train(examples)
	require.NoError(t, err)
	b, err := NewTrainer(params).Train(examples)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	params.NumThreads = 4
	c, err := NewTrainer(params).Train(examples)
	require.NoError(t, err)
	assert.Equal(t, a.Trees, c.Trees)
}

func TestTrainer_DoesNotMutateInput(t *testing.T) {
	examples := model.SeparableExamples(120, 4)
	before := model.CloneExamples(examples)

	_, err := NewTrainer(TrainingParams{NumIterations: 5, MinDataInLeaf: 5}).Fit(examples)
	require.NoError(t, err)
	assert.Equal(t, before, examples)
}

func TestTrainer_InitScoreIsLogOdds(t *testing.T) {
	examples := model.SeparableExamples(200, 5)
	positives := 0
	for _, ex := range examples {
		if ex.Label {
			positives++
		}
	}
	p := float64(positives) / float64(len(examples))

	m, err := NewTrainer(TrainingParams{NumIterations: 1}).Train(examples)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(p/(1-p)), m.InitScore, 1e-12)
}

func TestTrainer_DegenerateInput(t *testing.T) {
	trainer := NewTrainer(DefaultParams())

	t.Run("empty", func(t *testing.T) {
		_, err := trainer.Fit(nil)
		require.Error(t, err)
		var ce *bkerrors.ConvergenceError
		require.True(t, bkerrors.As(err, &ce))
		assert.Equal(t, Kind, ce.Algorithm)
		assert.True(t, bkerrors.Is(err, bkerrors.ErrEmptyData))
	})

	t.Run("single class", func(t *testing.T) {
		examples := model.SeparableExamples(50, 6)
		for i := range examples {
			examples[i].Label = true
		}
		_, err := trainer.Fit(examples)
		require.Error(t, err)
		assert.True(t, bkerrors.Is(err, bkerrors.ErrSingleClass))
	})

	t.Run("non-finite hyperparameter", func(t *testing.T) {
		_, err := NewTrainer(TrainingParams{LearningRate: math.NaN()}).Fit(model.SeparableExamples(50, 7))
		require.Error(t, err)
		var ce *bkerrors.ConvergenceError
		assert.True(t, bkerrors.As(err, &ce))
		var ve *bkerrors.ValidationError
		assert.True(t, bkerrors.As(err, &ve))
	})

	t.Run("unsupported objective", func(t *testing.T) {
		_, err := NewTrainer(TrainingParams{Objective: "regression"}).Fit(model.SeparableExamples(50, 7))
		var ce *bkerrors.ConvergenceError
		assert.True(t, bkerrors.As(err, &ce))
	})
}

func TestTrainer_Callbacks(t *testing.T) {
	var history map[string][]float64
	trainer := NewTrainer(TrainingParams{NumIterations: 15}).WithCallbacks(RecordEvaluation(&history))

	m, err := trainer.Train(model.SeparableExamples(200, 8))
	require.NoError(t, err)

	losses := history["training_loss"]
	require.Len(t, losses, len(m.Trees))
	assert.Less(t, losses[len(losses)-1], losses[0])
	assert.Equal(t, len(m.Trees), m.BestIteration)
}

func TestEarlyStoppingCallback(t *testing.T) {
	cb := EarlyStoppingCallback(2, "training_loss", true)
	losses := []float64{0.5, 0.4, 0.41, 0.42, 0.3}
	stoppedAt := -1
	for i, l := range losses {
		env := &CallbackEnv{Iteration: i, EvalResults: map[string]float64{"training_loss": l}}
		require.NoError(t, cb(env))
		if env.StopTraining {
			stoppedAt = i
			break
		}
	}
	assert.Equal(t, 3, stoppedAt)

	// 指標が無ければ何もしない
	env := &CallbackEnv{EvalResults: map[string]float64{}}
	require.NoError(t, cb(env))
	assert.False(t, env.StopTraining)
}

func TestModel_RawScoreAndParams(t *testing.T) {
	m, err := NewTrainer(TrainingParams{NumIterations: 10}).Train(model.SeparableExamples(200, 9))
	require.NoError(t, err)

	_, err = m.RawScore([]float64{0.1})
	var de *bkerrors.DimensionError
	assert.True(t, bkerrors.As(err, &de))

	x := []float64{0.9, 0.9, 0.5}
	raw, err := m.RawScore(x)
	require.NoError(t, err)
	p, err := m.PredictProba(x)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-raw)), p, 1e-12)
	assert.Greater(t, p, 0.5)

	require.NoError(t, m.Validate())
	shifted := *m
	shifted.NumFeat = 1
	assert.Error(t, shifted.Validate())

	params := m.Params()
	assert.Equal(t, len(m.Trees), params["num_trees"])
	assert.Equal(t, 50, params["num_leaves"])
	assert.Contains(t, m.String(), Kind)
}

func TestModel_FeatureImportance(t *testing.T) {
	m, err := NewTrainer(TrainingParams{NumIterations: 30}).Train(model.SeparableExamples(400, 10))
	require.NoError(t, err)

	gain := m.FeatureImportance("gain")
	require.Len(t, gain, 3)
	assert.Greater(t, gain[0], gain[2])
	assert.Greater(t, gain[1], gain[2])

	split := m.FeatureImportance("split")
	total := 0.0
	for _, v := range split {
		total += v
	}
	assert.Greater(t, total, 0.0)
}

func TestBinaryLoglossObjective(t *testing.T) {
	o := NewBinaryLoglossObjective()
	assert.InDelta(t, -0.5, o.CalculateGradient(0, 1), 1e-12)
	assert.InDelta(t, 0.5, o.CalculateGradient(0, 0), 1e-12)
	assert.InDelta(t, 0.25, o.CalculateHessian(0, 1), 1e-12)
	assert.InDelta(t, math.Ln2, o.CalculateLoss(0, 1), 1e-12)
	assert.Equal(t, hessianFloor, o.CalculateHessian(800, 1))
	assert.InDelta(t, 0.0, o.GetInitScore([]float64{1, 1, 0, 0}), 1e-12)
	assert.InDelta(t, math.Log(3), o.GetInitScore([]float64{1, 1, 1, 0}), 1e-12)
	assert.Equal(t, 0.0, o.GetInitScore(nil))
	assert.Equal(t, "binary", o.Name())

	_, err := CreateObjectiveFunction("logistic")
	assert.NoError(t, err)
	_, err = CreateObjectiveFunction("poisson")
	var ve *bkerrors.ValidationError
	assert.True(t, bkerrors.As(err, &ve))
}

func TestSamplingStrategy(t *testing.T) {
	s := NewSamplingStrategy(5, 0.5, 2)
	bag0 := s.SampleInstances(100, 0)
	require.Len(t, bag0, 50)
	for i := 1; i < len(bag0); i++ {
		assert.Less(t, bag0[i-1], bag0[i])
	}
	assert.Equal(t, bag0, s.SampleInstances(100, 1))
	assert.NotEqual(t, bag0, s.SampleInstances(100, 2))

	again := NewSamplingStrategy(5, 0.5, 2).SampleInstances(100, 0)
	assert.Equal(t, bag0, again)

	assert.Len(t, NewSamplingStrategy(5, 1.0, 1).SampleInstances(30, 0), 30)
	assert.Len(t, NewSamplingStrategy(5, 0.5, 0).SampleInstances(30, 0), 30)
}

func TestTrainingParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *TrainingParams)
	}{
		{"iterations", func(p *TrainingParams) { p.NumIterations = -1 }},
		{"learning rate", func(p *TrainingParams) { p.LearningRate = math.Inf(1) }},
		{"leaves", func(p *TrainingParams) { p.NumLeaves = 1 }},
		{"lambda", func(p *TrainingParams) { p.Lambda = -1 }},
		{"bagging", func(p *TrainingParams) { p.BaggingFraction = 1.5 }},
		{"max bin", func(p *TrainingParams) { p.MaxBin = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate()
			var ve *bkerrors.ValidationError
			assert.True(t, bkerrors.As(err, &ve))
		})
	}
	assert.NoError(t, DefaultParams().Validate())
}
