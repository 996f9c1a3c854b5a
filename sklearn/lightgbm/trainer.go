package lightgbm

import (
	"time"

	"github.com/YuminosukeSato/bikerental/core/model"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pkg/log"
	"github.com/YuminosukeSato/bikerental/sklearn/tree"
)

// Trainer implements leaf-wise gradient boosting for the binary log-loss objective
type Trainer struct {
	params    TrainingParams
	callbacks []Callback
}

// NewTrainer creates a new trainer. Zero-valued parameters take their defaults.
func NewTrainer(params TrainingParams) *Trainer {
	return &Trainer{params: params.withDefaults()}
}

// WithCallbacks sets the callbacks for training
func (t *Trainer) WithCallbacks(callbacks ...Callback) *Trainer {
	t.callbacks = append(t.callbacks, callbacks...)
	return t
}

// Name returns the catalog name of this trainer.
func (t *Trainer) Name() string { return Kind }

// Params returns the effective training parameters.
func (t *Trainer) Params() TrainingParams { return t.params }

// Fit implements the trainer contract; see Train.
func (t *Trainer) Fit(examples []model.LabeledExample) (model.Classifier, error) {
	m, err := t.Train(examples)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Train は examples から勾配ブースティング木を学習する
//
// 入力は変更しない。空の入力、単一クラス、不正なハイパーパラメータ、
// 非有限の損失はすべて ConvergenceError になる。
func (t *Trainer) Train(examples []model.LabeledExample) (*Model, error) {
	logger := log.GetLoggerWithName("lightgbm.trainer")

	if err := t.params.Validate(); err != nil {
		return nil, bkerrors.NewConvergenceError(Kind, "invalid hyperparameters", err)
	}
	objective, err := CreateObjectiveFunction(t.params.Objective)
	if err != nil {
		return nil, bkerrors.NewConvergenceError(Kind, "invalid hyperparameters", err)
	}
	X, y, err := model.Design(Kind, examples)
	if err != nil {
		return nil, err
	}
	rows, cols := X.Dims()

	grower := tree.NewGrower(X, tree.Params{
		NumLeaves:      t.params.NumLeaves,
		MaxDepth:       t.params.MaxDepth,
		MinDataInLeaf:  t.params.MinDataInLeaf,
		Lambda:         t.params.Lambda,
		MinGainToSplit: t.params.MinGainToSplit,
		MaxBin:         t.params.MaxBin,
		Growth:         tree.LeafWise,
		Workers:        t.params.NumThreads,
	})
	sampler := NewSamplingStrategy(int64(t.params.Seed), t.params.BaggingFraction, t.params.BaggingFreq)

	m := &Model{
		Ensemble: tree.Ensemble{InitScore: objective.GetInitScore(y)},
		NumFeat:  cols,
		Config:   t.params,
	}

	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = m.InitScore
	}
	grad := make([]float64, rows)
	hess := make([]float64, rows)

	callbacks := append([]Callback{LogEvaluation(logger, 10)}, t.callbacks...)
	if t.params.EarlyStoppingRounds > 0 {
		callbacks = append(callbacks, EarlyStoppingCallback(t.params.EarlyStoppingRounds, TrainingLossMetric, true))
	}

	begin := time.Now()
	loss := meanLoss(objective, scores, y)
	for iter := 0; iter < t.params.NumIterations; iter++ {
		for i := range scores {
			grad[i] = objective.CalculateGradient(scores[i], y[i])
			hess[i] = objective.CalculateHessian(scores[i], y[i])
		}

		bag := sampler.SampleInstances(rows, iter)
		tr := grower.Grow(bag, grad, hess, t.params.LearningRate)
		if tr.NumLeaves <= 1 {
			logger.Debug("No further splits meet the split requirements", log.IterationKey, iter)
			break
		}
		m.Add(tr, X, scores)

		loss = meanLoss(objective, scores, y)
		if err := bkerrors.CheckScalar(Kind+".Fit", loss, iter); err != nil {
			return nil, bkerrors.NewConvergenceError(Kind, "training loss is not finite", err)
		}

		env := &CallbackEnv{
			Iteration:   iter,
			BeginTime:   begin,
			EvalResults: map[string]float64{TrainingLossMetric: loss},
		}
		for _, cb := range callbacks {
			if err := cb(env); err != nil {
				return nil, bkerrors.Wrapf(err, "callback error at iteration %d", iter)
			}
		}
		if env.StopTraining {
			break
		}
	}
	m.BestIteration = len(m.Trees)

	logger.Info("Training finished",
		log.ModelNameKey, Kind,
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.IterationKey, len(m.Trees),
		log.LossKey, loss,
		log.LearningRateKey, t.params.LearningRate,
		log.DurationMsKey, time.Since(begin).Milliseconds(),
	)
	return m, nil
}

// meanLoss calculates the current mean training loss
func meanLoss(objective ObjectiveFunction, scores, y []float64) float64 {
	var loss float64
	for i := range scores {
		loss += objective.CalculateLoss(scores[i], y[i])
	}
	return loss / float64(len(scores))
}
