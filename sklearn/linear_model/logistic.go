// Package linear_model provides RegularizedLogisticRegression, an L2-penalized
// binary logistic regression trained by full-batch gradient descent.
package linear_model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bikerental/core/model"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pkg/log"
)

// Kind is the classifier kind reported by logistic regression models.
const Kind = "RegularizedLogisticRegression"

// LogisticRegression は L2 正則化付きロジスティック回帰の学習器
//
// 目的関数は対数損失の総和 + (l2/2)·||w||² で、切片は正則化しない。
// 勾配はサンプル数で割って平均化し、学習率は減衰スケジュール
// learning_rate/(1+0.1·iter) で更新する。
type LogisticRegression struct {
	params Hyperparams
}

// Hyperparams are the settings of a LogisticRegression.
type Hyperparams struct {
	L2           float64 `json:"l2" yaml:"l2"`                       // L2 regularization strength
	FitIntercept bool    `json:"fit_intercept" yaml:"fit_intercept"` // Whether to fit intercept
	MaxIter      int     `json:"max_iter" yaml:"max_iter"`           // Maximum iterations
	Tol          float64 `json:"tol" yaml:"tol"`                     // Tolerance for stopping
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"` // Base step size
	RandomState  int64   `json:"random_state" yaml:"random_state"`   // Seed for the initial weights
}

// DefaultHyperparams returns MaxIter 100, L2 1.0 and Tol 1e-4.
func DefaultHyperparams() Hyperparams {
	return Hyperparams{
		L2:           1.0,
		FitIntercept: true,
		MaxIter:      100,
		Tol:          1e-4,
		LearningRate: 1.0,
	}
}

// ToMap returns the hyperparameters with snake_case names.
func (h Hyperparams) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"l2":            h.L2,
		"fit_intercept": h.FitIntercept,
		"max_iter":      h.MaxIter,
		"tol":           h.Tol,
		"learning_rate": h.LearningRate,
		"random_state":  h.RandomState,
	}
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new trainer with MaxIter 100, L2 1.0 and Tol 1e-4
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{params: DefaultHyperparams()}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// NewLogisticRegressionFrom creates a trainer from a hyperparameter struct.
func NewLogisticRegressionFrom(params Hyperparams) *LogisticRegression {
	return &LogisticRegression{params: params}
}

// Option functions

// WithL2 sets the L2 regularization strength
func WithL2(l2 float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.L2 = l2
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.FitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.MaxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.Tol = tol
	}
}

// WithLRLearningRate sets the base step size
func WithLRLearningRate(rate float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.LearningRate = rate
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.params.RandomState = seed
	}
}

// Name returns the catalog name of this trainer.
func (lr *LogisticRegression) Name() string { return Kind }

// GetParams returns the hyperparameters
func (lr *LogisticRegression) GetParams() Hyperparams { return lr.params }

// Validate checks hyperparameter ranges.
func (h Hyperparams) Validate() error {
	switch {
	case h.MaxIter < 1:
		return bkerrors.NewValidationError("max_iter", "must be positive", h.MaxIter)
	case math.IsNaN(h.L2) || math.IsInf(h.L2, 0) || h.L2 < 0:
		return bkerrors.NewValidationError("l2", "must be a non-negative finite number", h.L2)
	case math.IsNaN(h.Tol) || h.Tol < 0:
		return bkerrors.NewValidationError("tol", "must be non-negative", h.Tol)
	case math.IsNaN(h.LearningRate) || math.IsInf(h.LearningRate, 0) || h.LearningRate <= 0:
		return bkerrors.NewValidationError("learning_rate", "must be a positive finite number", h.LearningRate)
	}
	return nil
}

// Fit implements the trainer contract; see Train.
func (lr *LogisticRegression) Fit(examples []model.LabeledExample) (model.Classifier, error) {
	m, err := lr.Train(examples)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Train fits the weights by gradient descent.
//
// Hitting maxIter before the largest gradient component drops below tol is not
// an error: the model is returned and a ConvergenceWarning is raised. Weights
// that become non-finite produce a ConvergenceError.
func (lr *LogisticRegression) Train(examples []model.LabeledExample) (*Model, error) {
	logger := log.GetLoggerWithName("linear_model.logistic")

	hp := lr.params
	if err := hp.Validate(); err != nil {
		return nil, bkerrors.NewConvergenceError(Kind, "invalid hyperparameters", err)
	}
	X, y, err := model.Design(Kind, examples)
	if err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	n := float64(nSamples)

	// Initialize with small random values
	rng := rand.New(rand.NewSource(hp.RandomState))
	weights := make([]float64, nFeatures)
	for j := range weights {
		weights[j] = rng.NormFloat64() * 0.01
	}
	intercept := 0.0

	w := mat.NewVecDense(nFeatures, weights)
	yv := mat.NewVecDense(nSamples, y)
	z := mat.NewVecDense(nSamples, nil)
	residual := mat.NewVecDense(nSamples, nil)
	grad := mat.NewVecDense(nFeatures, nil)

	converged := false
	iters := 0
	var maxGrad float64
	for iter := 0; iter < hp.MaxIter; iter++ {
		// residual = sigmoid(Xw + b) - y
		z.MulVec(X, w)
		for i := 0; i < nSamples; i++ {
			residual.SetVec(i, bkerrors.Sigmoid(z.AtVec(i)+intercept))
		}
		residual.SubVec(residual, yv)

		// grad = (Xᵀr + l2·w) / n
		grad.MulVec(X.T(), residual)
		grad.AddScaledVec(grad, hp.L2, w)
		grad.ScaleVec(1/n, grad)
		gradIntercept := floats.Sum(residual.RawVector().Data) / n

		// Adaptive learning rate
		step := hp.LearningRate / (1.0 + 0.1*float64(iter))
		w.AddScaledVec(w, -step, grad)
		if hp.FitIntercept {
			intercept -= step * gradIntercept
		}
		iters = iter + 1

		// Check convergence
		maxGrad = math.Max(math.Abs(gradIntercept), mat.Norm(grad, math.Inf(1)))
		if maxGrad < hp.Tol {
			converged = true
			break
		}
	}

	coef := make([]float64, nFeatures)
	copy(coef, w.RawVector().Data)
	if err := bkerrors.CheckNumericalStability(Kind+".Fit", append(coef, intercept), iters); err != nil {
		return nil, bkerrors.NewConvergenceError(Kind, "weights are not finite", err)
	}
	if !converged {
		bkerrors.Warn(bkerrors.NewConvergenceWarning(Kind, iters,
			fmt.Sprintf("max gradient %.3g above tol %.3g", maxGrad, hp.Tol)))
	}

	logger.Info("Training finished",
		log.ModelNameKey, Kind,
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.IterationKey, iters,
		log.RegularizationKey, hp.L2,
		"converged", converged,
	)

	return &Model{
		Coef:      coef,
		Intercept: intercept,
		NIter:     iters,
		Converged: converged,
		Config:    hp,
	}, nil
}

// Model is a fitted logistic regression.
type Model struct {
	Coef      []float64
	Intercept float64
	NIter     int
	Converged bool
	Config    Hyperparams
}

// Kind implements model.Classifier.
func (m *Model) Kind() string { return Kind }

// NumFeatures implements model.Classifier.
func (m *Model) NumFeatures() int { return len(m.Coef) }

// RawScore returns w·x + b.
func (m *Model) RawScore(x []float64) (float64, error) {
	if len(x) != len(m.Coef) {
		return 0, bkerrors.NewDimensionError(Kind+".RawScore", len(m.Coef), len(x), 1)
	}
	s := floats.Dot(m.Coef, x) + m.Intercept
	if err := bkerrors.CheckScalar(Kind+".RawScore", s, 0); err != nil {
		return 0, err
	}
	return s, nil
}

// PredictProba returns the probability of the long-term class.
func (m *Model) PredictProba(x []float64) (float64, error) {
	s, err := m.RawScore(x)
	if err != nil {
		return 0, err
	}
	return bkerrors.Sigmoid(s), nil
}

// Validate implements model.Validator.
func (m *Model) Validate() error {
	if len(m.Coef) == 0 {
		return bkerrors.NewValidationError("coef", "must not be empty", len(m.Coef))
	}
	for i, c := range m.Coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return bkerrors.NewValidationError(fmt.Sprintf("coef[%d]", i), "must be finite", c)
		}
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return bkerrors.NewValidationError("intercept", "must be finite", m.Intercept)
	}
	return nil
}

// Params implements model.Describer.
func (m *Model) Params() map[string]interface{} {
	p := m.Config.ToMap()
	p["n_iter"] = m.NIter
	p["converged"] = m.Converged
	return p
}
