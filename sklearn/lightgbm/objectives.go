package lightgbm

import (
	"gonum.org/v1/gonum/stat"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// ObjectiveFunction defines the interface for different objective functions
type ObjectiveFunction interface {
	// CalculateGradient calculates the gradient for a single sample
	CalculateGradient(prediction, target float64) float64

	// CalculateHessian calculates the hessian for a single sample
	CalculateHessian(prediction, target float64) float64

	// CalculateLoss calculates the loss for a single sample
	CalculateLoss(prediction, target float64) float64

	// GetInitScore returns the initial score for this objective
	GetInitScore(targets []float64) float64

	// Name returns the name of the objective
	Name() string
}

// BinaryLoglossObjective implements binary cross-entropy on the raw margin.
type BinaryLoglossObjective struct{}

// NewBinaryLoglossObjective creates the binary log-loss objective.
func NewBinaryLoglossObjective() *BinaryLoglossObjective {
	return &BinaryLoglossObjective{}
}

// hessianFloor keeps leaf values finite once predictions saturate.
const hessianFloor = 1e-16

func (o *BinaryLoglossObjective) CalculateGradient(prediction, target float64) float64 {
	return bkerrors.Sigmoid(prediction) - target
}

func (o *BinaryLoglossObjective) CalculateHessian(prediction, target float64) float64 {
	p := bkerrors.Sigmoid(prediction)
	h := p * (1 - p)
	if h < hessianFloor {
		return hessianFloor
	}
	return h
}

func (o *BinaryLoglossObjective) CalculateLoss(prediction, target float64) float64 {
	p := bkerrors.Sigmoid(prediction)
	return -(target*bkerrors.StabilizeLog(p) + (1-target)*bkerrors.StabilizeLog(1-p))
}

// GetInitScore は正例率の対数オッズを返す
func (o *BinaryLoglossObjective) GetInitScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0.0
	}
	p := bkerrors.ClipValue(stat.Mean(targets, nil), 1e-15, 1-1e-15)
	return bkerrors.StabilizeLog(p) - bkerrors.StabilizeLog(1-p)
}

func (o *BinaryLoglossObjective) Name() string {
	return "binary"
}

// CreateObjectiveFunction creates an objective function based on the objective name.
// Only binary objectives are supported; the rental-type target is boolean.
func CreateObjectiveFunction(objective string) (ObjectiveFunction, error) {
	switch objective {
	case "binary", "binary_logloss", "logistic", "":
		return NewBinaryLoglossObjective(), nil
	default:
		return nil, bkerrors.NewValidationError("objective", "unsupported objective", objective)
	}
}
