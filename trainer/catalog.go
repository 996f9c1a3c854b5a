// Package trainer は候補アルゴリズムのカタログを提供する
//
// 各アルゴリズムは Trainer インターフェースを実装し、Catalog に登録された順序で
// 学習・評価される。新しいアルゴリズムの追加は Register を呼ぶだけでよい。
package trainer

import (
	"sync"

	"github.com/YuminosukeSato/bikerental/core/model"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/sklearn/ensemble"
	"github.com/YuminosukeSato/bikerental/sklearn/lightgbm"
	"github.com/YuminosukeSato/bikerental/sklearn/linear_model"
)

// Trainer は1つのアルゴリズムファミリーの学習器
//
// Fit は入力を変更してはならず、同じ入力とハイパーパラメータに対して決定的でなければならない。
// 有限なモデルを作れない場合は panic せず ConvergenceError を返す。
type Trainer interface {
	Name() string
	Fit(examples []model.LabeledExample) (model.Classifier, error)
}

// Catalog は名前付きの Trainer を登録順に保持する
type Catalog struct {
	mu       sync.RWMutex
	order    []string
	trainers map[string]Trainer
}

// NewCatalog creates a catalog holding the given trainers in order.
func NewCatalog(trainers ...Trainer) (*Catalog, error) {
	c := &Catalog{trainers: make(map[string]Trainer)}
	for _, t := range trainers {
		if err := c.Register(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds t under t.Name(). Names must be unique and non-empty.
func (c *Catalog) Register(t Trainer) error {
	if t == nil {
		return bkerrors.NewValidationError("trainer", "must not be nil", nil)
	}
	name := t.Name()
	if name == "" {
		return bkerrors.NewValidationError("trainer", "name must not be empty", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trainers == nil {
		c.trainers = make(map[string]Trainer)
	}
	if _, exists := c.trainers[name]; exists {
		return bkerrors.NewValidationError("trainer", "already registered", name)
	}
	c.trainers[name] = t
	c.order = append(c.order, name)
	return nil
}

// Get returns the trainer registered under name.
func (c *Catalog) Get(name string) (Trainer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.trainers[name]
	return t, ok
}

// Names returns the registered names in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Trainers returns the registered trainers in registration order.
func (c *Catalog) Trainers() []Trainer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Trainer, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.trainers[name])
	}
	return out
}

// Len returns the number of registered trainers.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Options は既定カタログの各アルゴリズムのハイパーパラメータ
type Options struct {
	GradientBoostedTrees lightgbm.TrainingParams   `json:"gradient_boosted_trees" yaml:"gradient_boosted_trees"`
	DecisionForest       ensemble.Params           `json:"decision_forest" yaml:"decision_forest"`
	LogisticRegression   linear_model.Hyperparams `json:"logistic_regression" yaml:"logistic_regression"`
}

// DefaultOptions returns the default hyperparameters of every algorithm.
func DefaultOptions() Options {
	return Options{
		GradientBoostedTrees: lightgbm.DefaultParams(),
		DecisionForest:       ensemble.DefaultParams(),
		LogisticRegression:   linear_model.DefaultHyperparams(),
	}
}

// WithSeed sets the seed of every algorithm that uses randomness.
func (o Options) WithSeed(seed int64) Options {
	o.GradientBoostedTrees.Seed = int(seed)
	o.DecisionForest.Seed = seed
	o.LogisticRegression.RandomState = seed
	return o
}

// DefaultCatalog は GradientBoostedTrees、DecisionForest、RegularizedLogisticRegression を
// この順に登録したカタログを返す
func DefaultCatalog(opts Options) *Catalog {
	c, err := NewCatalog(
		lightgbm.NewTrainer(opts.GradientBoostedTrees),
		ensemble.NewForest(opts.DecisionForest),
		linear_model.NewLogisticRegressionFrom(opts.LogisticRegression),
	)
	if err != nil {
		// names are distinct constants
		panic(err)
	}
	return c
}
