package lightgbm

import (
	"context"
	"time"

	"github.com/YuminosukeSato/bikerental/pkg/log"
)

// TrainingLossMetric は全学習行の平均 log-loss を報告するキー
const TrainingLossMetric = "training_loss"

// CallbackEnv は各ラウンド後にコールバックへ渡される状態。
// StopTraining を true にすると学習はそのラウンドで打ち切られる。
type CallbackEnv struct {
	Iteration    int
	BeginTime    time.Time
	EvalResults  map[string]float64
	StopTraining bool
}

type Callback func(env *CallbackEnv) error

// LogEvaluation は period ラウンドごとに損失を debug で出す
func LogEvaluation(logger log.Logger, period int) Callback {
	period = max(period, 1)
	return func(env *CallbackEnv) error {
		if env.Iteration%period == 0 && logger.Enabled(context.Background(), log.LevelDebug) {
			logger.Debug("Boosting round",
				log.IterationKey, env.Iteration,
				log.LossKey, env.EvalResults[TrainingLossMetric],
				log.DurationMsKey, time.Since(env.BeginTime).Milliseconds(),
			)
		}
		return nil
	}
}

// RecordEvaluation appends every reported metric to *history.
func RecordEvaluation(history *map[string][]float64) Callback {
	return func(env *CallbackEnv) error {
		if *history == nil {
			*history = map[string][]float64{}
		}
		for k, v := range env.EvalResults {
			(*history)[k] = append((*history)[k], v)
		}
		return nil
	}
}

type earlyStopper struct {
	patience  int
	metric    string
	minimize  bool
	seen      bool
	best      float64
	bestIter  int
	stagnated int
}

func (s *earlyStopper) improves(v float64) bool {
	if !s.seen {
		return true
	}
	if s.minimize {
		return v < s.best
	}
	return v > s.best
}

// EarlyStoppingCallback は metric が rounds 回連続で改善しなければ学習を止める。
// metric が報告されないラウンドは無視する。
func EarlyStoppingCallback(rounds int, metric string, minimize bool) Callback {
	s := &earlyStopper{patience: rounds, metric: metric, minimize: minimize}
	return func(env *CallbackEnv) error {
		v, ok := env.EvalResults[s.metric]
		if !ok {
			return nil
		}
		if s.improves(v) {
			s.seen, s.best, s.bestIter, s.stagnated = true, v, env.Iteration, 0
			return nil
		}
		s.stagnated++
		if s.stagnated >= s.patience {
			log.GetLoggerWithName("lightgbm.trainer").Debug("Early stopping",
				log.IterationKey, env.Iteration,
				"best_iteration", s.bestIter,
				log.LossKey, s.best,
			)
			env.StopTraining = true
		}
		return nil
	}
}
