package pipeline

import (
	"sort"
	"strings"

	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/evaluation"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pkg/log"
)

// RankKey は候補の順位付けに使う主指標
type RankKey string

const (
	RankByAUC      RankKey = "auc"
	RankByF1       RankKey = "f1"
	RankByAccuracy RankKey = "accuracy"
	RankByLogLoss  RankKey = "logloss"
)

// ParseRankKey accepts auc, f1, accuracy and logloss (case-insensitive, "" means auc).
func ParseRankKey(s string) (RankKey, error) {
	switch k := RankKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return RankByAUC, nil
	case RankByAUC, RankByF1, RankByAccuracy, RankByLogLoss:
		return k, nil
	case "log_loss":
		return RankByLogLoss, nil
	default:
		return "", bkerrors.NewValidationError("rank_by", "must be one of auc, f1, accuracy, logloss", s)
	}
}

// Candidate は1つの学習器の結果。Err が非 nil なら学習に失敗している
type Candidate struct {
	Name  string
	Model *Model
	Err   error
}

// Ranked is one successfully evaluated candidate.
type Ranked struct {
	Name    string
	Metrics evaluation.Metrics
}

// Selection は選択結果
type Selection struct {
	Name     string
	Model    *Model
	Metrics  evaluation.Metrics
	Ranking  []Ranked // 良い順
	Failures []bkerrors.CandidateFailure
}

// SelectBest は全候補を test で評価し、主指標 key が最良のものを選ぶ
//
// 同点は AUC、F1、Accuracy の順で比較し、それでも同じなら先に渡された候補を選ぶ。
// 学習エラーを持つ候補と評価に失敗した候補は除外して Failures に記録する。
// 全候補が失敗した場合は NoViableModelError を返す。test にラベルがなければ
// DataError をそのまま返す。
func SelectBest(candidates []Candidate, test *dataset.Dataset, key RankKey) (Selection, error) {
	logger := log.GetLoggerWithName("pipeline.selector")
	key, err := ParseRankKey(string(key))
	if err != nil {
		return Selection{}, err
	}
	if test == nil || test.Len() == 0 {
		return Selection{}, bkerrors.NewValueError("SelectBest", bkerrors.ErrEmptyData.Error())
	}
	if _, err := test.Labels(); err != nil {
		return Selection{}, err
	}

	var sel Selection
	type scored struct {
		idx     int
		metrics evaluation.Metrics
	}
	var ok []scored
	for i, c := range candidates {
		if c.Err != nil {
			sel.Failures = append(sel.Failures, bkerrors.CandidateFailure{Name: c.Name, Err: c.Err})
			logger.Warn("Candidate excluded", log.ModelNameKey, c.Name, log.PhaseKey, log.PhaseTraining, log.ErrAttrKey, c.Err)
			continue
		}
		if c.Model == nil {
			err := bkerrors.NewNotFittedError(c.Name, "SelectBest")
			sel.Failures = append(sel.Failures, bkerrors.CandidateFailure{Name: c.Name, Err: err})
			continue
		}
		m, err := evaluation.Evaluate(c.Model, test)
		if err != nil {
			sel.Failures = append(sel.Failures, bkerrors.CandidateFailure{Name: c.Name, Err: err})
			logger.Warn("Candidate excluded", log.ModelNameKey, c.Name, log.PhaseKey, log.PhaseValidation, log.ErrAttrKey, err)
			continue
		}
		logger.Info("Candidate evaluated",
			log.ModelNameKey, c.Name,
			log.OperationKey, log.OperationEvaluate,
			log.AccuracyKey, m.Accuracy,
			log.AUCKey, m.AUC,
			log.F1Key, m.F1,
			log.LossKey, m.LogLoss,
		)
		ok = append(ok, scored{idx: i, metrics: m})
	}

	if len(ok) == 0 {
		return sel, bkerrors.NewNoViableModelError(sel.Failures)
	}

	sort.SliceStable(ok, func(a, b int) bool {
		return better(ok[a].metrics, ok[b].metrics, key)
	})
	for _, s := range ok {
		sel.Ranking = append(sel.Ranking, Ranked{Name: candidates[s.idx].Name, Metrics: s.metrics})
	}
	best := candidates[ok[0].idx]
	sel.Name = best.Name
	sel.Model = best.Model
	sel.Metrics = ok[0].metrics

	logger.Info("Model selected",
		log.ModelNameKey, sel.Name,
		log.OperationKey, log.OperationSelect,
		"rank_by", string(key),
		"candidates", len(candidates),
		"failures", len(sel.Failures),
	)
	return sel, nil
}

// better reports whether a ranks strictly above b.
func better(a, b evaluation.Metrics, key RankKey) bool {
	switch key {
	case RankByLogLoss:
		if a.LogLoss != b.LogLoss {
			return a.LogLoss < b.LogLoss
		}
	case RankByF1:
		if a.F1 != b.F1 {
			return a.F1 > b.F1
		}
	case RankByAccuracy:
		if a.Accuracy != b.Accuracy {
			return a.Accuracy > b.Accuracy
		}
	}
	if a.AUC != b.AUC {
		return a.AUC > b.AUC
	}
	if a.F1 != b.F1 {
		return a.F1 > b.F1
	}
	return a.Accuracy > b.Accuracy
}
