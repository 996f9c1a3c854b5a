package pipeline

import (
	"time"

	"github.com/YuminosukeSato/bikerental/core/model"
	"github.com/YuminosukeSato/bikerental/dataset"
	"github.com/YuminosukeSato/bikerental/evaluation"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pkg/log"
	"github.com/YuminosukeSato/bikerental/preprocessing"
	"github.com/YuminosukeSato/bikerental/trainer"
)

// Options は学習ワークフローの設定
type Options struct {
	Seed         int64
	TestFraction float64
	RankBy       RankKey
}

// DefaultOptions returns seed 0, a 20% test partition and AUC ranking.
func DefaultOptions() Options {
	return Options{Seed: 0, TestFraction: 0.2, RankBy: RankByAUC}
}

// Result はワークフロー各ステージの出力
type Result struct {
	Split      evaluation.Split
	Encoder    *preprocessing.FeatureEncoder
	Candidates []Candidate
	Selection  Selection
}

// Model returns the selected model.
func (r Result) Model() *Model {
	return r.Selection.Model
}

// FitEncoder は train だけで新しいエンコーダを学習し、train を符号化して返す
func FitEncoder(train *dataset.Dataset) (*preprocessing.FeatureEncoder, []model.LabeledExample, error) {
	enc := preprocessing.NewFeatureEncoder()
	if err := enc.Fit(train); err != nil {
		return nil, nil, err
	}
	examples, err := enc.EncodeDataset(train)
	if err != nil {
		return nil, nil, err
	}
	return enc, examples, nil
}

// TrainCandidates は catalog の学習器を登録順に実行する
//
// 学習器のエラーや panic は Candidate.Err に記録され、ここでは返さない。
// examples は全学習器で共有されるが、どの学習器も変更しない。
func TrainCandidates(cat *trainer.Catalog, enc *preprocessing.FeatureEncoder, examples []model.LabeledExample) []Candidate {
	logger := log.GetLoggerWithName("pipeline.train")
	trainers := cat.Trainers()
	candidates := make([]Candidate, 0, len(trainers))

	for _, t := range trainers {
		name := t.Name()
		start := time.Now()
		var clf model.Classifier
		err := bkerrors.SafeExecute("Fit "+name, func() error {
			var fitErr error
			clf, fitErr = t.Fit(examples)
			return fitErr
		})
		if err == nil && clf == nil {
			err = bkerrors.NewConvergenceError(name, "trainer returned no model", nil)
		}

		c := Candidate{Name: name, Err: err}
		if err != nil {
			logger.Warn("Training failed",
				log.ModelNameKey, name,
				log.OperationKey, log.OperationFit,
				log.ErrAttrKey, err,
			)
		} else {
			c.Model = NewModel(enc, clf, name)
			logger.Info("Training completed",
				log.ModelNameKey, name,
				log.OperationKey, log.OperationFit,
				log.SamplesKey, len(examples),
				log.DurationMsKey, time.Since(start).Milliseconds(),
			)
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// Run は split → エンコーダ学習 → 候補学習 → 選択 を順に実行する
//
// データの問題（空、ラベル欠損、不正な分割比）はそのまま返す。候補ごとの失敗は
// Selection.Failures に残り、全滅したときだけ NoViableModelError になる。
// 何も永続化しない。
func Run(ds *dataset.Dataset, cat *trainer.Catalog, opts Options) (Result, error) {
	logger := log.GetLoggerWithName("pipeline")
	if ds == nil || ds.Len() == 0 {
		return Result{}, bkerrors.NewValueError("Run", bkerrors.ErrEmptyData.Error())
	}
	if _, err := ds.Labels(); err != nil {
		return Result{}, err
	}
	if opts.RankBy == "" {
		opts.RankBy = RankByAUC
	}

	split, err := evaluation.SplitDataset(ds, opts.TestFraction, opts.Seed)
	if err != nil {
		return Result{}, err
	}
	res := Result{Split: split}
	logger.Info("Dataset split",
		log.OperationKey, log.OperationSplit,
		log.TrainSizeKey, split.Train.Len(),
		log.TestSizeKey, split.Test.Len(),
		log.RandomSeedKey, opts.Seed,
	)

	enc, examples, err := FitEncoder(split.Train)
	if err != nil {
		return res, err
	}
	res.Encoder = enc
	logger.Debug("Encoder fitted",
		log.OperationKey, log.OperationEncode,
		log.FeaturesKey, enc.NumFeatures(),
	)

	res.Candidates = TrainCandidates(cat, enc, examples)

	sel, err := SelectBest(res.Candidates, split.Test, opts.RankBy)
	res.Selection = sel
	if err != nil {
		return res, err
	}

	md := &sel.Model.Metadata
	md.Metrics = sel.Metrics
	md.TrainSize = split.Train.Len()
	md.TestSize = split.Test.Len()
	md.Seed = opts.Seed
	return res, nil
}
