package store

import (
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/bikerental/core/model"
	"github.com/YuminosukeSato/bikerental/dataset"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pipeline"
	"github.com/YuminosukeSato/bikerental/preprocessing"
	"github.com/YuminosukeSato/bikerental/sklearn/ensemble"
	"github.com/YuminosukeSato/bikerental/sklearn/lightgbm"
	"github.com/YuminosukeSato/bikerental/sklearn/linear_model"
	"github.com/YuminosukeSato/bikerental/sklearn/tree"
	"github.com/YuminosukeSato/bikerental/trainer"
)

func fitModel(t *testing.T, tr trainer.Trainer) *pipeline.Model {
	t.Helper()
	enc, examples, err := pipeline.FitEncoder(dataset.Synthetic(300, 11))
	require.NoError(t, err)
	clf, err := tr.Fit(examples)
	require.NoError(t, err)
	m := pipeline.NewModel(enc, clf, tr.Name())
	m.Metadata.TrainSize = 300
	m.Metadata.Seed = 11
	m.Metadata.Metrics.AUC = 0.75
	return m
}

func TestSaveLoad_RoundTripIsBitIdentical(t *testing.T) {
	trainers := []trainer.Trainer{
		lightgbm.NewTrainer(lightgbm.TrainingParams{NumIterations: 15}),
		ensemble.NewForest(ensemble.Params{NumTrees: 10}),
		linear_model.NewLogisticRegression(),
	}
	inputs := dataset.Synthetic(100, 12).Records()
	inputs = append(inputs, dataset.SampleRecords()...)

	for _, tr := range trainers {
		t.Run(tr.Name(), func(t *testing.T) {
			m := fitModel(t, tr)
			path := filepath.Join(t.TempDir(), "models", "model.gob")

			require.NoError(t, Save(m, path))
			loaded, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, m.Classifier, loaded.Classifier)
			assert.Equal(t, m.Metadata.ID, loaded.Metadata.ID)
			assert.Equal(t, m.Metadata.Trainer, loaded.Metadata.Trainer)
			assert.True(t, m.Metadata.CreatedAt.Equal(loaded.Metadata.CreatedAt))
			assert.Equal(t, 0.75, loaded.Metadata.Metrics.AUC)
			assert.Equal(t, int64(11), loaded.Metadata.Seed)

			for i, r := range inputs {
				want, err := m.Predict(r)
				require.NoError(t, err)
				got, err := loaded.Predict(r)
				require.NoError(t, err)
				assert.Equal(t, math.Float64bits(want.Probability), math.Float64bits(got.Probability), "record %d", i)
				assert.Equal(t, math.Float64bits(want.Score), math.Float64bits(got.Score), "record %d", i)
			}
		})
	}
}

func TestSave_LeavesNoTemporaryFiles(t *testing.T) {
	m := fitModel(t, linear_model.NewLogisticRegression())
	dir := t.TempDir()
	path := filepath.Join(dir, "model.gob")

	require.NoError(t, Save(m, path))
	require.NoError(t, Save(m, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.gob", entries[0].Name())
}

func TestSave_Errors(t *testing.T) {
	dir := t.TempDir()

	err := Save(nil, filepath.Join(dir, "m.gob"))
	var nf *bkerrors.NotFittedError
	assert.True(t, bkerrors.As(err, &nf))

	unfitted := &pipeline.Model{Encoder: preprocessing.NewFeatureEncoder(), Classifier: &linear_model.Model{}}
	err = Save(unfitted, filepath.Join(dir, "m.gob"))
	assert.True(t, bkerrors.As(err, &nf))

	// 親がファイルなのでディレクトリを作れない
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	m := fitModel(t, linear_model.NewLogisticRegression())
	err = Save(m, filepath.Join(blocker, "m.gob"))
	var ioe *bkerrors.IOError
	require.True(t, bkerrors.As(err, &ioe))
	assert.Equal(t, "save", ioe.Op)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.gob"))
	var ioe *bkerrors.IOError
	require.True(t, bkerrors.As(err, &ioe))
	assert.True(t, bkerrors.Is(err, fs.ErrNotExist))
}

func writeArtifact(t *testing.T, values ...interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.gob")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	codec := model.NewStreamEncoder(f)
	for _, v := range values {
		require.NoError(t, codec.Write(v))
	}
	return path
}

func TestLoad_CorruptArtifacts(t *testing.T) {
	m := fitModel(t, linear_model.NewLogisticRegression())
	params, err := m.Encoder.Params()
	require.NoError(t, err)
	clf := m.Classifier

	narrow := model.Classifier(&linear_model.Model{Coef: []float64{1, 2}})
	badParams := params
	badParams.DataMin = badParams.DataMin[:3]

	coef := append([]float64(nil), m.Classifier.(*linear_model.Model).Coef...)
	coef[0] = math.NaN()
	nanCoef := model.Classifier(&linear_model.Model{Coef: coef})

	// gob では読めるが、添字が範囲外で Predict が辿れない木
	gbt := fitModel(t, lightgbm.NewTrainer(lightgbm.TrainingParams{NumIterations: 3})).Classifier.(*lightgbm.Model)
	broken := *gbt
	broken.Trees = cloneTrees(gbt.Trees)
	broken.Trees[0].Nodes[0].Feature = 9999
	broken.Trees[0].Nodes[0].Left = 9999
	broken.Trees[0].Nodes[0].Right = 9999
	brokenGBT := model.Classifier(&broken)

	forest := fitModel(t, ensemble.NewForest(ensemble.Params{NumTrees: 3})).Classifier.(*ensemble.Model)
	cyclic := *forest
	cyclic.Trees = cloneTrees(forest.Trees)
	cyclic.Trees[1].Nodes[0].Left = 0
	cyclicForest := model.Classifier(&cyclic)

	garbage := filepath.Join(t.TempDir(), "garbage.gob")
	require.NoError(t, os.WriteFile(garbage, []byte("not a gob stream"), 0o644))

	truncated := filepath.Join(t.TempDir(), "truncated.gob")
	good := filepath.Join(t.TempDir(), "good.gob")
	require.NoError(t, Save(m, good))
	raw, err := os.ReadFile(good)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(truncated, raw[:len(raw)/2], 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"garbage", garbage},
		{"truncated", truncated},
		{"format tag", writeArtifact(t, Header{Format: "other/model", Version: 1}, params, &clf, m.Metadata)},
		{"version", writeArtifact(t, Header{Format: Format, Version: 2}, params, &clf, m.Metadata)},
		{"encoder params", writeArtifact(t, Header{Format: Format, Version: Version}, badParams, &clf, m.Metadata)},
		{"width mismatch", writeArtifact(t, Header{Format: Format, Version: Version}, params, &narrow, m.Metadata)},
		{"missing metadata", writeArtifact(t, Header{Format: Format, Version: Version}, params, &clf)},
		{"non-finite coefficient", writeArtifact(t, Header{Format: Format, Version: Version}, params, &nanCoef, m.Metadata)},
		{"tree out of range", writeArtifact(t, Header{Format: Format, Version: Version}, params, &brokenGBT, m.Metadata)},
		{"forest cycle", writeArtifact(t, Header{Format: Format, Version: Version}, params, &cyclicForest, m.Metadata)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			var ce *bkerrors.CorruptArtifactError
			require.True(t, bkerrors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.path, ce.Path)
		})
	}
}

func cloneTrees(trees []tree.Tree) []tree.Tree {
	out := make([]tree.Tree, len(trees))
	for i, tr := range trees {
		out[i] = tr
		out[i].Nodes = append([]tree.Node(nil), tr.Nodes...)
	}
	return out
}

func TestLoad_ValidatesClassifierBeforePredicting(t *testing.T) {
	m := fitModel(t, lightgbm.NewTrainer(lightgbm.TrainingParams{NumIterations: 3}))
	gbt := m.Classifier.(*lightgbm.Model)
	require.NoError(t, gbt.Validate())

	broken := *gbt
	broken.Trees = cloneTrees(gbt.Trees)
	broken.Trees[0].Nodes[0].Feature = 9999
	broken.Trees[0].Nodes[0].Left = 9999
	broken.Trees[0].Nodes[0].Right = 9999
	m.Classifier = &broken

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, Save(m, path))

	loaded, err := Load(path)
	assert.Nil(t, loaded)
	var ce *bkerrors.CorruptArtifactError
	require.True(t, bkerrors.As(err, &ce), "got %v", err)
	var ve *bkerrors.ValidationError
	assert.True(t, bkerrors.As(err, &ve))
}
