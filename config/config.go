// Package config は学習ワークフローとCLIの設定を読み込む。
//
// 設定ファイルは拡張子で形式を判定する（.json、.yaml、.yml）。
// ファイルに書かれていない項目は Default の値のまま残る。
package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pkg/log"
	"github.com/YuminosukeSato/bikerental/pipeline"
	"github.com/YuminosukeSato/bikerental/trainer"
)

// Config は1回の学習・推論に必要な設定
type Config struct {
	Seed              int64   `json:"seed" yaml:"seed"`
	TestFraction      float64 `json:"test_fraction" yaml:"test_fraction"`
	TrainingDataPath  string  `json:"training_data_path" yaml:"training_data_path"`
	ModelArtifactPath string  `json:"model_artifact_path" yaml:"model_artifact_path"`
	HasHeader         bool    `json:"has_header" yaml:"has_header"`

	RankBy    string `json:"rank_by" yaml:"rank_by"`
	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`

	Trainers trainer.Options `json:"trainers" yaml:"trainers"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Seed:              0,
		TestFraction:      0.2,
		TrainingDataPath:  "data/bike_sharing.csv",
		ModelArtifactPath: "models/bike_rental_model.gob",
		HasHeader:         true,
		RankBy:            string(pipeline.RankByAUC),
		LogLevel:          "info",
		LogFormat:         log.FormatConsole,
		Trainers:          trainer.DefaultOptions(),
	}
}

// Load は path の設定を Default の上に読み込み、検証して返す
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, bkerrors.NewIOError("load", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, bkerrors.NewValidationError("config", "file extension must be .json, .yaml or .yml", ext)
	}
	if err != nil {
		return Config{}, bkerrors.Wrapf(err, "failed to parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は各項目の範囲を検証し、最初の違反を ValidationError で返す
func (c Config) Validate() error {
	if math.IsNaN(c.TestFraction) || c.TestFraction <= 0 || c.TestFraction >= 1 {
		return bkerrors.NewValidationError("test_fraction", "must be in (0, 1)", c.TestFraction)
	}
	if strings.TrimSpace(c.TrainingDataPath) == "" {
		return bkerrors.NewValidationError("training_data_path", "must not be empty", c.TrainingDataPath)
	}
	if strings.TrimSpace(c.ModelArtifactPath) == "" {
		return bkerrors.NewValidationError("model_artifact_path", "must not be empty", c.ModelArtifactPath)
	}
	if _, err := pipeline.ParseRankKey(c.RankBy); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != log.FormatJSON && c.LogFormat != log.FormatConsole {
		return bkerrors.NewValidationError("log_format", "must be json or console", c.LogFormat)
	}
	if err := c.Trainers.GradientBoostedTrees.Validate(); err != nil {
		return err
	}
	if err := c.Trainers.DecisionForest.Validate(); err != nil {
		return err
	}
	return c.Trainers.LogisticRegression.Validate()
}

// PipelineOptions returns the workflow options described by c.
func (c Config) PipelineOptions() pipeline.Options {
	key, _ := pipeline.ParseRankKey(c.RankBy)
	return pipeline.Options{Seed: c.Seed, TestFraction: c.TestFraction, RankBy: key}
}

// Catalog は c.Seed を全アルゴリズムに適用した既定カタログを返す
func (c Config) Catalog() *trainer.Catalog {
	return trainer.DefaultCatalog(c.Trainers.WithSeed(c.Seed))
}
