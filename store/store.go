// Package store は学習済み Model を単一の gob ファイルとして保存・復元する。
//
// ファイルは次の値をこの順に連結したもの:
//
//	Header{Format: "bikerental/model", Version: 1}
//	preprocessing.EncoderParams
//	model.Classifier（gob.Register 済みの具象型）
//	pipeline.Metadata
//
// 保存は同じディレクトリの一時ファイルに書いてから rename するため、
// 途中で失敗しても壊れた成果物は残らない。同じパスへの保存と読み込みは
// 呼び出し側で直列化すること。
package store

import (
	"bufio"
	"encoding/gob"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/YuminosukeSato/bikerental/core/model"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
	"github.com/YuminosukeSato/bikerental/pkg/log"
	"github.com/YuminosukeSato/bikerental/pipeline"
	"github.com/YuminosukeSato/bikerental/preprocessing"
	"github.com/YuminosukeSato/bikerental/sklearn/ensemble"
	"github.com/YuminosukeSato/bikerental/sklearn/lightgbm"
	"github.com/YuminosukeSato/bikerental/sklearn/linear_model"
)

const (
	// Format は成果物の種別タグ
	Format = "bikerental/model"
	// Version は現在の成果物フォーマットのバージョン
	Version = 1
)

// Header は成果物の先頭に置かれる
type Header struct {
	Format  string
	Version int
}

func init() {
	gob.Register(&lightgbm.Model{})
	gob.Register(&ensemble.Model{})
	gob.Register(&linear_model.Model{})
}

// Save は m を path に書き出す
//
// エラー:
//   - NotFittedError: m が未学習
//   - IOError: ディレクトリ作成・書き込み・rename の失敗
func Save(m *pipeline.Model, path string) (err error) {
	start := time.Now()
	if m == nil || m.Encoder == nil || m.Classifier == nil {
		return bkerrors.NewNotFittedError("Model", "Save")
	}
	params, err := m.Encoder.Params()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return bkerrors.NewIOError("save", path, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return bkerrors.NewIOError("save", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	codec := model.NewStreamEncoder(w)
	clf := m.Classifier
	for _, v := range []interface{}{
		Header{Format: Format, Version: Version},
		params,
		&clf,
		m.Metadata,
	} {
		if err = codec.Write(v); err != nil {
			return bkerrors.NewIOError("save", path, err)
		}
	}
	if err = w.Flush(); err != nil {
		return bkerrors.NewIOError("save", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return bkerrors.NewIOError("save", path, err)
	}
	if err = tmp.Close(); err != nil {
		return bkerrors.NewIOError("save", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return bkerrors.NewIOError("save", path, err)
	}

	log.GetLoggerWithName("store").Info("Model saved",
		log.OperationKey, log.OperationSave,
		log.ArtifactPathKey, path,
		log.FormatVersionKey, Version,
		log.ModelNameKey, m.Metadata.Trainer,
		log.EstimatorIDKey, m.Metadata.ID,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Load は path の成果物から Model を復元する
//
// 復元した Model の予測は保存時とビット単位で一致する。
//
// エラー:
//   - IOError: ファイルを開けない
//   - CorruptArtifactError: デコード失敗、形式タグやバージョンの不一致、不正なパラメータ、
//     木の参照先が範囲外など予測に使えない分類器
func Load(path string) (*pipeline.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bkerrors.NewIOError("load", path, err)
	}
	defer f.Close()

	codec := model.NewStreamDecoder(bufio.NewReader(f))

	var h Header
	if err := codec.Read(&h); err != nil {
		return nil, bkerrors.NewCorruptArtifactError(path, "unreadable header", err)
	}
	if h.Format != Format {
		return nil, bkerrors.NewCorruptArtifactError(path, "unexpected format tag "+h.Format, nil)
	}
	if h.Version != Version {
		return nil, bkerrors.NewCorruptArtifactError(path,
			"unsupported format version "+strconv.Itoa(h.Version), nil)
	}

	var params preprocessing.EncoderParams
	if err := codec.Read(&params); err != nil {
		return nil, bkerrors.NewCorruptArtifactError(path, "unreadable encoder parameters", err)
	}
	enc, err := preprocessing.FromParams(params)
	if err != nil {
		return nil, bkerrors.NewCorruptArtifactError(path, "invalid encoder parameters", err)
	}

	var clf model.Classifier
	if err := codec.Read(&clf); err != nil {
		return nil, bkerrors.NewCorruptArtifactError(path, "unreadable classifier", err)
	}
	if clf == nil {
		return nil, bkerrors.NewCorruptArtifactError(path, "missing classifier", nil)
	}
	if v, ok := clf.(model.Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, bkerrors.NewCorruptArtifactError(path, "invalid "+clf.Kind()+" structure", err)
		}
	}
	if clf.NumFeatures() != enc.NumFeatures() {
		return nil, bkerrors.NewCorruptArtifactError(path, "classifier and encoder widths differ",
			bkerrors.NewDimensionError("Load", enc.NumFeatures(), clf.NumFeatures(), 1))
	}

	var md pipeline.Metadata
	if err := codec.Read(&md); err != nil {
		return nil, bkerrors.NewCorruptArtifactError(path, "unreadable metadata", err)
	}

	log.GetLoggerWithName("store").Info("Model loaded",
		log.OperationKey, log.OperationLoad,
		log.ArtifactPathKey, path,
		log.FormatVersionKey, h.Version,
		log.ModelNameKey, md.Trainer,
		log.EstimatorIDKey, md.ID,
	)
	return &pipeline.Model{Encoder: enc, Classifier: clf, Metadata: md}, nil
}
