// Package log は学習パイプライン用の構造化ログインターフェースを提供する。
//
// Logger は log/slog と互換のメソッドを持ち、実装は slog（JSON）か
// zerolog（コンソール）を SetupLogger で選ぶ。属性キーは attributes.go の定数を使う。
//
//	logger := log.GetLoggerWithName("lightgbm.trainer").With(
//	    log.ModelNameKey, "GradientBoostedTrees",
//	)
//	logger.Info("Training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 800,
//	    log.FeaturesKey, 16,
//	)
package log

import (
	"context"
)

// Logger は slog 互換の構造化ロガー。fields はキーと値を交互に並べる。
type Logger interface {
	// Debug は詳細な診断情報。本番では通常無効
	Debug(msg string, fields ...any)

	// Info は処理の進行状況
	//
	//   logger.Info("Training completed",
	//       log.ModelNameKey, "GradientBoostedTrees",
	//       log.DurationMsKey, 5432,
	//   )
	Info(msg string, fields ...any)

	// Warn は処理を続けられるが注意が必要な状況（候補の除外、未収束など）
	Warn(msg string, fields ...any)

	// Error は調査が必要な失敗。ErrAttrKey で error を渡すと
	// JSON 出力ではスタックトレースが stacktrace 属性に付く。
	//
	//   logger.Error("Model load failed", log.ErrAttrKey, err, log.ArtifactPathKey, path)
	Error(msg string, fields ...any)

	// With は fields を常に含む派生 Logger を返す
	With(fields ...any) Logger

	// Enabled は level のレコードが出力されるかを返す。
	// 高価なログ引数の組み立てを避けるために使う。
	//
	//   if logger.Enabled(ctx, log.LevelDebug) {
	//       logger.Debug("Tree grown", "leaves", tree.NumLeaves)
	//   }
	Enabled(ctx context.Context, level Level) bool
}

// Level は slog.Level と同じ値を持つログレベル
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider hands out loggers, optionally scoped to a named component.
type LoggerProvider interface {
	// GetLogger returns the root logger.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with the given component name.
	GetLoggerWithName(name string) Logger

	// SetLevel changes the minimum level emitted by loggers from this provider.
	SetLevel(level Level)
}
