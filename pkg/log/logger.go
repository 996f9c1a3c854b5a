package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// Output formats accepted by SetupLogger.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// SetupLogger function setup logger.
//
// "json" emits Cloud Logging compatible slog JSON with stacktraces extracted
// from cockroachdb errors. "console" emits colourised zerolog lines for
// interactive CLI use. Library warnings are routed to the same sink.
func SetupLogger(loglevel, format string) error {
	return SetupLoggerTo(os.Stderr, loglevel, format)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(w io.Writer, loglevel, format string) error {
	level, err := ParseLevel(loglevel)
	if err != nil {
		return err
	}

	var provider LoggerProvider
	switch format {
	case FormatJSON, "":
		provider = newSlogProvider(newCloudLoggingHandler(w, level), level)
	case FormatConsole:
		provider = newZerologProvider(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}, level)
	default:
		return bkerrors.NewValidationError("log_format", "must be json or console", format)
	}

	SetProvider(provider)
	warnLogger := provider.GetLoggerWithName("warnings")
	bkerrors.SetZerologWarnFunc(func(warning error) {
		warnLogger.Warn(warning.Error(), ErrorTypeKey, fmt.Sprintf("%T", warning))
	})
	return nil
}

func newCloudLoggingHandler(w io.Writer, level *slog.LevelVar) slog.Handler {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		// Replace attributes to convert to CloudLogging format.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			case slog.SourceKey:
				attr = slog.Attr{
					Key:   "logging.googleapis.com/sourceLocation",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	return WrapByErrFmtHandler(slog.NewJSONHandler(w, &ops))
}

// ParseLevel converts "debug", "info", "warn" or "error" into a LevelVar.
func ParseLevel(level string) (*slog.LevelVar, error) {
	lv := &slog.LevelVar{}
	switch level {
	case "info", "":
		lv.Set(slog.LevelInfo)
	case "debug":
		lv.Set(slog.LevelDebug)
	case "warn":
		lv.Set(slog.LevelWarn)
	case "error":
		lv.Set(slog.LevelError)
	default:
		return nil, bkerrors.NewValidationError("log_level", "must be one of debug, info, warn, error", level)
	}
	return lv, nil
}

// ErrAttrKey で渡された error は JSON 出力で StacktraceAttrKey と ErrorTypeKey を伴う
const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)
