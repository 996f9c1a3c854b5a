package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// errorAttrHandler は ErrAttrKey で渡された error から
// stacktrace と error.type 属性を補う slog.Handler です。
type errorAttrHandler struct {
	next slog.Handler
}

// WrapByErrFmtHandler wraps next so that records carrying an error attribute
// also get StacktraceAttrKey and ErrorTypeKey.
func WrapByErrFmtHandler(next slog.Handler) slog.Handler {
	return &errorAttrHandler{next: next}
}

func (h *errorAttrHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *errorAttrHandler) Handle(ctx context.Context, r slog.Record) error {
	var (
		err     error
		hasType bool
	)
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case ErrAttrKey:
			// 最初の error 属性だけを見る
			if err == nil {
				err, _ = a.Value.Any().(error)
			}
		case ErrorTypeKey:
			hasType = true
		}
		return true
	})
	if err == nil {
		return h.next.Handle(ctx, r)
	}
	if stack := stacktraceOf(err); stack != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stack))
	}
	if !hasType {
		r.AddAttrs(slog.String(ErrorTypeKey, errorType(err)))
	}
	return h.next.Handle(ctx, r)
}

func (h *errorAttrHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &errorAttrHandler{next: h.next.WithAttrs(attrs)}
}

func (h *errorAttrHandler) WithGroup(name string) slog.Handler {
	return &errorAttrHandler{next: h.next.WithGroup(name)}
}

// errorType はチェーン中で最初に見つかった型付きエラー（zerolog 対応のもの）の型名を返します。
// 見つからなければ最も内側のエラーの型名です。
func errorType(err error) string {
	var typed zerolog.LogObjectMarshaler
	if errors.As(err, &typed) {
		return fmt.Sprintf("%T", typed)
	}
	return fmt.Sprintf("%T", errors.UnwrapAll(err))
}

// stacktraceOf は cockroachdb/errors の safe details を優先し、
// スタックが記録されていれば %+v 表示にフォールバックします。
func stacktraceOf(err error) string {
	if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
		return details[0]
	}
	if errors.GetReportableStackTrace(err) == nil {
		return ""
	}
	return fmt.Sprintf("%+v", err)
}
