package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// PanicError は学習器などから回収した panic をエラーとして表します。
// パイプラインはこれを候補ごとの失敗として記録し、他の候補の学習を続けます。
type PanicError struct {
	PanicValue interface{}
	StackTrace string
	// Operation は panic を回収した処理名（例: "fit DecisionForest"）
	Operation string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String はスタックトレース付きの詳細表示です。
func (e *PanicError) String() string {
	return e.Error() + "\nStack trace:\n" + e.StackTrace
}

// Unwrap は panic 値が error の場合にそれを返します。
func (e *PanicError) Unwrap() error {
	if err, ok := e.PanicValue.(error); ok {
		return err
	}
	return nil
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *PanicError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("operation", e.Operation).
		Str("panic", fmt.Sprint(e.PanicValue))
}

// NewPanicError は現在のスタックを記録した PanicError を作ります。
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover は defer から呼び出し、panic を *err に変換します。
// 既に *err が設定されていれば、元のエラーを errors.Is で辿れる形で保持します。
//
//	func (t *Trainer) Fit(examples []model.LabeledExample) (clf model.Classifier, err error) {
//	    defer errors.Recover(&err, "fit")
//	    ...
//	}
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	pe := NewPanicError(operation, r)
	if *err == nil {
		*err = pe
		return
	}
	*err = errors.WithSecondaryError(
		errors.Wrapf(*err, "panic in %s: %v", operation, r), pe)
}

// SafeExecute は fn を実行し、panic を PanicError として返します。
// fn が返したエラーはそのまま返されます。
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
