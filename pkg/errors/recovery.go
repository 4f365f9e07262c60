package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError は recover したパニックを表すエラーです。
// gonum の mat パッケージは形状不一致や分解の誤用をパニックで報告するため、
// エンジンは公開メソッドの境界でこのエラーに変換します。
type PanicError struct {
	// Op はパニックを回収した操作名
	Op string
	// Value は panic() に渡された値
	Value interface{}
	// Stack はパニック発生時のスタックトレース
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
}

// Unwrap はパニック値がエラーの場合にそれを返します。
// これにより回収後も errors.Is(err, mat.ErrShape) が成り立ちます。
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// String はスタックトレースを含む詳細を返します。
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s", e.Op, e.Value, e.Stack)
}

// NewPanicError は現在のスタックを記録した PanicError を作成します。
func NewPanicError(op string, value interface{}) *PanicError {
	return &PanicError{Op: op, Value: value, Stack: string(debug.Stack())}
}

// Recover は defer で呼び出し、パニックを *err に代入されるエラーに変換します。
//
//	func (g *GaussianProcess[T]) Initialize() (err error) {
//	    defer errors.Recover(&err, "GaussianProcess.Initialize")
//	    ...
//	}
//
// 既にエラーが返されていた場合は、そのエラーをパニック情報でラップします。
func Recover(err *error, op string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = errors.Wrapf(*err, "panic in %s: %v", op, r)
		return
	}
	*err = NewPanicError(op, r)
}

// SafeExecute は fn を実行し、パニックを PanicError に変換します。
//
//	err := errors.SafeExecute("kernel evaluation", func() error {
//	    v = k.Evaluate(x, y)
//	    return nil
//	})
func SafeExecute(op string, fn func() error) (err error) {
	defer Recover(&err, op)
	return fn()
}
