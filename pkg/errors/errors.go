// Package errors はgprプロジェクト全体のエラーハンドリングと警告システムを提供します。
// ガウス過程回帰エンジンが区別すべきエラー種別（次元不一致、未学習状態、
// ファイル欠損、パラメータファイル破損、未知のカーネル型など）を構造化された型として定義します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("gpr-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// 数値不安定性の警告（負の固有値、負の事後分散など）の処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
	zerologWarnFunc = nil
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// NumericalWarning は計算は続行できるが数値的に不安定な状態を示す警告です。
// 例: 逆行列計算で負の固有値・特異値が現れた、事後分散が負になった。
type NumericalWarning struct {
	Op     string
	Reason string
	Values []float64
}

func (w *NumericalWarning) Error() string {
	if len(w.Values) == 0 {
		return fmt.Sprintf("%s: %s", w.Op, w.Reason)
	}
	return fmt.Sprintf("%s: %s (values: %s)", w.Op, w.Reason, formatValues(w.Values))
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *NumericalWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Str("reason", w.Reason).
		Floats64("values", w.Values).
		Str("type", "NumericalWarning")
}

// NewNumericalWarning は新しいNumericalWarningを作成します。
func NewNumericalWarning(op, reason string, values ...float64) *NumericalWarning {
	return &NumericalWarning{Op: op, Reason: reason, Values: values}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError は学習済み状態を必要とする操作が、学習前または学習できない状態で呼ばれた場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
	Reason    string
}

func (e *NotFittedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("gpr: %s.%s: model is not trained: %s", e.ModelName, e.Method, e.Reason)
	}
	return fmt.Sprintf("gpr: %s.%s: model is not trained. Call Initialize() before using %s()", e.ModelName, e.Method, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("reason", e.Reason).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method, reason string) error {
	err := &NotFittedError{ModelName: modelName, Method: method, Reason: reason}
	return errors.WithStack(err)
}

// VectorKind はDimensionErrorで検証対象となったベクトルの種類です。
type VectorKind string

const (
	// InputVector は入力（サンプル）ベクトル
	InputVector VectorKind = "input"
	// OutputVector は出力（ラベル）ベクトル
	OutputVector VectorKind = "output"
)

// DimensionError は入力・出力ベクトルの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Kind     VectorKind
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("gpr: %s: dimension of %s vector (%d) does not correspond to the %s dimension (%d)",
		e.Op, e.Kind, e.Got, e.Kind, e.Expected)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("vector", string(e.Kind)).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, kind VectorKind, expected, got int) error {
	err := &DimensionError{Op: op, Kind: kind, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// FileNotFoundError は永続化ファイルが存在しない、またはディレクトリである場合のエラーです。
type FileNotFoundError struct {
	Op   string
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("gpr: %s: %s does not exist or is a directory", e.Op, e.Path)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *FileNotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		Str("type", "FileNotFoundError")
}

// NewFileNotFoundError は新しいFileNotFoundErrorを作成し、スタックトレースを付与します。
func NewFileNotFoundError(op, path string) error {
	return errors.WithStack(&FileNotFoundError{Op: op, Path: path})
}

// CorruptFileError はパラメータファイルや行列ファイルを解釈できない場合のエラーです。
type CorruptFileError struct {
	Op     string
	Path   string
	Reason string
}

func (e *CorruptFileError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("gpr: %s: corrupt data: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("gpr: %s: %s is corrupt: %s", e.Op, e.Path, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *CorruptFileError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		Str("reason", e.Reason).
		Str("type", "CorruptFileError")
}

// NewCorruptFileError は新しいCorruptFileErrorを作成し、スタックトレースを付与します。
func NewCorruptFileError(op, path, reason string) error {
	return errors.WithStack(&CorruptFileError{Op: op, Path: path, Reason: reason})
}

// UnknownKernelError はカーネルの型タグがレジストリに登録されていない場合のエラーです。
type UnknownKernelError struct {
	Tag string
}

func (e *UnknownKernelError) Error() string {
	return fmt.Sprintf("gpr: kernel type %q is not registered", e.Tag)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnknownKernelError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("tag", e.Tag).
		Str("type", "UnknownKernelError")
}

// NewUnknownKernelError は新しいUnknownKernelErrorを作成し、スタックトレースを付与します。
func NewUnknownKernelError(tag string) error {
	return errors.WithStack(&UnknownKernelError{Tag: tag})
}

// UnimplementedCompositeError は合成カーネルのタグに未対応の演算子が含まれる場合のエラーです。
type UnimplementedCompositeError struct {
	Operator string
	Tag      string
}

func (e *UnimplementedCompositeError) Error() string {
	return fmt.Sprintf("gpr: composite kernel operator %q in tag %q is not implemented", e.Operator, e.Tag)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnimplementedCompositeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operator", e.Operator).
		Str("tag", e.Tag).
		Str("type", "UnimplementedCompositeError")
}

// NewUnimplementedCompositeError は新しいUnimplementedCompositeErrorを作成し、スタックトレースを付与します。
func NewUnimplementedCompositeError(operator, tag string) error {
	return errors.WithStack(&UnimplementedCompositeError{Operator: operator, Tag: tag})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gpr: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ModelError は回帰モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gpr: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("gpr: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError は数値計算が継続不能なほど不安定になった場合のエラーです。
// NaN、Infなどを検出します。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("gpr: numerical instability detected in %s. Values: [%s]",
		e.Operation, formatValues(e.Values))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Floats64("values", e.Values).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
	}
	return errors.WithStack(err)
}

func formatValues(values []float64) string {
	s := ""
	for i, v := range values {
		if i > 0 {
			s += ", "
		}
		if i >= 5 {
			s += "..."
			break
		}
		s += fmt.Sprintf("%.6g", v)
	}
	return s
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
