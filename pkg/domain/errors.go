package domain

import (
	"errors"
	"fmt"
)

// ErrorKind は上流の多様な失敗を少数の行動可能なカテゴリへ分類するための種別です。
type ErrorKind string

const (
	// KindValidation は呼び出し側の入力不備です。ネットワークに出る前に検出され、リトライ対象外です。
	KindValidation ErrorKind = "validation"
	// KindAuthentication は上流の 401/403 です。リトライしても解決しません。
	KindAuthentication ErrorKind = "authentication"
	// KindRateLimit は上流の 429 です。呼び出し側の判断でのみリトライ可能です。
	KindRateLimit ErrorKind = "rate_limit"
	// KindContentPolicy は安全フィルター起因の 400 です。一般的な bad request と区別して表示します。
	KindContentPolicy ErrorKind = "content_policy"
	// KindAPI は上記以外の非 2xx または通信レベルの失敗です。
	KindAPI ErrorKind = "api"
	// KindNoImageData は「2xx でパースも成功したが画像が 0 件」という状態です。
	// 上流が静かに生成を拒否したケースをパーサ不具合と区別するための専用種別です。
	KindNoImageData ErrorKind = "no_image_data"
	// KindFileOperation は成果物の永続化の失敗です。生成の失敗とは混同しません。
	KindFileOperation ErrorKind = "file_operation"
)

// Error は分類済みの失敗 1 件を表します。
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int // 上流の HTTP ステータス。0 は「なし」を意味します。
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (status=%d)", e.Kind, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// NewError は種別とメッセージから Error を生成します。
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf は書式付きで Error を生成します。
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithStatus は上流の HTTP ステータスコードを付与します。
func (e *Error) WithStatus(code int) *Error {
	e.StatusCode = code
	return e
}

// WithCause は元となったエラーを保持させます。
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// KindOf はエラーチェーンから分類種別を取り出します。未分類なら空文字を返します。
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// AsError はエラーチェーンから *Error を取り出します。
// 未分類のエラーは KindAPI として包み直します（バッチの失敗記録用）。
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return NewError(KindAPI, err.Error()).WithCause(err)
}

// IsRetryable は呼び出し側リトライが意味を持つ種別かどうかを返します。
// コア自身は決して自動リトライしません。
func IsRetryable(err error) bool {
	return KindOf(err) == KindRateLimit
}
