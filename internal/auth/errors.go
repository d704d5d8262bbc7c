package auth

import "fmt"

// ErrorCode は認証処理の失敗理由。
type ErrorCode string

const (
	ErrCodeInternalError      ErrorCode = "internal_error"
	ErrCodeInvalidSession     ErrorCode = "invalid_session"
	ErrCodeAPIAuthError       ErrorCode = "api_auth_error"
	ErrCodeAPIResponseError   ErrorCode = "api_response_error"
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	ErrCodeSessionNotFound    ErrorCode = "session_not_found"
)

// Error は認証処理のエラー。Errは原因でありログ出力にのみ使う。
type Error struct {
	Code ErrorCode
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Code, e.Err)
	}
	return "auth: " + string(e.Code)
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}
