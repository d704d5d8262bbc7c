package user

import "fmt"

// ErrorCode はユーザードメインのエラー種別。
type ErrorCode string

const (
	// ErrCodeRegistrationRateLimited は同一IPアドレスからの登録間隔が短すぎることを表す。
	ErrCodeRegistrationRateLimited ErrorCode = "registration_rate_limited"
	// ErrCodeNameTaken はユーザー名が既に使われていることを表す。
	ErrCodeNameTaken ErrorCode = "name_taken"
	// ErrCodeInvalidName はユーザー名の形式が不正であることを表す。
	ErrCodeInvalidName ErrorCode = "invalid_name"
	// ErrCodeInvalidDisplayName は表示名が長すぎることを表す。
	ErrCodeInvalidDisplayName ErrorCode = "invalid_display_name"
	// ErrCodeInvalidIPAddress は登録元IPアドレスの形式が不正であることを表す。
	ErrCodeInvalidIPAddress ErrorCode = "invalid_ip_address"
)

// Error はユーザードメインのエラー。
type Error struct {
	Code ErrorCode
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("user: %s: %v", e.Code, e.Err)
	}
	return "user: " + string(e.Code)
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}
