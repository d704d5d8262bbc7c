package credential

import "fmt"

// ErrorCode は資格情報ドメインのエラー種別。
type ErrorCode string

const (
	// ErrCodePasswordNotMeetPolicy はパスワードがポリシーを満たさないことを表す。
	ErrCodePasswordNotMeetPolicy ErrorCode = "password_not_meet_policy"
	// ErrCodeIncorrectPassword は現在のパスワードが一致しないことを表す。
	ErrCodeIncorrectPassword ErrorCode = "incorrect_password"
	// ErrCodeCredentialNotFound はユーザーがパスワードを設定していないことを表す。
	ErrCodeCredentialNotFound ErrorCode = "credential_not_found"
)

// Error は資格情報ドメインのエラー。
type Error struct {
	Code ErrorCode
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential: %s: %v", e.Code, e.Err)
	}
	return "credential: " + string(e.Code)
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}
