package registration

import (
	"errors"
	"fmt"

	"github.com/hitoshi/beluga/internal/credential"
	"github.com/hitoshi/beluga/internal/repository"
	"github.com/hitoshi/beluga/internal/user"
)

// ErrorCode はユーザー登録の失敗理由。呼び出し元に公開する閉じた集合。
type ErrorCode string

const (
	ErrCodeInternalError         ErrorCode = "internal_error"
	ErrCodeTooManyRequests       ErrorCode = "too_many_requests"
	ErrCodeUserNameNotMeetPolicy ErrorCode = "user_name_not_meet_policy"
	ErrCodeNameTaken             ErrorCode = "name_taken"
	ErrCodePasswordNotMeetPolicy ErrorCode = "password_not_meet_policy"
)

// Error はユーザー登録のエラー。Errは原因でありログ出力にのみ使う。
type Error struct {
	Code ErrorCode
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registration: %s: %v", e.Code, e.Err)
	}
	return "registration: " + string(e.Code)
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// translate はドメインエラーを登録エラーに変換する。
// 既知のドメインエラー以外は全てinternal_errorになる。
func translate(err error) *Error {
	var regErr *Error
	if errors.As(err, &regErr) {
		return regErr
	}
	if errors.Is(err, repository.ErrUserNameConflict) {
		return &Error{Code: ErrCodeNameTaken, Err: err}
	}

	var userErr *user.Error
	if errors.As(err, &userErr) {
		switch userErr.Code {
		case user.ErrCodeRegistrationRateLimited:
			return &Error{Code: ErrCodeTooManyRequests, Err: err}
		case user.ErrCodeNameTaken:
			return &Error{Code: ErrCodeNameTaken, Err: err}
		case user.ErrCodeInvalidName:
			return &Error{Code: ErrCodeUserNameNotMeetPolicy, Err: err}
		case user.ErrCodeInvalidDisplayName, user.ErrCodeInvalidIPAddress:
			return &Error{Code: ErrCodeInternalError, Err: err}
		}
	}

	var credErr *credential.Error
	if errors.As(err, &credErr) {
		switch credErr.Code {
		case credential.ErrCodePasswordNotMeetPolicy:
			return &Error{Code: ErrCodePasswordNotMeetPolicy, Err: err}
		case credential.ErrCodeIncorrectPassword, credential.ErrCodeCredentialNotFound:
			return &Error{Code: ErrCodeInternalError, Err: err}
		}
	}

	return &Error{Code: ErrCodeInternalError, Err: err}
}
