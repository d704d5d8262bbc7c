// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, account, timeline, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInternalError                = "internal_error"
	ErrCodeTooManyRequests              = "too_many_requests"
	ErrCodeUserNameNotMeetPolicy        = "user_name_not_meet_policy"
	ErrCodeNameTaken                    = "name_taken"
	ErrCodePasswordNotMeetPolicy        = "password_not_meet_policy"
	ErrCodeConfirmationPasswordNotMatch = "confirmation_password_not_match"
	ErrCodeInvalidCredentials           = "invalid_credentials"
	ErrCodeSessionNotFound              = "session_not_found"
	ErrCodeInvalidSession               = "invalid_session"
	ErrCodeAPIAuthError                 = "api_auth_error"
	ErrCodeAPIResponseError             = "api_response_error"
	ErrCodeInvalidArgument              = "invalid_argument"
	ErrCodeNotFound                     = "not_found"
	ErrCodeUserNotFound                 = "user_not_found"
	ErrCodeUnauthorized                 = "unauthorized"
)

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、レスポンスには含めない。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternalError,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewTooManyRequestsError は同一IPアドレスからの連続登録エラーを生成する。
func NewTooManyRequestsError() *APIError {
	return &APIError{
		Code:     ErrCodeTooManyRequests,
		Message:  "このIPアドレスからは短時間に複数のアカウントを作成できません。",
		Category: "account",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserNameNotMeetPolicyError はユーザー名がポリシーを満たさない場合のエラーを生成する。
func NewUserNameNotMeetPolicyError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNameNotMeetPolicy,
		Message:  "ユーザー名が条件を満たしていません。",
		Category: "validation",
		Action:   "ユーザー名には英数字とアンダースコアのみ使用できます。",
	}
}

// NewNameTakenError はユーザー名が既に使われている場合のエラーを生成する。
func NewNameTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeNameTaken,
		Message:  "このユーザー名は既に使用されています。",
		Category: "account",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewPasswordNotMeetPolicyError はパスワードがポリシーを満たさない場合のエラーを生成する。
func NewPasswordNotMeetPolicyError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordNotMeetPolicy,
		Message:  "パスワードが条件を満たしていません。",
		Category: "validation",
		Action:   "より長いパスワードを指定してください。",
	}
}

// NewConfirmationPasswordNotMatchError は確認用パスワードが一致しない場合のエラーを生成する。
func NewConfirmationPasswordNotMatchError() *APIError {
	return &APIError{
		Code:     ErrCodeConfirmationPasswordNotMatch,
		Message:  "確認用パスワードが一致しません。",
		Category: "validation",
		Action:   "パスワードと確認用パスワードに同じ値を入力してください。",
	}
}

// NewInvalidCredentialsError はログイン情報が正しくない場合のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してください。",
	}
}

// NewSessionNotFoundError はセッションが見つからない場合のエラーを生成する。
func NewSessionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  "セッションが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidSessionError は外部認証の一時セッションが無効な場合のエラーを生成する。
func NewInvalidSessionError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSession,
		Message:  "認証セッションが無効か期限切れです。",
		Category: "auth",
		Action:   "最初からログインし直してください。",
	}
}

// NewAPIAuthError は外部サービスでの認証に失敗した場合のエラーを生成する。
func NewAPIAuthError() *APIError {
	return &APIError{
		Code:     ErrCodeAPIAuthError,
		Message:  "外部サービスでの認証に失敗しました。",
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewAPIResponseError は外部サービスから不正な応答を受け取った場合のエラーを生成する。
func NewAPIResponseError() *APIError {
	return &APIError{
		Code:     ErrCodeAPIResponseError,
		Message:  "外部サービスから不正な応答を受け取りました。",
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidArgumentError は引数が不正な場合のエラーを生成する。
func NewInvalidArgumentError(argument string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidArgument,
		Message:  fmt.Sprintf("引数が不正です: %s", argument),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewNotFoundError は対象が見つからない場合のエラーを生成する。
func NewNotFoundError(what string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません。", what),
		Category: "timeline",
		Action:   "IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewUnauthorizedError は未認証リクエストのエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}
