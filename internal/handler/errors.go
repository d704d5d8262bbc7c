package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/beluga/internal/auth"
	"github.com/hitoshi/beluga/internal/credential"
	"github.com/hitoshi/beluga/internal/middleware"
	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/registration"
)

// validate はリクエストボディの構造体タグを検証する。スレッドセーフ。
var validate = validator.New(validator.WithRequiredStructEnabled())

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	middleware.WriteJSON(w, statusCode, v)
}

// decodeRequest はJSONボディをdstに読み込み、validateタグを検証する。
// 失敗した場合は400を書き込んでfalseを返す。
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidArgumentError("body"))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidArgumentError(verrs[0].Field()))
			return false
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidArgumentError("body"))
		return false
	}
	return true
}

// toAPIError はサービス層のエラーを利用者向けのAPIErrorに変換する。
// 変換できないエラーはnilを返す。
func toAPIError(err error) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var regErr *registration.Error
	if errors.As(err, &regErr) {
		switch regErr.Code {
		case registration.ErrCodeTooManyRequests:
			return model.NewTooManyRequestsError()
		case registration.ErrCodeUserNameNotMeetPolicy:
			return model.NewUserNameNotMeetPolicyError()
		case registration.ErrCodeNameTaken:
			return model.NewNameTakenError()
		case registration.ErrCodePasswordNotMeetPolicy:
			return model.NewPasswordNotMeetPolicyError()
		default:
			return nil
		}
	}

	var authErr *auth.Error
	if errors.As(err, &authErr) {
		switch authErr.Code {
		case auth.ErrCodeInvalidSession:
			return model.NewInvalidSessionError()
		case auth.ErrCodeAPIAuthError:
			return model.NewAPIAuthError()
		case auth.ErrCodeAPIResponseError:
			return model.NewAPIResponseError()
		case auth.ErrCodeInvalidCredentials:
			return model.NewInvalidCredentialsError()
		case auth.ErrCodeSessionNotFound:
			return model.NewSessionNotFoundError()
		default:
			return nil
		}
	}

	var credErr *credential.Error
	if errors.As(err, &credErr) {
		switch credErr.Code {
		case credential.ErrCodePasswordNotMeetPolicy:
			return model.NewPasswordNotMeetPolicyError()
		case credential.ErrCodeIncorrectPassword, credential.ErrCodeCredentialNotFound:
			return model.NewInvalidCredentialsError()
		}
	}

	return nil
}

// errorCode はメトリクスのラベルに使うエラーコードを返す。
func errorCode(err error) string {
	if apiErr := toAPIError(err); apiErr != nil {
		return apiErr.Code
	}
	return model.ErrCodeInternalError
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	if apiErr := toAPIError(err); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIErrorに変換できないエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case model.ErrCodeUserNameNotMeetPolicy,
		model.ErrCodePasswordNotMeetPolicy,
		model.ErrCodeConfirmationPasswordNotMatch,
		model.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case model.ErrCodeNameTaken:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials,
		model.ErrCodeSessionNotFound,
		model.ErrCodeInvalidSession,
		model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeAPIAuthError, model.ErrCodeAPIResponseError:
		return http.StatusBadGateway
	case model.ErrCodeNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
