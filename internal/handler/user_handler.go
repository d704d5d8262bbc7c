package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/beluga/internal/middleware"
	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Withdraw はユーザーの退会処理を実行する。
	// セッション、資格情報、ユーザーを削除し、メッセージはCASCADEで削除される。
	Withdraw(ctx context.Context, userID int64) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	config  AuthHandlerConfig
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, config AuthHandlerConfig) *UserHandler {
	return &UserHandler{
		service: service,
		config:  config,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	clearSessionCookie(w, h.config)
	w.WriteHeader(http.StatusNoContent)
}

var _ UserServiceInterface = (*user.Service)(nil)
