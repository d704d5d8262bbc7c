package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/beluga/internal/auth"
	"github.com/hitoshi/beluga/internal/metrics"
	"github.com/hitoshi/beluga/internal/middleware"
	"github.com/hitoshi/beluga/internal/model"
)

// SignupInput はアカウント登録の入力。
type SignupInput struct {
	Name     string
	Password string
	Session  auth.SessionContext
}

// AccountServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// Signup はユーザーを登録し、ログインセッションを発行する。
	Signup(ctx context.Context, in SignupInput) (*model.User, *model.LoginSession, error)
	// ChangePassword は現在のパスワードを確認してから新しいパスワードに置き換える。
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
}

// AccountHandler はアカウント登録とパスワード変更のHTTPハンドラー。
type AccountHandler struct {
	service AccountServiceInterface
	metrics metrics.MetricsCollector
	config  AuthHandlerConfig
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface, collector metrics.MetricsCollector, config AuthHandlerConfig) *AccountHandler {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &AccountHandler{
		service: service,
		metrics: collector,
		config:  config,
	}
}

type signupRequest struct {
	Name                 string `json:"name" validate:"required"`
	Password             string `json:"password" validate:"required"`
	ConfirmationPassword string `json:"confirmation_password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	NewPassword          string `json:"new_password" validate:"required"`
	ConfirmationPassword string `json:"confirmation_password" validate:"required"`
}

// Signup はパスワードでアカウントを登録する。
// POST /api/account/signup
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Password != req.ConfirmationPassword {
		h.metrics.RecordRegistration(model.ErrCodeConfirmationPasswordNotMatch)
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewConfirmationPasswordNotMatchError())
		return
	}

	u, session, err := h.service.Signup(r.Context(), SignupInput{
		Name:     req.Name,
		Password: req.Password,
		Session:  sessionContextFrom(r),
	})
	if err != nil {
		h.metrics.RecordRegistration(errorCode(err))
		handleServiceError(w, err)
		return
	}
	h.metrics.RecordRegistration(metrics.OutcomeSuccess)
	h.metrics.RecordLogin(metrics.LoginMethodSignup, metrics.OutcomeSuccess)

	setSessionCookie(w, h.config, session.ID)
	writeJSON(w, http.StatusCreated, map[string]userResponse{"user": toUserResponse(u)})
}

// ChangePassword はログイン中ユーザーのパスワードを変更する。
// PUT /api/account/password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req changePasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.NewPassword != req.ConfirmationPassword {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewConfirmationPasswordNotMatchError())
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
