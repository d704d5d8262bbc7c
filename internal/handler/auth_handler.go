// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/beluga/internal/auth"
	"github.com/hitoshi/beluga/internal/metrics"
	"github.com/hitoshi/beluga/internal/middleware"
	"github.com/hitoshi/beluga/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginWithPassword(ctx context.Context, name, password string, sc auth.SessionContext) (*model.LoginSession, *model.User, error)
	AuthenticateCookie(ctx context.Context, sessionID string) (*model.User, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はパスワードログインとセッションCookie関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	tokens  middleware.TokenIssuer
	metrics metrics.MetricsCollector
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, tokens middleware.TokenIssuer, collector metrics.MetricsCollector, config AuthHandlerConfig) *AuthHandler {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &AuthHandler{
		service: service,
		tokens:  tokens,
		metrics: collector,
		config:  config,
	}
}

type loginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	TrustLevel  string    `json:"trust_level"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		DisplayName: u.DisplayName,
		TrustLevel:  string(u.TrustLevel),
		CreatedAt:   u.CreatedAt,
	}
}

type authenticateCookieResponse struct {
	User              userResponse `json:"user"`
	AuthenticityToken string       `json:"authenticity_token"`
}

// Login はユーザー名とパスワードでログインする。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	session, u, err := h.service.LoginWithPassword(r.Context(), req.Name, req.Password, sessionContextFrom(r))
	if err != nil {
		h.metrics.RecordLogin(metrics.LoginMethodPassword, errorCode(err))
		handleServiceError(w, err)
		return
	}
	h.metrics.RecordLogin(metrics.LoginMethodPassword, metrics.OutcomeSuccess)

	setSessionCookie(w, h.config, session.ID)
	writeJSON(w, http.StatusOK, map[string]userResponse{"user": toUserResponse(u)})
}

// Logout はセッションを破棄する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	clearSessionCookie(w, h.config)
	w.WriteHeader(http.StatusNoContent)
}

// AuthenticateCookie はセッションCookieから現在のユーザーを取得し、
// 状態変更リクエスト用のauthenticity tokenを発行する。
// POST /api/auth/cookie/authenticate
func (h *AuthHandler) AuthenticateCookie(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewSessionNotFoundError())
		return
	}

	u, err := h.service.AuthenticateCookie(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	token, err := h.tokens.Issue(cookie.Value)
	if err != nil {
		slog.Error("failed to issue authenticity token", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}

	writeJSON(w, http.StatusOK, authenticateCookieResponse{
		User:              toUserResponse(u),
		AuthenticityToken: token,
	})
}

// sessionContextFrom はリクエストからセッションに記録するクライアント情報を取り出す。
func sessionContextFrom(r *http.Request) auth.SessionContext {
	return auth.SessionContext{
		IPAddress: middleware.ClientIP(r),
		Device:    r.UserAgent(),
	}
}

func setSessionCookie(w http.ResponseWriter, config AuthHandlerConfig, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   config.SessionMaxAge,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, config AuthHandlerConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

var _ AuthServiceInterface = (*auth.SessionService)(nil)
var _ middleware.SessionFinder = (*auth.SessionService)(nil)
