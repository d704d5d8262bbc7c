package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/beluga/internal/auth"
	"github.com/hitoshi/beluga/internal/cache"
	"github.com/hitoshi/beluga/internal/metrics"
	"github.com/hitoshi/beluga/internal/middleware"
	"github.com/hitoshi/beluga/internal/model"
)

// twitterAuthSessionCookie は認証セッションIDを保持するCookie名。
const twitterAuthSessionCookie = "twitter_auth_session"

// TwitterServiceInterface はTwitterハンドラーが必要とするサービスインターフェース。
type TwitterServiceInterface interface {
	RequestToken(ctx context.Context) (*auth.RequestTokenResult, error)
	Authenticate(ctx context.Context, in auth.AuthenticateInput) (*auth.AuthenticateResult, error)
}

// SessionCreator はログインセッションの発行インターフェース。
type SessionCreator interface {
	CreateSession(ctx context.Context, userID int64, sc auth.SessionContext) (*model.LoginSession, error)
}

// TwitterHandler はTwitterソーシャルログインのHTTPハンドラー。
type TwitterHandler struct {
	service  TwitterServiceInterface
	sessions SessionCreator
	metrics  metrics.MetricsCollector
	config   AuthHandlerConfig
}

// NewTwitterHandler はTwitterHandlerを生成する。
func NewTwitterHandler(service TwitterServiceInterface, sessions SessionCreator, collector metrics.MetricsCollector, config AuthHandlerConfig) *TwitterHandler {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &TwitterHandler{
		service:  service,
		sessions: sessions,
		metrics:  collector,
		config:   config,
	}
}

type requestTokenResponse struct {
	OAuthToken       string `json:"oauth_token"`
	AuthSessionID    string `json:"auth_session_id"`
	AuthorizationURL string `json:"authorization_url"`
}

type twitterAuthenticateRequest struct {
	AuthSessionID string `json:"auth_session_id"`
	OAuthToken    string `json:"oauth_token" validate:"required"`
	OAuthVerifier string `json:"oauth_verifier" validate:"required"`
}

type twitterAuthenticateResponse struct {
	User    userResponse `json:"user"`
	Created bool         `json:"created"`
}

// RequestToken はリクエストトークンを取得し、認可URLを返す。
// 認証セッションIDはレスポンスと短命のCookieの両方で返す。
// GET /api/auth/twitter/request_token
func (h *TwitterHandler) RequestToken(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RequestToken(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     twitterAuthSessionCookie,
		Value:    result.AuthSessionID,
		Path:     "/",
		MaxAge:   int(cache.DefaultAuthSessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, requestTokenResponse{
		OAuthToken:       result.OAuthToken,
		AuthSessionID:    result.AuthSessionID,
		AuthorizationURL: result.AuthorizationURL,
	})
}

// Authenticate はコールバックで受け取ったverifierでログインし、セッションCookieを設定する。
// POST /api/auth/twitter/authenticate
func (h *TwitterHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req twitterAuthenticateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	authSessionID := req.AuthSessionID
	if authSessionID == "" {
		if cookie, err := r.Cookie(twitterAuthSessionCookie); err == nil {
			authSessionID = cookie.Value
		}
	}

	// 認証セッションは単回使用のため結果に関わらずCookieを削除する
	http.SetCookie(w, &http.Cookie{
		Name:     twitterAuthSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	sc := sessionContextFrom(r)
	result, err := h.service.Authenticate(r.Context(), auth.AuthenticateInput{
		AuthSessionID: authSessionID,
		OAuthToken:    req.OAuthToken,
		OAuthVerifier: req.OAuthVerifier,
		IPAddress:     sc.IPAddress,
	})
	if err != nil {
		h.metrics.RecordLogin(metrics.LoginMethodTwitter, errorCode(err))
		handleServiceError(w, err)
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), result.User.ID, sc)
	if err != nil {
		h.metrics.RecordLogin(metrics.LoginMethodTwitter, errorCode(err))
		handleServiceError(w, err)
		return
	}
	h.metrics.RecordLogin(metrics.LoginMethodTwitter, metrics.OutcomeSuccess)
	if result.Created {
		h.metrics.RecordRegistration(metrics.OutcomeSuccess)
	}

	setSessionCookie(w, h.config, session.ID)
	writeJSON(w, http.StatusOK, twitterAuthenticateResponse{
		User:    toUserResponse(result.User),
		Created: result.Created,
	})
}

var _ SessionCreator = (*auth.SessionService)(nil)
var _ TwitterServiceInterface = (*auth.TwitterService)(nil)
var _ middleware.TokenIssuer = (*auth.TokenIssuer)(nil)
