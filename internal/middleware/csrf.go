package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/beluga/internal/model"
)

// CSRFHeaderName は真正性トークンを送るリクエストヘッダー名。
const CSRFHeaderName = "X-CSRF-Token"

// TokenVerifier は真正性トークンの検証インターフェース。
// auth.TokenIssuerが実装する。
type TokenVerifier interface {
	Verify(token, sessionID string) error
}

// TokenIssuer は真正性トークンの発行インターフェース。
type TokenIssuer interface {
	Issue(sessionID string) (string, error)
}

// NewCSRFMiddleware は真正性トークンを検証するミドルウェアを返す。
// 安全なメソッド（GET, HEAD, OPTIONS）は検証をスキップする。
// 状態変更メソッドではX-CSRF-Tokenヘッダーのトークンが
// 現在のセッションCookieに束縛されていることを要求する。
func NewCSRFMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(CSRFHeaderName)
			if token == "" {
				slog.Warn("CSRF validation failed: missing header token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				writeCSRFError(w)
				return
			}

			if err := verifier.Verify(token, currentSessionID(r)); err != nil {
				slog.Warn("CSRF validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeCSRFError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewCSRFTokenHandler は真正性トークン取得エンドポイントのハンドラーを返す。
// GET /api/csrf-token
// 未ログインの場合は空のセッションIDに束縛したトークンを返す。
func NewCSRFTokenHandler(issuer TokenIssuer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := issuer.Issue(currentSessionID(r))
		if err != nil {
			slog.Error("failed to issue CSRF token", slog.String("error", err.Error()))
			WriteInternalServerError(w)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"token": token,
		})
	})
}

// currentSessionID はコンテキストまたはCookieからセッションIDを取得する。
func currentSessionID(r *http.Request) string {
	if sid, ok := SessionIDFromContext(r.Context()); ok {
		return sid
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func writeCSRFError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
		Code:     "csrf_token_invalid",
		Message:  "真正性トークンが不正です。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	})
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
