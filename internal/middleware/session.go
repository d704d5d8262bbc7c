// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/hitoshi/beluga/internal/model"
)

// SessionCookieName はログインセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userIDContextKey      = contextKey("user_id")
	sessionIDContextKey   = contextKey("session_id")
	requestUserContextKey = contextKey("request_user")
)

// requestUser は外側のミドルウェアに認証済みユーザーIDを伝える。
type requestUser struct {
	userID int64
	set    bool
}

func withRequestUser(ctx context.Context, u *requestUser) context.Context {
	return context.WithValue(ctx, requestUserContextKey, u)
}

// SessionFinder はセッションの検索に必要なインターフェース。
// 期限切れのセッションにはnilを返す。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.LoginSession, error)
}

// NewSessionMiddleware はHTTP Only Cookieからログインセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みユーザーIDとセッションIDをリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewSessionNotFoundError())
				return
			}

			if u, ok := r.Context().Value(requestUserContextKey).(*requestUser); ok {
				u.userID, u.set = session.UserID, true
			}
			ctx := ContextWithSession(r.Context(), session.UserID, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	if !ok || userID <= 0 {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// SessionIDFromContext はリクエストコンテキストからセッションIDを取得する。
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDContextKey).(string)
	return sessionID, ok && sessionID != ""
}

// ContextWithSession はコンテキストにユーザーIDとセッションIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, userID int64, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userIDContextKey, userID)
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

// ClientIP はリクエスト元のIPアドレスを返す。
// プロキシ配下ではchiのRealIPミドルウェアでRemoteAddrを書き換えておく。
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
