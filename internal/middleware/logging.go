package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewLoggingMiddleware は1リクエストにつき1行のhttp_requestログを出力する。
// 5xxはERROR、4xxはWARN、それ以外はINFOで記録する。
// ユーザーIDはセッション認証済みのリクエストでのみ付与される。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			// セッションミドルウェアが認証済みユーザーIDを書き戻す
			holder := &requestUser{}
			next.ServeHTTP(ww, r.WithContext(withRequestUser(r.Context(), holder)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []slog.Attr{
				slog.String("request_id", chimw.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("ip_address", ClientIP(r)),
			}
			if userID, err := UserIDFromContext(r.Context()); err == nil {
				attrs = append(attrs, slog.Int64("user_id", userID))
			} else if holder.set {
				attrs = append(attrs, slog.Int64("user_id", holder.userID))
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http_request", attrs...)
		})
	}
}
