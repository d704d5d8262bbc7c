package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/beluga/internal/metrics"
	"github.com/hitoshi/beluga/internal/middleware"
)

// HealthCheckFunc は依存先の疎通を確認する関数。
type HealthCheckFunc func(ctx context.Context) error

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger         *slog.Logger
	HealthCheck    HealthCheckFunc
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler

	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	TokenIssuer       middleware.TokenIssuer
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService    AuthServiceInterface
	AuthConfig     AuthHandlerConfig
	SessionCreator SessionCreator

	// Twitter。nilの場合はTwitterログインのルートを登録しない
	TwitterService TwitterServiceInterface

	// アカウント
	AccountService AccountServiceInterface

	// タイムライン
	TimelineService TimelineServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → Logging → Metrics → SecurityHeaders → CORS → RateLimit(General)
//	  → (認証が必要なルートのみ) Session → CSRF
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(metrics.NewHTTPMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.Get("/health", healthHandler(deps.HealthCheck))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.TokenIssuer, collector, deps.AuthConfig)
	accountHandler := NewAccountHandler(deps.AccountService, collector, deps.AuthConfig)
	timelineHandler := NewTimelineHandler(deps.TimelineService)
	userHandler := NewUserHandler(deps.UserService, deps.AuthConfig)

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// --- 認証不要のルート ---
		r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.TokenIssuer).ServeHTTP)

		r.With(deps.RateLimiter.SignupMiddleware()).Post("/api/account/signup", accountHandler.Signup)

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/cookie/authenticate", authHandler.AuthenticateCookie)

			if deps.TwitterService != nil {
				twitterHandler := NewTwitterHandler(deps.TwitterService, deps.SessionCreator, collector, deps.AuthConfig)
				r.Get("/twitter/request_token", twitterHandler.RequestToken)
				r.Post("/twitter/authenticate", twitterHandler.Authenticate)
			}
		})

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: Session → CSRF
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
			r.Use(middleware.NewCSRFMiddleware(deps.TokenVerifier))

			r.Put("/api/account/password", accountHandler.ChangePassword)

			r.Route("/api/timeline", func(r chi.Router) {
				r.Get("/channel", timelineHandler.Channel)
				r.Get("/thread", timelineHandler.Thread)
			})

			r.Delete("/api/users/me", userHandler.Withdraw)
		})
	})

	return r
}

// healthHandler は依存先の疎通確認結果を返すハンドラーを生成する。
func healthHandler(check HealthCheckFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
