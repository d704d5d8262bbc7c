package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/hitoshi/beluga/internal/auth"
	"github.com/hitoshi/beluga/internal/config"
	"github.com/hitoshi/beluga/internal/credential"
	"github.com/hitoshi/beluga/internal/database"
	"github.com/hitoshi/beluga/internal/handler"
	"github.com/hitoshi/beluga/internal/logger"
	"github.com/hitoshi/beluga/internal/metrics"
	"github.com/hitoshi/beluga/internal/middleware"
	"github.com/hitoshi/beluga/internal/registration"
	"github.com/hitoshi/beluga/internal/security"
	"github.com/hitoshi/beluga/internal/timeline"
	"github.com/hitoshi/beluga/internal/user"
	"github.com/hitoshi/beluga/internal/validation"
	"github.com/hitoshi/beluga/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再設定
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	if len(args) > 0 && args[0] != string(cmd) {
		slog.Warn("unknown command, falling back to serve", slog.String("command", args[0]))
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("storage_backend", cfg.StorageBackend),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// ストレージに接続し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. ストレージ
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// 3. ドメインサービス
	router, cleanupRouter, err := buildRouter(ctx, cfg, b, collector, metrics.Handler(registry))
	if err != nil {
		return err
	}
	defer cleanupRouter()

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter はbackendの上にサービスとハンドラーを組み立てる。
// 戻り値のcleanupはレートリミッターと認証セッションストアを停止する。
func buildRouter(
	ctx context.Context,
	cfg *config.Config,
	b *backend,
	collector metrics.MetricsCollector,
	metricsHandler http.Handler,
) (http.Handler, func(), error) {
	userPolicy := user.Policy{
		Name: validation.UserNamePolicy{
			MinLength: cfg.UserNameMinLength,
			MaxLength: cfg.UserNameMaxLength,
		},
		DisplayNameMaxLength: cfg.UserDisplayNameMaxLength,
	}
	factory := credential.NewFactory(credential.Policy{
		MinLength:     cfg.PasswordMinLength,
		MaxLength:     cfg.PasswordMaxLength,
		RequireLetter: cfg.PasswordRequireLetter,
		RequireDigit:  cfg.PasswordRequireDigit,
	}, cfg.BcryptCost, nil)

	sessionService := auth.NewSessionService(b.users, b.credentials, b.sessions, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAgeDuration(),
	})
	tokens := auth.NewTokenIssuer([]byte(cfg.SessionSecret), cfg.SessionMaxAgeDuration(), nil)

	accountService := handler.NewAccountServiceAdapter(b.tx, factory, registration.Options{
		RateLimit:  cfg.UserRegistrationLimit,
		UserPolicy: userPolicy,
	}, sessionService, credential.NewService(b.tx, factory))

	rateLimiter := middleware.NewRateLimiter(rateLimiterConfig(cfg))
	closers := []func(){rateLimiter.Stop}
	cleanupFn := func() {
		for _, c := range closers {
			c()
		}
	}

	deps := &handler.RouterDeps{
		Logger:         slog.Default(),
		HealthCheck:    b.healthCheck,
		Metrics:        collector,
		MetricsHandler: metricsHandler,

		SessionFinder:     sessionService,
		TokenIssuer:       tokens,
		TokenVerifier:     tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		AuthService: sessionService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		SessionCreator: sessionService,

		AccountService:  accountService,
		TimelineService: timeline.NewService(b.messages, b.messages.ChannelTimeline(), b.messages.ThreadTimeline()),
		UserService:     user.NewService(b.tx, b.sessions),
	}

	// 4. Twitterログイン（APIキーが設定されている場合のみ）
	if cfg.TwitterEnabled() {
		store, closeStore, err := openAuthSessionStore(ctx, cfg)
		if err != nil {
			cleanupFn()
			return nil, nil, err
		}
		closers = append(closers, closeStore)

		provider := auth.NewTwitterProvider(auth.TwitterConfig{
			ConsumerKey:    cfg.TwitterAPIKey,
			ConsumerSecret: cfg.TwitterAPIKeySecret,
			CallbackURL:    cfg.TwitterCallbackURL,
			HTTPClient:     security.NewOutboundGuard().NewClient(security.DefaultOutboundTimeout),
		})
		deps.TwitterService = auth.NewTwitterService(provider, store, b.tx, auth.TwitterServiceConfig{
			UserPolicy:           userPolicy,
			TrustPolicy:          user.TrustLevelPolicy{TwitterAccountMinAge: cfg.TwitterAccountMinAge},
			DisplayNameSanitizer: security.NewTextSanitizer(),
		})
		slog.Info("twitter login enabled", slog.String("callback_url", cfg.TwitterCallbackURL))
	} else {
		slog.Info("twitter login disabled, TWITTER_API_KEY is not set")
	}

	return handler.NewRouter(deps), cleanupFn, nil
}

// rateLimiterConfig は設定値（req/min, req/hour）をreq/secに変換する。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rl := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rl.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rl.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitSignup > 0 {
		rl.SignupRate = rate.Limit(float64(cfg.RateLimitSignup) / 3600.0)
		rl.SignupBurst = cfg.RateLimitSignup
	}
	return rl
}

// runWorker はワーカーモードで起動する。
// 期限切れログインセッションのクリーンアップを日次で実行する。
// ctxがキャンセルされるとシャットダウンする。
func runWorker(ctx context.Context, cfg *config.Config) error {
	if cfg.StorageBackend == config.StorageBackendMemory {
		return fmt.Errorf("worker requires the %s storage backend", config.StorageBackendPostgres)
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	cleanupJob := cleanup.NewCleanupJob(b.sessions, slog.Default(), nil)
	cleanupJob.RetentionDays = cfg.SessionRetentionDays

	slog.Info("worker starting",
		slog.Int("retention_days", cfg.SessionRetentionDays),
	)

	// ctxがキャンセルされるまでブロックする
	cleanupJob.Start(ctx, 24*time.Hour)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.StorageBackend == config.StorageBackendMemory {
		return fmt.Errorf("migrate requires the %s storage backend", config.StorageBackendPostgres)
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
