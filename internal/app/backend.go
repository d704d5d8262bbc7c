package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/beluga/internal/cache"
	"github.com/hitoshi/beluga/internal/config"
	"github.com/hitoshi/beluga/internal/database"
	"github.com/hitoshi/beluga/internal/repository"
	"github.com/hitoshi/beluga/internal/repository/memory"
)

// messageRepository はタイムラインサービスに渡すメッセージリポジトリ。
type messageRepository interface {
	repository.MessageQueryRepository
	ChannelTimeline() repository.ChannelTimelineQueryRepository
	ThreadTimeline() repository.ThreadTimelineQueryRepository
}

// backend はストレージ依存をまとめたもの。
type backend struct {
	tx          repository.Transactor
	users       repository.UserQueryRepository
	credentials repository.LoginCredentialQueryRepository
	sessions    repository.LoginSessionRepository
	messages    messageRepository
	healthCheck func(ctx context.Context) error
	closers     []func()
}

// Close は開いた接続を逆順に閉じる。
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend は設定に応じたストレージバックエンドを開く。
// postgresではユーザーと資格情報とメッセージをPostgreSQLに、ログインセッションをMongoDBに置く。
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.StorageBackend == config.StorageBackendMemory {
		slog.Warn("using in-memory storage backend, data is lost on restart")
		store := memory.NewStore()
		return &backend{
			tx:          store,
			users:       store.Users(),
			credentials: store.LoginCredentials(),
			sessions:    store.LoginSessions(),
			messages:    store.Messages(),
		}, nil
	}

	b := &backend{}

	db, err := database.Open(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	b.closers = append(b.closers, func() { db.Close() })

	if err := db.PingContext(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")

	mongoDB, err := database.OpenMongo(ctx, cfg.MongoDBURI, cfg.MongoDBName)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	b.closers = append(b.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Client().Disconnect(ctx); err != nil {
			slog.Error("failed to disconnect mongodb", slog.String("error", err.Error()))
		}
	})
	slog.Info("mongodb connection established", slog.String("database", cfg.MongoDBName))

	sessionRepo := repository.NewMongoLoginSessionRepo(mongoDB)
	if err := sessionRepo.EnsureIndexes(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to ensure session indexes: %w", err)
	}

	b.tx = repository.NewPostgresTransactor(db)
	b.users = repository.NewPostgresUserRepo(db)
	b.credentials = repository.NewPostgresLoginCredentialRepo(db)
	b.sessions = sessionRepo
	b.messages = repository.NewPostgresMessageRepo(db)
	b.healthCheck = func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := mongoDB.Client().Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongodb: %w", err)
		}
		return nil
	}
	return b, nil
}

// openAuthSessionStore はTwitterログインの認証セッションストアを開く。
// REDIS_URLが設定されていればRedisを使い、なければプロセス内のLRUキャッシュを使う。
func openAuthSessionStore(ctx context.Context, cfg *config.Config) (cache.AuthSessionStore, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewAuthSessionCache(cfg.AuthSessionCapacity, cfg.AuthSessionTTL), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("redis connection established", slog.String("addr", opts.Addr))

	return cache.NewRedisAuthSessionStore(client, cfg.AuthSessionTTL), func() { client.Close() }, nil
}
