package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix は認証セッションのキー接頭辞。
const redisKeyPrefix = "auth_session:"

// RedisAuthSessionStore はRedisを使用した認証セッションストア。
// 複数インスタンスで認証セッションを共有する場合に使う。
type RedisAuthSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAuthSessionStore はRedisAuthSessionStoreを生成する。
func NewRedisAuthSessionStore(client *redis.Client, ttl time.Duration) *RedisAuthSessionStore {
	if ttl <= 0 {
		ttl = DefaultAuthSessionTTL
	}
	return &RedisAuthSessionStore{client: client, ttl: ttl}
}

// Put は認証セッションをTTL付きで保存する。
func (s *RedisAuthSessionStore) Put(ctx context.Context, id string, session AuthSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode auth session: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+id, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store auth session: %w", err)
	}
	return nil
}

// Consume はGETDELで認証セッションを取得と同時に削除する。
func (s *RedisAuthSessionStore) Consume(ctx context.Context, id string) (AuthSession, error) {
	data, err := s.client.GetDel(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return AuthSession{}, ErrAuthSessionNotFound
	}
	if err != nil {
		return AuthSession{}, fmt.Errorf("failed to consume auth session: %w", err)
	}

	var session AuthSession
	if err := json.Unmarshal(data, &session); err != nil {
		return AuthSession{}, fmt.Errorf("failed to decode auth session: %w", err)
	}
	return session, nil
}

// compile-time interface check
var _ AuthSessionStore = (*RedisAuthSessionStore)(nil)
