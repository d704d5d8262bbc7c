package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// AuthSessionCache は容量と有効期間で制限されたメモリ上の認証セッションストア。
// 容量を超えた場合は最も古いエントリから追い出す。
type AuthSessionCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, AuthSession]
}

// NewAuthSessionCache はAuthSessionCacheを生成する。
func NewAuthSessionCache(capacity int, ttl time.Duration) *AuthSessionCache {
	if capacity <= 0 {
		capacity = DefaultAuthSessionCapacity
	}
	if ttl <= 0 {
		ttl = DefaultAuthSessionTTL
	}
	return &AuthSessionCache{
		lru: expirable.NewLRU[string, AuthSession](capacity, nil, ttl),
	}
}

// Put は認証セッションを保存する。
func (c *AuthSessionCache) Put(_ context.Context, id string, session AuthSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(id, session)
	return nil
}

// Consume は認証セッションを取り出して削除する。
func (c *AuthSessionCache) Consume(_ context.Context, id string) (AuthSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.lru.Get(id)
	if !ok {
		return AuthSession{}, ErrAuthSessionNotFound
	}
	c.lru.Remove(id)
	return session, nil
}

// Len は保持している認証セッション数を返す。
func (c *AuthSessionCache) Len() int {
	return c.lru.Len()
}

// compile-time interface check
var _ AuthSessionStore = (*AuthSessionCache)(nil)
