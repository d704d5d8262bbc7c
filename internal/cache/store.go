// Package cache はTwitterログインの一時的な認証セッションを保持する。
// 認証セッションは一度だけ消費でき、一定時間で失効する。
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultAuthSessionTTL は認証セッションの有効期間のデフォルト値。
const DefaultAuthSessionTTL = 600 * time.Second

// DefaultAuthSessionCapacity はメモリ上に保持する認証セッション数の上限のデフォルト値。
const DefaultAuthSessionCapacity = 1000

// ErrAuthSessionNotFound は認証セッションが存在しないか失効済みであることを表す。
var ErrAuthSessionNotFound = errors.New("auth session not found")

// AuthSession はOAuthリクエストトークン発行時に保存する情報。
type AuthSession struct {
	RequestToken       string `json:"request_token"`
	RequestTokenSecret string `json:"request_token_secret"`
}

// AuthSessionStore は単回使用の認証セッションストア。
type AuthSessionStore interface {
	// Put は認証セッションを保存する。
	Put(ctx context.Context, id string, session AuthSession) error
	// Consume は認証セッションを取得すると同時に削除する。
	// 存在しない場合はErrAuthSessionNotFoundを返す。
	Consume(ctx context.Context, id string) (AuthSession, error)
}
