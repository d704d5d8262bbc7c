// Package memory はプロセス内メモリ上のリポジトリ実装を提供する。
// 開発環境とテストで使用し、PostgreSQLと同じトランザクション境界を再現する。
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
)

// state はトランザクションで保護されるユーザーと資格情報。
type state struct {
	users       map[int64]model.User
	credentials map[int64]model.LoginCredential
	nextUserID  int64
}

func newState() *state {
	return &state{
		users:       make(map[int64]model.User),
		credentials: make(map[int64]model.LoginCredential),
		nextUserID:  1,
	}
}

func (s *state) clone() *state {
	c := &state{
		users:       make(map[int64]model.User, len(s.users)),
		credentials: make(map[int64]model.LoginCredential, len(s.credentials)),
		nextUserID:  s.nextUserID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.credentials {
		c.credentials[k] = v
	}
	return c
}

// Store はメモリ上の永続化ストア。
type Store struct {
	mu       sync.Mutex
	state    *state
	sessions map[string]model.LoginSession
	messages map[int64]model.Message
	now      func() time.Time
}

// NewStore は空のStoreを生成する。
func NewStore() *Store {
	return &Store{
		state:    newState(),
		sessions: make(map[string]model.LoginSession),
		messages: make(map[int64]model.Message),
		now:      time.Now,
	}
}

// SetClock は期限判定に使う現在時刻の取得関数を差し替える。
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// WithinTransaction はステージング用の状態に対してfnを実行し、成功時のみ反映する。
// トランザクションは直列に実行される。fn内から自動コミットのリポジトリを呼んではならない。
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(ctx, repository.Repositories{
		Users:            &userRepo{st: staged},
		LoginCredentials: &credentialRepo{st: staged},
	}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// Users は自動コミットのユーザーリポジトリを返す。
func (s *Store) Users() repository.UserRepository {
	return &autoUserRepo{s: s}
}

// LoginCredentials は自動コミットの資格情報リポジトリを返す。
func (s *Store) LoginCredentials() repository.LoginCredentialRepository {
	return &autoCredentialRepo{s: s}
}

// LoginSessions はログインセッションリポジトリを返す。
func (s *Store) LoginSessions() *LoginSessionRepo {
	return &LoginSessionRepo{s: s}
}

// Messages はメッセージリポジトリを返す。
func (s *Store) Messages() *MessageRepo {
	return &MessageRepo{s: s}
}

// compile-time interface check
var _ repository.Transactor = (*Store)(nil)
