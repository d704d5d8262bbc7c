package memory

import (
	"context"
	"time"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
)

// LoginSessionRepo はメモリ上のログインセッションリポジトリ。
type LoginSessionRepo struct {
	s *Store
}

func (r *LoginSessionRepo) Create(_ context.Context, session *model.LoginSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.ID] = *session
	return nil
}

func (r *LoginSessionRepo) FindByID(_ context.Context, id string) (*model.LoginSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok || session.Expired(r.s.now()) {
		return nil, nil
	}
	return &session, nil
}

func (r *LoginSessionRepo) DeleteByID(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

func (r *LoginSessionRepo) DeleteByUserID(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, session := range r.s.sessions {
		if session.UserID == userID {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

func (r *LoginSessionRepo) DeleteExpiredBefore(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	for id, session := range r.s.sessions {
		if !session.ExpiresAt.After(before) {
			delete(r.s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// compile-time interface check
var _ repository.LoginSessionRepository = (*LoginSessionRepo)(nil)
