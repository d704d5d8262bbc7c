// Package auth はパスワードとTwitterによる認証、ログインセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/beluga/internal/credential"
	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge time.Duration // セッション有効期間
	// Now は現在時刻の取得関数。nilの場合はtime.Now。
	Now func() time.Time
}

// SessionContext はセッション発行時に記録するクライアント情報。
type SessionContext struct {
	IPAddress    string
	LastLocation string
	Device       string
}

// SessionService はログインセッションに関するビジネスロジックを提供する。
type SessionService struct {
	users       repository.UserQueryRepository
	credentials repository.LoginCredentialQueryRepository
	sessions    repository.LoginSessionRepository
	config      ServiceConfig
}

// NewSessionService はSessionServiceを生成する。
func NewSessionService(
	users repository.UserQueryRepository,
	credentials repository.LoginCredentialQueryRepository,
	sessions repository.LoginSessionRepository,
	config ServiceConfig,
) *SessionService {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &SessionService{
		users:       users,
		credentials: credentials,
		sessions:    sessions,
		config:      config,
	}
}

// LoginWithPassword はユーザー名とパスワードを検証してセッションを発行する。
// ユーザーの有無とパスワードの誤りは区別せずinvalid_credentialsとする。
func (s *SessionService) LoginWithPassword(ctx context.Context, name, password string, sc SessionContext) (*model.LoginSession, *model.User, error) {
	u, err := s.users.FindByName(ctx, name)
	if err != nil {
		return nil, nil, newError(ErrCodeInternalError, fmt.Errorf("failed to find user: %w", err))
	}
	if u == nil {
		return nil, nil, newError(ErrCodeInvalidCredentials, nil)
	}

	c, err := s.credentials.FindByUserID(ctx, u.ID)
	if err != nil {
		return nil, nil, newError(ErrCodeInternalError, fmt.Errorf("failed to find login credential: %w", err))
	}
	if !credential.Verify(c, password) {
		slog.Info("password login rejected", slog.Int64("user_id", u.ID))
		return nil, nil, newError(ErrCodeInvalidCredentials, nil)
	}

	session, err := s.CreateSession(ctx, u.ID, sc)
	if err != nil {
		return nil, nil, err
	}
	return session, u, nil
}

// CreateSession はセッションを作成し永続化する。
func (s *SessionService) CreateSession(ctx context.Context, userID int64, sc SessionContext) (*model.LoginSession, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, newError(ErrCodeInternalError, fmt.Errorf("failed to generate session ID: %w", err))
	}

	now := s.config.Now()
	session := &model.LoginSession{
		ID:           sessionID,
		UserID:       userID,
		IPAddress:    sc.IPAddress,
		LastLocation: sc.LastLocation,
		Device:       sc.Device,
		ExpiresAt:    now.Add(s.config.SessionMaxAge),
		CreatedAt:    now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, newError(ErrCodeInternalError, fmt.Errorf("failed to save session: %w", err))
	}

	slog.Info("login session created", slog.Int64("user_id", userID))
	return session, nil
}

// AuthenticateCookie はセッションCookieの値から現在のユーザーを取得する。
func (s *SessionService) AuthenticateCookie(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, newError(ErrCodeSessionNotFound, nil)
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, newError(ErrCodeInternalError, fmt.Errorf("failed to find session: %w", err))
	}
	if session == nil || session.Expired(s.config.Now()) {
		return nil, newError(ErrCodeSessionNotFound, nil)
	}

	u, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, newError(ErrCodeInternalError, fmt.Errorf("failed to find user: %w", err))
	}
	if u == nil {
		return nil, newError(ErrCodeSessionNotFound, nil)
	}
	return u, nil
}

// FindByID はセッションを取得する。期限切れの場合はnilを返す。
func (s *SessionService) FindByID(ctx context.Context, sessionID string) (*model.LoginSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Expired(s.config.Now()) {
		return nil, nil
	}
	return session, nil
}

// Logout はセッションを破棄する。
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return newError(ErrCodeSessionNotFound, nil)
	}

	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return newError(ErrCodeInternalError, fmt.Errorf("failed to delete session: %w", err))
	}

	slog.Info("user logged out")
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
