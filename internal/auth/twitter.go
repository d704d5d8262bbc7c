package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/beluga/internal/cache"
	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
	"github.com/hitoshi/beluga/internal/security"
	"github.com/hitoshi/beluga/internal/user"
)

// TwitterAPI はTwitter OAuth 1.0aの操作インターフェース。
type TwitterAPI interface {
	// RequestToken はリクエストトークンを取得する。
	RequestToken(ctx context.Context) (token, secret string, err error)
	// AuthorizationURL はユーザーを誘導する認可URLを返す。
	AuthorizationURL(requestToken string) (string, error)
	// AccessToken はリクエストトークンとverifierをアクセストークンに交換する。
	AccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (token, secret string, err error)
	// VerifyCredentials はアクセストークンでユーザー情報を取得する。
	VerifyCredentials(ctx context.Context, accessToken, accessSecret string) (*TwitterUser, error)
}

// TwitterServiceConfig はTwitterログインの設定。
type TwitterServiceConfig struct {
	UserPolicy  user.Policy
	TrustPolicy user.TrustLevelPolicy
	// DisplayNameSanitizer はTwitterの表示名からマークアップを除去する。nilの場合は除去しない。
	DisplayNameSanitizer security.TextSanitizer
	// Now は現在時刻の取得関数。nilの場合はtime.Now。
	Now func() time.Time
}

// RequestTokenResult はリクエストトークン発行の結果。
// リクエストトークンのシークレットはサーバー側の認証セッションにのみ保持する。
type RequestTokenResult struct {
	OAuthToken       string
	AuthSessionID    string
	AuthorizationURL string
}

// AuthenticateInput はTwitterログインの入力。
type AuthenticateInput struct {
	AuthSessionID string
	OAuthToken    string
	OAuthVerifier string
	IPAddress     string
}

// AuthenticateResult はTwitterログインの結果。
type AuthenticateResult struct {
	User    *model.User
	Created bool
}

// TwitterService はTwitterによるソーシャルログインのオーケストレーター。
type TwitterService struct {
	api      TwitterAPI
	sessions cache.AuthSessionStore
	tx       repository.Transactor
	config   TwitterServiceConfig
}

// NewTwitterService はTwitterServiceを生成する。
func NewTwitterService(api TwitterAPI, sessions cache.AuthSessionStore, tx repository.Transactor, config TwitterServiceConfig) *TwitterService {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &TwitterService{
		api:      api,
		sessions: sessions,
		tx:       tx,
		config:   config,
	}
}

// RequestToken はリクエストトークンを取得し、単回使用の認証セッションを発行する。
func (s *TwitterService) RequestToken(ctx context.Context) (*RequestTokenResult, error) {
	token, secret, err := s.api.RequestToken(ctx)
	if err != nil {
		return nil, newError(ErrCodeAPIAuthError, err)
	}
	authURL, err := s.api.AuthorizationURL(token)
	if err != nil {
		return nil, newError(ErrCodeInternalError, err)
	}

	sessionID := uuid.NewString()
	if err := s.sessions.Put(ctx, sessionID, cache.AuthSession{
		RequestToken:       token,
		RequestTokenSecret: secret,
	}); err != nil {
		return nil, newError(ErrCodeInternalError, err)
	}

	return &RequestTokenResult{
		OAuthToken:       token,
		AuthSessionID:    sessionID,
		AuthorizationURL: authURL,
	}, nil
}

// Authenticate は認証セッションを消費してTwitterの本人確認を行い、ユーザーを返す。
// 未登録の場合はユーザーを作成する。返すエラーは常に*Error。
func (s *TwitterService) Authenticate(ctx context.Context, in AuthenticateInput) (*AuthenticateResult, error) {
	if in.AuthSessionID == "" {
		return nil, newError(ErrCodeInvalidSession, nil)
	}
	session, err := s.sessions.Consume(ctx, in.AuthSessionID)
	if errors.Is(err, cache.ErrAuthSessionNotFound) {
		return nil, newError(ErrCodeInvalidSession, err)
	}
	if err != nil {
		return nil, newError(ErrCodeInternalError, err)
	}
	if session.RequestToken != in.OAuthToken {
		return nil, newError(ErrCodeInvalidSession, fmt.Errorf("oauth token does not match auth session"))
	}

	accessToken, accessSecret, err := s.api.AccessToken(ctx, in.OAuthToken, session.RequestTokenSecret, in.OAuthVerifier)
	if err != nil {
		return nil, newError(ErrCodeAPIAuthError, err)
	}
	twitterUser, err := s.api.VerifyCredentials(ctx, accessToken, accessSecret)
	if err != nil {
		return nil, newError(ErrCodeAPIResponseError, err)
	}

	var result AuthenticateResult
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		existing, err := repos.Users.FindByTwitterUserID(ctx, twitterUser.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = AuthenticateResult{User: existing}
			return nil
		}

		created, err := s.createUser(ctx, repos.Users, twitterUser, in.IPAddress)
		if err != nil {
			return err
		}
		result = AuthenticateResult{User: created, Created: true}
		return nil
	})
	if err != nil {
		slog.Error("twitter login failed",
			slog.String("twitter_user_id", twitterUser.ID),
			slog.String("error", err.Error()),
		)
		return nil, newError(ErrCodeInternalError, err)
	}

	slog.Info("twitter login succeeded",
		slog.Int64("user_id", result.User.ID),
		slog.Bool("created", result.Created),
	)
	return &result, nil
}

func (s *TwitterService) createUser(ctx context.Context, users repository.UserRepository, tu *TwitterUser, ipAddress string) (*model.User, error) {
	name, err := s.generateUserName(ctx, users, tu.ScreenName)
	if err != nil {
		return nil, err
	}

	displayName := tu.Name
	if s.config.DisplayNameSanitizer != nil {
		displayName = s.config.DisplayNameSanitizer.Sanitize(displayName)
	}

	now := s.config.Now()
	u, err := user.NewUser(user.NewUserParams{
		Name:                  name,
		DisplayName:           truncateRunes(displayName, s.config.UserPolicy.DisplayNameMaxLength),
		RegistrationIPAddress: ipAddress,
		TwitterUserID:         tu.ID,
		TrustLevel: user.InitialTrustLevel(user.TrustLevelInput{
			SignedUpWithTwitter:     true,
			TwitterAccountCreatedAt: tu.CreatedAt,
		}, now, s.config.TrustPolicy),
		CreatedAt: now,
	}, s.config.UserPolicy)
	if err != nil {
		return nil, err
	}

	id, err := users.Add(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id
	return u, nil
}

// generateUserName はスクリーンネームが使えればそれを、使えなければランダムな名前を返す。
// ランダムな名前の再試行は一度だけ行い、二つ目の候補は検査せずに採用する。
func (s *TwitterService) generateUserName(ctx context.Context, users repository.UserQueryRepository, screenName string) (string, error) {
	checker := user.NewNameAvailabilityChecker(users)

	if s.config.UserPolicy.Name.IsUserName(screenName) {
		taken, err := checker.IsNameTaken(ctx, screenName)
		if err != nil {
			return "", err
		}
		if !taken {
			return screenName, nil
		}
	}

	length := s.config.UserPolicy.Name.RandomNameLength()
	name, err := user.GenerateRandomName(length)
	if err != nil {
		return "", err
	}
	taken, err := checker.IsNameTaken(ctx, name)
	if err != nil {
		return "", err
	}
	if !taken {
		return name, nil
	}
	return user.GenerateRandomName(length)
}

// truncateRunes はsを最大maxLength文字に切り詰める。maxLengthが0以下の場合はそのまま返す。
func truncateRunes(s string, maxLength int) string {
	if maxLength <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength])
}
