// Package registration はパスワードによるユーザー登録を提供する。
package registration

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/beluga/internal/credential"
	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
	"github.com/hitoshi/beluga/internal/user"
)

// Input はユーザー登録の入力。
type Input struct {
	Name         string
	Password     string
	IPAddress    string
	LastLocation string
	Device       string
}

// Options は登録処理の設定。
type Options struct {
	// RateLimit は同一IPアドレスからの登録を拒否する期間。
	RateLimit  time.Duration
	UserPolicy user.Policy
	// Now は現在時刻の取得関数。nilの場合はtime.Now。
	Now func() time.Time
}

// Service はユーザー登録のオーケストレーター。
// トランザクションは保持せず、呼び出し元がトランザクションに束縛したリポジトリを渡す。
type Service struct {
	users       repository.UserRepository
	credentials repository.LoginCredentialCommandRepository
	rateLimit   *user.RegistrationRateLimitChecker
	names       *user.NameAvailabilityChecker
	factory     *credential.Factory
	policy      user.Policy
	now         func() time.Time
}

// NewService はreposに束縛したServiceを生成する。
func NewService(repos repository.Repositories, factory *credential.Factory, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		users:       repos.Users,
		credentials: repos.LoginCredentials,
		rateLimit:   user.NewRegistrationRateLimitChecker(repos.Users, opts.RateLimit, now),
		names:       user.NewNameAvailabilityChecker(repos.Users),
		factory:     factory,
		policy:      opts.UserPolicy,
		now:         now,
	}
}

// Register はユーザーとログイン資格情報を作成する。
// 返すエラーは常に*Errorで、Codeは閉じた集合のいずれか。
// 資格情報の作成に失敗した場合もエラーを返すため、呼び出し元のトランザクションで
// 作成済みのユーザーを取り消せる。
func (s *Service) Register(ctx context.Context, in Input) (*model.User, error) {
	u, err := s.register(ctx, in)
	if err != nil {
		regErr := translate(err)
		if regErr.Code == ErrCodeInternalError {
			slog.Error("user registration failed",
				slog.String("ip_address", in.IPAddress),
				slog.String("error", err.Error()),
			)
		} else {
			slog.Info("user registration rejected",
				slog.String("ip_address", in.IPAddress),
				slog.String("code", string(regErr.Code)),
			)
		}
		return nil, regErr
	}

	slog.Info("user registered",
		slog.Int64("user_id", u.ID),
		slog.String("ip_address", in.IPAddress),
		slog.String("device", in.Device),
	)
	return u, nil
}

func (s *Service) register(ctx context.Context, in Input) (*model.User, error) {
	if err := s.rateLimit.TryCheckIfRateIsLimited(ctx, in.IPAddress); err != nil {
		return nil, err
	}
	if err := s.names.TryCheckIfNameIsTaken(ctx, in.Name); err != nil {
		return nil, err
	}

	u, err := user.NewUser(user.NewUserParams{
		Name:                  in.Name,
		RegistrationIPAddress: in.IPAddress,
		TrustLevel: user.InitialTrustLevel(user.TrustLevelInput{
			SignedUpWithTwitter:     false,
			InvitedByAuthorizedUser: false,
		}, s.now(), user.TrustLevelPolicy{}),
		CreatedAt: s.now(),
	}, s.policy)
	if err != nil {
		return nil, err
	}

	id, err := s.users.Add(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id

	c, err := s.factory.Create(u.ID, in.Password)
	if err != nil {
		return nil, err
	}
	if err := s.credentials.Add(ctx, c); err != nil {
		return nil, err
	}

	u.LoginCredential = c
	return u, nil
}
