package handler

import (
	"context"

	"github.com/hitoshi/beluga/internal/credential"
	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/registration"
	"github.com/hitoshi/beluga/internal/repository"
)

// AccountServiceAdapter は registration.Service と credential.Service を AccountServiceInterface に適合させるアダプタ。
// 登録処理はトランザクション内で行い、失敗した場合は作成済みのユーザーも取り消される。
type AccountServiceAdapter struct {
	tx          repository.Transactor
	factory     *credential.Factory
	options     registration.Options
	sessions    SessionCreator
	credentials *credential.Service
}

// NewAccountServiceAdapter はAccountServiceAdapterを生成する。
func NewAccountServiceAdapter(
	tx repository.Transactor,
	factory *credential.Factory,
	options registration.Options,
	sessions SessionCreator,
	credentials *credential.Service,
) *AccountServiceAdapter {
	return &AccountServiceAdapter{
		tx:          tx,
		factory:     factory,
		options:     options,
		sessions:    sessions,
		credentials: credentials,
	}
}

// Signup はユーザーを登録し、コミット後にログインセッションを発行する。
func (a *AccountServiceAdapter) Signup(ctx context.Context, in SignupInput) (*model.User, *model.LoginSession, error) {
	var created *model.User
	err := a.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		u, err := registration.NewService(repos, a.factory, a.options).Register(ctx, registration.Input{
			Name:         in.Name,
			Password:     in.Password,
			IPAddress:    in.Session.IPAddress,
			LastLocation: in.Session.LastLocation,
			Device:       in.Session.Device,
		})
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	session, err := a.sessions.CreateSession(ctx, created.ID, in.Session)
	if err != nil {
		return nil, nil, err
	}
	return created, session, nil
}

// ChangePassword はパスワードを変更する。
func (a *AccountServiceAdapter) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	return a.credentials.ChangePassword(ctx, userID, currentPassword, newPassword)
}

// --- compile-time interface checks ---

var _ AccountServiceInterface = (*AccountServiceAdapter)(nil)
