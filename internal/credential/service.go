package credential

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/beluga/internal/repository"
)

// Service はパスワード変更のサービス層。
type Service struct {
	tx      repository.Transactor
	factory *Factory
}

// NewService はServiceを生成する。
func NewService(tx repository.Transactor, factory *Factory) *Service {
	return &Service{tx: tx, factory: factory}
}

// ChangePassword は現在のパスワードを確認してから資格情報を置き換える。
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.LoginCredentials.FindByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to find login credential: %w", err)
		}
		if current == nil {
			return &Error{Code: ErrCodeCredentialNotFound}
		}
		if !Verify(current, currentPassword) {
			return &Error{Code: ErrCodeIncorrectPassword}
		}

		next, err := s.factory.Create(userID, newPassword)
		if err != nil {
			return err
		}
		updated, err := repos.LoginCredentials.Update(ctx, next)
		if err != nil {
			return fmt.Errorf("failed to update login credential: %w", err)
		}
		if !updated {
			return &Error{Code: ErrCodeCredentialNotFound}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("password changed", slog.Int64("user_id", userID))
	return nil
}
