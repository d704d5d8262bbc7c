// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
)

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	tx          repository.Transactor
	sessionRepo repository.LoginSessionRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(tx repository.Transactor, sessionRepo repository.LoginSessionRepository) *Service {
	return &Service{
		tx:          tx,
		sessionRepo: sessionRepo,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: sessions → login_credentials → user（+ CASCADE: messages）
// 資格情報とユーザーの削除は同一トランザクションで行う。
func (s *Service) Withdraw(ctx context.Context, userID int64) error {
	slog.Info("starting account withdrawal",
		slog.Int64("user_id", userID),
	)

	// 1. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete login sessions: %w", err)
		}
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// ユーザー存在確認
		user, err := repos.Users.FindByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to find user: %w", err)
		}
		if user == nil {
			return model.NewUserNotFoundError()
		}

		// 2. 資格情報を削除（Twitter登録ユーザーは持たない）
		if _, err := repos.LoginCredentials.Delete(ctx, &model.LoginCredential{UserID: userID}); err != nil {
			return fmt.Errorf("failed to delete login credential: %w", err)
		}

		// 3. ユーザーを削除
		deleted, err := repos.Users.Delete(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if !deleted {
			return model.NewUserNotFoundError()
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("account withdrawal completed",
		slog.Int64("user_id", userID),
	)

	return nil
}
