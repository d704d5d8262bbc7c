package user

import (
	"context"
	"fmt"

	"github.com/hitoshi/beluga/internal/repository"
)

// NameAvailabilityChecker はユーザー名が既に使われているかを検査する。
// 大文字小文字を区別した完全一致で判定する。
type NameAvailabilityChecker struct {
	users repository.UserQueryRepository
}

// NewNameAvailabilityChecker はNameAvailabilityCheckerを生成する。
func NewNameAvailabilityChecker(users repository.UserQueryRepository) *NameAvailabilityChecker {
	return &NameAvailabilityChecker{users: users}
}

// IsNameTaken はnameのユーザーが存在するかどうかを返す。
func (c *NameAvailabilityChecker) IsNameTaken(ctx context.Context, name string) (bool, error) {
	existing, err := c.users.FindByName(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to find user by name: %w", err)
	}
	return existing != nil, nil
}

// TryCheckIfNameIsTaken は使用済みの場合にErrCodeNameTakenを返す。
func (c *NameAvailabilityChecker) TryCheckIfNameIsTaken(ctx context.Context, name string) error {
	taken, err := c.IsNameTaken(ctx, name)
	if err != nil {
		return err
	}
	if taken {
		return newError(ErrCodeNameTaken, nil)
	}
	return nil
}
