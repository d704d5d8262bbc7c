package user

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
)

// DefaultRegistrationLimit は同一IPアドレスからの登録を拒否する期間のデフォルト値。
const DefaultRegistrationLimit = 24 * time.Hour

// RegistrationRateLimitChecker は同一IPアドレスからの連続登録を検査する。
// 読み取り専用で副作用を持たない。
type RegistrationRateLimitChecker struct {
	users repository.UserQueryRepository
	limit time.Duration
	now   func() time.Time
}

// NewRegistrationRateLimitChecker はRegistrationRateLimitCheckerを生成する。
// nowがnilの場合はtime.Nowを使う。
func NewRegistrationRateLimitChecker(users repository.UserQueryRepository, limit time.Duration, now func() time.Time) *RegistrationRateLimitChecker {
	if now == nil {
		now = time.Now
	}
	return &RegistrationRateLimitChecker{users: users, limit: limit, now: now}
}

// IsRateLimited はipAddressからの新規登録が制限中かどうかを返す。
// 直近の登録からの経過時間が制限時間未満であれば制限中とする。
// 時刻のずれで経過時間が負になった場合も制限中として扱う。
func (c *RegistrationRateLimitChecker) IsRateLimited(ctx context.Context, ipAddress string) (bool, error) {
	users, err := c.users.FindByRegistrationIPAddress(ctx, ipAddress, repository.SortByCreatedAt, model.SortOrderDescending)
	if err != nil {
		return false, fmt.Errorf("failed to find users by registration ip address: %w", err)
	}
	if len(users) == 0 {
		return false, nil
	}
	elapsed := c.now().Sub(users[0].CreatedAt)
	return elapsed < c.limit, nil
}

// TryCheckIfRateIsLimited は制限中の場合にErrCodeRegistrationRateLimitedを返す。
func (c *RegistrationRateLimitChecker) TryCheckIfRateIsLimited(ctx context.Context, ipAddress string) error {
	limited, err := c.IsRateLimited(ctx, ipAddress)
	if err != nil {
		return err
	}
	if limited {
		return newError(ErrCodeRegistrationRateLimited, nil)
	}
	return nil
}
