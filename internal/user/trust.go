package user

import (
	"time"

	"github.com/hitoshi/beluga/internal/model"
)

// DefaultTwitterAccountMinAge はTwitterアカウントを信頼するために必要な経過期間。
const DefaultTwitterAccountMinAge = 30 * 24 * time.Hour

// TrustLevelPolicy は初期信頼度の判定基準。
type TrustLevelPolicy struct {
	TwitterAccountMinAge time.Duration
}

// TrustLevelInput は初期信頼度の判定に使う登録時の情報。
type TrustLevelInput struct {
	SignedUpWithTwitter     bool
	InvitedByAuthorizedUser bool
	// TwitterAccountCreatedAt はTwitterアカウントの作成日時。不明な場合はゼロ値。
	TwitterAccountCreatedAt time.Time
}

// InitialTrustLevel は新規ユーザーの信頼度を決定する。
//   - 認証済みユーザーから招待された場合はauthorized_user
//   - Twitterで登録しアカウント作成から一定期間経過している場合はauthorized_user
//   - それ以外はvisitor
func InitialTrustLevel(in TrustLevelInput, now time.Time, policy TrustLevelPolicy) model.TrustLevel {
	if in.InvitedByAuthorizedUser {
		return model.TrustLevelAuthorizedUser
	}
	if in.SignedUpWithTwitter && !in.TwitterAccountCreatedAt.IsZero() {
		if now.Sub(in.TwitterAccountCreatedAt) > policy.TwitterAccountMinAge {
			return model.TrustLevelAuthorizedUser
		}
	}
	return model.TrustLevelVisitor
}
