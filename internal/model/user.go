// Package model はドメインモデルを定義する。
package model

import "time"

// UnsavedID は永続化前のエンティティに割り当てる仮のID。
// ストアへの追加後に採番されたIDで上書きされる。
const UnsavedID int64 = -1

// TrustLevel はユーザーの信頼度を表す。
// 権限判定などで使用する。
type TrustLevel string

const (
	TrustLevelVisitor        TrustLevel = "visitor"
	TrustLevelAuthorizedUser TrustLevel = "authorized_user"
	TrustLevelModerator      TrustLevel = "moderator"
)

// User はサービス利用ユーザーを表す。
type User struct {
	ID                    int64
	Name                  string
	DisplayName           string
	RegistrationIPAddress string
	TrustLevel            TrustLevel
	TwitterUserID         string // Twitter連携していない場合は空
	CreatedAt             time.Time

	// LoginCredential は登録直後のみ設定される。ストアからの読み込みでは常にnil。
	LoginCredential *LoginCredential
}

// LoginCredential はパスワード認証用の資格情報を表す。
// 平文パスワードは保持しない。
type LoginCredential struct {
	UserID       int64
	PasswordHash string
	CreatedAt    time.Time
}

// LoginSession はユーザーのログインセッションを表す。
type LoginSession struct {
	ID           string
	UserID       int64
	IPAddress    string
	LastLocation string
	Device       string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired はセッションが指定時刻の時点で期限切れかどうかを返す。
func (s *LoginSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
