// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/beluga/internal/model"
)

// ErrUserNameConflict はユーザー名の一意制約違反を表す。
// アプリケーション層の事前チェックをすり抜けた同名登録はストアがこのエラーで拒否する。
var ErrUserNameConflict = errors.New("user name already exists")

// SortBy はユーザー一覧の並び替えキー。
type SortBy string

const (
	SortByCreatedAt SortBy = "created_at"
	SortByID        SortBy = "id"
)

// UserQueryRepository はユーザーの読み取りインターフェース。
type UserQueryRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByName はユーザー名が完全一致するユーザーを取得する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.User, error)

	// FindByRegistrationIPAddress は指定IPアドレスから登録されたユーザーを並び順付きで返す。
	FindByRegistrationIPAddress(ctx context.Context, ipAddress string, sortBy SortBy, sortOrder model.SortOrder) ([]*model.User, error)

	// FindByTwitterUserID はTwitterのユーザーIDに紐づくユーザーを取得する。見つからない場合はnilを返す。
	FindByTwitterUserID(ctx context.Context, twitterUserID string) (*model.User, error)
}

// UserCommandRepository はユーザーの書き込みインターフェース。
type UserCommandRepository interface {
	// Add はユーザーを追加し、採番されたIDを返す。
	// ユーザー名が重複する場合はErrUserNameConflictを返す。
	Add(ctx context.Context, user *model.User) (int64, error)

	// Delete は指定IDのユーザーを削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}

// UserRepository はユーザーの読み書きインターフェース。
type UserRepository interface {
	UserQueryRepository
	UserCommandRepository
}

// LoginCredentialQueryRepository はログイン資格情報の読み取りインターフェース。
type LoginCredentialQueryRepository interface {
	// FindByUserID はユーザーの資格情報を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID int64) (*model.LoginCredential, error)
}

// LoginCredentialCommandRepository はログイン資格情報の書き込みインターフェース。
type LoginCredentialCommandRepository interface {
	// Add は資格情報を追加する。
	Add(ctx context.Context, credential *model.LoginCredential) error

	// Update は資格情報を丸ごと置き換える。対象が存在した場合はtrueを返す。
	Update(ctx context.Context, credential *model.LoginCredential) (bool, error)

	// Delete は資格情報を削除する。対象が存在した場合はtrueを返す。
	Delete(ctx context.Context, credential *model.LoginCredential) (bool, error)
}

// LoginCredentialRepository はログイン資格情報の読み書きインターフェース。
type LoginCredentialRepository interface {
	LoginCredentialQueryRepository
	LoginCredentialCommandRepository
}

// LoginSessionRepository はログインセッションの永続化インターフェース。
type LoginSessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.LoginSession) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.LoginSession, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
	// DeleteExpiredBefore はexpires_atが指定時刻より前のセッションを削除し、削除件数を返す。
	DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}

// TimelineParams はタイムライン取得の共通パラメータ。
// SinceIDとMaxIDは0の場合に未指定として扱う。両方指定された場合はSinceIDを優先する。
type TimelineParams struct {
	SortOrder model.SortOrder
	Limit     int
	SinceID   int64
	MaxID     int64
}

// MessageQueryRepository はメッセージの読み取りインターフェース。
type MessageQueryRepository interface {
	// FindByID は指定IDのメッセージを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Message, error)
}

// ChannelTimelineQueryRepository はチャンネルタイムラインの読み取りインターフェース。
type ChannelTimelineQueryRepository interface {
	// ListMessage はチャンネルのトップレベルメッセージ（スレッド返信を除く）を返す。
	ListMessage(ctx context.Context, channelID int64, params TimelineParams) ([]*model.Message, error)
}

// ThreadTimelineQueryRepository はスレッドタイムラインの読み取りインターフェース。
type ThreadTimelineQueryRepository interface {
	// ListMessage はスレッドへの返信メッセージを返す。
	ListMessage(ctx context.Context, threadID int64, params TimelineParams) ([]*model.Message, error)
}

// Repositories はトランザクションに束縛されたリポジトリの組。
type Repositories struct {
	Users            UserRepository
	LoginCredentials LoginCredentialRepository
}

// Transactor はリポジトリ操作を単一のトランザクションで実行する。
// fnがエラーを返した場合はfn内の全ての書き込みを取り消す。
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
