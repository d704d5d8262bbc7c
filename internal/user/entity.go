package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/validation"
)

// randomNameAlphabet はランダムなユーザー名に使う文字。
const randomNameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Policy はユーザーエンティティの制約。
type Policy struct {
	Name                 validation.UserNamePolicy
	DisplayNameMaxLength int
}

// DefaultPolicy はデフォルトのユーザーポリシーを返す。
func DefaultPolicy() Policy {
	return Policy{
		Name:                 validation.DefaultUserNamePolicy(),
		DisplayNameMaxLength: 32,
	}
}

// NewUserParams はユーザー生成時の入力。
type NewUserParams struct {
	Name                  string
	DisplayName           string
	RegistrationIPAddress string
	TwitterUserID         string
	TrustLevel            model.TrustLevel
	CreatedAt             time.Time
}

// NewUser は制約を検証して未保存のユーザーを生成する。
// IDはmodel.UnsavedIDとなり、ストアへの追加後に上書きする。
func NewUser(params NewUserParams, policy Policy) (*model.User, error) {
	if err := policy.Name.CheckUserName(params.Name); err != nil {
		return nil, newError(ErrCodeInvalidName, err)
	}
	if err := validation.CheckDisplayName(params.DisplayName, policy.DisplayNameMaxLength); err != nil {
		return nil, newError(ErrCodeInvalidDisplayName, err)
	}
	if err := validation.CheckIPAddress(params.RegistrationIPAddress); err != nil {
		return nil, newError(ErrCodeInvalidIPAddress, err)
	}

	trustLevel := params.TrustLevel
	if trustLevel == "" {
		trustLevel = model.TrustLevelVisitor
	}

	return &model.User{
		ID:                    model.UnsavedID,
		Name:                  params.Name,
		DisplayName:           params.DisplayName,
		RegistrationIPAddress: params.RegistrationIPAddress,
		TrustLevel:            trustLevel,
		TwitterUserID:         params.TwitterUserID,
		CreatedAt:             params.CreatedAt,
	}, nil
}

// GenerateRandomName は英数字からなる指定長のランダムなユーザー名を生成する。
func GenerateRandomName(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid random name length: %d", length)
	}
	max := big.NewInt(int64(len(randomNameAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random name: %w", err)
		}
		b[i] = randomNameAlphabet[n.Int64()]
	}
	return string(b), nil
}
