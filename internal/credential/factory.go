// Package credential はパスワード資格情報の生成と検証を提供する。
package credential

import (
	"errors"
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/validation"
)

// bcryptMaxBytes はbcryptが扱える入力の最大バイト数。
const bcryptMaxBytes = 72

// Policy はパスワードの制約。
type Policy struct {
	MinLength     int
	MaxLength     int
	RequireLetter bool
	RequireDigit  bool
}

// DefaultPolicy はデフォルトのパスワードポリシーを返す。
func DefaultPolicy() Policy {
	return Policy{MinLength: 8, MaxLength: bcryptMaxBytes}
}

// Check はパスワードがポリシーを満たすか検査する。
func (p Policy) Check(password string) error {
	if err := validation.CheckString(password, validation.StringOptions{
		MinLength: p.MinLength,
		MaxLength: p.MaxLength,
	}); err != nil {
		return err
	}
	if len(password) > bcryptMaxBytes {
		return fmt.Errorf("password exceeds %d bytes", bcryptMaxBytes)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if p.RequireLetter && !hasLetter {
		return errors.New("password must contain a letter")
	}
	if p.RequireDigit && !hasDigit {
		return errors.New("password must contain a digit")
	}
	return nil
}

// Factory はパスワードからログイン資格情報を生成する。
type Factory struct {
	policy Policy
	cost   int
	now    func() time.Time
}

// NewFactory はFactoryを生成する。costが範囲外の場合はbcrypt.DefaultCostを使う。
func NewFactory(policy Policy, cost int, now func() time.Time) *Factory {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if now == nil {
		now = time.Now
	}
	return &Factory{policy: policy, cost: cost, now: now}
}

// Create はポリシーを検証してからパスワードをハッシュ化した資格情報を返す。
// ポリシー違反の場合はハッシュを計算しない。
func (f *Factory) Create(userID int64, password string) (*model.LoginCredential, error) {
	if err := f.policy.Check(password); err != nil {
		return nil, &Error{Code: ErrCodePasswordNotMeetPolicy, Err: err}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), f.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &model.LoginCredential{
		UserID:       userID,
		PasswordHash: string(hash),
		CreatedAt:    f.now(),
	}, nil
}

// Verify はパスワードが資格情報と一致するかどうかを返す。
func Verify(c *model.LoginCredential, password string) bool {
	if c == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}
