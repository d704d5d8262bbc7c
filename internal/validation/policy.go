package validation

import "regexp"

// userNamePattern はユーザー名に使用できる文字。英数字とアンダースコアのみ。
var userNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// UserNamePolicy はユーザー名の長さ制約。
type UserNamePolicy struct {
	MinLength int
	MaxLength int
}

// DefaultUserNamePolicy はデフォルトのユーザー名ポリシーを返す。
func DefaultUserNamePolicy() UserNamePolicy {
	return UserNamePolicy{MinLength: 1, MaxLength: 32}
}

// CheckUserName はユーザー名がポリシーを満たすか検査する。
func (p UserNamePolicy) CheckUserName(name string) error {
	return CheckString(name, StringOptions{
		MinLength: p.MinLength,
		MaxLength: p.MaxLength,
		Pattern:   userNamePattern,
	})
}

// IsUserName はCheckUserNameのbool版。
func (p UserNamePolicy) IsUserName(name string) bool {
	return IsString(name, StringOptions{
		MinLength: p.MinLength,
		MaxLength: p.MaxLength,
		Pattern:   userNamePattern,
	})
}

// RandomNameLength はランダム生成するユーザー名の長さ。
// 長さ範囲の中間値を使う。
func (p UserNamePolicy) RandomNameLength() int {
	n := (p.MaxLength - p.MinLength) / 2
	if n < p.MinLength {
		n = p.MinLength
	}
	return n
}

// CheckDisplayName は表示名の長さを検査する。空文字は許可する。
func CheckDisplayName(name string, maxLength int) error {
	return CheckString(name, StringOptions{MaxLength: maxLength})
}
