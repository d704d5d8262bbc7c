// Package validation は入力値の形式を検査する純粋な述語関数を提供する。
// 長さ・正規表現・数値範囲のみを扱い、ストアや設定には依存しない。
package validation

import (
	"fmt"
	"net"
	"regexp"
	"unicode/utf8"
)

// Rule は検査に失敗した規則を表す。
type Rule string

const (
	RuleMinLength Rule = "min_length"
	RuleMaxLength Rule = "max_length"
	RulePattern   Rule = "pattern"
	RuleMinValue  Rule = "min_value"
	RuleMaxValue  Rule = "max_value"
	RuleIPAddress Rule = "ip_address"
)

// Error は検査失敗を表す。
type Error struct {
	Rule  Rule
	Limit int64
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	switch e.Rule {
	case RulePattern, RuleIPAddress:
		return fmt.Sprintf("validation failed: %s", e.Rule)
	default:
		return fmt.Sprintf("validation failed: %s %d", e.Rule, e.Limit)
	}
}

// StringOptions は文字列検査の条件。
// 長さはルーン数で数える。MaxLengthが0の場合は上限なし。
type StringOptions struct {
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
}

// CheckString は文字列がオプションの条件を満たすか検査する。
func CheckString(value string, opts StringOptions) error {
	n := utf8.RuneCountInString(value)
	if n < opts.MinLength {
		return &Error{Rule: RuleMinLength, Limit: int64(opts.MinLength)}
	}
	if opts.MaxLength > 0 && n > opts.MaxLength {
		return &Error{Rule: RuleMaxLength, Limit: int64(opts.MaxLength)}
	}
	if opts.Pattern != nil && !opts.Pattern.MatchString(value) {
		return &Error{Rule: RulePattern}
	}
	return nil
}

// IsString はCheckStringのbool版。
func IsString(value string, opts StringOptions) bool {
	return CheckString(value, opts) == nil
}

// IntegerOptions は整数検査の条件。nilの境界は検査しない。
type IntegerOptions struct {
	MinValue *int64
	MaxValue *int64
}

// Int64 は境界値指定用のヘルパー。
func Int64(v int64) *int64 {
	return &v
}

// CheckInteger は整数が範囲内か検査する。
func CheckInteger(value int64, opts IntegerOptions) error {
	if opts.MinValue != nil && value < *opts.MinValue {
		return &Error{Rule: RuleMinValue, Limit: *opts.MinValue}
	}
	if opts.MaxValue != nil && value > *opts.MaxValue {
		return &Error{Rule: RuleMaxValue, Limit: *opts.MaxValue}
	}
	return nil
}

// IsInteger はCheckIntegerのbool版。
func IsInteger(value int64, opts IntegerOptions) bool {
	return CheckInteger(value, opts) == nil
}

// CheckIPAddress はIPv4またはIPv6アドレスの形式か検査する。
func CheckIPAddress(value string) error {
	if net.ParseIP(value) == nil {
		return &Error{Rule: RuleIPAddress}
	}
	return nil
}
