package validation

import (
	"errors"
	"regexp"
	"testing"
)

func TestCheckString(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		opts     StringOptions
		wantRule Rule
	}{
		{"範囲内", "hoge", StringOptions{MinLength: 1, MaxLength: 10}, ""},
		{"最小長未満", "", StringOptions{MinLength: 1, MaxLength: 10}, RuleMinLength},
		{"最大長超過", "abcdefghijk", StringOptions{MinLength: 1, MaxLength: 10}, RuleMaxLength},
		{"マルチバイトはルーン数で数える", "あいうえお", StringOptions{MinLength: 1, MaxLength: 5}, ""},
		{"上限0は無制限", "abcdefghijklmnopqrstuvwxyz", StringOptions{}, ""},
		{"パターン不一致", "a-b", StringOptions{Pattern: regexp.MustCompile(`^[a-z]+$`)}, RulePattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckString(tt.value, tt.opts)
			if tt.wantRule == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if verr.Rule != tt.wantRule {
				t.Errorf("Rule = %q, want %q", verr.Rule, tt.wantRule)
			}
		})
	}
}

func TestCheckInteger(t *testing.T) {
	opts := IntegerOptions{MinValue: Int64(1), MaxValue: Int64(100)}

	if err := CheckInteger(50, opts); err != nil {
		t.Errorf("expected 50 to pass, got %v", err)
	}
	if IsInteger(0, opts) {
		t.Error("expected 0 to fail min_value")
	}
	if IsInteger(101, opts) {
		t.Error("expected 101 to fail max_value")
	}
	if !IsInteger(-5, IntegerOptions{}) {
		t.Error("expected unbounded options to accept any value")
	}
}

func TestCheckIPAddress(t *testing.T) {
	for _, ip := range []string{"192.168.1.1", "::1", "2001:db8::1"} {
		if err := CheckIPAddress(ip); err != nil {
			t.Errorf("CheckIPAddress(%q) = %v, want nil", ip, err)
		}
	}
	for _, ip := range []string{"", "localhost", "999.1.1.1"} {
		if err := CheckIPAddress(ip); err == nil {
			t.Errorf("CheckIPAddress(%q) = nil, want error", ip)
		}
	}
}

func TestUserNamePolicy_CheckUserName(t *testing.T) {
	p := DefaultUserNamePolicy()

	valid := []string{"admin", "admin_1234", "A", "abcdefghijklmnopqrstuvwxyz012345"}
	for _, name := range valid {
		if err := p.CheckUserName(name); err != nil {
			t.Errorf("CheckUserName(%q) = %v, want nil", name, err)
		}
		if !p.IsUserName(name) {
			t.Errorf("IsUserName(%q) = false, want true", name)
		}
	}

	invalid := []string{"", "admin-1234", "ad min", "ユーザー", "abcdefghijklmnopqrstuvwxyz0123456"}
	for _, name := range invalid {
		if err := p.CheckUserName(name); err == nil {
			t.Errorf("CheckUserName(%q) = nil, want error", name)
		}
		if p.IsUserName(name) {
			t.Errorf("IsUserName(%q) = true, want false", name)
		}
	}
}

func TestUserNamePolicy_RandomNameLength(t *testing.T) {
	if got := DefaultUserNamePolicy().RandomNameLength(); got != 15 {
		t.Errorf("RandomNameLength() = %d, want 15", got)
	}
	p := UserNamePolicy{MinLength: 4, MaxLength: 6}
	if got := p.RandomNameLength(); got != 4 {
		t.Errorf("RandomNameLength() = %d, want 4 (clamped to MinLength)", got)
	}
}
