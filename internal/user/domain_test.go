package user

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
	"github.com/hitoshi/beluga/internal/repository/memory"
)

type mockUserQueryRepo struct {
	repository.UserQueryRepository
	findByNameFn func(ctx context.Context, name string) (*model.User, error)
	findByIPFn   func(ctx context.Context, ip string) ([]*model.User, error)
}

func (m *mockUserQueryRepo) FindByName(ctx context.Context, name string) (*model.User, error) {
	return m.findByNameFn(ctx, name)
}

func (m *mockUserQueryRepo) FindByRegistrationIPAddress(ctx context.Context, ip string, _ repository.SortBy, _ model.SortOrder) ([]*model.User, error) {
	return m.findByIPFn(ctx, ip)
}

func assertCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()
	var uerr *Error
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *user.Error, got %v", err)
	}
	if uerr.Code != want {
		t.Errorf("Code = %q, want %q", uerr.Code, want)
	}
}

func TestRegistrationRateLimitChecker(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedUser(t, store, "old", "10.0.0.1", base.Add(-48*time.Hour))
	seedUser(t, store, "recent", "10.0.0.1", base)

	tests := []struct {
		name string
		ip   string
		now  time.Time
		want bool
	}{
		{"履歴なし", "10.0.0.2", base, false},
		{"制限時間内", "10.0.0.1", base.Add(time.Hour), true},
		{"境界ちょうどは解除", "10.0.0.1", base.Add(24 * time.Hour), false},
		{"制限時間経過後", "10.0.0.1", base.Add(24*time.Hour + time.Second), false},
		{"経過時間が負", "10.0.0.1", base.Add(-time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			c := NewRegistrationRateLimitChecker(store.Users(), DefaultRegistrationLimit, func() time.Time { return now })
			got, err := c.IsRateLimited(context.Background(), tt.ip)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsRateLimited = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistrationRateLimitChecker_Idempotent(t *testing.T) {
	store := memory.NewStore()
	now := time.Now()
	seedUser(t, store, "hoge", "10.0.0.1", now)

	c := NewRegistrationRateLimitChecker(store.Users(), time.Hour, func() time.Time { return now })
	for i := 0; i < 3; i++ {
		assertCode(t, c.TryCheckIfRateIsLimited(context.Background(), "10.0.0.1"), ErrCodeRegistrationRateLimited)
	}
}

func TestRegistrationRateLimitChecker_StoreError(t *testing.T) {
	repo := &mockUserQueryRepo{
		findByIPFn: func(ctx context.Context, ip string) ([]*model.User, error) {
			return nil, errors.New("connection reset")
		},
	}
	c := NewRegistrationRateLimitChecker(repo, time.Hour, nil)
	err := c.TryCheckIfRateIsLimited(context.Background(), "10.0.0.1")
	if err == nil {
		t.Fatal("expected error")
	}
	var uerr *Error
	if errors.As(err, &uerr) {
		t.Errorf("store error must not be a domain error, got %v", uerr)
	}
}

func TestNameAvailabilityChecker(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "hoge", "10.0.0.1", time.Now())
	c := NewNameAvailabilityChecker(store.Users())
	ctx := context.Background()

	assertCode(t, c.TryCheckIfNameIsTaken(ctx, "hoge"), ErrCodeNameTaken)
	assertCode(t, c.TryCheckIfNameIsTaken(ctx, "hoge"), ErrCodeNameTaken)
	if err := c.TryCheckIfNameIsTaken(ctx, "fuga"); err != nil {
		t.Errorf("expected fuga to be available, got %v", err)
	}
	if err := c.TryCheckIfNameIsTaken(ctx, "HOGE"); err != nil {
		t.Errorf("expected case-sensitive match, got %v", err)
	}
}

func TestNewUser(t *testing.T) {
	now := time.Now()
	u, err := NewUser(NewUserParams{
		Name:                  "hoge",
		RegistrationIPAddress: "192.168.1.1",
		CreatedAt:             now,
	}, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != model.UnsavedID {
		t.Errorf("ID = %d, want %d", u.ID, model.UnsavedID)
	}
	if u.TrustLevel != model.TrustLevelVisitor {
		t.Errorf("TrustLevel = %q, want visitor", u.TrustLevel)
	}

	_, err = NewUser(NewUserParams{Name: "admin-1234", RegistrationIPAddress: "192.168.1.1"}, DefaultPolicy())
	assertCode(t, err, ErrCodeInvalidName)

	_, err = NewUser(NewUserParams{Name: "hoge", RegistrationIPAddress: "not-an-ip"}, DefaultPolicy())
	assertCode(t, err, ErrCodeInvalidIPAddress)

	_, err = NewUser(NewUserParams{
		Name:                  "hoge",
		DisplayName:           "012345678901234567890123456789012",
		RegistrationIPAddress: "192.168.1.1",
	}, DefaultPolicy())
	assertCode(t, err, ErrCodeInvalidDisplayName)
}

func TestGenerateRandomName(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-zA-Z0-9]{15}$`)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		name, err := GenerateRandomName(15)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !pattern.MatchString(name) {
			t.Errorf("unexpected name %q", name)
		}
		if err := DefaultPolicy().Name.CheckUserName(name); err != nil {
			t.Errorf("generated name %q violates policy: %v", name, err)
		}
		seen[name] = true
	}
	if len(seen) < 2 {
		t.Error("expected random names to differ")
	}

	if _, err := GenerateRandomName(0); err == nil {
		t.Error("expected error for zero length")
	}
}

func TestInitialTrustLevel(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	policy := TrustLevelPolicy{TwitterAccountMinAge: DefaultTwitterAccountMinAge}

	tests := []struct {
		name string
		in   TrustLevelInput
		want model.TrustLevel
	}{
		{"招待", TrustLevelInput{InvitedByAuthorizedUser: true}, model.TrustLevelAuthorizedUser},
		{"古いTwitterアカウント", TrustLevelInput{SignedUpWithTwitter: true, TwitterAccountCreatedAt: now.AddDate(-1, 0, 0)}, model.TrustLevelAuthorizedUser},
		{"新しいTwitterアカウント", TrustLevelInput{SignedUpWithTwitter: true, TwitterAccountCreatedAt: now.Add(-24 * time.Hour)}, model.TrustLevelVisitor},
		{"作成日時不明", TrustLevelInput{SignedUpWithTwitter: true}, model.TrustLevelVisitor},
		{"パスワード登録", TrustLevelInput{}, model.TrustLevelVisitor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InitialTrustLevel(tt.in, now, policy); got != tt.want {
				t.Errorf("InitialTrustLevel = %q, want %q", got, tt.want)
			}
		})
	}
}
