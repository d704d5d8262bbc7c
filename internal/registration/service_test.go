package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/beluga/internal/credential"
	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/repository"
	"github.com/hitoshi/beluga/internal/repository/memory"
	"github.com/hitoshi/beluga/internal/user"
)

// --- テスト用ヘルパー ---

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type failingCredentialRepo struct {
	repository.LoginCredentialRepository
	err error
}

func (r *failingCredentialRepo) Add(ctx context.Context, c *model.LoginCredential) error {
	return r.err
}

type harness struct {
	store *memory.Store
	clock *clock
	limit time.Duration
	// wrapRepos はトランザクション内のリポジトリを差し替える。
	wrapRepos func(repository.Repositories) repository.Repositories
}

func newHarness() *harness {
	return &harness{
		store: memory.NewStore(),
		clock: &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		limit: time.Hour,
	}
}

// register はHTTP層と同様にトランザクションで包んでRegisterを呼ぶ。
func (h *harness) register(name, password, ip string) (*model.User, error) {
	var registered *model.User
	err := h.store.WithinTransaction(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		if h.wrapRepos != nil {
			repos = h.wrapRepos(repos)
		}
		svc := NewService(repos, credential.NewFactory(credential.DefaultPolicy(), bcrypt.MinCost, h.clock.Now), Options{
			RateLimit:  h.limit,
			UserPolicy: user.DefaultPolicy(),
			Now:        h.clock.Now,
		})
		u, err := svc.Register(ctx, Input{
			Name:      name,
			Password:  password,
			IPAddress: ip,
			Device:    "test",
		})
		if err != nil {
			return err
		}
		registered = u
		return nil
	})
	return registered, err
}

func assertCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()
	var regErr *Error
	if !errors.As(err, &regErr) {
		t.Fatalf("expected *registration.Error, got %v", err)
	}
	if regErr.Code != want {
		t.Errorf("Code = %q, want %q (cause: %v)", regErr.Code, want, regErr.Err)
	}
}

func (h *harness) userByName(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := h.store.Users().FindByName(context.Background(), name)
	if err != nil {
		t.Fatalf("FindByName failed: %v", err)
	}
	return u
}

// --- テスト ---

func TestRegister_Success(t *testing.T) {
	h := newHarness()

	u, err := h.register("hoge", "password1234", "192.168.1.1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if u.ID == model.UnsavedID {
		t.Error("expected assigned ID")
	}
	if u.LoginCredential == nil || u.LoginCredential.UserID != u.ID {
		t.Fatalf("expected attached credential, got %+v", u.LoginCredential)
	}
	if !credential.Verify(u.LoginCredential, "password1234") {
		t.Error("expected attached credential to verify")
	}
	if u.TrustLevel != model.TrustLevelVisitor {
		t.Errorf("TrustLevel = %q, want visitor", u.TrustLevel)
	}

	stored, _ := h.store.LoginCredentials().FindByUserID(context.Background(), u.ID)
	if stored == nil {
		t.Error("expected credential to be persisted")
	}
}

func TestRegister_NameTaken(t *testing.T) {
	h := newHarness()

	first, err := h.register("hoge", "password1234", "192.168.1.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.clock.Advance(h.limit + time.Second)

	_, err = h.register("hoge", "password1234", "192.168.1.2")
	assertCode(t, err, ErrCodeNameTaken)

	// 拒否された登録の資格情報は作られない
	users, _ := h.store.Users().FindByRegistrationIPAddress(context.Background(), "192.168.1.2", repository.SortByCreatedAt, model.SortOrderDescending)
	if len(users) != 0 {
		t.Errorf("expected no user from rejected ip, got %d", len(users))
	}
	if u := h.userByName(t, "hoge"); u == nil || u.ID != first.ID {
		t.Error("expected original user to remain")
	}
}

func TestRegister_TooManyRequests(t *testing.T) {
	h := newHarness()

	if _, err := h.register("hoge", "password1234", "192.168.1.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h.clock.Advance(time.Minute)
	_, err := h.register("fuga", "password1234", "192.168.1.1")
	assertCode(t, err, ErrCodeTooManyRequests)

	h.clock.Advance(h.limit + time.Second)
	if _, err := h.register("piyo", "password1234", "192.168.1.1"); err != nil {
		t.Errorf("expected registration after window, got %v", err)
	}
}

func TestRegister_RateLimitCheckedBeforeName(t *testing.T) {
	h := newHarness()
	if _, err := h.register("hoge", "password1234", "192.168.1.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := h.register("hoge", "password1234", "192.168.1.1")
	assertCode(t, err, ErrCodeTooManyRequests)
}

func TestRegister_UserNameNotMeetPolicy(t *testing.T) {
	for _, name := range []string{"admin-1234", "", "abcdefghijklmnopqrstuvwxyz0123456", "ユーザー"} {
		h := newHarness()
		_, err := h.register(name, "password1234", "192.168.1.1")
		assertCode(t, err, ErrCodeUserNameNotMeetPolicy)

		users, _ := h.store.Users().FindByRegistrationIPAddress(context.Background(), "192.168.1.1", repository.SortByCreatedAt, model.SortOrderDescending)
		if len(users) != 0 {
			t.Errorf("name %q: expected no user persisted, got %d", name, len(users))
		}
	}
}

func TestRegister_PasswordNotMeetPolicy_RollsBackUser(t *testing.T) {
	for _, password := range []string{"", "short"} {
		h := newHarness()
		_, err := h.register("hoge", password, "192.168.1.1")
		assertCode(t, err, ErrCodePasswordNotMeetPolicy)

		if u := h.userByName(t, "hoge"); u != nil {
			t.Errorf("password %q: expected no orphaned user, got %+v", password, u)
		}
	}
}

func TestRegister_CredentialStoreFailure_RollsBackUser(t *testing.T) {
	h := newHarness()
	h.wrapRepos = func(repos repository.Repositories) repository.Repositories {
		repos.LoginCredentials = &failingCredentialRepo{
			LoginCredentialRepository: repos.LoginCredentials,
			err:                       errors.New("disk full"),
		}
		return repos
	}

	_, err := h.register("hoge", "password1234", "192.168.1.1")
	assertCode(t, err, ErrCodeInternalError)

	if u := h.userByName(t, "hoge"); u != nil {
		t.Errorf("expected user to be rolled back, got %+v", u)
	}
}

func TestRegister_StoreConflictMapsToNameTaken(t *testing.T) {
	h := newHarness()
	// 事前チェックをすり抜けた同名登録を再現する
	h.wrapRepos = func(repos repository.Repositories) repository.Repositories {
		repos.Users = &racingUserRepo{UserRepository: repos.Users}
		return repos
	}

	_, err := h.register("hoge", "password1234", "192.168.1.1")
	assertCode(t, err, ErrCodeNameTaken)
}

type racingUserRepo struct {
	repository.UserRepository
}

func (r *racingUserRepo) FindByName(ctx context.Context, name string) (*model.User, error) {
	return nil, nil
}

func (r *racingUserRepo) Add(ctx context.Context, u *model.User) (int64, error) {
	return 0, repository.ErrUserNameConflict
}

func TestRegister_UnexpectedStoreError(t *testing.T) {
	h := newHarness()
	h.wrapRepos = func(repos repository.Repositories) repository.Repositories {
		repos.Users = &brokenUserRepo{UserRepository: repos.Users}
		return repos
	}

	_, err := h.register("hoge", "password1234", "192.168.1.1")
	assertCode(t, err, ErrCodeInternalError)
}

type brokenUserRepo struct {
	repository.UserRepository
}

func (r *brokenUserRepo) FindByRegistrationIPAddress(ctx context.Context, ip string, sortBy repository.SortBy, order model.SortOrder) ([]*model.User, error) {
	return nil, errors.New("connection refused")
}

func TestTranslate_Exhaustive(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"rate limited", &user.Error{Code: user.ErrCodeRegistrationRateLimited}, ErrCodeTooManyRequests},
		{"name taken", &user.Error{Code: user.ErrCodeNameTaken}, ErrCodeNameTaken},
		{"invalid name", &user.Error{Code: user.ErrCodeInvalidName}, ErrCodeUserNameNotMeetPolicy},
		{"invalid ip", &user.Error{Code: user.ErrCodeInvalidIPAddress}, ErrCodeInternalError},
		{"password policy", &credential.Error{Code: credential.ErrCodePasswordNotMeetPolicy}, ErrCodePasswordNotMeetPolicy},
		{"store conflict", repository.ErrUserNameConflict, ErrCodeNameTaken},
		{"unknown", errors.New("boom"), ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translate(tt.err).Code; got != tt.want {
				t.Errorf("translate = %q, want %q", got, tt.want)
			}
		})
	}
}
