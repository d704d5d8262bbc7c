package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/beluga/internal/auth"
	"github.com/hitoshi/beluga/internal/middleware"
	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/timeline"
)

// --- モック定義 ---

type mockAuthService struct {
	loginWithPasswordFn  func(ctx context.Context, name, password string, sc auth.SessionContext) (*model.LoginSession, *model.User, error)
	authenticateCookieFn func(ctx context.Context, sessionID string) (*model.User, error)
	logoutFn             func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) LoginWithPassword(ctx context.Context, name, password string, sc auth.SessionContext) (*model.LoginSession, *model.User, error) {
	return m.loginWithPasswordFn(ctx, name, password, sc)
}

func (m *mockAuthService) AuthenticateCookie(ctx context.Context, sessionID string) (*model.User, error) {
	return m.authenticateCookieFn(ctx, sessionID)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockAccountService struct {
	signupFn         func(ctx context.Context, in SignupInput) (*model.User, *model.LoginSession, error)
	changePasswordFn func(ctx context.Context, userID int64, currentPassword, newPassword string) error
}

func (m *mockAccountService) Signup(ctx context.Context, in SignupInput) (*model.User, *model.LoginSession, error) {
	return m.signupFn(ctx, in)
}

func (m *mockAccountService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	return m.changePasswordFn(ctx, userID, currentPassword, newPassword)
}

type mockTwitterService struct {
	requestTokenFn func(ctx context.Context) (*auth.RequestTokenResult, error)
	authenticateFn func(ctx context.Context, in auth.AuthenticateInput) (*auth.AuthenticateResult, error)
}

func (m *mockTwitterService) RequestToken(ctx context.Context) (*auth.RequestTokenResult, error) {
	return m.requestTokenFn(ctx)
}

func (m *mockTwitterService) Authenticate(ctx context.Context, in auth.AuthenticateInput) (*auth.AuthenticateResult, error) {
	return m.authenticateFn(ctx, in)
}

type mockSessionCreator struct {
	createSessionFn func(ctx context.Context, userID int64, sc auth.SessionContext) (*model.LoginSession, error)
}

func (m *mockSessionCreator) CreateSession(ctx context.Context, userID int64, sc auth.SessionContext) (*model.LoginSession, error) {
	if m.createSessionFn != nil {
		return m.createSessionFn(ctx, userID, sc)
	}
	return &model.LoginSession{ID: "session-1", UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type mockTimelineService struct {
	listChannelFn func(ctx context.Context, q timeline.ChannelQuery) ([]*model.Message, error)
	listThreadFn  func(ctx context.Context, q timeline.ThreadQuery) ([]*model.Message, error)
}

func (m *mockTimelineService) ListChannel(ctx context.Context, q timeline.ChannelQuery) ([]*model.Message, error) {
	return m.listChannelFn(ctx, q)
}

func (m *mockTimelineService) ListThread(ctx context.Context, q timeline.ThreadQuery) ([]*model.Message, error) {
	return m.listThreadFn(ctx, q)
}

type mockUserService struct {
	withdrawFn func(ctx context.Context, userID int64) error
}

func (m *mockUserService) Withdraw(ctx context.Context, userID int64) error {
	return m.withdrawFn(ctx, userID)
}

type mockTokenIssuer struct {
	issueFn func(sessionID string) (string, error)
}

func (m *mockTokenIssuer) Issue(sessionID string) (string, error) {
	if m.issueFn != nil {
		return m.issueFn(sessionID)
	}
	return "token-for-" + sessionID, nil
}

// recordingMetrics は記録された値を保持するMetricsCollector。
type recordingMetrics struct {
	mu            sync.Mutex
	registrations []string
	logins        []string
}

func (m *recordingMetrics) RecordRegistration(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = append(m.registrations, outcome)
}

func (m *recordingMetrics) RecordLogin(method, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins = append(m.logins, method+":"+outcome)
}

func (m *recordingMetrics) RecordSessionsPurged(int64)         {}
func (m *recordingMetrics) RecordHTTPStatus(int)               {}
func (m *recordingMetrics) RecordRequestLatency(time.Duration) {}

// --- ヘルパー ---

var testAuthConfig = AuthHandlerConfig{SessionMaxAge: 3600}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:54321"
	return req
}

func withUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(middleware.ContextWithSession(req.Context(), userID, "session-1"))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v\nbody: %s", err, w.Body.String())
	}
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if w.Code != wantStatus {
		t.Errorf("status = %d, want %d (body: %s)", w.Code, wantStatus, w.Body.String())
	}
	var body middleware.ErrorResponseBody
	decodeBody(t, w, &body)
	if body.Code != wantCode {
		t.Errorf("code = %q, want %q", body.Code, wantCode)
	}
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func testUser() *model.User {
	return &model.User{
		ID:          42,
		Name:        "alice",
		DisplayName: "Alice",
		TrustLevel:  model.TrustLevelVisitor,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
