package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/beluga/internal/model"
)

// --- モック定義 ---

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.LoginSession, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.LoginSession, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// --- テスト ---

func TestSessionMiddleware_ValidSession_InjectsUserID(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.LoginSession, error) {
			if id == "valid-session-id" {
				return &model.LoginSession{
					ID:        "valid-session-id",
					UserID:    123,
					ExpiresAt: time.Now().Add(1 * time.Hour),
				}, nil
			}
			return nil, nil
		},
	}

	var capturedUserID int64
	var capturedSessionID string
	handler := NewSessionMiddleware(finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedUserID = userID
		capturedSessionID, _ = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedUserID != 123 {
		t.Errorf("userID = %d, want %d", capturedUserID, 123)
	}
	if capturedSessionID != "valid-session-id" {
		t.Errorf("sessionID = %q, want %q", capturedSessionID, "valid-session-id")
	}
}

func TestSessionMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		cookie   *http.Cookie
		finder   *mockSessionFinder
		wantCode string
	}{
		{
			name:     "Cookieなし",
			finder:   &mockSessionFinder{},
			wantCode: model.ErrCodeUnauthorized,
		},
		{
			name:     "空のCookie",
			cookie:   &http.Cookie{Name: SessionCookieName, Value: ""},
			finder:   &mockSessionFinder{},
			wantCode: model.ErrCodeUnauthorized,
		},
		{
			name:     "期限切れまたは未登録のセッション",
			cookie:   &http.Cookie{Name: SessionCookieName, Value: "expired"},
			finder:   &mockSessionFinder{},
			wantCode: model.ErrCodeSessionNotFound,
		},
		{
			name:   "ストアエラー",
			cookie: &http.Cookie{Name: SessionCookieName, Value: "some-id"},
			finder: &mockSessionFinder{
				findByIDFn: func(ctx context.Context, id string) (*model.LoginSession, error) {
					return nil, errors.New("mongo: no reachable servers")
				},
			},
			wantCode: model.ErrCodeUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSessionMiddleware(tt.finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestUserIDFromContext_NoUserID(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
}

func TestContextWithSession(t *testing.T) {
	ctx := ContextWithSession(context.Background(), 42, "sid")

	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
	if sid, ok := SessionIDFromContext(ctx); !ok || sid != "sid" {
		t.Errorf("sessionID = %q, %v", sid, ok)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:54321"
	if got := ClientIP(req); got != "203.0.113.5" {
		t.Errorf("ClientIP = %q, want %q", got, "203.0.113.5")
	}

	req.RemoteAddr = "[2001:db8::1]:443"
	if got := ClientIP(req); got != "2001:db8::1" {
		t.Errorf("ClientIP = %q, want %q", got, "2001:db8::1")
	}

	req.RemoteAddr = "203.0.113.5"
	if got := ClientIP(req); got != "203.0.113.5" {
		t.Errorf("ClientIP = %q, want %q", got, "203.0.113.5")
	}
}
