package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/beluga/internal/credential"
	"github.com/hitoshi/beluga/internal/middleware"
	"github.com/hitoshi/beluga/internal/model"
	"github.com/hitoshi/beluga/internal/registration"
)

func TestAccountHandler_Signup_Success(t *testing.T) {
	var got SignupInput
	svc := &mockAccountService{
		signupFn: func(ctx context.Context, in SignupInput) (*model.User, *model.LoginSession, error) {
			got = in
			return testUser(), &model.LoginSession{ID: "session-new", UserID: 42}, nil
		},
	}
	rec := &recordingMetrics{}
	h := NewAccountHandler(svc, rec, testAuthConfig)

	w := httptest.NewRecorder()
	h.Signup(w, jsonRequest(http.MethodPost, "/api/account/signup",
		`{"name":"alice","password":"password1234","confirmation_password":"password1234"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", w.Code, w.Body.String())
	}
	if got.Name != "alice" || got.Password != "password1234" || got.Session.IPAddress != "192.0.2.10" {
		t.Errorf("signup input = %+v", got)
	}
	if c := findCookie(w, middleware.SessionCookieName); c == nil || c.Value != "session-new" {
		t.Errorf("session cookie = %+v", c)
	}
	if len(rec.registrations) != 1 || rec.registrations[0] != "success" {
		t.Errorf("registrations = %v", rec.registrations)
	}
	if len(rec.logins) != 1 || rec.logins[0] != "signup:success" {
		t.Errorf("logins = %v", rec.logins)
	}
}

func TestAccountHandler_Signup_ConfirmationMismatch(t *testing.T) {
	svc := &mockAccountService{
		signupFn: func(ctx context.Context, in SignupInput) (*model.User, *model.LoginSession, error) {
			t.Fatal("Signup should not be called")
			return nil, nil, nil
		},
	}
	rec := &recordingMetrics{}
	h := NewAccountHandler(svc, rec, testAuthConfig)

	w := httptest.NewRecorder()
	h.Signup(w, jsonRequest(http.MethodPost, "/api/account/signup",
		`{"name":"alice","password":"password1234","confirmation_password":"password9999"}`))

	assertErrorCode(t, w, http.StatusBadRequest, model.ErrCodeConfirmationPasswordNotMatch)
	if len(rec.registrations) != 1 || rec.registrations[0] != model.ErrCodeConfirmationPasswordNotMatch {
		t.Errorf("registrations = %v", rec.registrations)
	}
}

func TestAccountHandler_Signup_RegistrationErrors(t *testing.T) {
	tests := []struct {
		code       registration.ErrorCode
		wantStatus int
		wantCode   string
	}{
		{registration.ErrCodeTooManyRequests, http.StatusTooManyRequests, model.ErrCodeTooManyRequests},
		{registration.ErrCodeUserNameNotMeetPolicy, http.StatusBadRequest, model.ErrCodeUserNameNotMeetPolicy},
		{registration.ErrCodeNameTaken, http.StatusConflict, model.ErrCodeNameTaken},
		{registration.ErrCodePasswordNotMeetPolicy, http.StatusBadRequest, model.ErrCodePasswordNotMeetPolicy},
		{registration.ErrCodeInternalError, http.StatusInternalServerError, model.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			svc := &mockAccountService{
				signupFn: func(ctx context.Context, in SignupInput) (*model.User, *model.LoginSession, error) {
					return nil, nil, &registration.Error{Code: tt.code, Err: errors.New("cause")}
				},
			}
			rec := &recordingMetrics{}
			h := NewAccountHandler(svc, rec, testAuthConfig)

			w := httptest.NewRecorder()
			h.Signup(w, jsonRequest(http.MethodPost, "/api/account/signup",
				`{"name":"alice","password":"p","confirmation_password":"p"}`))

			assertErrorCode(t, w, tt.wantStatus, tt.wantCode)
			if len(rec.registrations) != 1 || rec.registrations[0] != tt.wantCode {
				t.Errorf("registrations = %v, want [%s]", rec.registrations, tt.wantCode)
			}
		})
	}
}

func TestAccountHandler_ChangePassword(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"success", `{"current_password":"old","new_password":"newpassword","confirmation_password":"newpassword"}`, nil, http.StatusNoContent, ""},
		{"mismatch", `{"current_password":"old","new_password":"a","confirmation_password":"b"}`, nil, http.StatusBadRequest, model.ErrCodeConfirmationPasswordNotMatch},
		{"incorrect current", `{"current_password":"bad","new_password":"n","confirmation_password":"n"}`, &credential.Error{Code: credential.ErrCodeIncorrectPassword}, http.StatusUnauthorized, model.ErrCodeInvalidCredentials},
		{"policy", `{"current_password":"old","new_password":"n","confirmation_password":"n"}`, &credential.Error{Code: credential.ErrCodePasswordNotMeetPolicy}, http.StatusBadRequest, model.ErrCodePasswordNotMeetPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountService{
				changePasswordFn: func(ctx context.Context, userID int64, currentPassword, newPassword string) error {
					if userID != 42 {
						t.Errorf("userID = %d, want 42", userID)
					}
					return tt.err
				},
			}
			h := NewAccountHandler(svc, nil, testAuthConfig)

			w := httptest.NewRecorder()
			h.ChangePassword(w, withUser(jsonRequest(http.MethodPut, "/api/account/password", tt.body), 42))

			if tt.wantCode == "" {
				if w.Code != tt.wantStatus {
					t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
				}
				return
			}
			assertErrorCode(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestAccountHandler_ChangePassword_Unauthenticated(t *testing.T) {
	h := NewAccountHandler(&mockAccountService{}, nil, testAuthConfig)

	w := httptest.NewRecorder()
	h.ChangePassword(w, jsonRequest(http.MethodPut, "/api/account/password", `{}`))

	assertErrorCode(t, w, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}
