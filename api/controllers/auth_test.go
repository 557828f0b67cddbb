package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/logiccrafts/connect-backend/internal/auth"
	"github.com/logiccrafts/connect-backend/internal/users"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
)

type testAuthService struct {
	registerFn func(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error)
	loginFn    func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
	refreshFn  func(ctx context.Context, accessToken string, req auth.RefreshRequest) (*auth.TokenPair, error)
	logoutFn   func(ctx context.Context, accessToken string) error
}

func (s *testAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	return s.registerFn(ctx, req)
}

func (s *testAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.loginFn(ctx, req)
}

func (s *testAuthService) Refresh(ctx context.Context, accessToken string, req auth.RefreshRequest) (*auth.TokenPair, error) {
	return s.refreshFn(ctx, accessToken, req)
}

func (s *testAuthService) Logout(ctx context.Context, accessToken string) error {
	return s.logoutFn(ctx, accessToken)
}

func (s *testAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	svc := &testAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
			if req.Email != "maker@example.com" {
				t.Fatalf("unexpected email %q", req.Email)
			}
			return &auth.LoginResponse{TokenPair: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}}, nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"maker@example.com","password":"pw"}`))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if got := resp.Header().Get(accessTokenHeader); got != "access" {
		t.Fatalf("expected access token header, got %q", got)
	}
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &testAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"maker@example.com","password":"pw"}`))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRegisterRejectsAdminRole(t *testing.T) {
	svc := &testAuthService{
		registerFn: func(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	body := `{"name":"Root","email":"root@example.com","password":"longenough","role":"admin"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthRegister(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &testAuthService{
		registerFn: func(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
			return &auth.LoginResponse{TokenPair: auth.TokenPair{AccessToken: "a", RefreshToken: "r"}}, nil
		},
	}
	body := `{"name":"Ada","email":"ada@example.com","password":"longenough","role":"buyer"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthRegister(svc, testLogger())(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	svc := &testAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"r"}`))
	resp := httptest.NewRecorder()
	AuthRefresh(svc, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRefreshPassesAccessToken(t *testing.T) {
	svc := &testAuthService{
		refreshFn: func(ctx context.Context, accessToken string, req auth.RefreshRequest) (*auth.TokenPair, error) {
			if accessToken != "old-access" || req.RefreshToken != "old-refresh" {
				t.Fatalf("unexpected refresh input %q %q", accessToken, req.RefreshToken)
			}
			return &auth.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"old-refresh"}`))
	req.Header.Set("Authorization", "Bearer old-access")
	resp := httptest.NewRecorder()
	AuthRefresh(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if got := resp.Header().Get(accessTokenHeader); got != "new-access" {
		t.Fatalf("expected rotated token header, got %q", got)
	}
}
