package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logiccrafts/connect-backend/internal/users"
	pkgAuth "github.com/logiccrafts/connect-backend/pkg/auth"
	"github.com/logiccrafts/connect-backend/pkg/auth/session"
	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/db/dbtest"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "logiccrafts",
	ExpirationMinutes: 30,
}

func newTestService(t *testing.T) (Service, *stubSessionManager, *users.Repository) {
	t.Helper()
	repo := users.NewRepository(dbtest.Open(t))
	sessions := newStubSessionManager()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)
	return svc, sessions, repo
}

func registerBuyer(t *testing.T, svc Service, email string) *LoginResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Bea Buyer",
		Email:    email,
		Password: "correct-horse",
		Role:     enums.UserRoleBuyer,
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterIssuesTokens(t *testing.T) {
	svc, sessions, _ := newTestService(t)

	resp := registerBuyer(t, svc, "Bea@Example.com")
	assert.Equal(t, "bea@example.com", resp.User.Email)
	assert.Equal(t, enums.UserRoleBuyer, resp.User.Role)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleBuyer, claims.Role)
	assert.Contains(t, sessions.records, claims.ID)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerBuyer(t, svc, "dup@example.com")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Other",
		Email:    "DUP@example.com",
		Password: "correct-horse",
		Role:     enums.UserRoleArtisan,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Mallory",
		Email:    "mallory@example.com",
		Password: "correct-horse",
		Role:     enums.UserRoleAdmin,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLogin(t *testing.T) {
	svc, _, repo := newTestService(t)
	registered := registerBuyer(t, svc, "login@example.com")

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " LOGIN@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLoginAt)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "login@example.com", Password: "wrong"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(context.Background(), LoginRequest{Email: "missing@example.com", Password: "correct-horse"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, repo.SetActive(context.Background(), registered.User.ID, false))
	_, err = svc.Login(context.Background(), LoginRequest{Email: "login@example.com", Password: "correct-horse"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, sessions, _ := newTestService(t)
	login := registerBuyer(t, svc, "refresh@example.com")

	pair, err := svc.Refresh(context.Background(), login.AccessToken, RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWT, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, claims.UserID)
	assert.Contains(t, sessions.records, claims.ID)

	_, err = svc.Refresh(context.Background(), login.AccessToken, RefreshRequest{RefreshToken: login.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "old session must be gone")
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Refresh(context.Background(), "not-a-jwt", RefreshRequest{RefreshToken: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLogoutRevokes(t *testing.T) {
	svc, sessions, _ := newTestService(t)
	login := registerBuyer(t, svc, "logout@example.com")

	require.NoError(t, svc.Logout(context.Background(), login.AccessToken))
	assert.Empty(t, sessions.records)

	sessions.revokeErr = errors.New("redis down")
	err := svc.Logout(context.Background(), login.AccessToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestMe(t *testing.T) {
	svc, _, _ := newTestService(t)
	login := registerBuyer(t, svc, "me@example.com")

	me, err := svc.Me(context.Background(), login.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", me.Email)

	_, err = svc.Me(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

type stubRecord struct {
	userID uuid.UUID
	token  string
}

type stubSessionManager struct {
	records   map[string]stubRecord
	revokeErr error
	counter   int
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{records: map[string]stubRecord{}}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	s.counter++
	token := accessID + "-refresh-" + time.Now().Format(time.RFC3339Nano)
	s.records[accessID] = stubRecord{userID: userID, token: token}
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	rec, ok := s.records[oldAccessID]
	if !ok || rec.userID != userID || rec.token != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.records, oldAccessID)
	newID := session.NewAccessID()
	token, err := s.Generate(ctx, newID, userID)
	return newID, token, err
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	delete(s.records, accessID)
	return nil
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	svc, _, repo := newTestService(t)
	login := registerBuyer(t, svc, "gone@example.com")
	require.NoError(t, repo.SetActive(context.Background(), login.User.ID, false))

	_, err := svc.Refresh(context.Background(), login.AccessToken, RefreshRequest{RefreshToken: login.RefreshToken})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	svc, _, repo := newTestService(t)
	login := registerBuyer(t, svc, "upgrade@example.com")

	strong := config.PasswordConfig{ArgonMemoryKB: 16384, ArgonTime: 2, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	svc.(*service).passwords = strong

	_, err := svc.Login(context.Background(), LoginRequest{Email: "upgrade@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), login.User.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.PasswordHash, "m=16384,t=2,p=1")
}
