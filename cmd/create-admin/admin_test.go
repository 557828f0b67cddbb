package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logiccrafts/connect-backend/internal/users"
	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/db/dbtest"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/security"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestCreateAdminWithPassword(t *testing.T) {
	repo := users.NewRepository(dbtest.Open(t))
	ctx := context.Background()

	result, err := createAdmin(ctx, repo, testPasswordConfig, adminInput{
		Name:     "Root",
		Email:    " Root@Example.com ",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Empty(t, result.GeneratedPassword)
	assert.Equal(t, "root@example.com", result.User.Email)
	assert.Equal(t, enums.UserRoleAdmin, result.User.Role)

	stored, err := repo.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("correct-horse", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateAdminGeneratesPassword(t *testing.T) {
	repo := users.NewRepository(dbtest.Open(t))

	result, err := createAdmin(context.Background(), repo, testPasswordConfig, adminInput{Email: "ops@example.com"})
	require.NoError(t, err)
	require.Len(t, result.GeneratedPassword, generatedPasswordLength)

	ok, err := security.VerifyPassword(result.GeneratedPassword, result.User.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateAdminRejectsExistingEmail(t *testing.T) {
	repo := users.NewRepository(dbtest.Open(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, users.CreateUserDTO{
		Name:         "Buyer",
		Email:        "taken@example.com",
		PasswordHash: "hash",
		Role:         enums.UserRoleBuyer,
	})
	require.NoError(t, err)

	_, err = createAdmin(ctx, repo, testPasswordConfig, adminInput{Email: "TAKEN@example.com", Password: "long-enough"})
	require.ErrorIs(t, err, errAdminExists)
}

func TestCreateAdminValidatesInput(t *testing.T) {
	repo := users.NewRepository(dbtest.Open(t))
	ctx := context.Background()

	_, err := createAdmin(ctx, repo, testPasswordConfig, adminInput{Email: "  "})
	require.Error(t, err)

	_, err = createAdmin(ctx, repo, testPasswordConfig, adminInput{Email: "short@example.com", Password: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least")
}
