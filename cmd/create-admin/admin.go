package main

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/logiccrafts/connect-backend/internal/users"
	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/db"
	"github.com/logiccrafts/connect-backend/pkg/db/models"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/security"
)

const (
	generatedPasswordLength = 20
	minPasswordLength       = 8
)

type userStore interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type adminInput struct {
	Name     string
	Email    string
	Password string
}

type adminResult struct {
	User *models.User
	// GeneratedPassword is only set when no password was supplied.
	GeneratedPassword string
}

var errAdminExists = errors.New("a user with this email already exists")

func createAdmin(ctx context.Context, store userStore, pwCfg config.PasswordConfig, in adminInput) (*adminResult, error) {
	email := users.NormalizeEmail(in.Email)
	if email == "" {
		return nil, errors.New("-email is required")
	}

	if _, err := store.FindByEmail(ctx, email); err == nil {
		return nil, errAdminExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	result := &adminResult{}
	password := in.Password
	if password == "" {
		generated, err := security.GenerateTempPassword(generatedPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		password = generated
		result.GeneratedPassword = generated
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := security.HashPassword(password, pwCfg)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := store.Create(ctx, users.CreateUserDTO{
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleAdmin,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, errAdminExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	result.User = user
	return result, nil
}
