package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/marketplace/internal/config"
	"github.com/geocoder89/marketplace/internal/domain/user"
	"github.com/geocoder89/marketplace/internal/security"
)

type seedUsers interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureSeedUser creates the configured demo account once. It is a no-op
// without SEED_USER_MAIL and SEED_USER_PASSWORD.
func EnsureSeedUser(ctx context.Context, users seedUsers, cfg config.Config) error {
	if cfg.SeedUserMail == "" || cfg.SeedUserPassword == "" {
		return nil
	}

	_, err := users.FindByEmail(ctx, cfg.SeedUserMail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	salt, err := security.GenerateSalt()
	if err != nil {
		return err
	}

	token, err := security.GenerateToken()
	if err != nil {
		return err
	}

	u := user.New(
		user.SignUpRequest{Name: cfg.SeedUserName, Mail: cfg.SeedUserMail, Password: cfg.SeedUserPassword},
		user.Credentials{Salt: salt, Hash: security.HashPassword(cfg.SeedUserPassword, salt), Token: token},
	)

	if _, err := users.Create(ctx, u); err != nil && !errors.Is(err, user.ErrEmailTaken) {
		return fmt.Errorf("create seed user: %w", err)
	}

	return nil
}
