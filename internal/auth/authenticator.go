package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/themesd/internal/config"
	"github.com/jmylchreest/themesd/internal/models"
	"github.com/jmylchreest/themesd/internal/repository"
)

// ErrInvalidCredentials is returned when a username or password is wrong
// or the account is disabled.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash is compared against when the username is unknown so a miss
// costs the same as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := HashPassword("themesd-unknown-user")
	return hash
})

// Authenticator checks credentials against the user store.
type Authenticator struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator backed by users.
func NewAuthenticator(users repository.UserRepository) *Authenticator {
	return &Authenticator{users: users, logger: slog.Default()}
}

// WithLogger sets the logger for the authenticator.
func (a *Authenticator) WithLogger(logger *slog.Logger) *Authenticator {
	a.logger = logger
	return a
}

// Authenticate returns the user matching username and password.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		VerifyPassword(dummyHash(), password)
		return nil, ErrInvalidCredentials
	}
	if !VerifyPassword(user.PasswordHash, password) {
		a.logger.DebugContext(ctx, "password mismatch", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}
	if !user.IsEnabled() {
		a.logger.DebugContext(ctx, "disabled account attempted login", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureBootstrapUser creates the configured administrator when the user
// store is empty. It reports whether an account was created.
func EnsureBootstrapUser(ctx context.Context, users repository.UserRepository, cfg config.BootstrapConfig) (bool, error) {
	if cfg.Username == "" {
		return false, nil
	}

	count, err := users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := HashPassword(cfg.Password)
	if err != nil {
		return false, fmt.Errorf("hashing bootstrap password: %w", err)
	}

	user := &models.User{
		Username:     cfg.Username,
		PasswordHash: hash,
		Role:         RoleAdministrator,
		Enabled:      models.BoolPtr(true),
	}
	if err := users.Create(ctx, user); err != nil {
		return false, fmt.Errorf("creating bootstrap user: %w", err)
	}
	return true, nil
}
