// Package repository defines data access interfaces for themesd entities.
// All database access goes through these interfaces.
package repository

import (
	"context"

	"github.com/jmylchreest/themesd/internal/models"
)

// UserRepository defines operations for API account persistence.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *models.User) error
	// GetByID retrieves a user by ID. Returns nil, nil when absent.
	GetByID(ctx context.Context, id models.ULID) (*models.User, error)
	// GetByUsername retrieves a user by username. Returns nil, nil when absent.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetAll retrieves all users ordered by username.
	GetAll(ctx context.Context) ([]*models.User, error)
	// Update updates an existing user.
	Update(ctx context.Context, user *models.User) error
	// Delete permanently removes a user so the username can be reused.
	Delete(ctx context.Context, id models.ULID) error
	// Count returns the number of users.
	Count(ctx context.Context) (int64, error)
}
