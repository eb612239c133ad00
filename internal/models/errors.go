package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common validation errors for models.
var (
	// ErrUsernameRequired indicates a required username is empty.
	ErrUsernameRequired = errors.New("username is required")

	// ErrPasswordRequired indicates a user has no password hash.
	ErrPasswordRequired = errors.New("password is required")

	// ErrRoleRequired indicates a user has no role.
	ErrRoleRequired = errors.New("role is required")
)
