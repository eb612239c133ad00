package models

import "strings"

// User is an API account. Callers authenticate as a user and are authorized
// through the capabilities granted to the user's role.
type User struct {
	BaseModel

	Username     string `gorm:"uniqueIndex;not null;size:60" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null;size:40;default:subscriber" json:"role"`
	Enabled      *bool  `gorm:"default:true" json:"enabled"`
}

// TableName returns the table name for users.
func (User) TableName() string {
	return "users"
}

// IsEnabled reports whether the account may authenticate.
func (u *User) IsEnabled() bool {
	return BoolVal(u.Enabled)
}

// Validate checks the user for required fields.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrUsernameRequired
	}
	if len(u.Username) > 60 {
		return ErrValidation{Field: "username", Message: "must be at most 60 characters"}
	}
	if u.PasswordHash == "" {
		return ErrPasswordRequired
	}
	if strings.TrimSpace(u.Role) == "" {
		return ErrRoleRequired
	}
	return nil
}
