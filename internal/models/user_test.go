package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_Validate(t *testing.T) {
	valid := func() *User {
		return &User{Username: "admin", PasswordHash: "$2a$10$hash", Role: "administrator"}
	}

	tests := []struct {
		name    string
		modify  func(*User)
		wantErr error
	}{
		{"valid", func(*User) {}, nil},
		{"blank username", func(u *User) { u.Username = "  " }, ErrUsernameRequired},
		{"missing password", func(u *User) { u.PasswordHash = "" }, ErrPasswordRequired},
		{"missing role", func(u *User) { u.Role = "" }, ErrRoleRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := valid()
			tt.modify(u)
			err := u.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("username too long", func(t *testing.T) {
		u := valid()
		u.Username = strings.Repeat("a", 61)
		var verr ErrValidation
		assert.ErrorAs(t, u.Validate(), &verr)
		assert.Equal(t, "username", verr.Field)
	})
}

func TestUser_IsEnabled(t *testing.T) {
	assert.True(t, (&User{}).IsEnabled(), "nil Enabled defaults to enabled")
	assert.True(t, (&User{Enabled: BoolPtr(true)}).IsEnabled())
	assert.False(t, (&User{Enabled: BoolPtr(false)}).IsEnabled())
}

func TestTheme_IsBroken(t *testing.T) {
	var missing *Theme
	assert.True(t, missing.IsBroken())
	assert.False(t, (&Theme{Name: "Twenty Sixteen"}).IsBroken())
	assert.True(t, (&Theme{Err: ErrStylesheetMissing}).IsBroken())
}
