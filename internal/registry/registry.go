// Package registry provides the sources of installed themes.
//
// A registry maps theme keys to theme records. The key is the theme's slug:
// records themselves carry no identifier. Both implementations iterate in
// ascending key order.
package registry

import (
	"context"
	"errors"
	"regexp"

	"github.com/jmylchreest/themesd/internal/models"
)

// ErrNotFound is returned by Delete when no theme is stored under a key.
var ErrNotFound = errors.New("theme not found in registry")

// SlugPattern matches the keys a registry will expose.
var SlugPattern = regexp.MustCompile(`^[\w-]+$`)

// Entry is a theme record together with the key it is stored under.
type Entry struct {
	Key   string
	Theme *models.Theme
}

// Registry enumerates and removes installed themes.
type Registry interface {
	// ListAll returns every installed theme ordered by key.
	ListAll(ctx context.Context) ([]Entry, error)
	// Delete removes the theme stored under key.
	Delete(ctx context.Context, key string) error
}
