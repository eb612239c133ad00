package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/themesd/internal/observability"
	"github.com/jmylchreest/themesd/internal/registry"
)

var (
	// ErrThemeNotFound is returned when no installed theme has the requested slug.
	ErrThemeNotFound = errors.New("theme not found")
	// ErrActiveThemeDelete is returned when deleting the theme currently in use.
	ErrActiveThemeDelete = errors.New("cannot delete the active theme")
)

// ThemeService provides read and delete access to installed themes.
type ThemeService struct {
	registry    registry.Registry
	activeTheme string
	logger      *slog.Logger
}

// NewThemeService creates a theme service over reg. activeTheme names the
// slug that may not be deleted; empty means no theme is protected.
func NewThemeService(reg registry.Registry, activeTheme string) *ThemeService {
	return &ThemeService{
		registry:    reg,
		activeTheme: activeTheme,
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *ThemeService) WithLogger(logger *slog.Logger) *ThemeService {
	s.logger = logger
	return s
}

// ActiveTheme returns the slug of the protected theme.
func (s *ThemeService) ActiveTheme() string {
	return s.activeTheme
}

// ListThemes returns every installed theme in registry order.
func (s *ThemeService) ListThemes(ctx context.Context) ([]registry.Entry, error) {
	entries, err := s.registry.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing themes: %w", err)
	}
	return entries, nil
}

// GetTheme returns the theme whose key equals slug exactly.
func (s *ThemeService) GetTheme(ctx context.Context, slug string) (registry.Entry, error) {
	entries, err := s.ListThemes(ctx)
	if err != nil {
		return registry.Entry{}, err
	}

	for _, entry := range entries {
		if entry.Key == slug {
			return entry, nil
		}
	}
	return registry.Entry{}, ErrThemeNotFound
}

// DeleteTheme removes the theme stored under slug and returns the entry as
// it was before removal.
func (s *ThemeService) DeleteTheme(ctx context.Context, slug string) (registry.Entry, error) {
	entry, err := s.GetTheme(ctx, slug)
	if err != nil {
		return registry.Entry{}, err
	}

	if s.activeTheme != "" && slug == s.activeTheme {
		return registry.Entry{}, ErrActiveThemeDelete
	}

	if err := s.registry.Delete(ctx, slug); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return registry.Entry{}, ErrThemeNotFound
		}
		return registry.Entry{}, fmt.Errorf("deleting theme %s: %w", slug, err)
	}

	observability.LoggerFromContext(ctx, s.logger).InfoContext(ctx, "theme deleted",
		slog.String("slug", slug),
		slog.Bool("broken", entry.Theme.IsBroken()),
	)
	return entry, nil
}
