package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"

	"github.com/jmylchreest/themesd/internal/models"
	"github.com/jmylchreest/themesd/internal/storage"
)

// DirectoryRegistry reads themes from a directory holding one sub-directory
// per theme. The sub-directory name is the theme key.
type DirectoryRegistry struct {
	sandbox       *storage.Sandbox
	maxHeaderSize int64
	extraHeaders  []string
	logger        *slog.Logger
}

// NewDirectoryRegistry creates a registry over the themes stored in sandbox.
// At most maxHeaderSize bytes of each stylesheet are read.
func NewDirectoryRegistry(sandbox *storage.Sandbox, maxHeaderSize int64) *DirectoryRegistry {
	return &DirectoryRegistry{
		sandbox:       sandbox,
		maxHeaderSize: maxHeaderSize,
		logger:        slog.Default(),
	}
}

// WithExtraHeaders makes the registry read additional stylesheet header
// labels into Theme.Extra.
func (r *DirectoryRegistry) WithExtraHeaders(labels ...string) *DirectoryRegistry {
	r.extraHeaders = append(r.extraHeaders, labels...)
	return r
}

// WithLogger sets the logger for the registry.
func (r *DirectoryRegistry) WithLogger(logger *slog.Logger) *DirectoryRegistry {
	r.logger = logger
	return r
}

// ListAll scans the themes directory. Entries that are not directories or
// whose names are not valid keys are skipped. Symlinked theme directories
// are followed.
func (r *DirectoryRegistry) ListAll(ctx context.Context) ([]Entry, error) {
	dirEntries, err := r.sandbox.List(".")
	if err != nil {
		return nil, fmt.Errorf("listing themes directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := de.Name()
		if !de.IsDir() {
			if de.Type()&fs.ModeSymlink == 0 {
				continue
			}
			ok, err := r.isThemeDir(key)
			if err != nil || !ok {
				r.logger.WarnContext(ctx, "skipping theme symlink that is not a directory",
					slog.String("entry", key),
					slog.Any("error", err))
				continue
			}
		}

		if !SlugPattern.MatchString(key) {
			r.logger.WarnContext(ctx, "skipping theme directory with invalid name",
				slog.String("directory", key))
			continue
		}

		entries = append(entries, Entry{Key: key, Theme: r.load(ctx, key)})
	}

	return entries, nil
}

// load reads a theme's stylesheet header. Read failures produce a broken
// theme rather than an error so the rest of the listing survives.
func (r *DirectoryRegistry) load(ctx context.Context, key string) *models.Theme {
	data, err := r.sandbox.ReadHead(path.Join(key, models.ThemeStylesheet), r.maxHeaderSize)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = models.ErrStylesheetMissing
		}
		r.logger.DebugContext(ctx, "theme stylesheet unreadable",
			slog.String("slug", key),
			slog.String("error", err.Error()))
		return &models.Theme{Err: err}
	}

	theme := ParseHeader(data, r.extraHeaders...)
	if theme.Name == "" {
		theme.Name = DisplayName(key)
	}
	return theme
}

// Delete removes a theme directory and everything in it.
func (r *DirectoryRegistry) Delete(ctx context.Context, key string) error {
	if !SlugPattern.MatchString(key) {
		return ErrNotFound
	}

	ok, err := r.isThemeDir(key)
	if err != nil {
		return fmt.Errorf("locating theme %s: %w", key, err)
	}
	if !ok {
		return ErrNotFound
	}

	if err := r.sandbox.RemoveAll(key); err != nil {
		return fmt.Errorf("removing theme %s: %w", key, err)
	}

	r.logger.InfoContext(ctx, "theme directory removed", slog.String("slug", key))
	return nil
}

// isThemeDir reports whether key resolves to a directory, following
// symlinks. A missing or dangling entry is not an error.
func (r *DirectoryRegistry) isThemeDir(key string) (bool, error) {
	info, err := r.sandbox.Stat(key)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
