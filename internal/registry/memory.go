package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/jmylchreest/themesd/internal/models"
)

// MemoryRegistry is a map-backed Registry safe for concurrent use.
type MemoryRegistry struct {
	mu     sync.RWMutex
	themes map[string]*models.Theme
}

// NewMemoryRegistry creates a registry holding themes keyed by slug.
func NewMemoryRegistry(themes map[string]*models.Theme) *MemoryRegistry {
	r := &MemoryRegistry{themes: make(map[string]*models.Theme, len(themes))}
	for key, theme := range themes {
		r.themes[key] = theme
	}
	return r
}

// Put stores theme under key, replacing any existing record.
func (r *MemoryRegistry) Put(key string, theme *models.Theme) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes[key] = theme
}

// ListAll returns every theme ordered by key.
func (r *MemoryRegistry) ListAll(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.themes))
	for key, theme := range r.themes {
		entries = append(entries, Entry{Key: key, Theme: theme})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Delete removes the theme stored under key.
func (r *MemoryRegistry) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.themes[key]; !ok {
		return ErrNotFound
	}
	delete(r.themes, key)
	return nil
}
