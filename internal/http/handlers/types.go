// Package handlers provides the HTTP API handlers for themesd.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jmylchreest/themesd/internal/models"
	"github.com/jmylchreest/themesd/internal/schema"
)

// ErrThemeUnpresentable is returned by ThemeFromModel for a broken theme.
var ErrThemeUnpresentable = errors.New("theme cannot be presented")

// Theme types

// ThemeResponse is the public representation of an installed theme.
// Field order is part of the wire format.
type ThemeResponse struct {
	Name        string   `json:"name" doc:"The theme's display name."`
	Slug        string   `json:"slug" doc:"Unique identifier for the theme."`
	Version     string   `json:"version" doc:"The theme's current version."`
	Description string   `json:"description" doc:"A description of the theme."`
	Author      string   `json:"author" doc:"The theme author."`
	AuthorURI   string   `json:"author_uri" doc:"The website of the theme author."`
	TextDomain  string   `json:"text_domain" doc:"The theme's text domain."`
	DomainPath  string   `json:"domain_path" doc:"The path to the theme's translation files."`
	Tags        []string `json:"tags" doc:"Tags describing the theme's features."`

	// Extensions holds registered extension fields, written after Tags in
	// name order.
	Extensions map[string]any `json:"-"`
}

// MarshalJSON writes the base fields followed by any extension fields.
func (r ThemeResponse) MarshalJSON() ([]byte, error) {
	type plain ThemeResponse
	data, err := json.Marshal(plain(r))
	if err != nil || len(r.Extensions) == 0 {
		return data, err
	}

	buf := bytes.NewBuffer(data[:len(data)-1])
	for _, name := range slices.Sorted(maps.Keys(r.Extensions)) {
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.Extensions[name])
		if err != nil {
			return nil, fmt.Errorf("encoding field %s: %w", name, err)
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ThemeFromModel converts a registry record stored under slug into its
// response form.
func ThemeFromModel(slug string, t *models.Theme) (ThemeResponse, error) {
	if t.IsBroken() {
		if t != nil {
			return ThemeResponse{}, fmt.Errorf("%w: %w", ErrThemeUnpresentable, t.Err)
		}
		return ThemeResponse{}, ErrThemeUnpresentable
	}

	tags := make([]string, len(t.Tags))
	copy(tags, t.Tags)

	return ThemeResponse{
		Name:        t.Name,
		Slug:        slug,
		Version:     t.Version,
		Description: t.Description,
		Author:      t.Author,
		AuthorURI:   t.AuthorURI,
		TextDomain:  t.TextDomain,
		DomainPath:  t.DomainPath,
		Tags:        tags,
	}, nil
}

// DeleteThemeResponse reports a completed deletion.
type DeleteThemeResponse struct {
	Deleted  bool           `json:"deleted"`
	Previous *ThemeResponse `json:"previous,omitempty" doc:"The theme as it was before deletion."`
}

// SchemaDescription is returned by OPTIONS requests on the theme routes.
type SchemaDescription struct {
	Namespace string          `json:"namespace"`
	Methods   []string        `json:"methods"`
	Schema    schema.Document `json:"schema"`
}

// Health types

// LivezResponse is returned by the liveness probe.
type LivezResponse struct {
	Status string `json:"status"`
}

// ReadyzResponse is returned by the readiness probe.
type ReadyzResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string         `json:"status"`
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	CPUInfo       CPUInfo        `json:"cpu_info"`
	Memory        MemoryInfo     `json:"memory"`
	Database      DatabaseHealth `json:"database"`
	Themes        ThemesHealth   `json:"themes"`
}

// CPUInfo contains load averages.
type CPUInfo struct {
	Cores              int     `json:"cores"`
	Load1Min           float64 `json:"load_1min"`
	Load5Min           float64 `json:"load_5min"`
	Load15Min          float64 `json:"load_15min"`
	LoadPercentage1Min float64 `json:"load_percentage_1min"`
}

// MemoryInfo contains system and process memory usage in megabytes.
type MemoryInfo struct {
	TotalMemoryMB     float64 `json:"total_memory_mb"`
	UsedMemoryMB      float64 `json:"used_memory_mb"`
	AvailableMemoryMB float64 `json:"available_memory_mb"`
	ProcessMemoryMB   float64 `json:"process_memory_mb"`
}

// DatabaseHealth reports the account store's state.
type DatabaseHealth struct {
	Status            string  `json:"status"`
	Driver            string  `json:"driver,omitempty"`
	ResponseTimeMS    float64 `json:"response_time_ms"`
	MaxConnections    int     `json:"max_connections"`
	ActiveConnections int     `json:"active_connections"`
	IdleConnections   int     `json:"idle_connections"`
}

// ThemesHealth reports the theme registry's state.
type ThemesHealth struct {
	Status    string `json:"status"`
	Installed int    `json:"installed"`
	Active    string `json:"active,omitempty"`
}
