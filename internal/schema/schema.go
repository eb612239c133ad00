// Package schema builds the JSON schema documents published for REST resources.
//
// A Builder starts from a fixed set of base properties. Extension fields can
// be registered at any time and are merged in each time a document is built;
// they can never replace a base property.
package schema

import (
	"errors"
	"fmt"
	"maps"
	"sync"
)

// Draft04 is the meta-schema URI every document declares.
const Draft04 = "http://json-schema.org/draft-04/schema#"

var (
	// ErrBaseField is returned when an extension reuses a base property name.
	ErrBaseField = errors.New("field is part of the base schema")
	// ErrDuplicateField is returned when an extension name is registered twice.
	ErrDuplicateField = errors.New("field already registered")
	// ErrInvalidField is returned for an extension without a name or type.
	ErrInvalidField = errors.New("field requires a name and a type")
)

// Property describes one field of a resource.
type Property struct {
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string    `json:"type" yaml:"type"`
	MinItems    *int      `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	Items       *Property `json:"items,omitempty" yaml:"items,omitempty"`
	ReadOnly    bool      `json:"readonly,omitempty" yaml:"readonly,omitempty"`
}

// Document is a complete resource schema.
type Document struct {
	Schema     string              `json:"$schema" yaml:"$schema"`
	Title      string              `json:"title" yaml:"title"`
	Type       string              `json:"type" yaml:"type"`
	Properties map[string]Property `json:"properties" yaml:"properties"`
}

// Builder composes a Document from base and extension properties.
// It is safe for concurrent use.
type Builder struct {
	title string
	base  map[string]Property

	mu         sync.RWMutex
	extensions map[string]Property
}

// NewBuilder creates a Builder for an object resource titled title.
func NewBuilder(title string, base map[string]Property) *Builder {
	return &Builder{
		title:      title,
		base:       maps.Clone(base),
		extensions: make(map[string]Property),
	}
}

// Register adds an extension field.
func (b *Builder) Register(name string, prop Property) error {
	if name == "" || prop.Type == "" {
		return ErrInvalidField
	}
	if _, ok := b.base[name]; ok {
		return fmt.Errorf("registering %q: %w", name, ErrBaseField)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.extensions[name]; ok {
		return fmt.Errorf("registering %q: %w", name, ErrDuplicateField)
	}
	b.extensions[name] = prop
	return nil
}

// Extensions returns the names of the registered extension fields.
func (b *Builder) Extensions() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.extensions))
	for name := range b.extensions {
		names = append(names, name)
	}
	return names
}

// Build returns the current document. The result is a fresh copy and may
// be modified by the caller.
func (b *Builder) Build() Document {
	b.mu.RLock()
	defer b.mu.RUnlock()

	props := make(map[string]Property, len(b.base)+len(b.extensions))
	maps.Copy(props, b.extensions)
	maps.Copy(props, b.base)

	return Document{
		Schema:     Draft04,
		Title:      b.title,
		Type:       "object",
		Properties: props,
	}
}

// IntPtr returns a pointer to n, for MinItems.
func IntPtr(n int) *int {
	return &n
}
