package models

import "errors"

// ThemeStylesheet is the file whose comment header carries a theme's metadata.
const ThemeStylesheet = "style.css"

// ErrStylesheetMissing marks a theme directory without a readable stylesheet.
var ErrStylesheetMissing = errors.New("stylesheet is missing")

// Theme is an installed presentation theme as reported by the theme registry.
//
// A theme carries no identifier of its own: the registry key it is stored
// under is its slug.
type Theme struct {
	Name        string
	Version     string
	Description string
	Author      string
	AuthorURI   string
	TextDomain  string
	DomainPath  string
	Tags        []string

	// Extra holds additional stylesheet header values keyed by header label.
	Extra map[string]string

	// Err is set when the registry found the theme but could not read a
	// usable record for it. Such a theme is broken and cannot be presented.
	Err error
}

// IsBroken reports whether the registry flagged the theme as unusable.
func (t *Theme) IsBroken() bool {
	return t == nil || t.Err != nil
}
