package registry

import (
	"regexp"
	"strings"

	"github.com/jmylchreest/themesd/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// headerField is one "Name: value" line of a stylesheet comment header.
type headerField struct {
	pattern *regexp.Regexp
	assign  func(t *models.Theme, value string)
}

var headerFields = []headerField{
	newHeaderField("Theme Name", func(t *models.Theme, v string) { t.Name = v }),
	newHeaderField("Version", func(t *models.Theme, v string) { t.Version = v }),
	newHeaderField("Description", func(t *models.Theme, v string) { t.Description = v }),
	newHeaderField("Author", func(t *models.Theme, v string) { t.Author = v }),
	newHeaderField("Author URI", func(t *models.Theme, v string) { t.AuthorURI = v }),
	newHeaderField("Text Domain", func(t *models.Theme, v string) { t.TextDomain = v }),
	newHeaderField("Domain Path", func(t *models.Theme, v string) { t.DomainPath = v }),
	newHeaderField("Tags", func(t *models.Theme, v string) { t.Tags = splitTags(v) }),
}

// commentTail strips a closing comment marker and everything after it.
var commentTail = regexp.MustCompile(`\s*(?:\*/|\?>).*`)

func newHeaderField(label string, assign func(*models.Theme, string)) headerField {
	return headerField{
		pattern: regexp.MustCompile(`(?mi)^[ \t/*#@]*` + regexp.QuoteMeta(label) + `:(.*)$`),
		assign:  assign,
	}
}

// ParseHeader reads theme metadata from the leading comment of a stylesheet.
// Labels in extra are read into Theme.Extra when present. Missing fields are
// left empty and Tags is never nil.
func ParseHeader(data []byte, extra ...string) *models.Theme {
	text := strings.ReplaceAll(string(data), "\r", "\n")

	theme := &models.Theme{Tags: []string{}}
	for _, f := range headerFields {
		if value, ok := f.find(text); ok {
			f.assign(theme, value)
		}
	}

	for _, label := range extra {
		f := newHeaderField(label, func(t *models.Theme, v string) {
			if t.Extra == nil {
				t.Extra = make(map[string]string, len(extra))
			}
			t.Extra[label] = v
		})
		if value, ok := f.find(text); ok {
			f.assign(theme, value)
		}
	}
	return theme
}

func (f headerField) find(text string) (string, bool) {
	m := f.pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(commentTail.ReplaceAllString(m[1], "")), true
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// DisplayName derives a human-readable name from a theme key.
func DisplayName(key string) string {
	name := strings.NewReplacer("-", " ", "_", " ").Replace(key)
	// Casers carry state and are not safe to share.
	return cases.Title(language.English).String(name)
}
