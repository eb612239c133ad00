package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/themesd/internal/auth"
	"github.com/jmylchreest/themesd/internal/http/apierror"
	"github.com/jmylchreest/themesd/internal/observability"
	"github.com/jmylchreest/themesd/internal/registry"
	"github.com/jmylchreest/themesd/internal/schema"
	"github.com/jmylchreest/themesd/internal/service"
)

// FieldResolver produces the value of an extension field for a theme.
// It reports false when the theme has no value for the field.
type FieldResolver func(entry registry.Entry) (any, bool)

// HeaderField resolves an extension field from an extra stylesheet header.
func HeaderField(label string) FieldResolver {
	return func(entry registry.Entry) (any, bool) {
		if entry.Theme == nil {
			return nil, false
		}
		value, ok := entry.Theme.Extra[label]
		return value, ok
	}
}

// ThemeSchema returns the base schema properties of a theme.
func ThemeSchema() map[string]schema.Property {
	str := func(desc string) schema.Property {
		return schema.Property{Description: desc, Type: "string"}
	}
	return map[string]schema.Property{
		"name":        str("The theme's display name."),
		"slug":        str("Unique identifier for the theme."),
		"version":     str("The theme's current version."),
		"description": str("A description of the theme."),
		"author":      str("The theme author."),
		"author_uri":  str("The website of the theme author."),
		"text_domain": str("The theme's text domain."),
		"domain_path": str("The path to the theme's translation files."),
		"tags": {
			Description: "Tags describing the theme's features.",
			Type:        "array",
			MinItems:    schema.IntPtr(1),
			Items:       &schema.Property{Type: "string"},
		},
	}
}

// ThemeHandler serves the theme resource.
type ThemeHandler struct {
	themes      *service.ThemeService
	permissions auth.PermissionEvaluator
	schema      *schema.Builder
	namespace   string
	logger      *slog.Logger

	mu        sync.RWMutex
	resolvers map[string]FieldResolver
}

// NewThemeHandler creates a theme handler mounted under namespace.
func NewThemeHandler(themes *service.ThemeService, permissions auth.PermissionEvaluator, namespace string) *ThemeHandler {
	return &ThemeHandler{
		themes:      themes,
		permissions: permissions,
		schema:      schema.NewBuilder("theme", ThemeSchema()),
		namespace:   strings.TrimSuffix(namespace, "/"),
		logger:      slog.Default(),
		resolvers:   make(map[string]FieldResolver),
	}
}

// WithLogger sets the logger for the handler.
func (h *ThemeHandler) WithLogger(logger *slog.Logger) *ThemeHandler {
	h.logger = logger
	return h
}

// RegisterField adds an extension field to the theme schema. A nil resolve
// publishes the field in the schema without filling it in responses.
func (h *ThemeHandler) RegisterField(name string, prop schema.Property, resolve FieldResolver) error {
	if err := h.schema.Register(name, prop); err != nil {
		return err
	}
	if resolve != nil {
		h.mu.Lock()
		h.resolvers[name] = resolve
		h.mu.Unlock()
	}
	return nil
}

// Register registers the theme routes with the Huma API.
func (h *ThemeHandler) Register(api huma.API) {
	collection := h.namespace + "/themes"
	item := collection + "/{slug}"
	security := []map[string][]string{{"basicAuth": {}}}

	huma.Register(api, huma.Operation{
		OperationID: "listThemes",
		Method:      http.MethodGet,
		Path:        collection,
		Summary:     "List installed themes",
		Description: "Returns every installed theme. Requires the switch_themes capability.",
		Tags:        []string{"Themes"},
		Security:    security,
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError},
	}, h.ListThemes)

	huma.Register(api, huma.Operation{
		OperationID: "getTheme",
		Method:      http.MethodGet,
		Path:        item,
		Summary:     "Get a theme",
		Description: "Returns a single installed theme. Requires the switch_themes capability.",
		Tags:        []string{"Themes"},
		Security:    security,
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError},
	}, h.GetTheme)

	huma.Register(api, huma.Operation{
		OperationID: "deleteTheme",
		Method:      http.MethodDelete,
		Path:        item,
		Summary:     "Delete a theme",
		Description: "Removes an installed theme. The active theme cannot be deleted. Requires the delete_themes capability.",
		Tags:        []string{"Themes"},
		Security:    security,
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError},
	}, h.DeleteTheme)

	huma.Register(api, huma.Operation{
		OperationID: "describeThemes",
		Method:      http.MethodOptions,
		Path:        collection,
		Summary:     "Describe the theme collection",
		Tags:        []string{"Themes"},
	}, h.DescribeThemes)

	huma.Register(api, huma.Operation{
		OperationID: "describeTheme",
		Method:      http.MethodOptions,
		Path:        item,
		Summary:     "Describe a theme",
		Tags:        []string{"Themes"},
	}, h.DescribeTheme)
}

// ListThemesInput is the input for listing themes.
type ListThemesInput struct{}

// ListThemesOutput is the output for listing themes.
type ListThemesOutput struct {
	Body []ThemeResponse
}

// ThemeSlugInput identifies a theme by slug. The slug is checked against
// registry.SlugPattern after authorization, so callers without access learn
// nothing from a malformed slug.
type ThemeSlugInput struct {
	Slug string `path:"slug" doc:"Theme slug, matching ^[\\w-]+$"`
}

// GetThemeOutput is the output for getting a theme.
type GetThemeOutput struct {
	Body ThemeResponse
}

// DeleteThemeOutput is the output for deleting a theme.
type DeleteThemeOutput struct {
	Body DeleteThemeResponse
}

// DescribeThemesInput is the input for describing the collection.
type DescribeThemesInput struct{}

// DescribeOutput carries the schema description.
type DescribeOutput struct {
	Allow string `header:"Allow"`
	Body  SchemaDescription
}

// ListThemes returns all presentable installed themes.
func (h *ThemeHandler) ListThemes(ctx context.Context, _ *ListThemesInput) (*ListThemesOutput, error) {
	if err := h.authorize(ctx, auth.CapSwitchThemes, "Sorry, you are not allowed to view themes."); err != nil {
		return nil, err
	}

	entries, err := h.themes.ListThemes(ctx)
	if err != nil {
		observability.WithError(h.log(ctx), err).ErrorContext(ctx, "failed to list themes")
		return nil, apierror.RegistryFailure()
	}

	themes := make([]ThemeResponse, 0, len(entries))
	for _, entry := range entries {
		resp, err := h.present(entry)
		if err != nil {
			observability.WithError(h.log(ctx), err).DebugContext(ctx, "skipping theme that cannot be presented",
				slog.String("slug", entry.Key))
			continue
		}
		themes = append(themes, resp)
	}

	return &ListThemesOutput{Body: themes}, nil
}

// GetTheme returns one installed theme.
func (h *ThemeHandler) GetTheme(ctx context.Context, input *ThemeSlugInput) (*GetThemeOutput, error) {
	if err := h.authorize(ctx, auth.CapSwitchThemes, "Sorry, you are not allowed to view themes."); err != nil {
		return nil, err
	}
	if err := checkSlug(input.Slug); err != nil {
		return nil, err
	}

	entry, err := h.themes.GetTheme(ctx, input.Slug)
	if err != nil {
		return nil, h.translate(ctx, input.Slug, err)
	}

	resp, err := h.present(entry)
	if err != nil {
		observability.WithError(h.log(ctx), err).WarnContext(ctx, "theme cannot be presented",
			slog.String("slug", entry.Key))
		return nil, apierror.ThemeBroken()
	}

	return &GetThemeOutput{Body: resp}, nil
}

// DeleteTheme removes an installed theme.
func (h *ThemeHandler) DeleteTheme(ctx context.Context, input *ThemeSlugInput) (*DeleteThemeOutput, error) {
	if err := h.authorize(ctx, auth.CapDeleteThemes, "Sorry, you are not allowed to delete themes."); err != nil {
		return nil, err
	}
	if err := checkSlug(input.Slug); err != nil {
		return nil, err
	}

	previous, err := h.themes.DeleteTheme(ctx, input.Slug)
	if err != nil {
		return nil, h.translate(ctx, input.Slug, err)
	}

	out := &DeleteThemeOutput{Body: DeleteThemeResponse{Deleted: true}}
	if resp, err := h.present(previous); err == nil {
		out.Body.Previous = &resp
	}
	return out, nil
}

// DescribeThemes returns the schema for the collection route.
func (h *ThemeHandler) DescribeThemes(_ context.Context, _ *DescribeThemesInput) (*DescribeOutput, error) {
	return h.describe(http.MethodGet), nil
}

// DescribeTheme returns the schema for the item route.
func (h *ThemeHandler) DescribeTheme(_ context.Context, input *ThemeSlugInput) (*DescribeOutput, error) {
	if err := checkSlug(input.Slug); err != nil {
		return nil, err
	}
	return h.describe(http.MethodGet, http.MethodDelete), nil
}

func (h *ThemeHandler) describe(methods ...string) *DescribeOutput {
	return &DescribeOutput{
		Allow: strings.Join(methods, ", "),
		Body: SchemaDescription{
			Namespace: strings.TrimPrefix(h.namespace, "/"),
			Methods:   methods,
			Schema:    h.schema.Build(),
		},
	}
}

// authorize checks the caller's capability before any theme is read.
// Evaluator failures deny access.
func (h *ThemeHandler) authorize(ctx context.Context, capability auth.Capability, message string) error {
	user := auth.UserFromContext(ctx)

	allowed, err := h.permissions.HasCapability(ctx, user, capability)
	if err != nil {
		observability.WithError(h.log(ctx), err).ErrorContext(ctx, "capability check failed",
			slog.String("capability", string(capability)))
		allowed = false
	}
	if !allowed {
		return apierror.Forbidden(user != nil, message)
	}
	return nil
}

// present converts an entry and fills registered extension fields.
func (h *ThemeHandler) present(entry registry.Entry) (ThemeResponse, error) {
	resp, err := ThemeFromModel(entry.Key, entry.Theme)
	if err != nil {
		return ThemeResponse{}, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for name, resolve := range h.resolvers {
		value, ok := resolve(entry)
		if !ok {
			continue
		}
		if resp.Extensions == nil {
			resp.Extensions = make(map[string]any, len(h.resolvers))
		}
		resp.Extensions[name] = value
	}
	return resp, nil
}

// translate maps service errors onto API errors.
func (h *ThemeHandler) translate(ctx context.Context, slug string, err error) error {
	switch {
	case errors.Is(err, service.ErrThemeNotFound):
		return apierror.InvalidID()
	case errors.Is(err, service.ErrActiveThemeDelete):
		return apierror.ActiveTheme()
	default:
		observability.WithError(h.log(ctx), err).ErrorContext(ctx, "theme registry failure",
			slog.String("slug", slug))
		return apierror.RegistryFailure()
	}
}

// log returns the request's logger, or the handler's own outside a request.
func (h *ThemeHandler) log(ctx context.Context) *slog.Logger {
	return observability.LoggerFromContext(ctx, h.logger)
}

func checkSlug(slug string) error {
	if registry.SlugPattern.MatchString(slug) {
		return nil
	}
	return apierror.InvalidParam(fmt.Sprintf("slug: %q does not match %s", slug, registry.SlugPattern))
}
