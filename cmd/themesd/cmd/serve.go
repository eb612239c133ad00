package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/themesd/internal/auth"
	"github.com/jmylchreest/themesd/internal/config"
	"github.com/jmylchreest/themesd/internal/database"
	"github.com/jmylchreest/themesd/internal/database/migrations"
	internalhttp "github.com/jmylchreest/themesd/internal/http"
	"github.com/jmylchreest/themesd/internal/http/handlers"
	"github.com/jmylchreest/themesd/internal/observability"
	"github.com/jmylchreest/themesd/internal/registry"
	"github.com/jmylchreest/themesd/internal/repository"
	"github.com/jmylchreest/themesd/internal/schema"
	"github.com/jmylchreest/themesd/internal/service"
	"github.com/jmylchreest/themesd/internal/storage"
	"github.com/jmylchreest/themesd/internal/version"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the themesd server",
	Long: `Start the themesd HTTP server.

The server provides:
- The theme resource under the configured namespace (default /wp/v2/themes)
- Liveness, readiness and health endpoints
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("themes-dir", "./themes", "Directory holding installed themes")
	serveCmd.Flags().String("active-theme", "", "Slug of the theme in use")

	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("themes.dir", serveCmd.Flags().Lookup("themes-dir"))
	mustBindPFlag("themes.active", serveCmd.Flags().Lookup("active-theme"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database", slog.String("error", err.Error()))
		}
	}()

	users := repository.NewUserRepository(db.DB)
	created, err := auth.EnsureBootstrapUser(ctx, users, cfg.Auth.Bootstrap)
	if err != nil {
		return fmt.Errorf("bootstrapping users: %w", err)
	}
	if created {
		logger.Info("created bootstrap administrator", slog.String("username", cfg.Auth.Bootstrap.Username))
	}

	themes, err := newThemeService(cfg, logger)
	if err != nil {
		return err
	}
	warnIfActiveMissing(ctx, themes, logger)

	themeHandler := handlers.NewThemeHandler(
		themes,
		auth.NewRoleEvaluator(auth.RolesFromConfig(cfg.Auth.Roles)),
		cfg.Themes.Namespace,
	).WithLogger(observability.WithComponent(logger, "http"))
	if err := registerAdditionalFields(themeHandler, cfg.Themes.AdditionalFields); err != nil {
		return err
	}

	serverCfg := internalhttp.DefaultServerConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout
	serverCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	serverCfg.CORSOrigins = cfg.Server.CORSOrigins

	authenticator := auth.NewAuthenticator(users).WithLogger(observability.WithComponent(logger, "auth"))
	server := internalhttp.NewServer(serverCfg, logger, version.Version, authenticator)

	themeHandler.Register(server.API())
	handlers.NewHealthHandler(version.Version).
		WithDB(db).
		WithThemes(themes).
		Register(server.API())

	logger.Info("themesd ready",
		slog.String("version", version.Version),
		slog.String("address", cfg.Server.Address()),
		slog.String("themes_dir", cfg.Themes.Dir),
		slog.String("namespace", cfg.Themes.Namespace),
	)

	return server.ListenAndServe(ctx)
}

// openDatabase connects to the account store and applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.DB, error) {
	db, err := database.New(cfg.Database, logger, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	migrator := migrations.NewMigrator(db.DB, logger)
	migrator.RegisterAll(migrations.AllMigrations())
	if err := migrator.Up(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// newThemeService builds the directory backed theme service.
func newThemeService(cfg *config.Config, logger *slog.Logger) (*service.ThemeService, error) {
	sandbox, err := storage.NewSandbox(cfg.Themes.Dir)
	if err != nil {
		return nil, fmt.Errorf("initializing themes directory: %w", err)
	}

	var headers []string
	for _, f := range cfg.Themes.AdditionalFields {
		if f.Header != "" {
			headers = append(headers, f.Header)
		}
	}

	logger.Debug("themes directory resolved", slog.String("path", sandbox.BaseDir()))

	reg := registry.NewDirectoryRegistry(sandbox, cfg.Themes.MaxHeaderSize.Bytes()).
		WithExtraHeaders(headers...).
		WithLogger(observability.WithComponent(logger, "registry"))

	return service.NewThemeService(reg, cfg.Themes.Active).
		WithLogger(observability.WithComponent(logger, "themes")), nil
}

// registerAdditionalFields publishes configured extension fields.
func registerAdditionalFields(h *handlers.ThemeHandler, fields []config.SchemaFieldConfig) error {
	for _, f := range fields {
		prop := schema.Property{Description: f.Description, Type: f.Type}
		var resolve handlers.FieldResolver
		if f.Header != "" {
			resolve = handlers.HeaderField(f.Header)
		}
		if err := h.RegisterField(f.Name, prop, resolve); err != nil {
			return fmt.Errorf("registering field %s: %w", f.Name, err)
		}
	}
	return nil
}

func warnIfActiveMissing(ctx context.Context, themes *service.ThemeService, logger *slog.Logger) {
	active := themes.ActiveTheme()
	if active == "" {
		logger.Warn("no active theme configured; every installed theme can be deleted")
		return
	}
	if _, err := themes.GetTheme(ctx, active); err != nil {
		logger.Warn("active theme is not installed",
			slog.String("slug", active),
			slog.String("error", err.Error()))
	}
}
