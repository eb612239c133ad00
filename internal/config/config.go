// Package config provides configuration management for themesd using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 30 * time.Minute
	defaultMaxHeaderSize   = 8 * 1024 // matches the 8KB header window of the stylesheet convention
	defaultNamespace       = "/wp/v2"
)

// fieldNamePattern restricts extension schema field names to JSON-friendly identifiers.
var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Themes   ThemesConfig   `mapstructure:"themes"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
	// EnableRequestLogging logs every HTTP request; when false only 4xx/5xx are logged.
	EnableRequestLogging bool `mapstructure:"enable_request_logging"`
}

// ThemesConfig holds theme registry and resource configuration.
type ThemesConfig struct {
	// Dir is the directory containing one sub-directory per installed theme.
	Dir string `mapstructure:"dir"`
	// Active is the slug of the theme in use; it cannot be deleted through the API.
	Active string `mapstructure:"active"`
	// Namespace is the route prefix the theme resource is mounted under.
	Namespace string `mapstructure:"namespace"`
	// MaxHeaderSize bounds how much of style.css is read when parsing the theme header.
	// Supports human-readable values like "8KB".
	MaxHeaderSize ByteSize `mapstructure:"max_header_size"`
	// AdditionalFields are appended to the published item schema.
	AdditionalFields []SchemaFieldConfig `mapstructure:"additional_fields"`
}

// SchemaFieldConfig describes an extension field registered on the theme schema.
type SchemaFieldConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Type        string `mapstructure:"type" yaml:"type"`
	Description string `mapstructure:"description" yaml:"description"`
	// Header is an extra style.css header label whose value fills the field.
	// Fields without a header are published in the schema only.
	Header string `mapstructure:"header" yaml:"header,omitempty"`
}

// AuthConfig holds authentication and authorization configuration.
type AuthConfig struct {
	// Roles overrides the default role to capability mapping.
	Roles     map[string][]string `mapstructure:"roles"`
	Bootstrap BootstrapConfig     `mapstructure:"bootstrap"`
}

// BootstrapConfig seeds an administrator when the user table is empty.
type BootstrapConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with THEMESD_ and use underscores for nesting.
// Example: THEMESD_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/themesd")
		v.AddConfigPath("$HOME/.themesd")
	}

	v.SetEnvPrefix("THEMESD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "themesd.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)
	v.SetDefault("logging.enable_request_logging", true)

	// Theme defaults
	v.SetDefault("themes.dir", "./themes")
	v.SetDefault("themes.active", "")
	v.SetDefault("themes.namespace", defaultNamespace)
	v.SetDefault("themes.max_header_size", defaultMaxHeaderSize)

	// Auth defaults
	v.SetDefault("auth.bootstrap.username", "")
	v.SetDefault("auth.bootstrap.password", "")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Themes.Dir == "" {
		return fmt.Errorf("themes.dir is required")
	}
	if !strings.HasPrefix(c.Themes.Namespace, "/") || strings.HasSuffix(c.Themes.Namespace, "/") {
		return fmt.Errorf("themes.namespace must start with / and must not end with /")
	}
	if c.Themes.MaxHeaderSize < 1 {
		return fmt.Errorf("themes.max_header_size must be positive")
	}
	validFieldTypes := map[string]bool{"string": true, "integer": true, "number": true, "boolean": true, "array": true, "object": true}
	for i, f := range c.Themes.AdditionalFields {
		if !fieldNamePattern.MatchString(f.Name) {
			return fmt.Errorf("themes.additional_fields[%d].name %q is not a valid field name", i, f.Name)
		}
		if !validFieldTypes[f.Type] {
			return fmt.Errorf("themes.additional_fields[%d].type %q is not a JSON schema type", i, f.Type)
		}
		if f.Header != "" && f.Type != "string" {
			return fmt.Errorf("themes.additional_fields[%d] reads header %q and must be of type string", i, f.Header)
		}
	}

	if (c.Auth.Bootstrap.Username == "") != (c.Auth.Bootstrap.Password == "") {
		return fmt.Errorf("auth.bootstrap requires both username and password")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
