package cmd

import (
	"fmt"
	"reflect"
	"time"

	"github.com/jmylchreest/themesd/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configDumpDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the effective configuration",
	Long: `Print the configuration themesd would run with, in YAML.

With --defaults only built-in defaults are shown, which makes a useful
starting point for a config file:

  themesd config dump --defaults > config.yaml

Environment variables use the THEMESD_ prefix and underscores for nesting.
Example: themes.dir -> THEMESD_THEMES_DIR`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
	configDumpCmd.Flags().BoolVar(&configDumpDefaults, "defaults", false, "show built-in defaults only")
}

// redactedKeys are replaced in dumps when set.
var redactedKeys = map[string]bool{"password": true, "dsn": true}

// toMap converts a config struct to a map keyed by mapstructure tags, with
// durations and sizes rendered the way they are written in config files.
func toMap(v any) map[string]any {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	typ := val.Type()

	result := make(map[string]any, val.NumField())
	for i := range val.NumField() {
		field := val.Field(i)
		key := typ.Field(i).Tag.Get("mapstructure")
		if key == "" {
			key = typ.Field(i).Name
		}

		switch fv := field.Interface().(type) {
		case time.Duration:
			result[key] = fv.String()
		case config.ByteSize:
			result[key] = fv.String()
		case string:
			if redactedKeys[key] && fv != "" {
				result[key] = "<redacted>"
			} else {
				result[key] = fv
			}
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(fv)
			} else {
				result[key] = fv
			}
		}
	}
	return result
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if configDumpDefaults {
		v := viper.New()
		config.SetDefaults(v)
		cfg, err = config.FromViper(v)
	} else {
		cfg, err = loadConfig()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	data, err := yaml.Marshal(toMap(cfg))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "# themesd configuration")
	fmt.Fprintln(out, "# Duration format: 30s, 5m, 1h. Size format: 8KB, 1MiB.")
	fmt.Fprintln(out)
	_, err = out.Write(data)
	return err
}
