package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/jmylchreest/themesd/internal/http/handlers"
	"github.com/spf13/cobra"
)

var themesJSON bool

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Inspect installed themes",
}

var themesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the themes found in the themes directory",
	Long: `List every theme directory and the metadata read from its stylesheet
header. Broken themes are shown with the reason they cannot be served.`,
	Args: cobra.NoArgs,
	RunE: runThemesList,
}

func init() {
	rootCmd.AddCommand(themesCmd)
	themesCmd.AddCommand(themesListCmd)
	themesListCmd.Flags().BoolVar(&themesJSON, "json", false, "print presentable themes as JSON")
}

func runThemesList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	themes, err := newThemeService(cfg, slog.Default())
	if err != nil {
		return err
	}
	entries, err := themes.ListThemes(cmd.Context())
	if err != nil {
		return err
	}

	if themesJSON {
		out := make([]handlers.ThemeResponse, 0, len(entries))
		for _, e := range entries {
			if resp, err := handlers.ThemeFromModel(e.Key, e.Theme); err == nil {
				out = append(out, resp)
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tVERSION\tTAGS\tSTATUS")
	for _, e := range entries {
		status := "ok"
		switch {
		case e.Theme.IsBroken():
			status = "broken"
			if e.Theme != nil {
				status += ": " + e.Theme.Err.Error()
			}
			fmt.Fprintf(w, "%s\t\t\t\t%s\n", e.Key, status)
			continue
		case e.Key == themes.ActiveTheme():
			status = "active"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Key, e.Theme.Name, e.Theme.Version, strings.Join(e.Theme.Tags, ","), status)
	}
	return w.Flush()
}
