package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/jmylchreest/themesd/internal/auth"
	"github.com/jmylchreest/themesd/internal/models"
	"github.com/jmylchreest/themesd/internal/repository"
	"github.com/spf13/cobra"
)

var (
	userRole          string
	userPassword      string
	userPasswordStdin bool
	userDisabled      bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userListCmd, userDeleteCmd)

	userAddCmd.Flags().StringVar(&userRole, "role", auth.RoleSubscriber, "role granted to the account")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "account password")
	userAddCmd.Flags().BoolVar(&userPasswordStdin, "password-stdin", false, "read the password from stdin")
	userAddCmd.Flags().BoolVar(&userDisabled, "disabled", false, "create the account disabled")
	userAddCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

// withUsers opens the account store for a one-shot command.
func withUsers(ctx context.Context, fn func(users repository.UserRepository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(repository.NewUserRepository(db.DB))
}

func readPassword(in io.Reader) (string, error) {
	if !userPasswordStdin {
		return userPassword, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	evaluator := auth.NewRoleEvaluator(auth.RolesFromConfig(cfg.Auth.Roles))
	if !evaluator.KnownRole(userRole) {
		return fmt.Errorf("unknown role %q (known: %s)", userRole, strings.Join(evaluator.Roles(), ", "))
	}

	password, err := readPassword(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("a password is required (--password or --password-stdin)")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		Username:     args[0],
		PasswordHash: hash,
		Role:         userRole,
		Enabled:      models.BoolPtr(!userDisabled),
	}
	if err := user.Validate(); err != nil {
		return err
	}

	return withUsers(cmd.Context(), func(users repository.UserRepository) error {
		existing, err := users.GetByUsername(cmd.Context(), user.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("user %q already exists", user.Username)
		}
		if err := users.Create(cmd.Context(), user); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Username, user.Role)
		return nil
	})
}

func runUserList(cmd *cobra.Command, _ []string) error {
	return withUsers(cmd.Context(), func(users repository.UserRepository) error {
		all, err := users.GetAll(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tROLE\tENABLED\tCREATED")
		for _, u := range all {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", u.Username, u.Role, u.IsEnabled(), u.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	})
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	return withUsers(cmd.Context(), func(users repository.UserRepository) error {
		user, err := users.GetByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %q not found", args[0])
		}
		if err := users.Delete(cmd.Context(), user.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", user.Username)
		return nil
	})
}
