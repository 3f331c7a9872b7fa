package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pagevault/library/internal/db"
	"github.com/pagevault/library/internal/repo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := setup()
			defer log.Sync()

			database, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}

// readPassword reads a password from the terminal without echo
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func newSeedAdminCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the administrator account, or promote it if it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := setup()
			defer log.Sync()

			if email == "" {
				email = cfg.AdminEmail
			}
			if name == "" {
				name = cfg.AdminName
			}
			if email == "" {
				return fmt.Errorf("an email is required (--email or ADMIN_EMAIL)")
			}

			password := cfg.AdminPassword
			if password == "" {
				var err error
				if password, err = readPassword(fmt.Sprintf("Password for %s: ", email)); err != nil {
					return err
				}
			}
			if password == "" {
				return fmt.Errorf("password cannot be empty")
			}

			database, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close()
			rdb := newRedisClient(cfg)
			defer rdb.Close()

			account, created, err := newAuthService(cfg, database, rdb, log).SeedAdmin(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (ID: %s)\n", account.Email, account.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is an admin (ID: %s)\n", account.Email, account.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email (defaults to ADMIN_EMAIL)")
	cmd.Flags().StringVar(&name, "name", "", "admin full name (defaults to ADMIN_NAME)")
	return cmd
}

func newGrantAdminCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "grant-admin",
		Short: "Give an existing account the Admin role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := setup()
			defer log.Sync()

			database, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close()

			accounts := repo.NewAccountRepository(database, log)
			account, err := accounts.FindByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("find %s: %w", email, err)
			}
			if _, err := accounts.SetRole(cmd.Context(), account.ID, db.RoleAdmin); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Granted Admin to %s (ID: %s)\n", account.Email, account.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the account to promote")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
