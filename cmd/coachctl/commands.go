package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arihant-coaching/coaching_api/internal/config"
	"github.com/arihant-coaching/coaching_api/internal/identity"
	"github.com/arihant-coaching/coaching_api/internal/infra"
)

// readPassword is swapped in tests so no terminal is needed.
var readPassword = term.ReadPassword

func openDatabase(ctx context.Context) (config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if cfg.DatabaseURL == "" {
		return config.Config{}, nil, errors.New("DATABASE_URL must be set")
	}
	pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, pool, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := infra.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var (
		name          string
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator or promote an existing account",
		Long: `Create an administrator account with a verified email, or promote the
existing account registered under --email. The password is prompted for
unless --password-stdin is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := resolvePassword(cmd.InOrStdin(), cmd.ErrOrStderr(), passwordStdin)
			if err != nil {
				return err
			}

			cfg, pool, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if cfg.AutoMigrate {
				if err := infra.Migrate(cmd.Context(), pool); err != nil {
					return err
				}
			}
			svc := identity.NewService(identity.NewPostgresRepository(pool), cfg.BcryptCost)
			user, err := svc.EnsureAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin ready: %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name for a new account")
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// resolvePassword reads one line from in, or prompts on the terminal twice and
// requires both entries to match.
func resolvePassword(in io.Reader, prompt io.Writer, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return "", errors.New("empty password on stdin")
		}
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	fmt.Fprint(prompt, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(prompt, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
