package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iliyamo/parking-gate-control/internal/config"
	"github.com/iliyamo/parking-gate-control/internal/model"
	"github.com/iliyamo/parking-gate-control/internal/repository"
)

var seedEmail, seedPassword, createName string

var createUserCmd = &cobra.Command{
	Use:   "create-user <email> <password> <role>",
	Short: "Create an account with the given role (admin, operator, viewer)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd, func(ctx context.Context, cfg config.Config, users userStore) error {
			return createUser(ctx, cmd.OutOrStdout(), users, args[0], args[1], args[2], createName, cfg.BcryptCost)
		})
	},
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin account, or reset its password and role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd, func(ctx context.Context, cfg config.Config, users userStore) error {
			email, pw := seedEmail, seedPassword
			if email == "" {
				email = cfg.DefaultAdmin.Email
			}
			if pw == "" {
				pw = cfg.DefaultAdmin.Password
			}
			return seedAdmin(ctx, cmd.OutOrStdout(), users, email, pw, cfg.BcryptCost)
		})
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role <email> <role>",
	Short: "Change a user's role (admin, operator, viewer)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd, func(ctx context.Context, _ config.Config, users userStore) error {
			return setRole(ctx, cmd.OutOrStdout(), users, args[0], args[1])
		})
	},
}

var setPasswordCmd = &cobra.Command{
	Use:   "set-password <email> <password>",
	Short: "Reset a user's password",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd, func(ctx context.Context, cfg config.Config, users userStore) error {
			return setPassword(ctx, cmd.OutOrStdout(), users, args[0], args[1], cfg.BcryptCost)
		})
	},
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "admin email (default $DEFAULT_ADMIN_EMAIL)")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "admin password (default $DEFAULT_ADMIN_PW)")
	createUserCmd.Flags().StringVar(&createName, "name", "", "display name")
	rootCmd.AddCommand(createUserCmd, seedAdminCmd, setRoleCmd, setPasswordCmd)
}

func seedAdmin(ctx context.Context, out io.Writer, users userStore, email, pw string, cost int) error {
	email = repository.NormalizeEmail(email)
	if email == "" || pw == "" {
		return errors.New("email and password are required")
	}
	created, err := users.UpsertAdmin(ctx, email, pw, cost)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		fmt.Fprintf(out, "created admin %s\n", email)
	} else {
		fmt.Fprintf(out, "updated admin %s\n", email)
	}
	return nil
}

func createUser(ctx context.Context, out io.Writer, users userStore, email, pw, rawRole, name string, cost int) error {
	role, ok := model.ParseRole(rawRole)
	if !ok {
		return fmt.Errorf("unknown role %q: want admin, operator or viewer", rawRole)
	}
	email = repository.NormalizeEmail(email)
	if email == "" || pw == "" {
		return errors.New("email and password are required")
	}
	id, err := users.Create(ctx, email, pw, role, name, cost)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(out, "created %s %s (%s)\n", role, email, id)
	return nil
}

func setRole(ctx context.Context, out io.Writer, users userStore, email, raw string) error {
	role, ok := model.ParseRole(raw)
	if !ok {
		return fmt.Errorf("unknown role %q: want admin, operator or viewer", raw)
	}
	if err := users.UpdateRole(ctx, email, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	fmt.Fprintf(out, "%s is now %s\n", repository.NormalizeEmail(email), role)
	return nil
}

func setPassword(ctx context.Context, out io.Writer, users userStore, email, pw string, cost int) error {
	if pw == "" {
		return errors.New("password is required")
	}
	if err := users.UpdatePassword(ctx, email, pw, cost); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	fmt.Fprintf(out, "password updated for %s\n", repository.NormalizeEmail(email))
	return nil
}
