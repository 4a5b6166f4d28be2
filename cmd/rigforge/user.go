package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HerbHall/rigforge/internal/auth"
	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/internal/store"
)

var (
	userUsername string
	userEmail    string
	userPassword string
	userRole     string
)

// userCmd groups account management.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage shop accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Long: `Create a customer, staff or admin account. The first admin has to be
created this way since the HTTP API has no sign-up for privileged roles.`,
	Example: `  rigforge user create --username alice --password 'correct horse' --role admin`,
	Args:    cobra.NoArgs,
	RunE:    runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userUsername, "username", "", "login name (required)")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "initial password (required)")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address (default: <username>@rigforge.local)")
	userCreateCmd.Flags().StringVar(&userRole, "role", services.RoleCustomer, "customer, staff or admin")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	db, err := store.New(cfg.GetString("database.path"))
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := services.NewSQLiteUserRepository(ctx, db)
	if err != nil {
		return err
	}
	u, err := auth.CreateUser(ctx, users, auth.NewUser{
		Username: userUsername,
		Email:    userEmail,
		Password: userPassword,
		Role:     userRole,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %q (%s)\n", u.Role, u.Username, u.ID)
	return nil
}
