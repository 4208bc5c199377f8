package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rolepush/internal/accounts"
	"rolepush/internal/apierr"
	"rolepush/internal/auth"
	"rolepush/internal/store"
)

var superAdminCmd = &cobra.Command{
	Use:   "create-super-admin",
	Short: "Create a super admin, or promote an existing account with --force",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		flags := cmd.Flags()
		in := accounts.SuperAdminInput{
			Name:     stringFlag(cmd, "name", cfg.SuperAdminName),
			Email:    stringFlag(cmd, "email", cfg.SuperAdminEmail),
			Password: stringFlag(cmd, "password", cfg.SuperAdminPassword),
		}
		force, _ := flags.GetBool("force")

		ctx := cmd.Context()
		st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer st.Close()

		tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
		acc := accounts.NewService(st, tokens, auth.NewMemoryRevoker(), cfg.JWTIssuer)

		user, created, err := acc.EnsureSuperAdmin(ctx, in, force)
		if err != nil {
			return describe(err)
		}

		verb := "Promoted"
		if created {
			verb = "Created"
		}
		fmt.Fprintf(os.Stdout, "%s super admin %s (id %d)\n", verb, user.Email, user.ID)
		return nil
	},
}

func init() {
	superAdminCmd.Flags().String("name", "", "display name (default $SUPER_ADMIN_NAME)")
	superAdminCmd.Flags().String("email", "", "email address (default $SUPER_ADMIN_EMAIL)")
	superAdminCmd.Flags().String("password", "", "password, at least 8 characters (default $SUPER_ADMIN_PASSWORD)")
	superAdminCmd.Flags().Bool("force", false, "reset password and role if the account already exists")
	rootCmd.AddCommand(superAdminCmd)
}

func stringFlag(cmd *cobra.Command, name, def string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return def
}

// describe flattens validation field errors into one line for the terminal.
func describe(err error) error {
	e := apierr.From(err)
	if len(e.Fields) == 0 {
		return err
	}
	msg := e.Message
	for field, problems := range e.Fields {
		for _, p := range problems {
			msg += fmt.Sprintf("\n  %s: %s", field, p)
		}
	}
	return fmt.Errorf("%s", msg)
}
