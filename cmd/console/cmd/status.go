package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/storefront-tools/admin-console/internal/errors"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Resolve and print the current session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		switch err := env.manager.Check(cmd.Context()); {
		case err == nil:
		case apperrors.Is(err, apperrors.ErrSessionExpired):
			fmt.Println("Session expired. Log in again.")
			return nil
		default:
			fmt.Println("Not logged in.")
			return nil
		}

		fmt.Println("Logged in.")
		if record, ok, err := env.store.Load(); err == nil && ok {
			fmt.Printf("Session confirmed until %s.\n", record.ExpiresAt.Local().Format("15:04:05"))
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the local session and notify the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		env.manager.Logout(cmd.Context())
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logoutCmd)
}
