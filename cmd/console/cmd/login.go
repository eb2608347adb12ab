package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storefront-tools/admin-console/gateway"
)

var (
	flagEmail    string
	flagPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the admin backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		outcome := env.manager.Login(cmd.Context(), flagEmail, flagPassword)
		switch outcome {
		case gateway.OutcomeSuccess:
			fmt.Println("Logged in.")
			return nil
		case gateway.OutcomeInvalidCredentials:
			fmt.Println("Invalid email or password.")
		case gateway.OutcomeNotAuthorized:
			fmt.Println("This account does not have admin access.")
		default:
			fmt.Println("Could not reach the server. Please try again.")
		}
		return outcome.Err()
	},
}

func init() {
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(loginCmd)
}
