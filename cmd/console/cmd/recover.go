package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storefront-tools/admin-console/gateway"
)

var (
	flagPhoneNumber   string
	flagRecoveryEmail string
)

var findEmailCmd = &cobra.Command{
	Use:   "find-email",
	Short: "Look up the admin email registered for a phone number",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		email, outcome := env.client.FindEmail(cmd.Context(), flagPhoneNumber)
		switch outcome {
		case gateway.OutcomeSuccess:
			fmt.Printf("Registered email: %s\n", email)
			return nil
		case gateway.OutcomeNotAuthorized:
			fmt.Println("No admin account is registered for that phone number.")
		default:
			fmt.Println("Could not reach the server. Please try again.")
		}
		return outcome.Err()
	},
}

var findPasswordCmd = &cobra.Command{
	Use:   "find-password",
	Short: "Request a password reset for an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment()
		if err != nil {
			return err
		}
		defer env.close()

		outcome := env.client.FindPassword(cmd.Context(), flagPhoneNumber, flagRecoveryEmail)
		switch outcome {
		case gateway.OutcomeSuccess:
			fmt.Println("Password reset verified. Check your email.")
			return nil
		case gateway.OutcomeInvalidCredentials:
			fmt.Println("The phone number does not match that account.")
		case gateway.OutcomeNotAuthorized:
			fmt.Println("That account does not have admin access.")
		default:
			fmt.Println("Could not reach the server. Please try again.")
		}
		return outcome.Err()
	},
}

func init() {
	findEmailCmd.Flags().StringVar(&flagPhoneNumber, "phone", "", "registered phone number")
	_ = findEmailCmd.MarkFlagRequired("phone")

	findPasswordCmd.Flags().StringVar(&flagPhoneNumber, "phone", "", "registered phone number")
	findPasswordCmd.Flags().StringVar(&flagRecoveryEmail, "email", "", "account email")
	_ = findPasswordCmd.MarkFlagRequired("phone")
	_ = findPasswordCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(findEmailCmd)
	rootCmd.AddCommand(findPasswordCmd)
}
