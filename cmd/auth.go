package cmd

import "github.com/spf13/cobra"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate against VCNTY via the seller dashboard login.",
	Long: `Authentication helpers for the seller dashboard session.

Use "auth login" to perform an interactive browser login and save auth state.
Use "auth show" to print the saved session, or its bearer token for direct REST calls.`,
}

func init() {
	rootCmd.AddCommand(authCmd)
}
