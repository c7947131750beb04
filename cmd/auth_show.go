package cmd

import (
	"fmt"
	"io"
	"time"

	"vcnty/internal/timeutil"
	"vcnty/vcntyapi"

	"github.com/spf13/cobra"
)

var authShowToken bool

var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved dashboard session.",
	Long: `Read auth state JSON and print who is logged in and when the access token expires.

With --token only the bearer token is printed, ready for direct REST calls:
Authorization: Bearer <token>`,
	Example: `
  # Show the saved session
  vcnty auth show

  # Print the bearer token
  vcnty auth show --token
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stateFile, err := resolveDefaultAuthStatePath(authStateFile)
		if err != nil {
			return err
		}
		state, err := vcntyapi.LoadAuthState(stateFile)
		if err != nil {
			return err
		}
		if authShowToken {
			fmt.Println(state.AccessToken)
			return nil
		}
		printAuthState(cmd.OutOrStdout(), stateFile, state, time.Now())
		return nil
	},
}

func printAuthState(out io.Writer, stateFile string, state vcntyapi.AuthState, now time.Time) {
	fmt.Fprintf(out, "State file: %s\n", stateFile)
	fmt.Fprintf(out, "User:       %s\n", valueOrDash(state.Email))
	fmt.Fprintf(out, "User ID:    %s\n", valueOrDash(state.UserID))
	fmt.Fprintf(out, "Expires:    %s\n", timeutil.FormatTimestamp(state.ExpiresTime()))
	status := "valid"
	if state.Expired(now) {
		status = "expired"
		if state.RefreshToken != "" {
			status = "expired (refreshable)"
		}
	}
	fmt.Fprintf(out, "Status:     %s\n", status)
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func init() {
	authCmd.AddCommand(authShowCmd)

	authShowCmd.Flags().BoolVar(&authShowToken, "token", false, "Print only the access token")
}
