package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configDeleteWithAuth bool
	configDeleteYes      bool
)

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently selected by vcnty.

The config may hold the identity provider anon key, so deletion asks for an
interactive confirmation (type exactly "Y") unless --yes is given. With
--with-auth the saved dashboard session (auth state file) is removed as well.

If no configuration file is active, the command returns an error.`,
	Example: `
  # Delete active config
  vcnty config delete

  # Delete config at a custom path together with the saved session
  vcnty --configFile ./custom-vcnty.yaml config delete --with-auth

  # Delete without prompting
  vcnty config delete --yes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()
		if cfgFile != "" {
			configPath = cfgFile
		}
		if configPath == "" {
			return fmt.Errorf("no configuration file found")
		}

		statePath := ""
		if configDeleteWithAuth {
			resolved, err := resolveDefaultAuthStatePath(authStateFile)
			if err != nil {
				return err
			}
			statePath = resolved
		}

		if !configDeleteYes {
			target := fmt.Sprintf("config file %q", configPath)
			if statePath != "" {
				target = fmt.Sprintf("config file %q and auth state %q", configPath, statePath)
			}
			confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, target)
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("delete aborted: confirmation was not 'Y'")
			}
		}

		return deleteConfigFiles(cmd.OutOrStdout(), configPath, statePath)
	},
}

// deleteConfigFiles removes the config file and, when statePath is set, the
// auth state file. A missing auth state file is not an error.
func deleteConfigFiles(out io.Writer, configPath, statePath string) error {
	if err := os.Remove(configPath); err != nil {
		return fmt.Errorf("error deleting configuration file: %w", err)
	}
	fmt.Fprintf(out, "Configuration file successfully deleted: %s\n", configPath)

	if statePath == "" {
		return nil
	}
	if err := os.Remove(statePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "No auth state found at: %s\n", statePath)
			return nil
		}
		return fmt.Errorf("error deleting auth state: %w", err)
	}
	fmt.Fprintf(out, "Auth state successfully deleted: %s\n", statePath)
	return nil
}

func init() {
	configCmd.AddCommand(configDeleteCmd)

	configDeleteCmd.Flags().BoolVar(&configDeleteWithAuth, "with-auth", false, "Also delete the saved dashboard session")
	configDeleteCmd.Flags().BoolVarP(&configDeleteYes, "yes", "y", false, "Skip the confirmation prompt")
}
