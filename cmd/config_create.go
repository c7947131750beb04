package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"vcnty/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCreateSeed config.Seed

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file for a VCNTY backend.",
	Long: `Create a new configuration file from the example template, optionally filled
with the backend, identity provider and import defaults given as flags.

The rendered file is validated before it is written. An existing file is never
overwritten; use "config edit" to change it.`,
	Example: `
  # Create default config at $HOME/.vcnty.yaml
  vcnty config create

  # Point the CLI at a tunnelled backend and import prices in USD
  vcnty config create --api-url https://abc123.ngrok-free.app/api --currency USD

  # Enable session refresh against the identity provider
  vcnty config create --identity-url https://id.vcnty.app --anon-key "$VCNTY_ANON_KEY"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		return createConfigFile(cmd.OutOrStdout(), configPath, configCreateSeed)
	},
}

// createConfigFile writes a seeded config to path unless a file already exists
// there, and echoes the resulting settings with secrets masked.
func createConfigFile(out io.Writer, path string, seed config.Seed) error {
	content := config.SeedYAML(seed)
	cfg, err := config.ValidateYAMLContent([]byte(content))
	if err != nil {
		return fmt.Errorf("config values rejected: %w", err)
	}

	created, err := writeConfigIfMissing(path, content)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(out, "Config file already exists at: %s\n", path)
		return nil
	}

	fmt.Fprintf(out, "New config file created at: %s\n", path)
	printConfig(out, cfg)
	printConfigWarnings(out, cfg)
	return nil
}

func writeConfigIfMissing(path, content string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("creating config file failed: %w", err)
	}
	return true, nil
}

func ensureConfigFileWithTemplate(path string) (bool, error) {
	return writeConfigIfMissing(path, config.ExampleYAML())
}

func printConfigWarnings(out io.Writer, cfg *config.Config) {
	for _, warning := range cfg.Warnings() {
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}
}

func init() {
	configCmd.AddCommand(configCreateCmd)

	configCreateCmd.Flags().StringVar(&configCreateSeed.APIURL, "api-url", "", "Backend API base URL (default "+config.DefaultAPIURL+")")
	configCreateCmd.Flags().StringVar(&configCreateSeed.IdentityURL, "identity-url", "", "Identity provider URL used to refresh sessions")
	configCreateCmd.Flags().StringVar(&configCreateSeed.AnonKey, "anon-key", "", "Identity provider anon key")
	configCreateCmd.Flags().StringVar(&configCreateSeed.DashboardURL, "dashboard-url", "", "Dashboard login page (default "+config.DefaultDashboardURL+")")
	configCreateCmd.Flags().StringVar(&configCreateSeed.DefaultCurrency, "currency", "", "Default import currency (default "+config.DefaultCurrency+")")
	configCreateCmd.Flags().StringVar(&configCreateSeed.DBPath, "db", "", "Import history database path (default "+config.DefaultDBPath+")")
}
