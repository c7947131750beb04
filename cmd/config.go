package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage vcnty configuration file values.",
	Long: `Create, edit, display, and delete the vcnty configuration file.

The configuration stores application-wide values and import rules:
- api.url, identity.url / identity.anon_key, dashboard.url
- import.max_file_size / import.default_currency
- storage.db_path, server.port, log.env / log.level
- rules[].name / file_template / store_id / currency

Every key can be overridden by an environment variable with the VCNTY_ prefix,
for example VCNTY_API_URL or VCNTY_IMPORT_DEFAULT_CURRENCY (also read from .env).`,
	Example: `
  # Create default config in $HOME/.vcnty.yaml
  vcnty config create

  # Show active config and source file
  vcnty config show

  # Open active config in editor (creates example if missing)
  vcnty config edit

  # Add one import rule interactively from your stores
  vcnty config rule add

  # Delete active config file
  vcnty config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
