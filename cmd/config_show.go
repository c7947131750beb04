package cmd

import (
	"fmt"
	"io"

	"vcnty/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values.`,
	Example: `
  # Show active configuration
  vcnty config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		} else {
			fmt.Println("No config file loaded, showing defaults and environment overrides.")
		}
		printConfig(cmd.OutOrStdout(), cfg)
		printConfigWarnings(cmd.OutOrStdout(), cfg)
	},
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "api.url: %s\n", cfg.API.URL)
	fmt.Fprintf(out, "identity.url: %s\n", cfg.Identity.URL)
	fmt.Fprintf(out, "identity.anon_key: %s\n", config.MaskSecret(cfg.Identity.AnonKey))
	fmt.Fprintf(out, "dashboard.url: %s\n", cfg.Dashboard.URL)
	fmt.Fprintf(out, "import.max_file_size: %d\n", cfg.Import.MaxFileSize)
	fmt.Fprintf(out, "import.default_currency: %s\n", cfg.Import.DefaultCurrency)
	fmt.Fprintf(out, "storage.db_path: %s\n", cfg.Storage.DBPath)
	fmt.Fprintf(out, "server.port: %d\n", cfg.Server.Port)
	fmt.Fprintf(out, "log.env: %s\n", cfg.Log.Env)
	fmt.Fprintf(out, "log.level: %s\n", cfg.Log.Level)
	fmt.Fprintf(out, "rules: %d\n", len(cfg.Rules))
	for i, rule := range cfg.Rules {
		fmt.Fprintf(out, "rules[%d].name: %s\n", i, rule.Name)
		fmt.Fprintf(out, "rules[%d].file_template: %s\n", i, rule.FileTemplate)
		fmt.Fprintf(out, "rules[%d].store_id: %s\n", i, rule.StoreID)
		currency := rule.Currency
		if currency == "" {
			currency = cfg.Import.DefaultCurrency + " (default)"
		}
		fmt.Fprintf(out, "rules[%d].currency: %s\n", i, currency)
	}
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
