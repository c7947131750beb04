/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vcnty/config"
)

var (
	cfgFile        string
	authStateFile  string
	requestTimeout time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vcnty",
	Short: "Bulk import store items from CSV/Excel and manage a VCNTY seller account.",
	Long: `
**********************************************
*                 VCNTY                      *
**********************************************

This CLI validates seller spreadsheets (CSV, Excel) against the item template,
submits the accepted rows to a store in one batch, keeps a local SQLite history
of every import run, and serves a local web UI for stores, items and orders.

Supported input formats:
- Excel: .xlsx
- CSV: .csv
`,
	Example: `
  # Create configuration file
  vcnty config create

  # Log in through the seller dashboard
  vcnty auth login

  # Download the import template
  vcnty template -o items.xlsx

  # Check a file without submitting it
  vcnty import -i items.csv --store 4f1c --dry-run

  # Import a file into a store
  vcnty import -i items.xlsx --store 4f1c

  # Show recent import runs
  vcnty history list --since 7d

  # Start the local web UI
  vcnty serve
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.vcnty.yaml, then ./.vcnty.yaml)")
	rootCmd.PersistentFlags().StringVar(&authStateFile, "state-file", "", "Path to auth state JSON (default: $HOME/.vcnty/auth-state.json)")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 60*time.Second, "Timeout for backend API calls")
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".vcnty" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vcnty")
	}

	// VCNTY_API_URL overrides api.url and so on.
	viper.SetEnvPrefix("VCNTY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: vcnty config create")
	}
}
