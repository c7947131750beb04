package cmd

import "github.com/spf13/cobra"

var configRuleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage import routing rules in config.",
	Long: `Manage import rules stored under config key rules.

Rules route imported files (matched by file template) to a target store and,
optionally, a currency used for rows without one.`,
}

func init() {
	configCmd.AddCommand(configRuleCmd)
}
