package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"vcnty/config"
	"vcnty/inventory"
	"vcnty/vcntyapi"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configRuleAddIncludeDrafts bool

var configRuleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Interactively add one import rule from your stores.",
	Long: `Fetch the stores of the logged-in seller, let you choose one interactively,
then store a new rules entry in config.`,
	Example: `
  # Add one rule interactively using api.url from config and default auth state file
  vcnty config rule add

  # Include draft stores in the selection
  vcnty config rule add --include-drafts

  # Use custom auth state file
  vcnty config rule add --state-file ./artifacts/auth-state.json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		_, err = ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}

		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %q: %w", configPath, err)
		}

		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		client, err := newBackendClient(cfg, "vcnty-config-rule/1.0")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		page, err := client.ListStores(ctx, vcntyapi.Page{Limit: 500})
		if err != nil {
			return fmt.Errorf("fetch stores: %w", err)
		}

		stores := filterStores(page.Items, configRuleAddIncludeDrafts)
		if len(stores) == 0 {
			return fmt.Errorf("no selectable stores found")
		}
		sort.Slice(stores, func(i, j int) bool {
			left := strings.ToLower(strings.TrimSpace(stores[i].Name))
			right := strings.ToLower(strings.TrimSpace(stores[j].Name))
			if left == right {
				return stores[i].ID < stores[j].ID
			}
			return left < right
		})

		reader := bufio.NewReader(os.Stdin)
		selectedStoreIdx, err := promptSelectIndex(
			reader,
			os.Stdout,
			"Select store:",
			storeOptionLines(stores),
		)
		if err != nil {
			return err
		}
		selectedStore := stores[selectedStoreIdx]

		ruleName, err := promptRequiredString(reader, os.Stdout, "Rule name")
		if err != nil {
			return err
		}
		fileTemplate, err := promptRequiredString(reader, os.Stdout, "File template (example: corner-shop-*.xlsx)")
		if err != nil {
			return err
		}
		currency, err := promptOptionalString(reader, os.Stdout, fmt.Sprintf("Currency (empty for %s)", cfg.Import.DefaultCurrency))
		if err != nil {
			return err
		}

		newRule := config.Rule{
			Name:         ruleName,
			FileTemplate: fileTemplate,
			StoreID:      selectedStore.ID,
			Currency:     strings.ToUpper(currency),
		}

		current, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}

		updated, err := appendRuleToConfigYAML(current, newRule)
		if err != nil {
			return err
		}

		if err := os.WriteFile(configPath, updated, 0o600); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Println("Rule added successfully.")
		fmt.Printf("Config:   %s\n", configPath)
		fmt.Printf("Name:     %s\n", newRule.Name)
		fmt.Printf("Template: %s\n", newRule.FileTemplate)
		fmt.Printf("Store:    %s (id=%s)\n", selectedStore.Name, newRule.StoreID)
		if newRule.Currency != "" {
			fmt.Printf("Currency: %s\n", newRule.Currency)
		}
		return nil
	},
}

func filterStores(stores []inventory.Store, includeDrafts bool) []inventory.Store {
	if includeDrafts {
		return append([]inventory.Store(nil), stores...)
	}
	out := make([]inventory.Store, 0, len(stores))
	for _, store := range stores {
		if !store.IsPublished() {
			continue
		}
		out = append(out, store)
	}
	return out
}

func storeOptionLines(stores []inventory.Store) []string {
	lines := make([]string, 0, len(stores))
	for _, store := range stores {
		suffix := ""
		if !store.IsPublished() {
			suffix = " [draft]"
		}
		lines = append(lines, fmt.Sprintf("%s (id=%s)%s", store.Name, store.ID, suffix))
	}
	return lines
}

func promptSelectIndex(reader *bufio.Reader, out io.Writer, title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("no options available for %q", title)
	}

	for {
		fmt.Fprintln(out, title)
		for i, option := range options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, option)
		}
		fmt.Fprintf(out, "Choose [1-%d]: ", len(options))

		input, err := reader.ReadString('\n')
		if err != nil {
			return -1, fmt.Errorf("read selection input: %w", err)
		}
		input = strings.TrimSpace(input)
		choice, err := strconv.Atoi(input)
		if err != nil || choice < 1 || choice > len(options) {
			fmt.Fprintln(out, "Invalid selection. Please enter a valid number.")
			continue
		}
		return choice - 1, nil
	}
}

func promptRequiredString(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	for {
		value, err := promptOptionalString(reader, out, label)
		if err != nil {
			return "", err
		}
		if value == "" {
			fmt.Fprintln(out, "Value must not be empty.")
			continue
		}
		return value, nil
	}
}

func promptOptionalString(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", strings.TrimSpace(label))
	input, err := reader.ReadString('\n')
	if err != nil && !(err == io.EOF && strings.TrimSpace(input) != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSpace(strings.ToLower(label)), err)
	}
	return strings.TrimSpace(input), nil
}

func appendRuleToConfigYAML(content []byte, rule config.Rule) ([]byte, error) {
	if err := config.ValidateRule(rule); err != nil {
		return nil, err
	}

	doc := map[string]any{}
	if strings.TrimSpace(string(content)) != "" {
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	rulesList, err := ensureSliceAny(doc, "rules")
	if err != nil {
		return nil, err
	}

	for _, existing := range rulesList {
		ruleMap, ok := existing.(map[string]any)
		if !ok {
			continue
		}
		existingName, _ := ruleMap["name"].(string)
		if strings.EqualFold(strings.TrimSpace(existingName), strings.TrimSpace(rule.Name)) {
			return nil, fmt.Errorf("rule with name %q already exists", rule.Name)
		}
	}

	entry := map[string]any{
		"name":          rule.Name,
		"file_template": rule.FileTemplate,
		"store_id":      rule.StoreID,
	}
	if rule.Currency != "" {
		entry["currency"] = rule.Currency
	}
	rulesList = append(rulesList, entry)
	doc["rules"] = rulesList

	updated, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal updated config yaml: %w", err)
	}
	if _, err := config.ValidateYAMLContent(updated); err != nil {
		return nil, fmt.Errorf("updated config is invalid: %w", err)
	}
	return updated, nil
}

func ensureSliceAny(doc map[string]any, key string) ([]any, error) {
	raw, exists := doc[key]
	if !exists || raw == nil {
		result := []any{}
		doc[key] = result
		return result, nil
	}
	result, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("config key %q must be a list", key)
	}
	return result, nil
}

func init() {
	configRuleCmd.AddCommand(configRuleAddCmd)

	configRuleAddCmd.Flags().BoolVar(&configRuleAddIncludeDrafts, "include-drafts", false, "Include draft stores in store selection")
}
