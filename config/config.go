package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyAPIURL                = "api.url"
	KeyIdentityURL           = "identity.url"
	KeyIdentityAnonKey       = "identity.anon_key"
	KeyDashboardURL          = "dashboard.url"
	KeyImportMaxFileSize     = "import.max_file_size"
	KeyImportDefaultCurrency = "import.default_currency"
	KeyStorageDBPath         = "storage.db_path"
	KeyServerPort            = "server.port"
	KeyLogEnv                = "log.env"
	KeyLogLevel              = "log.level"
	KeyRules                 = "rules"
)

const (
	DefaultAPIURL       = "http://localhost/api"
	DefaultDashboardURL = "http://localhost:3000/login"
	DefaultMaxFileSize  = 10 * 1024 * 1024
	DefaultDBPath       = "vcnty.db"
	DefaultCurrency     = "EUR"
	DefaultServerPort   = 8080
)

type Config struct {
	API       APIConfig       `mapstructure:"api" validate:"required"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Import    ImportConfig    `mapstructure:"import"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Rules     []Rule          `mapstructure:"rules"`
}

type APIConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

type IdentityConfig struct {
	URL     string `mapstructure:"url" validate:"omitempty,url"`
	AnonKey string `mapstructure:"anon_key"`
}

type DashboardConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

type ImportConfig struct {
	MaxFileSize     int64  `mapstructure:"max_file_size" validate:"min=1,max=104857600"`
	DefaultCurrency string `mapstructure:"default_currency" validate:"required,len=3,alpha"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path" validate:"required"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type LogConfig struct {
	Env   string `mapstructure:"env" validate:"omitempty,oneof=development production"`
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Rule routes import files whose name matches FileTemplate to a store.
type Rule struct {
	Name         string `mapstructure:"name"`
	FileTemplate string `mapstructure:"file_template"`
	StoreID      string `mapstructure:"store_id"`
	Currency     string `mapstructure:"currency"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// Seed holds the values written into a new config file. Empty fields fall
// back to the defaults.
type Seed struct {
	APIURL          string
	IdentityURL     string
	AnonKey         string
	DashboardURL    string
	DefaultCurrency string
	DBPath          string
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return SeedYAML(Seed{})
}

// SeedYAML renders the configuration template with seed applied.
func SeedYAML(seed Seed) string {
	orDefault := func(value, fallback string) string {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
		return fallback
	}

	return fmt.Sprintf(`# vcnty configuration
api:
  # Marketplace backend, e.g. https://api.vcnty.app or an ngrok tunnel.
  url: %s

identity:
  # Identity provider used to refresh the dashboard session.
  url: %s
  anon_key: %s

dashboard:
  # Login page opened by "vcnty auth login".
  url: %s

import:
  max_file_size: %d
  default_currency: %s

storage:
  db_path: %s

server:
  port: %d

log:
  env: "development"
  level: "info"

# Route files to stores by name, e.g.
# rules:
#   - name: "corner shop"
#     file_template: "corner-shop-*.xlsx"
#     store_id: "4f1c"
#     currency: "USD"
rules: []
`,
		strconv.Quote(orDefault(seed.APIURL, DefaultAPIURL)),
		strconv.Quote(strings.TrimSpace(seed.IdentityURL)),
		strconv.Quote(strings.TrimSpace(seed.AnonKey)),
		strconv.Quote(orDefault(seed.DashboardURL, DefaultDashboardURL)),
		DefaultMaxFileSize,
		strconv.Quote(strings.ToUpper(orDefault(seed.DefaultCurrency, DefaultCurrency))),
		strconv.Quote(orDefault(seed.DBPath, DefaultDBPath)),
		DefaultServerPort,
	)
}

// Warnings lists settings that validate but leave a feature unusable.
func (c Config) Warnings() []string {
	var warnings []string
	hasIdentityURL := strings.TrimSpace(c.Identity.URL) != ""
	hasAnonKey := strings.TrimSpace(c.Identity.AnonKey) != ""
	switch {
	case hasIdentityURL && !hasAnonKey:
		warnings = append(warnings, "identity.anon_key is empty: expired sessions cannot be refreshed")
	case hasAnonKey && !hasIdentityURL:
		warnings = append(warnings, "identity.url is empty: identity.anon_key is unused")
	}
	if strings.TrimSpace(c.Dashboard.URL) == "" {
		warnings = append(warnings, "dashboard.url is empty: auth login needs --url")
	}
	for i, rule := range c.Rules {
		for _, earlier := range c.Rules[:i] {
			if strings.TrimSpace(earlier.FileTemplate) == strings.TrimSpace(rule.FileTemplate) {
				warnings = append(warnings, fmt.Sprintf("rule %q is shadowed by rule %q with the same file_template", rule.Name, earlier.Name))
				break
			}
		}
	}
	return warnings
}

// MaskSecret hides all but the last four characters of a secret.
func MaskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "(not set)"
	}
	if len(value) <= 8 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

// RuleForFile returns the first rule whose template matches the base name of
// path.
func (c Config) RuleForFile(path string) (Rule, bool) {
	name := filepath.Base(path)
	for _, rule := range c.Rules {
		matched, err := filepath.Match(strings.TrimSpace(rule.FileTemplate), name)
		if err == nil && matched {
			return rule, true
		}
	}
	return Rule{}, false
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateRules(cfg.Rules); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyIdentityURL, "")
	v.SetDefault(KeyIdentityAnonKey, "")
	v.SetDefault(KeyDashboardURL, DefaultDashboardURL)
	v.SetDefault(KeyImportMaxFileSize, DefaultMaxFileSize)
	v.SetDefault(KeyImportDefaultCurrency, DefaultCurrency)
	v.SetDefault(KeyStorageDBPath, DefaultDBPath)
	v.SetDefault(KeyServerPort, DefaultServerPort)
	v.SetDefault(KeyLogEnv, "development")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRules, []map[string]any{})
}

// ValidateRule checks a single rule outside of a full config.
func ValidateRule(rule Rule) error {
	if strings.TrimSpace(rule.Name) == "" {
		return fmt.Errorf("validation failed: rule name is required")
	}
	template := strings.TrimSpace(rule.FileTemplate)
	if template == "" {
		return fmt.Errorf("validation failed: rule %q requires file_template", rule.Name)
	}
	if _, err := filepath.Match(template, ""); err != nil {
		return fmt.Errorf("validation failed: rule %q has invalid file_template %q: %w", rule.Name, template, err)
	}
	if strings.TrimSpace(rule.StoreID) == "" {
		return fmt.Errorf("validation failed: rule %q requires store_id", rule.Name)
	}
	if currency := strings.TrimSpace(rule.Currency); currency != "" && len(currency) != 3 {
		return fmt.Errorf("validation failed: rule %q currency %q must be a 3-letter code", rule.Name, rule.Currency)
	}
	return nil
}

func validateRules(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		if err := ValidateRule(rule); err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
		key := strings.ToLower(strings.TrimSpace(rule.Name))
		if _, exists := seen[key]; exists {
			return fmt.Errorf("validation failed: duplicate rule name %q", rule.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}
