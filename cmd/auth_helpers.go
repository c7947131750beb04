package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"vcnty/config"
	"vcnty/internal/logging"
	"vcnty/vcntyapi"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func resolveDefaultAuthStatePath(explicitPath string) (string, error) {
	if strings.TrimSpace(explicitPath) != "" {
		return explicitPath, nil
	}
	return vcntyapi.DefaultAuthStatePath()
}

func resolveProfileDir(explicitDir string) (string, bool, error) {
	if strings.TrimSpace(explicitDir) != "" {
		return explicitDir, false, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve home directory: %w", err)
	}
	base := filepath.Join(home, ".vcnty")
	if err := os.MkdirAll(base, 0o700); err != nil {
		return "", false, fmt.Errorf("create directory %q: %w", base, err)
	}
	profileDir, err := os.MkdirTemp(base, "chrome-profile-*")
	if err != nil {
		return "", false, fmt.Errorf("create temporary profile dir: %w", err)
	}
	return profileDir, true, nil
}

// resolveDashboardURL returns the login page to open and its origin.
func resolveDashboardURL(urlOverride string) (string, string, error) {
	rawURL := strings.TrimSpace(urlOverride)
	if rawURL == "" {
		if strings.TrimSpace(viper.ConfigFileUsed()) == "" {
			return "", "", errors.New("no config file loaded; set `dashboard.url` in config or pass --url")
		}
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return "", "", fmt.Errorf("load config: %w", err)
		}
		rawURL = strings.TrimSpace(cfg.Dashboard.URL)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", "", fmt.Errorf("invalid url %q", rawURL)
	}
	return parsed.String(), parsed.Scheme + "://" + parsed.Host, nil
}

// newBackendClient builds an API client that authenticates with the saved
// dashboard session.
func newBackendClient(cfg *config.Config, userAgent string) (*vcntyapi.HTTPClient, error) {
	statePath, err := resolveDefaultAuthStatePath(authStateFile)
	if err != nil {
		return nil, err
	}
	tokens, err := vcntyapi.NewStateTokenSource(vcntyapi.StateTokenConfig{
		StatePath:   statePath,
		IdentityURL: cfg.Identity.URL,
		AnonKey:     cfg.Identity.AnonKey,
	})
	if err != nil {
		return nil, err
	}
	return vcntyapi.NewClient(vcntyapi.ClientConfig{
		BaseURL:   cfg.API.URL,
		Tokens:    tokens,
		UserAgent: userAgent,
	})
}

func newCommandLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Env, cfg.Log.Level)
}
