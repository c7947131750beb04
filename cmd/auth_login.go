package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"vcnty/config"
	"vcnty/vcntyapi"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"
)

var (
	authLoginURL          string
	authLoginProfileDir   string
	authLoginSkipVerify   bool
	authLoginBrowserBin   string
	authLoginTimeout      time.Duration
	authLoginDebugStorage bool
)

const readLocalStorageScript = `(() => {
  const out = {};
  for (let i = 0; i < window.localStorage.length; i++) {
    const key = window.localStorage.key(i);
    out[key] = window.localStorage.getItem(key);
  }
  return out;
})()`

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start interactive browser login and save authenticated state.",
	Long: `Open a visible browser on the seller dashboard login page and save the session as JSON.

The command waits until the dashboard stores its session (sb-<project>-auth-token) in
local storage. By default, it also verifies the session with a test API call (list stores).`,
	Example: `
  # Open browser, log in manually, save auth state, verify API access
  vcnty auth login

  # Log in against a different dashboard
  vcnty auth login --url https://seller.vcnty.example/login
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stateFile, err := resolveDefaultAuthStatePath(authStateFile)
		if err != nil {
			return err
		}
		profileDir, isTempProfile, err := resolveProfileDir(authLoginProfileDir)
		if err != nil {
			return err
		}
		if isTempProfile {
			defer os.RemoveAll(profileDir)
		}

		loginURL, _, err := resolveDashboardURL(authLoginURL)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(profileDir, 0o700); err != nil {
			return fmt.Errorf("create profile directory %q: %w", profileDir, err)
		}

		allocOptions := []chromedp.ExecAllocatorOption{
			chromedp.Flag("headless", false),
			chromedp.UserDataDir(profileDir),
			chromedp.Flag("disable-infobars", true),
			chromedp.Flag("new-window", true),
			chromedp.Flag("restore-last-session", false),
			chromedp.NoDefaultBrowserCheck,
			chromedp.NoFirstRun,
		}
		if strings.TrimSpace(authLoginBrowserBin) != "" {
			allocOptions = append(allocOptions, chromedp.ExecPath(strings.TrimSpace(authLoginBrowserBin)))
		}

		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOptions...)
		defer allocCancel()

		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		if err := chromedp.Run(ctx,
			network.Enable(),
			chromedp.Navigate(loginURL),
		); err != nil {
			return fmt.Errorf("open browser and navigate failed: %w", err)
		}

		fmt.Println("Complete the seller login in the opened browser.")
		fmt.Printf("Waiting for dashboard session (timeout: %s)...\n", authLoginTimeout)
		waitCtx, waitCancel := context.WithTimeout(ctx, authLoginTimeout)
		defer waitCancel()
		waitResult, err := waitForDashboardSession(waitCtx, loginURL, authLoginDebugStorage)
		if err != nil {
			return err
		}

		state, err := vcntyapi.ParseSessionJSON([]byte(waitResult.Session), time.Now())
		if err != nil {
			return fmt.Errorf("read session %q: %w", waitResult.Key, err)
		}
		if err := vcntyapi.SaveAuthState(stateFile, state); err != nil {
			return err
		}

		if authLoginSkipVerify {
			fmt.Printf("Auth state saved: %s\n", stateFile)
			fmt.Println("Session token is present and ready for REST calls.")
			return nil
		}

		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		client, err := vcntyapi.NewClient(vcntyapi.ClientConfig{
			BaseURL:   cfg.API.URL,
			Tokens:    vcntyapi.StaticToken(state.AccessToken),
			UserAgent: "vcnty-auth/1.0",
		})
		if err != nil {
			return err
		}

		verifyCtx, verifyCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer verifyCancel()

		stores, err := client.ListStores(verifyCtx, vcntyapi.Page{Limit: 1})
		if err != nil {
			return fmt.Errorf("auth verification failed (ListStores): %w", err)
		}

		fmt.Printf("Auth state saved: %s\n", stateFile)
		fmt.Printf("Auth verification successful. Stores visible: %d\n", stores.Total)
		return nil
	},
}

type sessionWaitResult struct {
	Key     string
	Session string
	URL     string
}

func waitForDashboardSession(ctx context.Context, loginURL string, debug bool) (sessionWaitResult, error) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	lastURL := loginURL

	for {
		var currentURL string
		if err := chromedp.Run(ctx, chromedp.Location(&currentURL)); err == nil && strings.TrimSpace(currentURL) != "" {
			lastURL = currentURL
		}

		entries := map[string]string{}
		err := chromedp.Run(ctx, chromedp.Evaluate(readLocalStorageScript, &entries))
		if debug {
			if err != nil {
				fmt.Printf("[auth-debug] url=%s storage-read-error=%v\n", lastURL, err)
			} else {
				fmt.Printf("[auth-debug] url=%s %s\n", lastURL, summarizeStorageKeys(entries))
			}
		}
		if err == nil {
			if key, session, ok := findSessionEntry(entries); ok {
				return sessionWaitResult{Key: key, Session: session, URL: lastURL}, nil
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return sessionWaitResult{}, fmt.Errorf(
					"timed out waiting for dashboard session; finish login in browser and retry (or increase --login-timeout). last URL: %s",
					lastURL,
				)
			}
			return sessionWaitResult{}, fmt.Errorf("waiting for dashboard login interrupted: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// findSessionEntry picks the first session key, in key order, whose value
// carries an access token.
func findSessionEntry(entries map[string]string) (string, string, bool) {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		if vcntyapi.IsSessionStorageKey(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := strings.TrimSpace(entries[key])
		if value == "" {
			continue
		}
		if _, err := vcntyapi.ParseSessionJSON([]byte(value), time.Now()); err == nil {
			return key, value, true
		}
	}
	return "", "", false
}

func summarizeStorageKeys(entries map[string]string) string {
	if len(entries) == 0 {
		return "keys=0"
	}
	keys := make([]string, 0, len(entries))
	for key := range entries {
		if strings.TrimSpace(key) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return fmt.Sprintf("keys=%d [%s]", len(entries), strings.Join(keys, ","))
}

func init() {
	authCmd.AddCommand(authLoginCmd)

	authLoginCmd.Flags().StringVar(&authLoginURL, "url", "", "Override dashboard login URL from config")
	authLoginCmd.Flags().StringVar(&authLoginProfileDir, "profile-dir", "", "Browser profile directory (optional; default is a fresh temporary profile per run)")
	authLoginCmd.Flags().StringVar(&authLoginBrowserBin, "browser-bin", "", "Optional browser binary path (Chrome/Chromium)")
	authLoginCmd.Flags().DurationVar(&authLoginTimeout, "login-timeout", 10*time.Minute, "Maximum wait time for successful browser login")
	authLoginCmd.Flags().BoolVar(&authLoginDebugStorage, "debug-storage", false, "Print local storage keys while waiting for login detection")
	authLoginCmd.Flags().BoolVar(&authLoginSkipVerify, "skip-verify", false, "Skip API verification after saving auth state")
}
