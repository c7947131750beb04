package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"vcnty/config"
	"vcnty/storage"
	"vcnty/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort      int
	serveDBPath    string
	serveNoOpen    bool
	serveNoHistory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web UI for stores, bulk imports and orders",
	Long: `Start a local HTTP server with a stores overview, a per-store bulk import page
and a JSON API used by those pages.

The server is meant for localhost use only. It calls the backend with the session
saved by "vcnty auth login" and records every import in the local SQLite history.`,
	Example: `
  # Start local server on the configured port
  vcnty serve

  # Start with explicit db and custom port
  vcnty serve --port 9090 --db ./vcnty.db --state-file ~/.vcnty/auth-state.json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		logger, err := newCommandLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		client, err := newBackendClient(cfg, "vcnty-serve/1.0")
		if err != nil {
			return err
		}

		opts := web.Options{
			Client:          client,
			Logger:          logger,
			MaxFileSize:     cfg.Import.MaxFileSize,
			DefaultCurrency: cfg.Import.DefaultCurrency,
		}
		if !serveNoHistory {
			store, err := storage.OpenSQLite(resolveDBPath(serveDBPath, cfg))
			if err != nil {
				return err
			}
			defer store.Close()
			opts.History = store
		}

		handler, err := web.NewServer(opts)
		if err != nil {
			return err
		}

		port := resolveServePort(servePort, cfg)
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		listenURL := fmt.Sprintf("http://localhost:%d", port)
		logger.Info("server listening", zap.String("url", listenURL))
		fmt.Printf("Listening on %s\n", listenURL)
		if !serveNoOpen {
			if openErr := openURLInBrowser(listenURL); openErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to open browser: %v\n", openErr)
			}
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			logger.Info("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port for the local web server (default: server.port from config)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Path to local SQLite database (default: storage.db_path from config)")
	serveCmd.Flags().BoolVar(&serveNoOpen, "no-open", false, "Do not open browser automatically")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Do not record or show import history")
}

func resolveServePort(flagValue int, cfg *config.Config) int {
	if flagValue > 0 {
		return flagValue
	}
	if cfg != nil && cfg.Server.Port > 0 {
		return cfg.Server.Port
	}
	return config.DefaultServerPort
}

func openURLInBrowser(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	return cmd.Start()
}
