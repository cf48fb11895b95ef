// Trading Bot API Server
// HTTP API for the wallet-authenticated trading demo.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openkitx403/openkit403-go/internal/api"
	"github.com/openkitx403/openkit403-go/internal/version"
	"github.com/openkitx403/openkit403-go/pkg/store"
)

var (
	configPath string
	listenAddr string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "tradeapi",
	Short: "Trading bot API server with wallet-signed request authentication",
	Long: `tradeapi serves the demo trading backend. Every /api route requires a
wallet-signed credential token; / and /health are open.

Configuration is read from a YAML file (see --config); --listen and --db
override the file.`,
	Version:      version.String(),
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := api.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = api.LoadConfig(configPath)
		if err != nil {
			return err
		}
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = store.DefaultPath()
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	server := api.NewServer(db, logger)
	handler, err := server.Handler(cfg)
	if err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: handler,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		httpServer.Close()
	}()

	logger.Info("tradeapi starting",
		"version", version.String(),
		"listen", cfg.Listen,
		"db", cfg.DBPath,
		"audience", cfg.Auth.Audience,
		"bind_method_path", cfg.Auth.BindMethodPath,
	)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
