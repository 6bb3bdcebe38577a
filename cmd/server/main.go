// Package main provides the kb-dashboard server and CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kb-dashboard/backend/internal/config"
	"github.com/kb-dashboard/backend/internal/kbclient"
	"github.com/kb-dashboard/backend/internal/logger"
	"github.com/kb-dashboard/backend/internal/logger/console"
	"github.com/spf13/cobra"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitConfigError = 2
	ExitBackend     = 3
)

var (
	configPath string
	debugFlag  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kb-dashboard",
	Short: "Knowledge base dashboard",
	Long: `kb-dashboard serves the knowledge base dashboard: corpus statistics,
the entity graph with category filtering, and PDF upload.

The serve command runs the web server. The stats and graph commands print
the same views as text for use without a browser.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.Version = Version

	rootCmd.AddCommand(serveCmd, statsCmd, graphCmd)
}

// defaultConfigPath places the config next to the executable.
func defaultConfigPath() string {
	exePath, err := os.Executable()
	if err != nil {
		return "kb-dashboard.yaml"
	}
	return filepath.Join(filepath.Dir(exePath), "kb-dashboard.yaml")
}

// loadConfig reads the config and initializes logging. Failures exit with
// ExitConfigError.
func loadConfig() *config.AppConfig {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(ExitConfigError)
	}
	if debugFlag {
		cfg.Advanced.Debug = true
	}

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Advanced.Debug,
		Prefix: "kb-dashboard",
		Output: os.Stderr,
	}))
	return cfg
}

// newBackendClient builds the knowledge-base client. Calls carry the caller's
// forwarded token when present, else the configured API token, else a minted
// service token when a signing secret is set.
func newBackendClient(cfg *config.AppConfig) *kbclient.Client {
	opts := []kbclient.ClientOption{
		kbclient.WithEndpoints(kbclient.Endpoints{
			Stats:  cfg.Backend.StatsPath,
			Graph:  cfg.Backend.GraphPath,
			Upload: cfg.Backend.UploadPath,
		}),
		kbclient.WithTimeouts(cfg.BackendReadTimeout(), cfg.BackendUploadTimeout()),
		kbclient.WithRateLimit(cfg.Backend.RequestsPerSecond, cfg.Backend.Burst),
	}

	switch {
	case cfg.Security.APIToken != "":
		opts = append(opts, kbclient.WithTokenSource(kbclient.StaticToken(cfg.Security.APIToken)))
	case cfg.Security.JWTSecret != "":
		ttl := cfg.JWTTTL()
		opts = append(opts, kbclient.WithTokenSource(kbclient.NewServiceTokenSource(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, ttl)))
	}

	return kbclient.NewClient(cfg.Backend.BaseURL, opts...)
}
