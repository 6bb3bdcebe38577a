package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kb-dashboard/backend/internal/api"
	"github.com/kb-dashboard/backend/internal/config"
	"github.com/kb-dashboard/backend/internal/graphview"
	"github.com/kb-dashboard/backend/internal/logger"
	"github.com/kb-dashboard/backend/internal/metrics"
	"github.com/kb-dashboard/backend/internal/session"
	"github.com/kb-dashboard/backend/internal/storage"
	"github.com/kb-dashboard/backend/internal/upload"
	"github.com/kb-dashboard/backend/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard web server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatal("Failed to create directories", "err", err)
	}

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		logger.Fatal("Failed to initialize storage", "err", err)
	}

	backend := newBackendClient(cfg)
	graphViews := session.NewManager[*graphview.View]("graph", cfg.Views.MaxViews, cfg.ViewIdleTimeout())
	uploadFlows := session.NewManager[*upload.Flow]("upload", cfg.Views.MaxViews, cfg.ViewIdleTimeout())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	graphViews.StartCleanup(ctx, cfg.CleanupInterval())
	uploadFlows.StartCleanup(ctx, cfg.CleanupInterval())
	go pruneOrphanedCandidates(ctx, fileStore, cfg)

	e := echo.New()
	e.HideBanner = true
	configureMiddleware(e, cfg)

	deps := &api.Dependencies{
		Backend:       backend,
		Store:         fileStore,
		GraphViews:    graphViews,
		UploadFlows:   uploadFlows,
		ReadTimeout:   cfg.BackendReadTimeout(),
		UploadTimeout: cfg.BackendUploadTimeout(),
		MaxFileSize:   cfg.Upload.MaxFileSizeBytes,
		WSBufferSize:  cfg.Advanced.WebSocketMaxMessageSize * 1024,
		AllowOrigins:  allowedOrigins(cfg),
		Location:      time.Local,
		Version:       Version,
	}
	api.SetupMiddleware(e, cfg.Advanced.Debug, cfg.Security.AuthCookieName, cfg.Security.ForwardAuth)
	api.RegisterRoutes(e, api.NewHandlers(deps))

	pages := web.NewPageHandler(backend, cfg.BackendReadTimeout(), time.Local, cfg.Upload.MaxFileSizeBytes)
	if err := pages.RegisterRoutes(e); err != nil {
		logger.Fatal("Failed to register pages", "err", err)
	}

	if cfg.Advanced.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			"version", Version,
			"build", BuildTime,
			"addr", cfg.GetServerAddr(),
			"backend", cfg.Backend.BaseURL,
			"config", configPath,
		)
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

func configureMiddleware(e *echo.Echo, cfg *config.AppConfig) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics" || strings.HasPrefix(path, "/static/")
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Warn("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "err", v.Error)
				return nil
			}
			logger.Debug("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.Advanced.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Advanced.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Request().URL.Path, "/api/ws/")
			},
		}))
	}

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if origins := allowedOrigins(cfg); len(origins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
		}))
	}
}

// allowedOrigins lists the cross-origin callers, or nil when CORS is off.
func allowedOrigins(cfg *config.AppConfig) []string {
	if !cfg.Server.EnableCORS {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(cfg.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// pruneOrphanedCandidates removes stored files older than the view idle
// timeout. Expired flows close their own candidates; this catches the rest
// after a crash or an abandoned select.
func pruneOrphanedCandidates(ctx context.Context, store *storage.LocalStore, cfg *config.AppConfig) {
	interval := cfg.CleanupInterval()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.PruneOlderThan(time.Now().Add(-2 * cfg.ViewIdleTimeout())); n > 0 {
				logger.Info("Pruned orphaned upload candidates", "removed", n)
			}
		}
	}
}
