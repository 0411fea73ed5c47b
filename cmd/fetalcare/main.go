package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fetalcare/fetalcare/internal/config"
	"github.com/fetalcare/fetalcare/internal/domain/assessment"
	"github.com/fetalcare/fetalcare/internal/domain/records"
	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
	"github.com/fetalcare/fetalcare/internal/platform/localstore"
	"github.com/fetalcare/fetalcare/internal/platform/middleware"
	"github.com/fetalcare/fetalcare/internal/platform/notification"
	"github.com/fetalcare/fetalcare/internal/platform/session"
	"github.com/fetalcare/fetalcare/internal/platform/telemetry"
	"github.com/fetalcare/fetalcare/internal/platform/websocket"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "fetalcare",
		Short:        "FetalCare monitoring console",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("api-url", "", "Prediction service base URL (overrides API_BASE_URL)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(recordsCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(scenarioCmd())
	rootCmd.AddCommand(scoreCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the console HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

// newLogger builds the process logger: JSON in general, a console writer in
// development.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// server is the assembled console: the echo instance plus the resources
// that must be released on shutdown.
type server struct {
	echo     *echo.Echo
	sessions *session.Store
	sink     localstore.Sink
	metrics  *telemetry.Provider
	cancel   context.CancelFunc
}

func newServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	client := fetalapi.New(cfg.APIBaseURL, cfg.APITimeout, fetalapi.WithLogger(logger))
	logger.Info().Str("api", client.BaseURL()).Dur("timeout", cfg.APITimeout).Msg("prediction service configured")
	metrics := telemetry.NewProvider()
	hub := websocket.NewHub(logger)
	center := notification.NewCenter(hub, logger)

	sink, err := localstore.Open(ctx, cfg.ResultStore, localstore.Options{
		Dir:      cfg.ResultStoreDir,
		RedisURL: cfg.RedisURL,
		TTL:      cfg.ResultTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	logger.Info().Str("store", cfg.ResultStore).Msg("result store ready")

	watchCtx, cancel := context.WithCancel(ctx)
	catalog := assessment.NewCatalog(nil)
	if cfg.ScenariosFile != "" {
		scenarios, err := assessment.LoadScenarios(cfg.ScenariosFile)
		if err != nil {
			cancel()
			closeSink(sink, logger)
			return nil, fmt.Errorf("load scenarios: %w", err)
		}
		catalog.Replace(scenarios)
		go func() {
			if err := assessment.WatchScenarios(watchCtx, cfg.ScenariosFile, catalog, logger); err != nil {
				logger.Error().Err(err).Str("path", cfg.ScenariosFile).Msg("scenario watcher stopped")
			}
		}()
	}

	factory := func(id string, n notification.Notifier) (*assessment.Controller, *records.Browser) {
		sessLogger := logger.With().Str("session_id", id).Logger()
		ctl := assessment.NewController(client, n, sessLogger,
			assessment.WithMetrics(metrics),
			assessment.WithSink(sink),
			assessment.WithCatalog(catalog),
		)
		br := records.NewBrowser(client, n, sessLogger,
			records.WithMetrics(metrics),
			records.WithDefaultLimit(cfg.DefaultPageSize),
		)
		return ctl, br
	}
	store := session.NewStore(center, factory, logger,
		session.WithTTL(cfg.SessionTTL),
		session.WithGauge(metrics),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.MetricsMiddleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/api", fetalapi.HealthHandler(client))
	e.GET("/metrics", metrics.PrometheusHandler())
	websocket.NewHandler(hub).RegisterRoutes(e)

	apiV1 := e.Group("/api/v1")
	session.NewHandler(store).RegisterRoutes(apiV1)
	assessment.NewHandler(client, catalog, store, loc).RegisterRoutes(apiV1)
	records.NewHandler(records.NewService(client, logger), store).RegisterRoutes(apiV1)
	notification.NewHandler(center, store).RegisterRoutes(apiV1)

	return &server{echo: e, sessions: store, sink: sink, metrics: metrics, cancel: cancel}, nil
}

// Close stops background work and releases the result store.
func (s *server) Close(logger zerolog.Logger) {
	s.cancel()
	s.sessions.Close()
	closeSink(s.sink, logger)
}

func closeSink(sink localstore.Sink, logger zerolog.Logger) {
	if c, ok := sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("result store close failed")
		}
	}
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg, os.Stdout)

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	srv, err := newServer(context.Background(), cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build server")
		return err
	}
	defer srv.Close(logger)
	srv.sessions.Start(session.DefaultSweepInterval)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := srv.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.echo.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
