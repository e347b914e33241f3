// Command guildstats serves derived guild statistics over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/okian/guildstats/internal/adapters/http/api"
	"github.com/okian/guildstats/internal/adapters/http/swagger"
	"github.com/okian/guildstats/internal/adapters/repository"
	service "github.com/okian/guildstats/internal/app"
	"github.com/okian/guildstats/internal/config"
	"github.com/okian/guildstats/pkg/logger"
	"github.com/okian/guildstats/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	_ = godotenv.Load(".env")

	// Initialize logging; the configured format is applied once config is loaded.
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "guildstats exited", logger.Error(err))
		stop()
		os.Exit(1) //nolint:gocritic // deferred sync is best effort
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go metrics.RunSystemCollector(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("source", cfg.Source))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure.
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService opens the configured dataset source and wraps it in a Service.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, error) {
	src, err := repository.Open(ctx, cfg.Source, cfg.SourceLocation(),
		repository.WithLogger(log.Named("repository")),
		repository.WithTimeout(cfg.FetchTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", cfg.Source, err)
	}
	return service.New(
		service.WithSource(src),
		service.WithLogger(log.Named("service")),
		service.WithSnapshotTTL(cfg.SnapshotTTL()),
		service.WithTopN(cfg.TopN),
	), nil
}

// newRouter mounts the API and the API docs.
func newRouter(ctx context.Context, cfg *config.Config, svc *service.Service, log logger.Logger) chi.Router {
	opts := []api.Option{
		api.WithLogger(log.Named("api")),
		api.WithCORSOrigins(cfg.CORSAllowOrigins),
	}
	// Validated by config.Load.
	if proxies, err := cfg.TrustedProxyPrefixes(); err == nil {
		opts = append(opts, api.WithTrustedProxies(proxies))
	} else {
		log.Warn(ctx, "ignoring trusted proxies", logger.Error(err))
	}
	if cfg.RateLimitEnabled {
		opts = append(opts, api.WithRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow()))
	}
	r := api.NewServer(svc, svc, opts...).Router(ctx)
	swagger.Register(ctx, r)
	return r
}
