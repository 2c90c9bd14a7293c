// Package app wires configuration, logging, the cache reaper and the HTTP
// server of the SPC data service together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/spectriclabs/spc-data-service/internal/api"
	"github.com/spectriclabs/spc-data-service/internal/cache"
	"github.com/spectriclabs/spc-data-service/internal/config"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Run starts the service with the given command-line arguments and blocks
// until it is interrupted or the server fails.
func Run(args []string) error {
	cfg, err := config.Load(config.NewFlagSet("sds"), args)
	if err != nil {
		return err
	}

	logger, err := SetupLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("couldn't setup logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sdsapi := api.NewSDSAPI(cfg, logger, promclient.DefaultRegisterer)
	if cfg.UseCache {
		if err := SetupCache(ctx, sdsapi.Cache, cfg); err != nil {
			return err
		}
	}

	e := SetupServer(sdsapi)
	return Serve(ctx, e, fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), logger)
}

// Serve runs e on address until ctx is done, then shuts it down with a
// timeout of 10 seconds.
func Serve(ctx context.Context, e *echo.Echo, address string, logger *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("address", address))
		errc <- e.Start(address)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down the server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// SetupServer builds the echo server with middleware and every route.
func SetupServer(api *api.API) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = api.Cfg.Debug

	// Setup Middleware
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// File-specific routes
	e.GET("/sds/fs", api.GetFileLocations)
	e.GET("/sds/fs/:location/*", api.GetFileOrDirectory)
	e.GET("/sds/hdr/:location/*", api.GetHeader)

	// Data-service routes
	e.GET("/sds/spc/:location/*", api.GetSPC)
	e.GET("/sds/txt/:location/*", api.GetText)
	e.GET("/sds/log/:location/*", api.GetLog)
	e.GET("/sds/stats/:location/*", api.GetStats)
	e.GET("/sds/lds/:location/*", api.GetLDS)
	e.GET("/sds/rds/:location/*", api.GetRDS)

	// Add Prometheus as middleware for metrics gathering
	p := prometheus.NewPrometheus("sds", nil)
	p.Use(e)

	return e
}

// SetupCache creates the cache directories and starts one reaper per
// cache directory. The reapers stop when ctx is done.
func SetupCache(ctx context.Context, sdsCache *cache.Cache, cfg *config.Config) error {
	if err := sdsCache.Setup(); err != nil {
		return err
	}
	interval := time.Duration(cfg.CachePollingInterval) * time.Second
	go sdsCache.CheckCache(ctx, cache.OutputDir, interval, cfg.CacheMaxBytes)
	go sdsCache.CheckCache(ctx, cache.MinioDir, interval, cfg.CacheMaxBytes)
	return nil
}
