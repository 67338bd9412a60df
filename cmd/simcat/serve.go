package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/simcat/internal/adapters/http/api"
	"github.com/okian/simcat/internal/adapters/http/site"
	"github.com/okian/simcat/internal/adapters/http/swagger"
	service "github.com/okian/simcat/internal/app"
	"github.com/okian/simcat/internal/config"
	"github.com/okian/simcat/pkg/logger"
	"github.com/okian/simcat/pkg/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog search API over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log := logger.Get()
	metrics.Init(cfg.MetricsOptions()...)

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "server shutdown failed", logger.Error(err))
			return err
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})

	err = g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

// newService builds the search service described by cfg.
func newService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	src, err := newSource(cfg, log)
	if err != nil {
		return nil, err
	}
	return service.New(
		service.WithLogger(log),
		service.WithSource(src),
		service.WithPolicy(cfg.ScoringPolicy),
		service.WithScoringOptions(cfg.ScoringOptions()...),
		service.WithCacheSize(cfg.CacheSize),
		service.WithRefreshInterval(cfg.RefreshInterval()),
	), nil
}

// newRouter mounts the API, its documentation and the landing page on one
// router.
func newRouter(ctx context.Context, svc *service.Service, cfg *config.Config) chi.Router {
	r := api.NewServer(svc, api.WithMaxLimit(cfg.SearchMaxLimit)).Router(ctx)
	swagger.Register(ctx, r)
	site.Register(ctx, r)
	return r
}

// startSystemMetricsUpdater refreshes the system gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateSystemMetrics()
		}
	}
}
