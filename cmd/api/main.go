// Package main is the entry point for the devtube page server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"devtube-server/internal/app/service"
	"devtube-server/internal/config"
	"devtube-server/internal/domain"
	"devtube-server/internal/infra/catalog"
	"devtube-server/internal/infra/fts"
	"devtube-server/internal/infra/index"
	"devtube-server/internal/infra/memcache"
	"devtube-server/internal/job"
	"devtube-server/internal/logger"
	"devtube-server/internal/transport/httpserver"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:   cfg.Logger.Level,
			Format:  cfg.Logger.Format,
			Output:  cfg.Logger.Output,
			Service: cfg.App.Name,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting devtube-server",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
		zap.Bool("search_enabled", cfg.Search.Enabled),
	)

	// Video cache
	cache, err := memcache.New(memcache.Config{
		Capacity: cfg.Cache.Capacity,
		TTL:      cfg.Cache.TTL,
		Shards:   cfg.Cache.Shards,
	})
	if err != nil {
		log.Fatal("failed to create video cache", zap.Error(err))
	}

	// Remote video index
	indexClient := index.New(
		index.Config{
			ClientConfig: index.ClientConfig{
				BaseURL: cfg.Index.BaseURL,
				Timeout: cfg.Index.Timeout,
				CB: index.CBConfig{
					MaxRequests:  cfg.Index.CB.MaxRequests,
					Interval:     cfg.Index.CB.Interval,
					Timeout:      cfg.Index.CB.Timeout,
					FailureRatio: cfg.Index.CB.FailureRatio,
				},
			},
			AppID:     cfg.Index.AppID,
			APIKey:    cfg.Index.APIKey,
			IndexName: cfg.Index.Name,
		},
		log.Logger,
	)

	resolver := service.NewVideoResolver(cache, indexClient, log.Logger)

	// Locally held datasets
	latest := catalog.New(catalog.Config{
		Path:         cfg.Site.LatestPath(),
		MaxAgeInDays: cfg.Site.NewVideoMaxAgeDays,
	}, log.Logger)
	datasets := []domain.Reloader{latest}

	deps := httpserver.Dependencies{
		Resolver:  resolver,
		NewVideos: latest,
	}

	var engine *fts.Engine
	if cfg.Search.Enabled {
		engine = fts.New(fts.Config{
			DatasetPath:   cfg.Search.DatasetPath,
			FeaturedLimit: cfg.Search.FeaturedLimit,
			MaxConns:      cfg.Search.MaxConns,
		}, log.Logger)
		defer func() { _ = engine.Close() }()
		datasets = append(datasets, engine)

		searchSvc := service.NewSearchService(engine, service.SearchConfig{
			HitsPerPage: cfg.Search.HitsPerPage,
			Timeout:     cfg.Search.Timeout,
		}, log.Logger)
		deps.Search = searchSvc
		deps.Featured = searchSvc
	}

	deps.Ready = func() bool {
		return latest.Ready() && (engine == nil || engine.Ready())
	}

	// Initial load; failures leave the server unready until a refresh succeeds
	refreshSvc := service.NewRefreshService(datasets, log.Logger)
	scheduler := job.NewRefreshScheduler(
		refreshSvc,
		job.RefreshConfig{
			Interval: cfg.Refresh.Interval,
			Timeout:  cfg.Refresh.Timeout,
		},
		log.Logger,
	)
	if failed := scheduler.RunOnce(context.Background()); failed > 0 {
		log.Warn("initial dataset load incomplete",
			zap.Int("datasets_failed", failed),
			zap.Strings("datasets", refreshSvc.DatasetNames()),
		)
	}
	scheduler.Start()

	if cfg.Refresh.AdminEnabled {
		deps.Refresher = refreshSvc
	}

	// Create HTTP server
	server, err := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:           cfg.App.Port,
			BodyLimit:      cfg.App.BodyLimit,
			Debug:          cfg.App.Debug,
			ViewsDir:       cfg.Site.ViewsDir,
			Template:       cfg.Site.Template,
			StaticDir:      cfg.Site.StaticDir,
			Domain:         cfg.Site.Domain,
			SearchEnabled:  cfg.Search.Enabled,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsPath:    cfg.Metrics.Path,
			AdminToken:     cfg.Refresh.AdminToken,
		},
		deps,
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to create HTTP server", zap.Error(err))
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		// Stop scheduler
		scheduler.Stop()

		// Shutdown server with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
