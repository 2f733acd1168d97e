package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"aw-insights/internal/config"
	"aw-insights/internal/middleware"
	"aw-insights/internal/observability"
	"aw-insights/internal/server"
	"aw-insights/internal/services"
	"aw-insights/internal/store"
	"aw-insights/internal/ui"
)

const (
	renderTimeout = 10 * time.Second
	loadTimeout   = 5 * time.Minute
	cacheMaxAge   = "public, max-age=300"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application", "version", "1.0.0")

	metrics := observability.NewMetrics()

	analytics := services.NewAnalytics()
	analytics.SetCacheDir(cfg.Data.CacheDir)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	start := time.Now()
	source := cfg.Data.Workbook
	if source != "" {
		err = analytics.LoadWorkbook(ctx, source)
	} else {
		source = cfg.Data.CSVFile
		err = analytics.LoadCSV(ctx, source)
	}
	if err != nil {
		logger.Error("failed to load sales data", "source", source, "error", err)
		os.Exit(1)
	}
	snap := analytics.Snapshot()
	metrics.ObserveLoad(snap.RecordCount, time.Since(start))

	var archive *store.Store
	if cfg.Store.Path != "" {
		archive, err = store.Open(cfg.Store.Path)
		if err != nil {
			logger.Error("failed to open snapshot store", "path", cfg.Store.Path, "error", err)
			os.Exit(1)
		}
		if err := archive.SaveSummary(ctx, source, snap.RecordCount, snap.Summary); err != nil {
			logger.Warn("failed to archive load summary", "error", err)
		}
	}

	dashboard := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := ui.Dashboard(analytics).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	})

	srv := server.NewServer(analytics, archive, logger, dashboard, metrics.Handler())

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		// Metrics sits inside Tracing so it observes the request the
		// mux stamps a route pattern onto, not an earlier clone.
		middleware.Metrics(metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	if archive != nil {
		gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
			logger.Info("closing snapshot store")
			return archive.Close()
		})
	}

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
