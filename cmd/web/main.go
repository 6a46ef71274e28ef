package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	version       = "1.0.0"
	renderTimeout = 10 * time.Second
	pageCacheAge  = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", pageCacheAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// loadSales reads the workbook in the background so /health can report
// "loading" while a large export is parsed.
func loadSales(ctx context.Context, dashboard *services.Dashboard, cfg config.DataConfig, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	defer cancel()

	start := time.Now()
	if err := dashboard.LoadFromExcel(ctx, cfg.ExcelFile); err != nil {
		logger.Error("failed to load sales data", "file", cfg.ExcelFile, "error", err)
		return
	}
	logger.Info("sales data loaded", "file", cfg.ExcelFile, "duration", time.Since(start))
}

func newHandler(cfg *config.Config, dashboard *services.Dashboard, logger *slog.Logger) http.Handler {
	srv := server.NewServer(dashboard, logger, &server.TemplateHandlers{
		Dashboard: handleDashboard,
	})

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(middleware.NewRateLimiter(cfg.Security), logger),
	)
	return chain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"excel_file", cfg.Data.ExcelFile,
		"taxonomy_file", cfg.Data.TaxonomyFile,
		"timezone", cfg.Data.Timezone,
	)

	dashboard := services.NewDashboard(services.Options{
		CacheDir: cfg.Data.CacheDir,
		Sheet:    cfg.Data.Sheet,
		Location: cfg.Data.Location(),
		Logger:   logger,
	})
	if err := dashboard.LoadTaxonomy(cfg.Data.TaxonomyFile); err != nil {
		logger.Error("failed to load taxonomy", "file", cfg.Data.TaxonomyFile, "error", err)
		os.Exit(1)
	}

	loadCtx, cancelLoad := context.WithCancel(context.Background())
	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		loadSales(loadCtx, dashboard, cfg.Data, logger)
	}()

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, dashboard, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook("sales-loader", func(ctx context.Context) error {
		cancelLoad()
		select {
		case <-loaded:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
