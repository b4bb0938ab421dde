package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"catalog_bot/internal/bot"
	"catalog_bot/internal/catalog"
	"catalog_bot/internal/config"
	"catalog_bot/internal/metrics"
	"catalog_bot/internal/scheduler"
	"catalog_bot/internal/session"
	"catalog_bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cat := loadCatalog(ctx, store, cfg, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	m.CatalogItems.Set(float64(cat.Len()))

	sessions := session.NewManager(cat, m)

	b, err := bot.New(cfg.TelegramBotToken, sessions, m, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(store, sessions, m, log, scheduler.Options{
		FeedURL:     cfg.CatalogFeedURL,
		Refresh:     cfg.RefreshInterval,
		SessionIdle: cfg.SessionIdle,
	})

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.Info("starting bot", "items", cat.Len(), "categories", len(cat.Categories())-1)

	go sched.Run(ctx)

	b.Run(ctx)

	log.Info("bot stopped")
}

// loadCatalog imports CATALOG_FILE when set and returns the stored catalog.
// Problems are logged and the bot starts with whatever could be loaded.
func loadCatalog(ctx context.Context, store storage.Storage, cfg *config.Config, log *slog.Logger) *catalog.Catalog {
	if cfg.CatalogFile != "" {
		if _, err := scheduler.ImportFile(ctx, store, cfg.CatalogFile); err != nil {
			log.Error("import catalog file", "path", cfg.CatalogFile, "error", err)
		} else {
			log.Info("imported catalog file", "path", cfg.CatalogFile)
		}
	}

	cat, snap, err := scheduler.LoadStored(ctx, store)
	if err != nil {
		log.Warn("stored catalog unusable, starting empty", "error", err)
		return catalog.Empty()
	}
	if cat.Len() == 0 {
		log.Warn("catalog is empty", "hint", "set CATALOG_FILE or CATALOG_FEED_URL, or run catalogctl import")
		return cat
	}
	log.Info("loaded catalog", "source", snap.Source, "imported_at", snap.ImportedAt)
	return cat
}

func metricsMux(g prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
