// Package scheduler runs the periodic catalog refresh and session cleanup.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"catalog_bot/internal/fetcher"
	"catalog_bot/internal/metrics"
	"catalog_bot/internal/session"
	"catalog_bot/internal/storage"
)

// ErrEmptyFeed is returned when a feed yields no items. The previous catalog
// stays in place.
var ErrEmptyFeed = errors.New("feed has no items")

// Options configures what the scheduler does on each tick.
type Options struct {
	// FeedURL is re-imported every Refresh. Empty disables refreshing.
	FeedURL     string
	Refresh     time.Duration
	SessionIdle time.Duration
}

// Scheduler periodically re-imports the catalog feed and ends idle sessions.
type Scheduler struct {
	store    storage.Storage
	fetcher  *fetcher.Fetcher
	sessions *session.Manager
	metrics  *metrics.Metrics
	log      *slog.Logger
	opts     Options
	tick     time.Duration

	lastRefresh time.Time
	now         func() time.Time
}

// New creates a Scheduler with the default HTTP client.
func New(store storage.Storage, sessions *session.Manager, m *metrics.Metrics, log *slog.Logger, opts Options) *Scheduler {
	return NewWithFetcher(store, fetcher.New(http.DefaultClient), sessions, m, log, opts)
}

// NewWithFetcher creates a Scheduler with a custom fetcher (useful for testing).
func NewWithFetcher(store storage.Storage, f *fetcher.Fetcher, sessions *session.Manager, m *metrics.Metrics, log *slog.Logger, opts Options) *Scheduler {
	return &Scheduler{
		store:    store,
		fetcher:  f,
		sessions: sessions,
		metrics:  m,
		log:      log,
		opts:     opts,
		tick:     1 * time.Minute,
		now:      time.Now,
	}
}

// SetTickInterval overrides the default 1-minute tick.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if s.opts.SessionIdle > 0 {
		if n := s.sessions.Sweep(s.opts.SessionIdle); n > 0 {
			s.log.Debug("ended idle sessions", "count", n)
		}
	}
	s.metrics.Sessions.Set(float64(s.sessions.Len()))

	if s.opts.FeedURL == "" || ctx.Err() != nil {
		return
	}
	if !s.lastRefresh.IsZero() && s.now().Sub(s.lastRefresh) < s.opts.Refresh {
		return
	}
	s.lastRefresh = s.now()

	if err := s.Refresh(ctx); err != nil {
		s.log.Error("refresh catalog", "url", s.opts.FeedURL, "error", err)
	}
}

// Refresh imports the configured feed, stores it, and hands the new catalog
// to every session. On error the current catalog is kept.
func (s *Scheduler) Refresh(ctx context.Context) error {
	cat, err := ImportFeed(ctx, s.store, s.fetcher, s.opts.FeedURL)
	if err != nil {
		return err
	}

	s.sessions.SetCatalog(cat)
	s.metrics.CatalogItems.Set(float64(cat.Len()))
	s.log.Info("catalog refreshed", "url", s.opts.FeedURL, "items", cat.Len(), "categories", len(cat.Categories())-1)
	return nil
}
