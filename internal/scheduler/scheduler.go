// Package scheduler implements the C14 scheduled-task surface (spec.md §1:
// "the scheduled-task runner that triggers aggregation is out of scope as a
// full feature, specified only by interface"). Interface narrows to exactly
// what a caller (cron worker, admin-triggered run, test) needs: run every
// enabled feed once, and prune old articles. A production cron loop around
// it is the caller's concern, the way internal/usecase/notify.Service is an
// injectable interface the teacher's fetch service depends on rather than
// owning its own delivery loop.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"feedreader/internal/aggregator"
	"feedreader/internal/aggregator/registry"
	"feedreader/internal/aggregator/runlimit"
	"feedreader/internal/domain/entity"
	"feedreader/internal/observability/metrics"
	"feedreader/internal/repository"
)

// Scheduler is the narrow surface cmd/worker drives: one aggregation pass
// over every enabled feed, and one retention sweep.
type Scheduler interface {
	RunEnabledFeedsNow(ctx context.Context) (*RunStats, error)
	DeleteOldArticles(ctx context.Context) (int64, error)
}

// RunStats summarizes one RunEnabledFeedsNow pass, mirroring the teacher's
// fetch.CrawlStats shape.
type RunStats struct {
	Feeds     int
	Fetched   int64
	Inserted  int64
	Duplicate int64
	Failed    int64
	Duration  time.Duration
}

// Config controls Runner's behavior. Zero values fall back to the defaults
// spec.md §4.2 assumes (3x overfetch) and a conservative retention window.
type Config struct {
	// OverfetchFactor multiplies a feed's computed run limit before asking
	// the adapter for source data (spec.md §4.2 "fetch up to 2-3x limit
	// items upstream"). Zero selects 3.0.
	OverfetchFactor float64
	// ArticleRetention bounds how old an article may get before
	// DeleteOldArticles prunes it. Zero selects 90 days.
	ArticleRetention time.Duration
	// Parallelism bounds how many feeds run concurrently. Zero selects 4.
	Parallelism int
	// Now substitutes for time.Now in tests; nil selects time.Now.
	Now func() time.Time
}

func (c Config) overfetchFactor() float64 {
	if c.OverfetchFactor <= 0 {
		return 3.0
	}
	return c.OverfetchFactor
}

func (c Config) articleRetention() time.Duration {
	if c.ArticleRetention <= 0 {
		return 90 * 24 * time.Hour
	}
	return c.ArticleRetention
}

func (c Config) parallelism() int {
	if c.Parallelism <= 0 {
		return 4
	}
	return c.Parallelism
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Runner is the concrete Scheduler: list enabled feeds, resolve each one's
// owner settings and registered adapter, compute its adaptive run limit
// (internal/aggregator/runlimit), drive aggregator.Run, and persist results
// with GetByIdentifier-based dedup (spec.md §8 property 2 idempotency).
type Runner struct {
	feeds    repository.FeedRepository
	settings repository.UserSettingsRepository
	articles repository.ArticleRepository
	registry *registry.Registry
	cfg      Config
}

// NewRunner builds a Runner over the given repositories and aggregator
// registry.
func NewRunner(feeds repository.FeedRepository, settings repository.UserSettingsRepository, articles repository.ArticleRepository, reg *registry.Registry, cfg Config) *Runner {
	return &Runner{feeds: feeds, settings: settings, articles: articles, registry: reg, cfg: cfg}
}

// RunEnabledFeedsNow drives one aggregation pass over every enabled feed,
// bounded to cfg.parallelism() concurrent feeds via a semaphore channel and
// golang.org/x/sync/errgroup, exactly as internal/usecase/fetch/service.go
// parallelizes per-item work. One feed's failure (bad config, upstream
// outage, parse error) is logged and counted, never aborting the pass.
func (r *Runner) RunEnabledFeedsNow(ctx context.Context) (*RunStats, error) {
	start := r.cfg.now()
	stats := &RunStats{}

	feeds, err := r.feeds.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduler: list enabled feeds: %w", err)
	}
	stats.Feeds = len(feeds)

	sem := make(chan struct{}, r.cfg.parallelism())
	eg, egCtx := errgroup.WithContext(ctx)

	for _, feed := range feeds {
		feed := feed
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			fetched, inserted, duplicate, err := r.runOneFeed(egCtx, feed, start)
			atomic.AddInt64(&stats.Fetched, fetched)
			atomic.AddInt64(&stats.Inserted, inserted)
			atomic.AddInt64(&stats.Duplicate, duplicate)
			if err != nil {
				if egCtx.Err() != nil {
					return err
				}
				atomic.AddInt64(&stats.Failed, 1)
				slog.Warn("scheduler: feed run failed", slog.Int64("feed_id", feed.ID), slog.String("identifier", feed.Identifier), slog.Any("error", err))
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return stats, fmt.Errorf("scheduler: run aborted: %w", err)
	}

	stats.Duration = r.cfg.now().Sub(start)
	slog.Info("scheduler: run complete",
		slog.Int("feeds", stats.Feeds),
		slog.Int64("fetched", stats.Fetched),
		slog.Int64("inserted", stats.Inserted),
		slog.Int64("duplicate", stats.Duplicate),
		slog.Int64("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (r *Runner) runOneFeed(ctx context.Context, feed *entity.Feed, runStart time.Time) (fetched, inserted, duplicate int64, err error) {
	crawlStart := r.cfg.now()
	defer func() {
		metrics.RecordFeedCrawl(feed.ID, r.cfg.now().Sub(crawlStart), fetched, inserted, duplicate)
		if err != nil {
			metrics.RecordFeedCrawlError(feed.ID, errorType(err))
		}
	}()

	agg, ok := r.registry.Get(feed.Aggregator)
	if !ok {
		return 0, 0, 0, fmt.Errorf("no aggregator registered for tag %q", feed.Aggregator)
	}

	settings, err := r.feedOwnerSettings(ctx, feed)
	if err != nil {
		return 0, 0, 0, err
	}

	limit, err := r.runLimit(ctx, feed, runStart)
	if err != nil {
		return 0, 0, 0, err
	}
	if limit <= 0 {
		return 0, 0, 0, nil
	}

	articles, err := aggregator.Run(ctx, agg, feed, settings, limit, r.cfg.overfetchFactor())
	if err != nil {
		return 0, 0, 0, err
	}
	fetched = int64(len(articles))

	for _, article := range articles {
		existing, err := r.articles.GetByIdentifier(ctx, feed.ID, article.Identifier)
		if err != nil {
			return fetched, inserted, duplicate, fmt.Errorf("checking existing article %q: %w", article.Identifier, err)
		}
		if existing != nil {
			duplicate++
			continue
		}
		if err := r.articles.Create(ctx, article.ToEntity(feed.ID)); err != nil {
			return fetched, inserted, duplicate, fmt.Errorf("persisting article %q: %w", article.Identifier, err)
		}
		inserted++
	}
	return fetched, inserted, duplicate, nil
}

// errorType buckets a runOneFeed error into a low-cardinality label for
// metrics.RecordFeedCrawlError, avoiding raw error strings (upstream URLs,
// parse positions) as Prometheus label values.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "fetch_error"
	}
}

// feedOwnerSettings resolves the UserSettings an owned feed's adapter
// should authenticate with. A shared feed (OwnerID == nil) has no owner to
// resolve settings from; adapters that need credentials (Reddit, YouTube)
// reject a nil settings in their own Validate step rather than this method
// guessing an account to borrow from.
func (r *Runner) feedOwnerSettings(ctx context.Context, feed *entity.Feed) (*entity.UserSettings, error) {
	if feed.OwnerID == nil {
		return nil, nil
	}
	settings, err := r.settings.Get(ctx, *feed.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("loading owner settings: %w", err)
	}
	return settings, nil
}

// runLimit computes the adaptive per-run item budget (internal/aggregator/
// runlimit, spec.md §4.2/§8) from how many articles this feed has already
// collected since midnight UTC in runStart's day.
func (r *Runner) runLimit(ctx context.Context, feed *entity.Feed, runStart time.Time) (int, error) {
	midnight := time.Date(runStart.Year(), runStart.Month(), runStart.Day(), 0, 0, 0, 0, runStart.Location())
	collected, err := r.articles.CountCreatedSince(ctx, feed.ID, midnight)
	if err != nil {
		return 0, fmt.Errorf("counting articles collected today: %w", err)
	}
	secondsSinceMidnight := int(runStart.Sub(midnight).Seconds())
	return runlimit.Compute(feed.DailyLimit, collected, secondsSinceMidnight, runStart.Hour()), nil
}

// DeleteOldArticles prunes every article older than cfg.articleRetention(),
// backing the C14 "delete old articles" surface.
func (r *Runner) DeleteOldArticles(ctx context.Context) (int64, error) {
	cutoff := r.cfg.now().Add(-r.cfg.articleRetention())
	deleted, err := r.articles.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("scheduler: delete old articles: %w", err)
	}
	slog.Info("scheduler: pruned old articles", slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	return deleted, nil
}
