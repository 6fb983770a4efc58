package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"feedreader/internal/aggregator"
	"feedreader/internal/aggregator/reddit"
	"feedreader/internal/aggregator/registry"
	"feedreader/internal/domain/entity"
	hhttp "feedreader/internal/handler/http/respond"
	"feedreader/internal/headerextract"
	"feedreader/internal/infra/adapter/persistence/sqlite"
	"feedreader/internal/infra/db"
	"feedreader/internal/infra/fetcher"
	"feedreader/internal/infra/summarizer"
	workerPkg "feedreader/internal/infra/worker"
	"feedreader/internal/observability/logging"
	"feedreader/internal/repository"
	"feedreader/internal/scheduler"
	"feedreader/pkg/config"
)

func waitForMigrations(logger *slog.Logger, database *sql.DB) {
	for i := 0; i < 10; i++ {
		if err := db.MigrateUp(database); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("crawl_timeout", workerConfig.CrawlTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	runner := setupScheduler(logger, database)
	retentionSchedule := config.GetEnvString("ARTICLE_RETENTION_CRON", "0 3 * * *")

	startCronWorker(logger, runner, workerConfig, workerMetrics, healthServer, retentionSchedule)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the SQLite store and waits for migrations to complete.
func initDatabase(logger *slog.Logger) *sql.DB {
	path := config.GetEnvString("DATABASE_PATH", "feedreader.db")
	database, err := db.Open(path, db.DefaultConnectionConfig())
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	waitForMigrations(logger, database)
	return database
}

// setupScheduler wires the repositories and aggregator registry into a
// scheduler.Runner, the C14 scheduled-task surface cron drives below.
func setupScheduler(logger *slog.Logger, database *sql.DB) *scheduler.Runner {
	feeds := sqlite.NewFeedRepo(database)
	articles := sqlite.NewArticleRepo(database)
	userSettings := sqlite.NewUserSettingsRepo(database)

	reg := buildRegistry(logger, userSettings)

	return scheduler.NewRunner(feeds, userSettings, articles, reg, scheduler.Config{})
}

// buildRegistry wires every Aggregator over a shared HTTP client, page
// fetcher, header extractor, and the configured AI rewrite summarizer
// (spec.md §4.2 step 6) - the worker is the process that actually runs
// aggregation, unlike cmd/api which only serves already-stored articles.
func buildRegistry(logger *slog.Logger, userSettings repository.UserSettingsRepository) *registry.Registry {
	httpClient := createHTTPClient()

	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("failed to load content fetch configuration, using defaults", slog.Any("error", err))
		fetchCfg = fetcher.DefaultConfig()
	}
	pageFetcher := fetcher.New(fetchCfg)

	redditAdapter := reddit.New(httpClient)
	redditAdapter.SetIconLookupSettings(func(ctx context.Context) (*entity.UserSettings, bool) {
		return resolveAnyRedditSettings(ctx, userSettings)
	})

	extractor := headerextract.New(headerextract.DefaultConfig(), pageFetcher, redditAdapter)

	return registry.Build(registry.BuildConfig{
		HTTPClient:    httpClient,
		Reddit:        redditAdapter,
		PageFetcher:   pageFetcher,
		HeaderExtract: extractor,
		Summarizer:    createSummarizer(logger),
	})
}

// resolveAnyRedditSettings has no per-feed context to resolve a specific
// account's Reddit credentials from when another site's header extraction
// needs a subreddit icon, so a nil/false return simply disables icon
// lookup rather than failing the whole extraction chain.
func resolveAnyRedditSettings(ctx context.Context, userSettings repository.UserSettingsRepository) (*entity.UserSettings, bool) {
	_ = ctx
	_ = userSettings
	return nil, false
}

// createSummarizer creates a summarizer based on the SUMMARIZER_TYPE
// environment variable, mirroring the teacher's createSummarizer switch.
// Unlike cmd/api (which never exercises FinalizeArticles), a missing API
// key here still falls back to NoOp rather than aborting startup, since
// aggregation without the AI rewrite pass is still useful.
func createSummarizer(logger *slog.Logger) aggregator.Summarizer {
	summarizerType := os.Getenv("SUMMARIZER_TYPE")
	if summarizerType == "" {
		summarizerType = "noop"
	}

	switch summarizerType {
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logger.Warn("ANTHROPIC_API_KEY not set, AI rewrite disabled")
			return summarizer.NewNoOp()
		}
		logger.Info("using Claude API for summarization")
		return summarizer.NewClaude(apiKey)
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			logger.Warn("OPENAI_API_KEY not set, AI rewrite disabled")
			return summarizer.NewNoOp()
		}
		oaCfg, err := summarizer.LoadOpenAIConfig()
		if err != nil {
			logger.Warn("failed to load OpenAI configuration, AI rewrite disabled", slog.Any("error", err))
			return summarizer.NewNoOp()
		}
		logger.Info("using OpenAI API for summarization", slog.Int("character_limit", oaCfg.GetCharacterLimit()))
		return summarizer.NewOpenAI(apiKey, oaCfg)
	default:
		logger.Info("AI rewrite pass disabled (SUMMARIZER_TYPE=noop)")
		return summarizer.NewNoOp()
	}
}

// createHTTPClient creates an HTTP client with timeouts and connection
// pooling. TLS 1.2+ is enforced for security.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// startCronWorker starts the cron scheduler: one job runs every enabled
// feed on cfg.CronSchedule, a second prunes old articles on
// retentionSchedule.
func startCronWorker(logger *slog.Logger, runner *scheduler.Runner, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer, retentionSchedule string) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runAggregationJob(logger, runner, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to add aggregation cron job", slog.Any("error", err))
		os.Exit(1)
	}

	_, err = c.AddFunc(retentionSchedule, func() {
		runRetentionJob(logger, runner, cfg)
	})
	if err != nil {
		logger.Error("failed to add retention cron job", slog.Any("error", err))
		os.Exit(1)
	}

	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker marked as ready")

	logger.Info("worker started",
		slog.String("aggregation_schedule", cfg.CronSchedule),
		slog.String("retention_schedule", retentionSchedule),
		slog.String("timezone", cfg.Timezone))
	select {}
}

// runAggregationJob executes one scheduler.Runner.RunEnabledFeedsNow pass
// with timeout and error handling.
func runAggregationJob(logger *slog.Logger, runner *scheduler.Runner, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	metrics.RecordJobRun("started")
	logger.Info("aggregation run started")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CrawlTimeout)
	defer cancel()

	stats, err := runner.RunEnabledFeedsNow(ctx)
	if err != nil {
		logger.Error("aggregation run failed", slog.Any("error", hhttp.SanitizeError(err)))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(startTime).Seconds())
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(startTime).Seconds())
	metrics.RecordFeedsProcessed(stats.Feeds)
	metrics.RecordLastSuccess()

	logger.Info("aggregation run completed",
		slog.Int("feeds", stats.Feeds),
		slog.Int64("fetched", stats.Fetched),
		slog.Int64("inserted", stats.Inserted),
		slog.Int64("duplicate", stats.Duplicate),
		slog.Int64("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
}

// runRetentionJob executes one scheduler.Runner.DeleteOldArticles pass.
func runRetentionJob(logger *slog.Logger, runner *scheduler.Runner, cfg *workerPkg.WorkerConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.CrawlTimeout)
	defer cancel()

	deleted, err := runner.DeleteOldArticles(ctx)
	if err != nil {
		logger.Error("article retention run failed", slog.Any("error", hhttp.SanitizeError(err)))
		return
	}
	logger.Info("article retention run completed", slog.Int64("deleted", deleted))
}
