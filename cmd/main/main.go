package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Houeta/price-radar/internal/bot"
	"github.com/Houeta/price-radar/internal/config"
	"github.com/Houeta/price-radar/internal/fetcher"
	"github.com/Houeta/price-radar/internal/identity"
	"github.com/Houeta/price-radar/internal/lock/redislock"
	"github.com/Houeta/price-radar/internal/parser"
	"github.com/Houeta/price-radar/internal/repository"
	"github.com/Houeta/price-radar/internal/repository/postgres"
	"github.com/Houeta/price-radar/internal/repository/sqlite"
	"github.com/Houeta/price-radar/internal/services/analytics"
	"github.com/Houeta/price-radar/internal/services/discovery"
	"github.com/Houeta/price-radar/internal/services/merger"
	"github.com/Houeta/price-radar/internal/services/pipeline"
	"github.com/Houeta/price-radar/internal/services/scheduler"
	"github.com/Houeta/price-radar/internal/services/scraper"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	repo, err := openRepository(ctx, logger, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer repo.Close()

	normalizer := identity.NewNormalizer(cfg.MarketplaceURL, identity.DefaultCacheSize)
	htmlParser := parser.NewParser(logger, normalizer)
	htmlFetcher := fetcher.New(logger, fetcherOptions(cfg))

	engine := discovery.NewEngine(logger, htmlFetcher, htmlParser, normalizer, discovery.Options{
		Concurrency: cfg.Scrape.DiscoveryConcurrency,
		PageDelay:   cfg.Scrape.PageDelay,
	})
	batchScraper := scraper.NewScraper(logger, htmlFetcher, htmlParser, cfg.Scrape.BatchDelay)
	ingest := merger.NewMerger(logger, repo)
	orchestrator := pipeline.NewOrchestrator(logger, engine, batchScraper, ingest, repo, cfg.Scrape.Concurrency)

	var locker scheduler.Locker
	if cfg.Redis.Addr != "" {
		client, redisErr := redislock.NewClient(ctx, cfg.Redis.Addr)
		if redisErr != nil {
			log.Fatalf("Failed to init cycle lock: %v", redisErr)
		}
		defer client.Close()
		locker = redislock.New(client, "", cfg.Redis.LockTTL)
	}

	// The bot is created after the scheduler it controls, so the report hook resolves it lazily.
	var radarBot *bot.Bot
	cycles := scheduler.New(logger, orchestrator, locker, scheduler.Options{
		Interval:  cfg.Scheduler.Interval,
		BatchSize: cfg.Scrape.BatchSize,
		OnCycle: func(ctx context.Context, cycle scheduler.Cycle) {
			if radarBot != nil {
				radarBot.Broadcast(ctx, cycle)
			}
		},
	})

	if cfg.Tg.Token != "" {
		radarBot, err = bot.NewBot(ctx, logger, cfg.Tg.Token, cfg.Tg.Timeout, bot.Deps{
			Scheduler:     cycles,
			Analytics:     analytics.NewService(logger, repo),
			Products:      repo,
			Tracker:       cycles,
			Subscriptions: repo,
		})
		if err != nil {
			log.Fatalf("Failed to init bot: %v", err)
		}
		// Start the bot in a goroutine to allow main to listen for signals.
		go radarBot.Start()
	} else {
		logger.WarnContext(ctx, "PR_TELEGRAM_TOKEN is empty, Telegram bot disabled")
	}

	if cfg.Scheduler.Autostart {
		if err = cycles.Start(ctx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	if err = cycles.Stop(); err != nil && !errors.Is(err, scheduler.ErrNotScheduled) {
		logger.Error("Failed to stop scheduler", "error", err)
	}
	if radarBot != nil {
		radarBot.Stop()
	}

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

func openRepository(ctx context.Context, log *slog.Logger, cfg config.Storage) (repository.Repository, error) {
	if cfg.Driver == config.DriverPostgres {
		return postgres.NewRepository(ctx, log, cfg.PostgresDSN, cfg.MaxConns, cfg.ViaBouncer)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}
	return sqlite.NewRepository(ctx, log, cfg.Path)
}

func fetcherOptions(cfg *config.Config) fetcher.Options {
	opts := fetcher.Options{
		Timeout: cfg.Fetch.Timeout,
		RPS:     cfg.Fetch.RPS,
		Burst:   cfg.Fetch.Burst,
	}
	if cfg.Proxy.Enabled() {
		opts.Proxy = &fetcher.Proxy{
			Host:     cfg.Proxy.Host,
			Port:     cfg.Proxy.Port,
			Username: cfg.Proxy.Username,
			Password: cfg.Proxy.Password,
			Insecure: cfg.Proxy.Insecure,
		}
	}
	return opts
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
