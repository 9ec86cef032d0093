package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"pricedrop/priceworker/config"
	"pricedrop/priceworker/internal/alert"
	"pricedrop/priceworker/internal/checker"
	"pricedrop/priceworker/internal/fetcher"
	"pricedrop/priceworker/internal/scheduler"
	"pricedrop/priceworker/internal/selector"
	"pricedrop/priceworker/logger"
	"pricedrop/priceworker/services/cache"
	"pricedrop/priceworker/services/notifier"
	"pricedrop/priceworker/services/publisher"
	"pricedrop/priceworker/services/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("fetch_strategy", cfg.FetchStrategy).
		Dur("check_interval", cfg.CheckInterval).
		Int("batch_limit", cfg.BatchLimit).
		Msg("Starting price worker")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize the persistence gateway
	gateway, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer gateway.Close()

	if err := gateway.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Info("Connected to Postgres")

	// Host backoff cache
	backoff := cache.NewMemcacheBackoff(cfg.MemcacheAddr)
	logger.Info("Using Memcache at %s for host backoff", cfg.MemcacheAddr)

	// Drop event publisher
	events := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLen)
	defer events.Close()
	logger.Info("Publishing drop events to Redis at %s (stream: %s)", cfg.RedisAddr, cfg.RedisStream)

	// Mail notifier
	mailer := notifier.NewMailer(notifier.MailerConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUsername,
		Password:    cfg.SMTPPassword,
		From:        cfg.EmailFrom,
		FrontendURL: cfg.FrontendURL,
	})

	// Selector registry
	registry, err := selector.NewRegistry(cfg.DefaultPlatform, cfg.AllowPlatformFallback)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid selector configuration")
	}
	if cfg.AllowPlatformFallback {
		log.Warn().
			Str("default_platform", cfg.DefaultPlatform).
			Msg("Unknown platforms fall back to the default platform's selectors")
	}

	// Page fetcher, selected by configuration
	var pageFetcher fetcher.Fetcher
	switch cfg.FetchStrategy {
	case config.StrategyRender:
		pageFetcher = fetcher.NewRenderFetcher(fetcher.RenderConfig{
			Addr:       cfg.RenderAddr,
			NavTimeout: cfg.RenderTimeout,
			GraceDelay: cfg.RenderGraceDelay,
		})
	default:
		pageFetcher = fetcher.NewStaticFetcher(fetcher.StaticConfig{
			Timeout:       cfg.FetchTimeout,
			RedirectLimit: cfg.RedirectLimit,
			HostBackoff:   cfg.HostBackoff,
		}, backoff)
	}

	// Assemble the engine
	gate := alert.NewGate(gateway, mailer, events)
	productChecker := checker.New(pageFetcher, registry, gateway, gate)
	batch := scheduler.New(gateway, productChecker, scheduler.Options{
		CheckInterval: cfg.CheckInterval,
		BatchLimit:    cfg.BatchLimit,
		Concurrency:   cfg.Concurrency,
		PacingMin:     cfg.PacingMin,
		PacingMax:     cfg.PacingMax,
	})

	runBatch := func() {
		if _, err := batch.RunBatch(ctx); err != nil {
			log.Error().Err(err).Msg("Batch run failed")
		}
	}

	runRetention := func() {
		pruned, err := gateway.PruneHistory(ctx, time.Duration(cfg.RetentionDays)*24*time.Hour)
		if err != nil {
			log.Error().Err(err).Msg("History retention failed")
			return
		}
		log.Info().Int64("pruned", pruned).Msg("Price history pruned")
	}

	// Schedule the batch and retention jobs
	c := cron.New()
	if _, err := c.AddFunc(cfg.BatchCron, runBatch); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule batch job")
	}
	if _, err := c.AddFunc(cfg.RetentionCron, runRetention); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule retention job")
	}
	c.Start()
	log.Info().
		Str("batch_cron", cfg.BatchCron).
		Str("retention_cron", cfg.RetentionCron).
		Msg("Cron jobs scheduled")

	// Run one batch immediately so fresh deployments don't wait for a tick
	go runBatch()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	cancel()

	cronCtx := c.Stop()
	<-cronCtx.Done()
	log.Info().Msg("Shut down gracefully")
}
