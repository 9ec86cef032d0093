package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Fetch strategies selectable via PRICE_FETCH_STRATEGY
const (
	StrategyStatic = "static"
	StrategyRender = "render"
)

// Config represents the application configuration
type Config struct {
	// Postgres configuration
	DatabaseURL string

	// Redis configuration (price drop event stream)
	RedisAddr         string
	RedisDB           int
	RedisStream       string
	RedisStreamMaxLen int

	// Memcache configuration (per-host backoff)
	MemcacheAddr string
	HostBackoff  time.Duration

	// Fetcher configuration
	FetchStrategy    string
	FetchTimeout     time.Duration
	RedirectLimit    int
	RenderAddr       string
	RenderTimeout    time.Duration
	RenderGraceDelay time.Duration

	// Scheduler configuration
	CheckInterval time.Duration
	BatchLimit    int
	Concurrency   int
	PacingMin     time.Duration
	PacingMax     time.Duration
	BatchCron     string
	RetentionCron string
	RetentionDays int

	// Selector configuration
	DefaultPlatform       string
	AllowPlatformFallback bool

	// Notifier configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	FrontendURL  string

	// Affiliate configuration
	AmazonAssociateTag string
	EbayCampaignID     string
	WalmartPublisherID string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	backoffSec, _ := strconv.Atoi(getEnv("HOST_BACKOFF_SECONDS", "300"))
	fetchTimeoutSec, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "15"))
	redirectLimit, _ := strconv.Atoi(getEnv("FETCH_REDIRECT_LIMIT", "5"))
	renderTimeoutSec, _ := strconv.Atoi(getEnv("RENDER_TIMEOUT_SECONDS", "30"))
	renderGraceMs, _ := strconv.Atoi(getEnv("RENDER_GRACE_DELAY_MS", "2000"))
	checkIntervalHours, _ := strconv.Atoi(getEnv("CHECK_INTERVAL_HOURS", "6"))
	batchLimit, _ := strconv.Atoi(getEnv("BATCH_LIMIT", "100"))
	concurrency, _ := strconv.Atoi(getEnv("CHECK_CONCURRENCY", "1"))
	pacingMinMs, _ := strconv.Atoi(getEnv("PACING_MIN_MS", "2000"))
	pacingMaxMs, _ := strconv.Atoi(getEnv("PACING_MAX_MS", "5000"))
	retentionDays, _ := strconv.Atoi(getEnv("HISTORY_RETENTION_DAYS", "90"))
	smtpPort, _ := strconv.Atoi(getEnv("SES_SMTP_PORT", "587"))

	return Config{
		DatabaseURL:       getEnv("DATABASE_URL", "postgres://localhost:5432/pricedrop"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           redisDB,
		RedisStream:       getEnv("REDIS_STREAM", "price_drops"),
		RedisStreamMaxLen: streamMaxLen,
		MemcacheAddr:      getEnv("MEMCACHE_ADDR", "localhost:11211"),
		HostBackoff:       time.Duration(backoffSec) * time.Second,

		FetchStrategy:    getEnv("PRICE_FETCH_STRATEGY", StrategyStatic),
		FetchTimeout:     time.Duration(fetchTimeoutSec) * time.Second,
		RedirectLimit:    redirectLimit,
		RenderAddr:       getEnv("RENDER_ADDR", ""),
		RenderTimeout:    time.Duration(renderTimeoutSec) * time.Second,
		RenderGraceDelay: time.Duration(renderGraceMs) * time.Millisecond,

		CheckInterval: time.Duration(checkIntervalHours) * time.Hour,
		BatchLimit:    batchLimit,
		Concurrency:   concurrency,
		PacingMin:     time.Duration(pacingMinMs) * time.Millisecond,
		PacingMax:     time.Duration(pacingMaxMs) * time.Millisecond,
		BatchCron:     getEnv("BATCH_CRON", "0 */6 * * *"),
		RetentionCron: getEnv("RETENTION_CRON", "0 3 * * *"),
		RetentionDays: retentionDays,

		DefaultPlatform:       getEnv("DEFAULT_PLATFORM", "amazon"),
		AllowPlatformFallback: getEnv("ALLOW_PLATFORM_FALLBACK", "true") == "true",

		SMTPHost:     getEnv("SES_SMTP_HOST", "email-smtp.us-east-1.amazonaws.com"),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SES_SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SES_SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "noreply@pricedrop.app"),
		FrontendURL:  getEnv("FRONTEND_URL", "https://pricedrop.app"),

		AmazonAssociateTag: getEnv("AMAZON_ASSOCIATE_TAG", ""),
		EbayCampaignID:     getEnv("EBAY_CAMPAIGN_ID", ""),
		WalmartPublisherID: getEnv("WALMART_PUBLISHER_ID", ""),

		Environment: getEnv("PRICEDROP_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.FetchStrategy != StrategyStatic && c.FetchStrategy != StrategyRender {
		return fmt.Errorf("unknown fetch strategy %q (want %q or %q)", c.FetchStrategy, StrategyStatic, StrategyRender)
	}
	if c.FetchStrategy == StrategyRender && c.RenderAddr == "" {
		return fmt.Errorf("RENDER_ADDR must be set when PRICE_FETCH_STRATEGY=render")
	}
	if c.BatchLimit <= 0 {
		return fmt.Errorf("BATCH_LIMIT must be positive, got %d", c.BatchLimit)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("CHECK_CONCURRENCY must be positive, got %d", c.Concurrency)
	}
	if c.PacingMin > c.PacingMax {
		return fmt.Errorf("PACING_MIN_MS (%v) must not exceed PACING_MAX_MS (%v)", c.PacingMin, c.PacingMax)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL_HOURS must be positive")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("HISTORY_RETENTION_DAYS must be positive, got %d", c.RetentionDays)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
