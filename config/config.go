package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names. Every setting the process reads is resolved
// here, once, at startup; nothing else in the codebase consults os.Getenv.
const (
	envPort          = "PORT"
	envFeedURL       = "FEED_URL"
	envFeedMode      = "FEED_MODE"
	envDatabaseURL   = "DATABASE_URL"
	envRedisAddr     = "REDIS_ADDR"
	envRedisPassword = "REDIS_PASS"
	envRedisDB       = "REDIS_DB"
	envPollInterval  = "POLL_INTERVAL_SECONDS"
	envItemDelay     = "ITEM_DELAY_MS"
	envKafkaBrokers  = "KAFKA_BROKERS"
	envKafkaTopic    = "KAFKA_TOPIC"
	envKafkaGroupID  = "KAFKA_GROUP_ID"
	envCohereAPIKey  = "COHERE_API_KEY"
	envCohereModel   = "COHERE_MODEL"
	envS3Bucket      = "S3_BUCKET"
	envS3Region      = "S3_REGION"
	envS3Prefix      = "S3_PREFIX"
	envS3PathStyle   = "S3_USE_PATH_STYLE"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultPort          = "8080"
	DefaultFeedURL       = "https://tradingeconomics.com/stream?c=united+states"
	DefaultRedisAddr     = "localhost:6379"
	DefaultPollInterval  = 5 * time.Minute
	DefaultItemDelay     = 500 * time.Millisecond
	DefaultKafkaTopic    = "marketbrief.articles.accepted"
	DefaultKafkaGroupID  = "marketbrief-summary-worker"
	DefaultCohereModel   = "command-r-08-2024"
	DefaultHistoryCap    = 1000
	DefaultRecentWindow  = time.Hour
	DefaultFetchAttempts = 3
	DefaultFetchDelay    = 5 * time.Second
	DefaultLockTTL       = 2 * time.Minute
)

// Config is the full, validated process configuration. It is resolved once
// by Load; mandatory fields missing cause a startup error rather than a
// failure discovered mid-pass.
type Config struct {
	Port     string
	Feed     FeedConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Pipeline PipelineConfig
	Kafka    KafkaConfig
	Cohere   CohereConfig
	S3       S3Config
}

// FeedConfig selects the upstream source. Mode "stream" scrapes the news
// stream page; "rss" parses the URL as an RSS/Atom feed.
type FeedConfig struct {
	URL  string
	Mode string
}

// DatabaseConfig describes the Postgres connection.
type DatabaseConfig struct {
	URL string
}

// RedisConfig describes the shared fast cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PipelineConfig tunes the ingestion pass.
type PipelineConfig struct {
	PollInterval  time.Duration
	ItemDelay     time.Duration
	HistoryCap    int
	RecentWindow  time.Duration
	FetchAttempts int
	FetchDelay    time.Duration
	LockTTL       time.Duration
}

// KafkaConfig is optional; empty Brokers disables event publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Enabled reports whether Kafka publishing/consuming is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// CohereConfig is optional; empty APIKey disables summarization.
type CohereConfig struct {
	APIKey string
	Model  string
}

// S3Config is optional; empty Bucket disables archiving.
type S3Config struct {
	Bucket       string
	Region       string
	Prefix       string
	UsePathStyle bool
}

// Load resolves configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port: getEnvOrDefault(envPort, DefaultPort),
		Feed: FeedConfig{
			URL:  getEnvOrDefault(envFeedURL, DefaultFeedURL),
			Mode: strings.ToLower(getEnvOrDefault(envFeedMode, "stream")),
		},
		Database: DatabaseConfig{
			URL: os.Getenv(envDatabaseURL),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault(envRedisAddr, DefaultRedisAddr),
			Password: os.Getenv(envRedisPassword),
			DB:       getEnvIntOrDefault(envRedisDB, 0),
		},
		Pipeline: PipelineConfig{
			PollInterval:  getEnvDurationOrDefault(envPollInterval, time.Second, DefaultPollInterval),
			ItemDelay:     getEnvDurationOrDefault(envItemDelay, time.Millisecond, DefaultItemDelay),
			HistoryCap:    DefaultHistoryCap,
			RecentWindow:  DefaultRecentWindow,
			FetchAttempts: DefaultFetchAttempts,
			FetchDelay:    DefaultFetchDelay,
			LockTTL:       DefaultLockTTL,
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv(envKafkaBrokers)),
			Topic:   getEnvOrDefault(envKafkaTopic, DefaultKafkaTopic),
			GroupID: getEnvOrDefault(envKafkaGroupID, DefaultKafkaGroupID),
		},
		Cohere: CohereConfig{
			APIKey: os.Getenv(envCohereAPIKey),
			Model:  getEnvOrDefault(envCohereModel, DefaultCohereModel),
		},
		S3: S3Config{
			Bucket:       strings.TrimSpace(os.Getenv(envS3Bucket)),
			Region:       strings.TrimSpace(os.Getenv(envS3Region)),
			Prefix:       normalizePrefix(os.Getenv(envS3Prefix)),
			UsePathStyle: strings.EqualFold(strings.TrimSpace(os.Getenv(envS3PathStyle)), "true"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config: %s is required", envDatabaseURL)
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("config: %s must not be empty", envFeedURL)
	}
	if c.Feed.Mode != "stream" && c.Feed.Mode != "rss" {
		return fmt.Errorf("config: %s must be %q or %q, got %q", envFeedMode, "stream", "rss", c.Feed.Mode)
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, unit, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return time.Duration(n) * unit
		}
	}
	return defaultVal
}

func splitNonEmpty(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	return strings.Trim(prefix, "/") + "/"
}
