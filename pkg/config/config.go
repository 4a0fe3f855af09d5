package config

import (
	"fmt"
	"os"
	"regexp"
	"resbook/pkg/client"
	"resbook/pkg/logger"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Booking engine tunables. Horizons and padding bound every expansion
	// of an unbounded series; the recommend knobs shape slot suggestions.
	UnboundedHorizon   time.Duration
	ConflictPadding    time.Duration
	RecommendHorizon   time.Duration
	RecommendStep      time.Duration
	MaxSuggestions     int
	MaxSeriesInstances int

	LockTTL           time.Duration
	LockRetryInterval time.Duration

	SlotTokenSecret string
	SlotTokenTTL    time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		UnboundedHorizon:   getEnvDuration(EnvUnboundedHorizon, DefaultUnboundedHorizon),
		ConflictPadding:    getEnvDuration(EnvConflictPadding, DefaultConflictPadding),
		RecommendHorizon:   getEnvDuration(EnvRecommendHorizon, DefaultRecommendHorizon),
		RecommendStep:      getEnvDuration(EnvRecommendStep, DefaultRecommendStep),
		MaxSuggestions:     getEnvNum(EnvMaxSuggestions, DefaultMaxSuggestions),
		MaxSeriesInstances: getEnvNum(EnvMaxSeriesInstances, DefaultMaxSeriesInstances),

		LockTTL:           getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockRetryInterval: getEnvDuration(EnvLockRetryInterval, DefaultLockRetryInterval),

		SlotTokenSecret: getEnvStr(EnvSlotTokenSecret, ""),
		SlotTokenTTL:    getEnvDuration(EnvSlotTokenTTL, DefaultSlotTokenTTL),

		KafkaBrokers: getEnvList(EnvKafkaBrokers),
		KafkaTopic:   getEnvStr(EnvKafkaTopic, DefaultKafkaTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.UnboundedHorizon <= 0 {
		errors = append(errors, fmt.Sprintf("UnboundedHorizon must be positive, got: %s", cfg.UnboundedHorizon))
	}
	if cfg.ConflictPadding < 0 {
		errors = append(errors, fmt.Sprintf("ConflictPadding cannot be negative, got: %s", cfg.ConflictPadding))
	}
	if cfg.RecommendHorizon <= 0 {
		errors = append(errors, fmt.Sprintf("RecommendHorizon must be positive, got: %s", cfg.RecommendHorizon))
	}
	if cfg.RecommendHorizon > cfg.UnboundedHorizon {
		errors = append(errors, fmt.Sprintf("RecommendHorizon (%s) cannot exceed UnboundedHorizon (%s)", cfg.RecommendHorizon, cfg.UnboundedHorizon))
	}
	if cfg.RecommendStep <= 0 {
		errors = append(errors, fmt.Sprintf("RecommendStep must be positive, got: %s", cfg.RecommendStep))
	}
	if cfg.MaxSuggestions < 1 || cfg.MaxSuggestions > 50 {
		errors = append(errors, fmt.Sprintf("MaxSuggestions must be between 1 and 50, got: %d", cfg.MaxSuggestions))
	}
	if cfg.MaxSeriesInstances <= 0 {
		errors = append(errors, fmt.Sprintf("MaxSeriesInstances must be positive, got: %d", cfg.MaxSeriesInstances))
	}

	if cfg.LockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("LockTTL must be positive, got: %s", cfg.LockTTL))
	}
	if cfg.LockRetryInterval <= 0 || cfg.LockRetryInterval >= cfg.LockTTL {
		errors = append(errors, fmt.Sprintf("LockRetryInterval must be positive and below LockTTL, got: %s", cfg.LockRetryInterval))
	}

	if cfg.SlotTokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SlotTokenTTL must be positive, got: %s", cfg.SlotTokenTTL))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"unbounded_horizon", cfg.UnboundedHorizon,
		"conflict_padding", cfg.ConflictPadding,
		"recommend_horizon", cfg.RecommendHorizon,
		"recommend_step", cfg.RecommendStep,
		"max_suggestions", cfg.MaxSuggestions,
		"max_series_instances", cfg.MaxSeriesInstances,
		"lock_ttl", cfg.LockTTL,
		"lock_retry_interval", cfg.LockRetryInterval,
		"slot_token_secret_set", cfg.SlotTokenSecret != "",
		"slot_token_ttl", cfg.SlotTokenTTL,
		"kafka_brokers", strings.Join(cfg.KafkaBrokers, ","),
		"kafka_topic", cfg.KafkaTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
