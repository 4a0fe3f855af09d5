// Package kafka_config keeps broker tuning separate from the service
// configuration, so producer and consumer defaults travel with the kafka
// package they describe.
package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries the connection and tuning settings shared by every
// producer and consumer in the process.
type Config struct {
	Brokers []string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 all replicas, 0 none, 1 leader
	ProducerCompression  string // none, gzip, snappy, lz4, zstd
	ProducerAsync        bool

	ConsumerStartOffset       int64 // -1 newest, -2 oldest
	ConsumerMinBytes          int
	ConsumerMaxBytes          int
	ConsumerMaxWait           time.Duration
	ConsumerCommitInterval    time.Duration
	ConsumerHeartbeatInterval time.Duration
	ConsumerSessionTimeout    time.Duration
	ConsumerRebalanceTimeout  time.Duration
	ConsumerMaxRetries        int

	EnableMiddleware bool
}

// Load reads the Kafka environment, falling back to defaults that suit a
// local single-broker setup. A broken setting aborts startup.
func Load() *Config {
	cfg := &Config{
		Brokers: splitBrokers(envStr(EnvKafkaBrokers, DefaultKafkaBrokers)),

		ProducerMaxAttempts:  envInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: envDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
		ProducerRequireAcks:  envInt(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerCompression:  envStr(EnvKafkaProducerCompression, DefaultProducerCompression),
		ProducerAsync:        envBool(EnvKafkaProducerAsync, DefaultProducerAsync),

		ConsumerStartOffset:       envInt64(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset),
		ConsumerMinBytes:          envInt(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
		ConsumerMaxBytes:          envInt(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
		ConsumerMaxWait:           envDuration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
		ConsumerCommitInterval:    envDuration(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval),
		ConsumerHeartbeatInterval: envDuration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
		ConsumerSessionTimeout:    envDuration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
		ConsumerRebalanceTimeout:  envDuration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
		ConsumerMaxRetries:        envInt(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),

		EnableMiddleware: envBool(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("kafka configuration invalid: %v", err))
	}
	return cfg
}

// splitBrokers parses a comma-separated broker list, dropping blanks.
func splitBrokers(raw string) []string {
	var brokers []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

// Validate reports every broken setting at once.
func (cfg *Config) Validate() error {
	var problems []string
	bad := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(cfg.Brokers) == 0 {
		bad("at least one broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			bad("broker %d is empty", i)
		}
	}

	if cfg.ProducerMaxAttempts <= 0 {
		bad("producer max attempts must be positive, got %d", cfg.ProducerMaxAttempts)
	}
	if cfg.ProducerBatchTimeout <= 0 {
		bad("producer batch timeout must be positive, got %s", cfg.ProducerBatchTimeout)
	}
	switch cfg.ProducerCompression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		bad("producer compression must be one of none/gzip/snappy/lz4/zstd, got %q", cfg.ProducerCompression)
	}
	switch cfg.ProducerRequireAcks {
	case -1, 0, 1:
	default:
		bad("producer require acks must be -1, 0, or 1, got %d", cfg.ProducerRequireAcks)
	}

	if cfg.ConsumerStartOffset < -2 {
		bad("consumer start offset must be -1 (newest), -2 (oldest), or an absolute offset, got %d", cfg.ConsumerStartOffset)
	}
	positives := []struct {
		name  string
		value time.Duration
	}{
		{"consumer max wait", cfg.ConsumerMaxWait},
		{"consumer commit interval", cfg.ConsumerCommitInterval},
		{"consumer heartbeat interval", cfg.ConsumerHeartbeatInterval},
		{"consumer session timeout", cfg.ConsumerSessionTimeout},
		{"consumer rebalance timeout", cfg.ConsumerRebalanceTimeout},
	}
	for _, p := range positives {
		if p.value <= 0 {
			bad("%s must be positive, got %s", p.name, p.value)
		}
	}
	if cfg.ConsumerMinBytes <= 0 {
		bad("consumer min bytes must be positive, got %d", cfg.ConsumerMinBytes)
	}
	if cfg.ConsumerMaxBytes <= 0 {
		bad("consumer max bytes must be positive, got %d", cfg.ConsumerMaxBytes)
	}
	if cfg.ConsumerMaxRetries < 0 {
		bad("consumer max retries cannot be negative, got %d", cfg.ConsumerMaxRetries)
	}

	if len(problems) > 0 {
		return fmt.Errorf("kafka config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
