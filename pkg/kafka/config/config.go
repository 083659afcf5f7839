package kafka_config

import (
	"fmt"
	"strings"
	"time"

	"fleetbook/pkg/logger"
)

// Config is nested into the service config under the KAFKA_ prefix.
type Config struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`

	Topic    string `env:"TOPIC" envDefault:"fleetbook.reservations"`
	DLQTopic string `env:"DLQ_TOPIC" envDefault:"fleetbook.reservations.dlq"`
	GroupID  string `env:"GROUP_ID" envDefault:"fleetbook-conflict-worker"`

	ProducerMaxAttempts  int           `env:"PRODUCER_MAX_ATTEMPTS" envDefault:"3"`
	ProducerBatchTimeout time.Duration `env:"PRODUCER_BATCH_TIMEOUT" envDefault:"10ms"`
	ProducerRequireAcks  int           `env:"PRODUCER_REQUIRE_ACKS" envDefault:"-1"` // -1 = all, 0 = none, 1 = leader only
	ProducerCompression  string        `env:"PRODUCER_COMPRESSION" envDefault:"snappy"`

	ConsumerStartOffset       int64         `env:"CONSUMER_START_OFFSET" envDefault:"-2"` // -1 = newest, -2 = oldest
	ConsumerMinBytes          int           `env:"CONSUMER_MIN_BYTES" envDefault:"1"`
	ConsumerMaxBytes          int           `env:"CONSUMER_MAX_BYTES" envDefault:"10485760"`
	ConsumerMaxWait           time.Duration `env:"CONSUMER_MAX_WAIT" envDefault:"500ms"`
	ConsumerCommitInterval    time.Duration `env:"CONSUMER_COMMIT_INTERVAL" envDefault:"1s"`
	ConsumerHeartbeatInterval time.Duration `env:"CONSUMER_HEARTBEAT_INTERVAL" envDefault:"3s"`
	ConsumerSessionTimeout    time.Duration `env:"CONSUMER_SESSION_TIMEOUT" envDefault:"10s"`
	ConsumerRebalanceTimeout  time.Duration `env:"CONSUMER_REBALANCE_TIMEOUT" envDefault:"60s"`
	ConsumerMaxRetries        int           `env:"CONSUMER_MAX_RETRIES" envDefault:"3"`
	ConsumerRetryBackoff      time.Duration `env:"CONSUMER_RETRY_BACKOFF" envDefault:"200ms"`
}

func (cfg *Config) Validate() []string {
	if !cfg.Enabled {
		return nil
	}

	var errors []string

	if len(cfg.Brokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if strings.TrimSpace(broker) == "" {
			errors = append(errors, fmt.Sprintf("Kafka broker %d cannot be empty", i))
		}
	}
	if cfg.Topic == "" {
		errors = append(errors, "Kafka topic cannot be empty")
	}
	if cfg.GroupID == "" {
		errors = append(errors, "Kafka consumer group ID cannot be empty")
	}
	if cfg.ProducerMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts))
	}
	if cfg.ProducerBatchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerBatchTimeout must be positive, got: %s", cfg.ProducerBatchTimeout))
	}

	validCompressions := map[string]bool{
		"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true,
	}
	if !validCompressions[cfg.ProducerCompression] {
		errors = append(errors, fmt.Sprintf("ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.ProducerCompression))
	}

	validAcks := map[int]bool{-1: true, 0: true, 1: true}
	if !validAcks[cfg.ProducerRequireAcks] {
		errors = append(errors, fmt.Sprintf("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks))
	}

	if cfg.ConsumerStartOffset != -1 && cfg.ConsumerStartOffset != -2 {
		errors = append(errors, fmt.Sprintf("ConsumerStartOffset must be -1 (newest) or -2 (oldest), got: %d", cfg.ConsumerStartOffset))
	}
	if cfg.ConsumerMinBytes <= 0 || cfg.ConsumerMaxBytes < cfg.ConsumerMinBytes {
		errors = append(errors, fmt.Sprintf("ConsumerMinBytes/ConsumerMaxBytes must satisfy 0 < min <= max, got: %d/%d", cfg.ConsumerMinBytes, cfg.ConsumerMaxBytes))
	}
	for name, d := range map[string]time.Duration{
		"ConsumerMaxWait":           cfg.ConsumerMaxWait,
		"ConsumerCommitInterval":    cfg.ConsumerCommitInterval,
		"ConsumerHeartbeatInterval": cfg.ConsumerHeartbeatInterval,
		"ConsumerSessionTimeout":    cfg.ConsumerSessionTimeout,
		"ConsumerRebalanceTimeout":  cfg.ConsumerRebalanceTimeout,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}
	if cfg.ConsumerMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries))
	}
	if cfg.ConsumerRetryBackoff < 0 {
		errors = append(errors, fmt.Sprintf("ConsumerRetryBackoff cannot be negative, got: %s", cfg.ConsumerRetryBackoff))
	}

	return errors
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	if !cfg.Enabled {
		log.Info("Kafka disabled")
		return
	}
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"dlq_topic", cfg.DLQTopic,
		"group_id", cfg.GroupID,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
		"consumer_retry_backoff", cfg.ConsumerRetryBackoff,
	)
}
