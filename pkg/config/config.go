package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"fleetbook/pkg/client"
	"fleetbook/pkg/conflict"
	kafka_config "fleetbook/pkg/kafka/config"
	"fleetbook/pkg/logger"

	"github.com/caarlos0/env/v11"
)

const (
	EnvPrefix = "FLEETBOOK_"

	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

var (
	mongoURIRegex   = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)?[^:/@\s]+:[^@\s]+@`)
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver       string        `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI          string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabaseName string        `env:"MONGO_DATABASE_NAME" envDefault:"fleetbook"`
	MongoConnTimeout  time.Duration `env:"MONGO_CONN_TIMEOUT" envDefault:"10s"`
	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"fleetbook.sqlite3"`

	BusinessTimezone string        `env:"BUSINESS_TIMEZONE" envDefault:"UTC"`
	BufferHours      float64       `env:"BUFFER_HOURS" envDefault:"2"`
	LockTTL          time.Duration `env:"LOCK_TTL" envDefault:"10s"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxRequestSize int64         `env:"MAX_REQUEST_SIZE" envDefault:"1048576"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Kafka kafka_config.Config `envPrefix:"KAFKA_"`

	location *time.Location

	Log    *logger.Logger `env:"-"`
	Client *client.Client `env:"-"`
}

// Parse reads the configuration from environ, or from the process
// environment when environ is nil. It performs no validation.
func Parse(environ map[string]string) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

func Load(serviceName string) *Config {
	cfg, err := Parse(nil)
	if err != nil {
		logger.New(logger.Config{Service: serviceName}).Fatal(err.Error())
	}

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// Connect opens the configured store.
func (cfg *Config) Connect() {
	switch cfg.StoreDriver {
	case StoreSQLite:
		cfg.Client.SetSQLite(cfg.Log, cfg.SQLitePath)
	default:
		cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
	}
}

func (cfg *Config) Location() *time.Location {
	if cfg.location == nil {
		return time.UTC
	}
	return cfg.location
}

func (cfg *Config) BufferPolicy() conflict.BufferPolicy {
	return conflict.BufferPolicy{Hours: cfg.BufferHours}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if !mongoURIRegex.MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			errors = append(errors, "SQLitePath cannot be empty")
		}
	default:
		errors = append(errors, fmt.Sprintf("StoreDriver must be one of [%s, %s], got: %s", StoreMongo, StoreSQLite, cfg.StoreDriver))
	}

	if loc, err := time.LoadLocation(cfg.BusinessTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("BusinessTimezone must be an IANA time zone, got: %s", cfg.BusinessTimezone))
	} else {
		cfg.location = loc
	}

	if cfg.BufferHours < 0 || cfg.BufferHours > 24*7 {
		errors = append(errors, fmt.Sprintf("BufferHours must be between 0 and 168, got: %g", cfg.BufferHours))
	}
	if cfg.LockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("LockTTL must be positive, got: %s", cfg.LockTTL))
	}
	if cfg.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRPS must be positive, got: %g", cfg.RateLimitRPS))
	}
	if cfg.RateLimitBurst <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitBurst must be positive, got: %d", cfg.RateLimitBurst))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	for name, d := range map[string]time.Duration{
		"RequestTimeout":  cfg.RequestTimeout,
		"ReadTimeout":     cfg.ReadTimeout,
		"WriteTimeout":    cfg.WriteTimeout,
		"IdleTimeout":     cfg.IdleTimeout,
		"ShutdownTimeout": cfg.ShutdownTimeout,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	errors = append(errors, cfg.Kafka.Validate()...)

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
		"port", cfg.Port,
		"store_driver", cfg.StoreDriver,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"sqlite_path", cfg.SQLitePath,
		"business_timezone", cfg.BusinessTimezone,
		"buffer_hours", cfg.BufferHours,
		"lock_ttl", cfg.LockTTL,
		"rate_limit_rps", cfg.RateLimitRPS,
		"rate_limit_burst", cfg.RateLimitBurst,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
	cfg.Kafka.LogConfiguration(cfg.Log)
}

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}
