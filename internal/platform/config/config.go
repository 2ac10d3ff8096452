package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	EventBusMemory = "memory"
	EventBusRedis  = "redis"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	EventBus    string
	RedisAddr   string

	DBPingTimeout        time.Duration
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetime    time.Duration
	DBSlowQueryThreshold time.Duration

	HistoryCap       int
	TxTimeout        time.Duration
	TxMaxAttempts    int
	ArchiveInterval  time.Duration
	ArchiveBatchSize int
	OutboxInterval   time.Duration
	OutboxBatchSize  int

	EnableArchiver    bool
	EnableOutboxRelay bool
}

func Defaults() Config {
	return Config{
		ServiceName:          "traject",
		HTTPPort:             "8080",
		EventBus:             EventBusMemory,
		RedisAddr:            "localhost:6379",
		DBPingTimeout:        5 * time.Second,
		DBMaxOpenConns:       20,
		DBMaxIdleConns:       5,
		DBConnMaxLifetime:    30 * time.Minute,
		DBSlowQueryThreshold: 200 * time.Millisecond,
		HistoryCap:           50,
		TxTimeout:            10 * time.Second,
		TxMaxAttempts:        5,
		ArchiveInterval:      time.Hour,
		ArchiveBatchSize:     100,
		OutboxInterval:       2 * time.Second,
		OutboxBatchSize:      100,
		EnableArchiver:       true,
		EnableOutboxRelay:    true,
	}
}

// Load applies, in order: defaults, the optional TOML file named by
// TRAJECT_CONFIG, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("TRAJECT_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := decodeFile(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.ServiceName = envString("SERVICE_NAME", cfg.ServiceName)
	cfg.HTTPPort = envString("HTTP_PORT", cfg.HTTPPort)
	cfg.PostgresDSN = envString("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.EventBus = strings.ToLower(envString("EVENT_BUS", cfg.EventBus))
	cfg.RedisAddr = envString("REDIS_ADDR", cfg.RedisAddr)

	var err error
	if cfg.DBPingTimeout, err = envDuration("DB_PING_TIMEOUT", cfg.DBPingTimeout); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxOpenConns, err = envInt("DB_MAX_OPEN_CONNS", cfg.DBMaxOpenConns); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxIdleConns, err = envInt("DB_MAX_IDLE_CONNS", cfg.DBMaxIdleConns); err != nil {
		return Config{}, err
	}
	if cfg.DBConnMaxLifetime, err = envDuration("DB_CONN_MAX_LIFETIME", cfg.DBConnMaxLifetime); err != nil {
		return Config{}, err
	}
	if cfg.DBSlowQueryThreshold, err = envDuration("DB_SLOW_QUERY_THRESHOLD", cfg.DBSlowQueryThreshold); err != nil {
		return Config{}, err
	}
	if cfg.HistoryCap, err = envInt("HISTORY_CAP", cfg.HistoryCap); err != nil {
		return Config{}, err
	}
	if cfg.TxTimeout, err = envDuration("TX_TIMEOUT", cfg.TxTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TxMaxAttempts, err = envInt("TX_MAX_ATTEMPTS", cfg.TxMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.ArchiveInterval, err = envDuration("ARCHIVE_INTERVAL", cfg.ArchiveInterval); err != nil {
		return Config{}, err
	}
	if cfg.ArchiveBatchSize, err = envInt("ARCHIVE_BATCH_SIZE", cfg.ArchiveBatchSize); err != nil {
		return Config{}, err
	}
	if cfg.OutboxInterval, err = envDuration("OUTBOX_INTERVAL", cfg.OutboxInterval); err != nil {
		return Config{}, err
	}
	if cfg.OutboxBatchSize, err = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize); err != nil {
		return Config{}, err
	}
	cfg.EnableArchiver = envBool("ENABLE_ARCHIVER", cfg.EnableArchiver)
	cfg.EnableOutboxRelay = envBool("ENABLE_OUTBOX_RELAY", cfg.EnableOutboxRelay)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []error
	if c.HistoryCap < 2 {
		problems = append(problems, errors.New("history cap must be at least 2"))
	}
	if c.DBPingTimeout <= 0 || c.DBConnMaxLifetime <= 0 || c.DBSlowQueryThreshold <= 0 {
		problems = append(problems, errors.New("db timeouts must be positive"))
	}
	if c.DBMaxOpenConns <= 0 || c.DBMaxIdleConns < 0 {
		problems = append(problems, errors.New("db pool sizes must be positive"))
	} else if c.DBMaxIdleConns > c.DBMaxOpenConns {
		problems = append(problems, errors.New("db max idle conns must not exceed max open conns"))
	}
	if c.TxTimeout <= 0 {
		problems = append(problems, errors.New("tx timeout must be positive"))
	}
	if c.TxMaxAttempts <= 0 {
		problems = append(problems, errors.New("tx max attempts must be positive"))
	}
	if c.ArchiveInterval <= 0 || c.OutboxInterval <= 0 {
		problems = append(problems, errors.New("worker intervals must be positive"))
	}
	if c.ArchiveBatchSize <= 0 || c.OutboxBatchSize <= 0 {
		problems = append(problems, errors.New("worker batch sizes must be positive"))
	}
	switch c.EventBus {
	case EventBusMemory:
	case EventBusRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			problems = append(problems, errors.New("redis addr is required for the redis event bus"))
		}
	default:
		problems = append(problems, fmt.Errorf("unknown event bus %q", c.EventBus))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(problems...))
	}
	return nil
}

// fileConfig mirrors Config with durations as strings ("10s", "1h").
type fileConfig struct {
	ServiceName       *string `toml:"service_name"`
	HTTPPort          *string `toml:"http_port"`
	PostgresDSN       *string `toml:"postgres_dsn"`
	EventBus          *string `toml:"event_bus"`
	RedisAddr         *string `toml:"redis_addr"`
	DBPingTimeout     *string `toml:"db_ping_timeout"`
	DBMaxOpenConns    *int    `toml:"db_max_open_conns"`
	DBMaxIdleConns    *int    `toml:"db_max_idle_conns"`
	DBConnMaxLifetime *string `toml:"db_conn_max_lifetime"`
	DBSlowQuery       *string `toml:"db_slow_query_threshold"`
	HistoryCap        *int    `toml:"history_cap"`
	TxTimeout         *string `toml:"tx_timeout"`
	TxMaxAttempts     *int    `toml:"tx_max_attempts"`
	ArchiveInterval   *string `toml:"archive_interval"`
	ArchiveBatchSize  *int    `toml:"archive_batch_size"`
	OutboxInterval    *string `toml:"outbox_interval"`
	OutboxBatchSize   *int    `toml:"outbox_batch_size"`
	EnableArchiver    *bool   `toml:"enable_archiver"`
	EnableOutboxRelay *bool   `toml:"enable_outbox_relay"`
}

func decodeFile(raw []byte, cfg *Config) error {
	var file fileConfig
	if err := toml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}
	assign(&cfg.ServiceName, file.ServiceName)
	assign(&cfg.HTTPPort, file.HTTPPort)
	assign(&cfg.PostgresDSN, file.PostgresDSN)
	assign(&cfg.EventBus, file.EventBus)
	assign(&cfg.RedisAddr, file.RedisAddr)
	assign(&cfg.DBMaxOpenConns, file.DBMaxOpenConns)
	assign(&cfg.DBMaxIdleConns, file.DBMaxIdleConns)
	assign(&cfg.HistoryCap, file.HistoryCap)
	assign(&cfg.TxMaxAttempts, file.TxMaxAttempts)
	assign(&cfg.ArchiveBatchSize, file.ArchiveBatchSize)
	assign(&cfg.OutboxBatchSize, file.OutboxBatchSize)
	assign(&cfg.EnableArchiver, file.EnableArchiver)
	assign(&cfg.EnableOutboxRelay, file.EnableOutboxRelay)

	durations := []struct {
		name   string
		target *time.Duration
		value  *string
	}{
		{"db_ping_timeout", &cfg.DBPingTimeout, file.DBPingTimeout},
		{"db_conn_max_lifetime", &cfg.DBConnMaxLifetime, file.DBConnMaxLifetime},
		{"db_slow_query_threshold", &cfg.DBSlowQueryThreshold, file.DBSlowQuery},
		{"tx_timeout", &cfg.TxTimeout, file.TxTimeout},
		{"archive_interval", &cfg.ArchiveInterval, file.ArchiveInterval},
		{"outbox_interval", &cfg.OutboxInterval, file.OutboxInterval},
	}
	for _, item := range durations {
		if item.value == nil {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(*item.value))
		if err != nil {
			return fmt.Errorf("config file %s: %w", item.name, err)
		}
		*item.target = parsed
	}
	return nil
}

func assign[T any](target *T, value *T) {
	if value != nil {
		*target = *value
	}
}

func envString(name string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return value, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return value, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
