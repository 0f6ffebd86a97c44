package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Поддерживаемые хранилища состояния клиента.
const (
	StateDriverMemory   = "memory"
	StateDriverRedis    = "redis"
	StateDriverPostgres = "postgres"
)

// ConfigPathEnv — переменная с путём к YAML-файлу конфигурации.
const ConfigPathEnv = "STOREFRONT_CONFIG"

// Config описывает настройки клиентского runtime витрины.
type Config struct {
	APIBaseURL      string        `yaml:"api_base_url"`
	OpsAddr         string        `yaml:"ops_addr"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
	Debounce        time.Duration `yaml:"debounce"`
	LogLevel        string        `yaml:"log_level"`

	StateDriver         string        `yaml:"state_driver"`
	StateTTL            time.Duration `yaml:"state_ttl"`
	RedisAddr           string        `yaml:"redis_addr"`
	RedisPassword       string        `yaml:"redis_password"`
	RedisDB             int           `yaml:"redis_db"`
	PostgresDSN         string        `yaml:"postgres_dsn"`
	PostgresAutoMigrate bool          `yaml:"postgres_auto_migrate"`
	PostgresMaxConns    int           `yaml:"postgres_max_conns"`

	KafkaBrokers       []string      `yaml:"kafka_brokers"`
	KafkaTopic         string        `yaml:"kafka_topic"`
	KafkaDLQTopic      string        `yaml:"kafka_dlq_topic"`
	OutboxPollInterval time.Duration `yaml:"outbox_poll_interval"`
	OutboxBatchSize    int           `yaml:"outbox_batch_size"`
	OutboxMaxAttempts  int           `yaml:"outbox_max_attempts"`
	OutboxRetryDelay   time.Duration `yaml:"outbox_retry_delay"`
}

// DefaultConfig возвращает настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:          "http://localhost:8080/api/v1",
		OpsAddr:             ":9090",
		HTTPTimeout:         10 * time.Second,
		BreakerFailures:     5,
		BreakerCooldown:     30 * time.Second,
		Debounce:            500 * time.Millisecond,
		LogLevel:            "info",
		StateDriver:         StateDriverMemory,
		RedisAddr:           "localhost:6379",
		PostgresAutoMigrate: true,
		PostgresMaxConns:    10,
		KafkaTopic:          "storefront.checkout.events",
		KafkaDLQTopic:       "storefront.checkout.dlq",
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     50,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    100 * time.Millisecond,
	}
}

// LoadConfig собирает конфигурацию: значения по умолчанию, затем YAML-файл из
// STOREFRONT_CONFIG (если задан), затем переменные окружения.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv(ConfigPathEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"STOREFRONT_API_URL":        &c.APIBaseURL,
		"STOREFRONT_OPS_ADDR":       &c.OpsAddr,
		"STOREFRONT_STATE_DRIVER":   &c.StateDriver,
		"STOREFRONT_REDIS_ADDR":     &c.RedisAddr,
		"STOREFRONT_REDIS_PASSWORD": &c.RedisPassword,
		"STOREFRONT_POSTGRES_DSN":   &c.PostgresDSN,
		"STOREFRONT_LOG_LEVEL":      &c.LogLevel,
		"KAFKA_TOPIC":               &c.KafkaTopic,
	}
	for name, target := range strs {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*target = v
		}
	}

	durations := map[string]*time.Duration{
		"STOREFRONT_DEBOUNCE":     &c.Debounce,
		"STOREFRONT_HTTP_TIMEOUT": &c.HTTPTimeout,
		"STOREFRONT_STATE_TTL":    &c.StateTTL,
	}
	for name, target := range durations {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		*target = d
	}

	if v := strings.TrimSpace(os.Getenv("STOREFRONT_REDIS_DB")); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse STOREFRONT_REDIS_DB: %w", err)
		}
		c.RedisDB = db
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		c.KafkaBrokers = splitList(v)
	}
	return nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("api base url is required"))
	}
	if c.Debounce < 0 {
		errs = append(errs, errors.New("debounce must not be negative"))
	}
	switch c.StateDriver {
	case StateDriverMemory:
	case StateDriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis addr is required for redis state driver"))
		}
	case StateDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres dsn is required for postgres state driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported state driver %q", c.StateDriver))
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("invalid log level: %w", err))
		}
	}

	return errors.Join(errs...)
}

// KafkaEnabled сообщает, настроена ли публикация событий.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
