package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		ConfigPathEnv, "STOREFRONT_API_URL", "STOREFRONT_OPS_ADDR", "STOREFRONT_STATE_DRIVER",
		"STOREFRONT_REDIS_ADDR", "STOREFRONT_REDIS_PASSWORD", "STOREFRONT_POSTGRES_DSN",
		"STOREFRONT_LOG_LEVEL", "KAFKA_TOPIC", "STOREFRONT_DEBOUNCE", "STOREFRONT_HTTP_TIMEOUT",
		"STOREFRONT_STATE_TTL", "STOREFRONT_REDIS_DB", "KAFKA_BROKERS",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_base_url: https://shop.example/api/v1
debounce: 250ms
state_driver: redis
redis_addr: redis:6379
kafka_brokers: ["kafka-1:9092"]
`), 0o600))

	t.Setenv(ConfigPathEnv, path)
	t.Setenv("STOREFRONT_DEBOUNCE", "1s")
	t.Setenv("STOREFRONT_REDIS_DB", "3")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/api/v1", cfg.APIBaseURL)
	assert.Equal(t, time.Second, cfg.Debounce)
	assert.Equal(t, StateDriverRedis, cfg.StateDriver)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, DefaultConfig().OpsAddr, cfg.OpsAddr)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := LoadConfig()
		require.ErrorContains(t, err, "read config file")
	})

	t.Run("bad duration", func(t *testing.T) {
		clearConfigEnv(t)
		t.Setenv("STOREFRONT_HTTP_TIMEOUT", "soon")
		_, err := LoadConfig()
		require.ErrorContains(t, err, "STOREFRONT_HTTP_TIMEOUT")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "unsupported driver", mutate: func(c *Config) { c.StateDriver = "etcd" }, want: "unsupported state driver"},
		{name: "redis without addr", mutate: func(c *Config) { c.StateDriver = StateDriverRedis; c.RedisAddr = "" }, want: "redis addr is required"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StateDriver = StateDriverPostgres }, want: "postgres dsn is required"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, want: "invalid log level"},
		{name: "negative debounce", mutate: func(c *Config) { c.Debounce = -time.Second }, want: "debounce must not be negative"},
		{name: "no api url", mutate: func(c *Config) { c.APIBaseURL = "" }, want: "api base url is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}

	require.NoError(t, DefaultConfig().Validate())
}
