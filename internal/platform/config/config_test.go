package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults produce a valid in-memory config", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 10*time.Second, cfg.Marketplace.GuardWait)
		assert.Equal(t, "0xmarketplace", cfg.Marketplace.Operator)
		assert.Equal(t, 5*time.Second, cfg.Marketplace.TxTimeout)
		assert.Empty(t, cfg.Database.URL)
		assert.Empty(t, cfg.Kafka.Brokers)
		assert.Equal(t, 100, cfg.Outbox.BatchSize)
		assert.True(t, cfg.RateLimit.Enabled)
		assert.Equal(t, 5*time.Second, cfg.Directory.Timeout)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("NFTMARKET_ADDR", ":9090")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,k1:9092")
		t.Setenv("DIRECTORY_BASE_URL", "http://registry.local")
		t.Setenv("FUNDS_TIMEOUT", "2s")
		t.Setenv("RATE_LIMIT_RPS", "0.5")

		cfg, err := FromEnv()
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "http://registry.local", cfg.Directory.BaseURL)
		assert.Empty(t, cfg.Funds.BaseURL)
		assert.Equal(t, 2*time.Second, cfg.Funds.Timeout)
		assert.InDelta(t, 0.5, cfg.RateLimit.RequestsPerSec, 0.0001)
	})

	t.Run("malformed duration is rejected", func(t *testing.T) {
		t.Setenv("OUTBOX_POLL_INTERVAL", "soon")

		_, err := FromEnv()
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := FromEnv()
		require.NoError(t, err)
		return cfg
	}

	t.Run("zero burst with rate limiting enabled", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimit.Burst = 0
		assert.ErrorContains(t, cfg.Validate(), "RATE_LIMIT_BURST")
	})

	t.Run("zero burst with rate limiting disabled", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimit.Enabled = false
		cfg.RateLimit.Burst = 0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("blank operator", func(t *testing.T) {
		cfg := valid()
		cfg.Marketplace.Operator = "  "
		assert.ErrorContains(t, cfg.Validate(), "MARKETPLACE_OPERATOR")
	})

	t.Run("unknown log format", func(t *testing.T) {
		cfg := valid()
		cfg.Log.Format = "xml"
		assert.ErrorContains(t, cfg.Validate(), "LOG_FORMAT")
	})

	t.Run("multiple problems are reported together", func(t *testing.T) {
		cfg := valid()
		cfg.Outbox.BatchSize = 0
		cfg.Idempotency.TTL = 0
		err := cfg.Validate()
		assert.ErrorContains(t, err, "OUTBOX_BATCH_SIZE")
		assert.ErrorContains(t, err, "IDEMPOTENCY_TTL")
	})
}
