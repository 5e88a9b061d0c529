package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("STAGING_TTL", "")
	t.Setenv("CURRENCY", "")

	cfg := FromEnv()

	assert.Equal(t, "scylla", cfg.StoreBackend)
	assert.Equal(t, 48*time.Hour, cfg.StagingTTL)
	assert.Equal(t, "inr", cfg.Currency)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("STAGING_TTL", "90m")
	t.Setenv("CHECKOUT_RATE_LIMIT", "3")
	t.Setenv("SCYLLA_HOSTS", "10.0.0.1, 10.0.0.2,,")
	t.Setenv("SCYLLA_CREATE_SCHEMA", "yes")
	t.Setenv("ENV", "production")

	cfg := FromEnv()

	assert.Equal(t, "mongo", cfg.StoreBackend)
	assert.Equal(t, 90*time.Minute, cfg.StagingTTL)
	assert.Equal(t, 3, cfg.CheckoutRateLimit)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.ScyllaHosts)
	assert.True(t, cfg.ScyllaCreateSchema)
	assert.True(t, cfg.IsProduction())
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("STAGING_TTL", "soon")
	t.Setenv("SMTP_PORT", "abc")

	cfg := FromEnv()

	assert.Equal(t, 48*time.Hour, cfg.StagingTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
}
