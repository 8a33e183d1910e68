package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Server.StorageDriver)
	assert.Equal(t, "America/Argentina/Cordoba", cfg.Gym.Timezone)
	assert.Equal(t, int64(17000), cfg.Gym.BasePrice)
	assert.Equal(t, int64(25000), cfg.Gym.PromotionPrice)
	assert.Equal(t, 7*24*time.Hour, cfg.LookAhead())
	assert.Equal(t, "0 0 * * *", cfg.Scheduler.NotificationCron)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, "America/Argentina/Cordoba", cfg.Location().String())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PLAN_PRICE_BASE", "20000")
	t.Setenv("EXPIRY_LOOKAHEAD_DAYS", "3")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("S3_ENDPOINT", "http://localhost:8333")
	t.Setenv("S3_BUCKET", "reports")
	t.Setenv("DASHBOARD_CACHE_TTL_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(20000), cfg.Gym.BasePrice)
	assert.Equal(t, 3*24*time.Hour, cfg.LookAhead())
	assert.Equal(t, "memory", cfg.Server.StorageDriver)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, 5*time.Second, cfg.Redis.DashboardCacheTTL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{StorageDriver: "mongo"},
			JWT:       JWTConfig{Secret: "s"},
			Gym:       GymConfig{Timezone: "UTC", BasePrice: 1, PromotionPrice: 2, ExpiryLookAheadDays: 7},
			Scheduler: SchedulerConfig{Enabled: true, NotificationCron: "0 0 * * *"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }},
		{"unknown storage driver", func(c *Config) { c.Server.StorageDriver = "sqlite" }},
		{"bad timezone", func(c *Config) { c.Gym.Timezone = "Mars/Olympus" }},
		{"zero price", func(c *Config) { c.Gym.BasePrice = 0 }},
		{"zero lookahead", func(c *Config) { c.Gym.ExpiryLookAheadDays = 0 }},
		{"bad cron", func(c *Config) { c.Scheduler.NotificationCron = "every day" }},
		{"otel without endpoint", func(c *Config) { c.OTEL.Enabled = true }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
