package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/solbruket/storefront-engine/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PORT", "")
	t.Setenv("ADD_RATE_MAX", "")
	t.Setenv("CART_TTL", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":9292", cfg.HTTPAddr())
	require.Equal(t, 6, cfg.AddRateMax)
	require.Equal(t, 24*time.Hour, cfg.CartTTL)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRequiresRedis(t *testing.T) {
	t.Setenv("REDIS_URL", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PORT", "8088")
	t.Setenv("ADD_RATE_WINDOW", "5s")
	t.Setenv("ADD_RATE_MAX", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.se, https://staging.example.se")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":8088", cfg.HTTPAddr())
	require.Equal(t, 5*time.Second, cfg.AddRateWindow)
	require.Equal(t, 3, cfg.AddRateMax)
	require.Equal(t, []string{"https://shop.example.se", "https://staging.example.se"}, cfg.CORSAllowedOrigins)
}

func TestBadNumbersFallBack(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ADD_RATE_MAX", "not-a-number")
	t.Setenv("ADD_RATE_WINDOW", "garbage")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 6, cfg.AddRateMax)
	require.Equal(t, 10*time.Second, cfg.AddRateWindow)
}
