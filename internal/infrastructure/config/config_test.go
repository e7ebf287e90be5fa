package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10, cfg.API.RateLimitThreshold)
	assert.Equal(t, 15*time.Minute, cfg.API.RateLimitWindow)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "creatorly-state.db", cfg.State.CachePath)
	assert.Equal(t, "127.0.0.1:8976", cfg.OAuth.ListenAddr)
	assert.Equal(t, "/oauth/callback", cfg.OAuth.CallbackPath)
	assert.Equal(t, "creator-sdk", cfg.Client.Name)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CREATORLY_API_BASE_URL", "https://staging.creatorly.io/api/v1")
	t.Setenv("CREATORLY_API_TIMEOUT", "30s")
	t.Setenv("CREATORLY_LOG_LEVEL", "debug")
	t.Setenv("CREATORLY_REDIS_HOST", "redis.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://staging.creatorly.io/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr(), "the default port fills in")
}

func TestLoadRejectsBadBaseURL(t *testing.T) {
	t.Setenv("CREATORLY_API_BASE_URL", "ftp://api.creatorly.io")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsNegativeValues(t *testing.T) {
	cfg := &Config{API: APIConfig{BaseURL: DefaultBaseURL, Timeout: -time.Second}}
	assert.Error(t, cfg.validate())

	cfg = &Config{API: APIConfig{BaseURL: DefaultBaseURL, RateLimitThreshold: -1}}
	assert.Error(t, cfg.validate())
}
