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

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "chatwire", cfg.MongoDB)
	assert.Equal(t, "chat-messages", cfg.KafkaTopic)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 1000, cfg.MaxContentLength)
	assert.Equal(t, int64(10485760), cfg.MaxAttachmentBytes)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("MESSAGE_MAX_LENGTH", "42")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.APIPort)
	assert.Equal(t, 42, cfg.MaxContentLength)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}
