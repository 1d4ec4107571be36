package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, NotifierLog, cfg.NotifierDriver)
	assert.False(t, cfg.ConfirmationCodeSingleUse)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.TrustedProxies)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("CONFIRMATION_CODE_SINGLE_USE", "true")
	t.Setenv("AUTH_RATE_LIMIT", "2.5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("NOTIFIER_DRIVER", "queue")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.True(t, cfg.ConfirmationCodeSingleUse)
	assert.Equal(t, 2.5, cfg.AuthRateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, NotifierQueue, cfg.NotifierDriver)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_InvalidInt(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "eighty")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	base, err := LoadConfig()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"bad port", func(c *Config) { c.HTTPPort = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad notifier", func(c *Config) { c.NotifierDriver = "pigeon" }},
		{"zero ttl", func(c *Config) { c.AccessTokenTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_TrustedProxies(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
	assert.NoError(t, cfg.Validate())

	cfg.TrustedProxies = []string{"not-a-proxy"}
	assert.ErrorContains(t, cfg.Validate(), "TRUSTED_PROXIES")
}
