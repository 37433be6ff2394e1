package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REGISTRATION_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, AuthModeSession, cfg.AuthMode)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadTokenMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "token")
	t.Setenv("TOKEN_SECRET", "hmac-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AuthModeToken, cfg.AuthMode)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:               "8080",
			DBPath:             "./data/chat.db",
			AuthMode:           AuthModeSession,
			RegistrationSecret: "s3cret",
			HistoryLimit:       10,
			SessionTTL:         24 * time.Hour,
		}
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})

	t.Run("missing registration secret", func(t *testing.T) {
		cfg := base()
		cfg.RegistrationSecret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("token mode requires token secret", func(t *testing.T) {
		cfg := base()
		cfg.AuthMode = AuthModeToken
		assert.Error(t, cfg.Validate())

		cfg.TokenSecret = "hmac-key"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown auth mode", func(t *testing.T) {
		cfg := base()
		cfg.AuthMode = "oauth"
		assert.Error(t, cfg.Validate())
	})

	t.Run("history limit must be positive", func(t *testing.T) {
		cfg := base()
		cfg.HistoryLimit = 0
		assert.Error(t, cfg.Validate())
	})
}
