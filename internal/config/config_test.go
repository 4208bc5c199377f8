package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/rolepush")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "rolepush", cfg.JWTIssuer)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 30, cfg.PushTTL)
	assert.Equal(t, 60, cfg.LoginRatePerMinute)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9090", cfg.MetricsAddr)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("API_PREFIX", "v1/")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("JWT_TTL_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SESSION_SECRET", "cookie")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/v1", cfg.APIPrefix)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "cookie", cfg.SessionSecret)
	assert.Equal(t, "127.0.0.1:9090", cfg.MetricsAddr)

	t.Setenv("METRICS_ADDR", "off")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.MetricsAddr)

	t.Setenv("METRICS_ADDR", ":9100")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "x")
		_, err := Load()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "x")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("bad driver", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DATABASE_DRIVER", "mysql")
		_, err := Load()
		assert.ErrorContains(t, err, "DATABASE_DRIVER")
	})

	t.Run("half a vapid pair", func(t *testing.T) {
		setRequired(t)
		t.Setenv("VAPID_PUBLIC_KEY", "pub")
		t.Setenv("VAPID_PRIVATE_KEY", "")
		_, err := Load()
		assert.ErrorContains(t, err, "VAPID")
	})

	t.Run("non-positive ttl falls back", func(t *testing.T) {
		setRequired(t)
		t.Setenv("JWT_TTL_MINUTES", "-5")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	})
}
