package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_PORT", "STORAGE", "LOCK_TIMEOUT", "WORKERS", "RATE_RPS", "JWT_SECRET", "APP_MIGRATE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, StorageMemory, cfg.Storage)
	require.Equal(t, 3*time.Second, cfg.LockTimeout)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, 100, cfg.RateRPS)
	require.False(t, cfg.Migrate)
	require.False(t, cfg.AuthEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE", StorageRedis)
	t.Setenv("LOCK_TIMEOUT", "750ms")
	t.Setenv("WORKERS", "8")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_MIGRATE", "true")

	cfg := Load()
	require.Equal(t, StorageRedis, cfg.Storage)
	require.Equal(t, 750*time.Millisecond, cfg.LockTimeout)
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, 2, cfg.RedisDB)
	require.True(t, cfg.Migrate)
	require.True(t, cfg.AuthEnabled())
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("LOCK_TIMEOUT", "soon")
	t.Setenv("WORKERS", "many")

	cfg := Load()
	require.Equal(t, 3*time.Second, cfg.LockTimeout)
	require.Equal(t, 4, cfg.Workers)
}
