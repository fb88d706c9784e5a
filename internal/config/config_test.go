package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "bank")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "bloodbank")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, time.Hour, cfg.TokenTTL)
	require.Equal(t, 10, cfg.BcryptCost)
	require.Equal(t, 10, cfg.DBMaxOpenConns)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, map[string]bool{"GET": true}, cfg.Cache.Methods())
	require.Equal(t, 60, cfg.RateLimit.Capacity)
	require.Equal(t, "localhost:6379", cfg.Redis.address())
}

func TestLoad_MissingJWTSecretFails(t *testing.T) {
	setRequired(t)
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_EmptyJWTSecretFails(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9999\nTOKEN_TTL=30m\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	// godotenv.Load sets variables that are absent; register cleanup for them.
	t.Setenv("TOKEN_TTL", "")
	require.NoError(t, os.Unsetenv("TOKEN_TTL"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 30*time.Minute, cfg.TokenTTL)
}

func TestLoad_AdminPairValidation(t *testing.T) {
	setRequired(t)
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "admin@example.com")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_ShortSecretRejectedInProd(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
}

func TestRateLimitNormalize(t *testing.T) {
	c := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0, TTL: time.Second}
	c.normalize()
	require.Equal(t, 1, c.Capacity)
	require.Equal(t, 1, c.RefillTokens)
	require.Equal(t, time.Second, c.RefillInterval)
	require.Equal(t, 5*time.Second, c.TTL)
}

func TestRedisAddressPrefersHostPort(t *testing.T) {
	require.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: "6380", Addr: "x:1"}.address())
	require.Equal(t, "x:1", RedisConfig{Addr: "x:1"}.address())
}
