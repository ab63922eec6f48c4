package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atinyakov/clickshort/internal/config"
)

var envKeys = []string{
	"SERVER_ADDRESS", "BASE_URL", "FILE_STORAGE_PATH", "DATABASE_DSN", "SQLITE_PATH",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "TRUSTED_SUBNET", "LOG_LEVEL",
	"JWT_SECRET", "ADMIN_USERNAME", "ADMIN_PASSWORD", "ENABLE_HTTPS", "ENABLE_PPROF",
	"SHORT_CODE_LENGTH", "MAX_ATTEMPTS", "TOKEN_TTL", "CONFIG",
}

// clearEnv blanks every variable the parser reads; blank values are ignored.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, v any) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "cfg.json")
	content, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, content, 0644))
	return p
}

func TestParseArgs(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		opts, err := config.ParseArgs("shortener", nil)
		require.NoError(t, err)
		require.Equal(t, "localhost:8080", opts.Port)
		require.Equal(t, "http://localhost:8080", opts.ResultHostname)
		require.Empty(t, opts.FilePath)
		require.Empty(t, opts.DatabaseDSN)
		require.Empty(t, opts.RedisAddr)
		require.False(t, opts.EnableHTTPS)
		require.Equal(t, 6, opts.ShortCodeLength)
		require.Equal(t, 10, opts.MaxAttempts)
		require.Equal(t, "admin", opts.AdminUsername)
		require.Equal(t, "admin123", opts.AdminPassword)
		require.Equal(t, 24*time.Hour, opts.TokenTTL)
	})

	t.Run("flags", func(t *testing.T) {
		clearEnv(t)

		opts, err := config.ParseArgs("shortener", []string{
			"-a", ":3000", "-b", "https://sho.rt", "-q", "/tmp/links.db",
			"-l", "8", "-t", "10.0.0.0/8", "-s", "-token-ttl", "1h",
		})
		require.NoError(t, err)
		require.Equal(t, ":3000", opts.Port)
		require.Equal(t, "https://sho.rt", opts.ResultHostname)
		require.Equal(t, "/tmp/links.db", opts.SQLitePath)
		require.Equal(t, 8, opts.ShortCodeLength)
		require.Equal(t, "10.0.0.0/8", opts.TrustedSubnet)
		require.True(t, opts.EnableHTTPS)
		require.Equal(t, time.Hour, opts.TokenTTL)
	})

	t.Run("env overrides flags", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SERVER_ADDRESS", "127.0.0.1:9999")
		t.Setenv("BASE_URL", "http://example.com")
		t.Setenv("FILE_STORAGE_PATH", "/tmp/data")
		t.Setenv("ENABLE_HTTPS", "true")
		t.Setenv("TRUSTED_SUBNET", "192.168.0.0/24")
		t.Setenv("SHORT_CODE_LENGTH", "7")
		t.Setenv("REDIS_ADDR", "localhost:6379")

		opts, err := config.ParseArgs("shortener", []string{"-a", ":3000", "-l", "9"})
		require.NoError(t, err)
		require.Equal(t, "127.0.0.1:9999", opts.Port)
		require.Equal(t, "http://example.com", opts.ResultHostname)
		require.Equal(t, "/tmp/data", opts.FilePath)
		require.True(t, opts.EnableHTTPS)
		require.Equal(t, "192.168.0.0/24", opts.TrustedSubnet)
		require.Equal(t, 7, opts.ShortCodeLength)
		require.Equal(t, "localhost:6379", opts.RedisAddr)
	})

	t.Run("config file below flags", func(t *testing.T) {
		clearEnv(t)

		cfgPath := writeConfig(t, map[string]any{
			"server_address":    "10.0.0.1:8081",
			"base_url":          "http://testhost",
			"file_storage_path": "/config/path",
			"database_dsn":      "postgres://test",
			"enable_pprof":      true,
			"trusted_subnet":    "10.10.0.0/16",
			"max_attempts":      3,
		})

		opts, err := config.ParseArgs("shortener", []string{"-c", cfgPath, "-b", "http://fromflag"})
		require.NoError(t, err)
		require.Equal(t, cfgPath, opts.Config)
		require.Equal(t, "10.0.0.1:8081", opts.Port)
		require.Equal(t, "http://fromflag", opts.ResultHostname)
		require.Equal(t, "/config/path", opts.FilePath)
		require.Equal(t, "postgres://test", opts.DatabaseDSN)
		require.True(t, opts.EnablePprof)
		require.Equal(t, "10.10.0.0/16", opts.TrustedSubnet)
		require.Equal(t, 3, opts.MaxAttempts)
	})

	t.Run("config file from env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG", writeConfig(t, map[string]any{"sqlite_path": "/data/links.db"}))

		opts, err := config.ParseArgs("shortener", nil)
		require.NoError(t, err)
		require.Equal(t, "/data/links.db", opts.SQLitePath)
	})

	t.Run("blank CONFIG keeps flag", func(t *testing.T) {
		clearEnv(t)
		cfgPath := writeConfig(t, map[string]any{"redis_addr": "cache:6379"})
		t.Setenv("CONFIG", "")

		opts, err := config.ParseArgs("shortener", []string{"-c", cfgPath})
		require.NoError(t, err)
		require.Equal(t, cfgPath, opts.Config)
		require.Equal(t, "cache:6379", opts.RedisAddr)
	})

	t.Run("errors", func(t *testing.T) {
		clearEnv(t)

		_, err := config.ParseArgs("shortener", []string{"-c", filepath.Join(t.TempDir(), "missing.json")})
		require.Error(t, err)

		_, err = config.ParseArgs("shortener", []string{"-unknown"})
		require.Error(t, err)

		t.Setenv("ENABLE_HTTPS", "sometimes")
		_, err = config.ParseArgs("shortener", nil)
		require.ErrorContains(t, err, "ENABLE_HTTPS")
	})
}
