package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 1, cfg.RateLimit.MaxRequestsPerSec)
	assert.Equal(t, -1, cfg.RateLimit.DelayMs)
	assert.Equal(t, 50, cfg.RateLimit.MaxWaitMs)
	assert.Equal(t, 5, cfg.RateLimit.ThrottledRequests)
	assert.Equal(t, 0, cfg.RateLimit.ThrottledPerClient)
	assert.False(t, cfg.RateLimit.RemotePort)
	assert.Equal(t, time.Second, cfg.RateLimit.RetryAfter)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.IdleTTL)

	assert.False(t, cfg.Auth.DigestEnabled)
	assert.Equal(t, "myrealm", cfg.Auth.Realm)
	assert.Equal(t, "myrealm.properties", cfg.Auth.CredentialsFile)
	assert.Equal(t, []string{"user", "admin"}, cfg.Auth.Roles)
	assert.Equal(t, 60*time.Second, cfg.Auth.NonceMaxAge)

	assert.False(t, cfg.Stats.Enabled)
	assert.Equal(t, "memory", cfg.Stats.Backend)
	assert.Equal(t, "ratelimit:stats", cfg.Stats.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Stats.TTL)
	assert.Equal(t, "minute", cfg.Stats.Bucket)

	assert.Empty(t, cfg.Admin.Addr)
	assert.Empty(t, cfg.Admin.CORSOrigins)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
ratelimit:
  max_requests_per_sec: 10
  delay_ms: 100
  remote_port: true
auth:
  digest_enabled: true
  credentials_file: /etc/gateway/users.properties
  roles: [admin]
admin:
  addr: 127.0.0.1:9090
  cors_origins: [https://dash.example.com]
metrics:
  enabled: true
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequestsPerSec)
	assert.Equal(t, 100, cfg.RateLimit.DelayMs)
	assert.True(t, cfg.RateLimit.RemotePort)
	assert.True(t, cfg.Auth.DigestEnabled)
	assert.Equal(t, "/etc/gateway/users.properties", cfg.Auth.CredentialsFile)
	assert.Equal(t, []string{"admin"}, cfg.Auth.Roles)
	assert.Equal(t, "127.0.0.1:9090", cfg.Admin.Addr)
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.Admin.CORSOrigins)
	assert.True(t, cfg.Metrics.Enabled)
	// chaves ausentes mantêm o default
	assert.Equal(t, "myrealm", cfg.Auth.Realm)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("GATEWAY_SERVER_PORT", "7070")
	t.Setenv("GATEWAY_RATELIMIT_DELAY_MS", "250")
	t.Setenv("GATEWAY_LOG_LEVEL", "debug")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 250, cfg.RateLimit.DelayMs)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("GATEWAY_SERVER_PORT", "7070")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	flags.Int("rate", 1, "")
	flags.Bool("digest", false, "")
	require.NoError(t, flags.Parse([]string{"--port=6060", "--digest"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
	assert.True(t, cfg.Auth.DigestEnabled)
	// flag não alterada não sobrescreve o default
	assert.Equal(t, 1, cfg.RateLimit.MaxRequestsPerSec)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"rate zero", map[string]string{"GATEWAY_RATELIMIT_MAX_REQUESTS_PER_SEC": "0"}},
		{"delay below -1", map[string]string{"GATEWAY_RATELIMIT_DELAY_MS": "-2"}},
		{"negative per-client throttle", map[string]string{"GATEWAY_RATELIMIT_THROTTLED_PER_CLIENT": "-1"}},
		{"port out of range", map[string]string{"GATEWAY_SERVER_PORT": "70000"}},
		{"bad log level", map[string]string{"GATEWAY_LOG_LEVEL": "verbose"}},
		{"bad env", map[string]string{"GATEWAY_ENV": "staging"}},
		{"bad stats backend", map[string]string{"GATEWAY_STATS_BACKEND": "memcached"}},
		{"redis without addr", map[string]string{
			"GATEWAY_STATS_ENABLED": "true",
			"GATEWAY_STATS_BACKEND": "redis",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoad_RedisBackend(t *testing.T) {
	t.Setenv("GATEWAY_STATS_ENABLED", "true")
	t.Setenv("GATEWAY_STATS_BACKEND", "redis")
	t.Setenv("GATEWAY_STATS_REDIS_ADDR", "localhost:6379")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Stats.Redis.Addr)
}

func TestIsProd(t *testing.T) {
	assert.True(t, (&Config{Env: "prod"}).IsProd())
	assert.True(t, (&Config{Env: "production"}).IsProd())
	assert.False(t, (&Config{Env: "dev"}).IsProd())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("whatever"))
}

func TestNewLogHandler_JSONInProd(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Env: "prod", Log: LogConfig{Level: "info", Format: "auto"}}

	slog.New(NewLogHandler(cfg, &buf)).Info("hello", "k", "v")

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"k":"v"`)
	assert.Contains(t, out, `"ts":`)
}

func TestNewLogHandler_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Env: "dev", Log: LogConfig{Level: "warn", Format: "text"}}
	logger := slog.New(NewLogHandler(cfg, &buf))

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
