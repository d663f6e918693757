package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "ingredients", cfg.App.Name)
	assert.Equal(t, "test", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 8, cfg.Normalize.Workers)
	assert.Equal(t, 1000, cfg.Normalize.MaxBatchLines)
	assert.Equal(t, time.Hour, cfg.Normalize.CacheTTL)
	assert.Equal(t, "/metrics", cfg.Monitoring.MetricsPath)
	assert.Equal(t, CacheBackendMemory, cfg.Normalize.CacheBackend)
	assert.Equal(t, []string{"localhost:6379"}, cfg.Redis.Addrs)
	assert.Equal(t, 100*time.Millisecond, cfg.Redis.OpTimeout)
	assert.False(t, cfg.Server.EnableH2C)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
reference:
  units_file: /srv/units.yaml
  watch: true
normalize:
  workers: 2
  max_batch_lines: 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/srv/units.yaml", cfg.Reference.UnitsFile)
	assert.True(t, cfg.Reference.Watch)
	assert.Equal(t, 500*time.Millisecond, cfg.Reference.WatchDebounce)
	assert.Equal(t, 2, cfg.Normalize.Workers)
	assert.Equal(t, 50, cfg.Normalize.MaxBatchLines)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("INGREDIENTS_SERVER_PORT", "9100")
	t.Setenv("INGREDIENTS_NORMALIZE_WORKERS", "3")

	cfg, err := Load(writeConfig(t, "app:\n  name: ingredients\n"))
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Normalize.Workers)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "empty name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: "app.name"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "no workers", mutate: func(c *Config) { c.Normalize.Workers = 0 }, wantErr: "normalize.workers"},
		{name: "negative cache", mutate: func(c *Config) { c.Normalize.CacheSize = -1 }, wantErr: "normalize.cache_size"},
		{name: "no batch lines", mutate: func(c *Config) { c.Normalize.MaxBatchLines = 0 }, wantErr: "normalize.max_batch_lines"},
		{name: "replace without files", mutate: func(c *Config) { c.Reference.ReplaceDefaults = true }, wantErr: "replace_defaults"},
		{name: "watch without files", mutate: func(c *Config) { c.Reference.Watch = true }, wantErr: "reference.watch"},
		{name: "unknown cache backend", mutate: func(c *Config) { c.Normalize.CacheBackend = "memcached" }, wantErr: "normalize.cache_backend"},
		{
			name: "redis without addresses",
			mutate: func(c *Config) {
				c.Normalize.CacheBackend = CacheBackendRedis
				c.Redis.Addrs = nil
			},
			wantErr: "redis.addrs",
		},
		{
			name:   "redis with defaults",
			mutate: func(c *Config) { c.Normalize.CacheBackend = CacheBackendRedis },
		},
		{
			name: "rate limit without budget",
			mutate: func(c *Config) {
				c.RateLimit.Enable = true
				c.RateLimit.RequestsPerMin = 0
			},
			wantErr: "rate_limit",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
