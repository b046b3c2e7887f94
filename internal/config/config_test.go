package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partscout/partscout/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "@every 1h", cfg.Cache.SweepSchedule)
	assert.Equal(t, 3, cfg.Scheduler.MaxWorkers)
	assert.InDelta(t, 0.3, cfg.Scheduler.MinScore, 0.001)
	assert.Equal(t, 5, cfg.Scheduler.CandidateCap)
	assert.Equal(t, "https://torob.com", cfg.Fetch.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partscout.yml")
	data := []byte("server:\n  address: \":9090\"\nscheduler:\n  max_workers: 7\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 7, cfg.Scheduler.MaxWorkers)
	// Untouched sections still get defaults.
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

// The getters hand sections to consumers that only see the read
// interface; they must point into the loaded config, not copies.
func TestInterfaceGetters(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)

	var iface config.Interface = cfg
	assert.Same(t, &cfg.Server, iface.GetServerConfig())
	assert.Same(t, &cfg.Fetch, iface.GetFetchConfig())
	assert.Same(t, &cfg.Cache, iface.GetCacheConfig())
	assert.Same(t, &cfg.Scheduler, iface.GetSchedulerConfig())
	assert.Same(t, &cfg.Logging, iface.GetLoggerConfig())

	cfg.Logging.Level = "debug"
	assert.Equal(t, "debug", iface.GetLoggerConfig().Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func(t *testing.T) *config.Config {
		t.Helper()
		cfg, err := config.Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty address", func(c *config.Config) { c.Server.Address = "" }},
		{"empty base url", func(c *config.Config) { c.Fetch.BaseURL = "" }},
		{"zero workers", func(c *config.Config) { c.Scheduler.MaxWorkers = 0 }},
		{"min score above one", func(c *config.Config) { c.Scheduler.MinScore = 1.5 }},
		{"negative ttl", func(c *config.Config) { c.Cache.TTL = -time.Hour }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
