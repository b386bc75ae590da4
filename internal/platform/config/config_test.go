package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reseller.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Registrar.HTTPTimeout)
	assert.Equal(t, DefaultAvailabilityTTL, cfg.Registrar.AvailabilityTTL)
	assert.Equal(t, 7, cfg.Jobs.RenewalLeadDays)
	assert.Equal(t, 250*time.Millisecond, cfg.Jobs.ItemDelay)
	assert.Equal(t, 6*time.Hour, cfg.Jobs.SyncFreshness)
	assert.Equal(t, 7*24*time.Hour, cfg.Jobs.TransferCompletionAfter)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.ExpiredPeriod)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
jobs:
  renewal_lead_days: 14
  item_delay: 1s
kafka:
  brokers: ["file:9092"]
`)

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Server.Addr)
		assert.Equal(t, 14, cfg.Jobs.RenewalLeadDays)
		assert.Equal(t, time.Second, cfg.Jobs.ItemDelay)
		assert.Equal(t, []string{"file:9092"}, cfg.Kafka.Brokers)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("RESELLER_JOBS_RENEWAL_LEAD_DAYS", "3")
		t.Setenv("RESELLER_DATABASE_URL", "postgres://env/reseller")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Jobs.RenewalLeadDays)
		assert.Equal(t, "postgres://env/reseller", cfg.Database.URL)
		assert.Equal(t, ":9000", cfg.Server.Addr)
	})
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Registrar: Registrar{HTTPTimeout: time.Second},
			Jobs:      Jobs{RenewalYears: 1, SyncFreshness: time.Hour},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"negative lead days":  func(c *Config) { c.Jobs.RenewalLeadDays = -1 },
		"renewal years 0":     func(c *Config) { c.Jobs.RenewalYears = 0 },
		"renewal years 11":    func(c *Config) { c.Jobs.RenewalYears = 11 },
		"zero http timeout":   func(c *Config) { c.Registrar.HTTPTimeout = 0 },
		"zero sync freshness": func(c *Config) { c.Jobs.SyncFreshness = 0 },
		"negative item delay": func(c *Config) { c.Jobs.ItemDelay = -time.Second },
		"negative grace":      func(c *Config) { c.Jobs.GracePeriod = -time.Hour },
		"topic without partitions": func(c *Config) {
			c.Kafka.EnsureTopic = true
			c.Kafka.Partitions = 0
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
