// Package config loads process configuration from defaults, an optional YAML
// file and RESELLER_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    Server    `mapstructure:"server"`
	Log       Log       `mapstructure:"log"`
	Database  Database  `mapstructure:"database"`
	Redis     Redis     `mapstructure:"redis"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Registrar Registrar `mapstructure:"registrar"`
	Jobs      Jobs      `mapstructure:"jobs"`
}

// Server captures the ops HTTP server configuration.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AdminToken guards the job trigger endpoints. Empty disables them.
	AdminToken string `mapstructure:"admin_token"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Database configures the postgres pool. An empty URL selects the in-memory
// stores, which is only suitable for local runs.
type Database struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	Migrate         bool          `mapstructure:"migrate"`
}

// Redis configures the shared redis client. An empty URL disables redis and
// callers fall back to in-memory implementations.
type Redis struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Kafka configures notification publishing. Empty brokers means events are
// only logged.
type Kafka struct {
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	ClientID     string   `mapstructure:"client_id"`
	EnsureTopic  bool     `mapstructure:"ensure_topic"`
	Partitions   int32    `mapstructure:"partitions"`
	Replications int16    `mapstructure:"replications"`
}

type Registrar struct {
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	AvailabilityTTL time.Duration `mapstructure:"availability_ttl"`
	// CredentialKey is the base64 encoded 32-byte key sealing registrar credentials.
	CredentialKey   string        `mapstructure:"credential_key"`
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
	MockStatePrefix string        `mapstructure:"mock_state_prefix"`
}

type Jobs struct {
	RenewalLeadDays         int           `mapstructure:"renewal_lead_days"`
	RenewalYears            int           `mapstructure:"renewal_years"`
	ItemDelay               time.Duration `mapstructure:"item_delay"`
	SyncFreshness           time.Duration `mapstructure:"sync_freshness"`
	SyncExpiryWindowDays    int           `mapstructure:"sync_expiry_window_days"`
	TransferCompletionAfter time.Duration `mapstructure:"transfer_completion_after"`
	ExpiredPeriod           time.Duration `mapstructure:"expired_period"`
	GracePeriod             time.Duration `mapstructure:"grace_period"`
	RedemptionPeriod        time.Duration `mapstructure:"redemption_period"`
	DefaultLimit            int           `mapstructure:"default_limit"`
}

// DefaultAvailabilityTTL bounds how long availability answers are reused.
const DefaultAvailabilityTTL = 5 * time.Minute

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.admin_token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.migrate", false)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "reseller.notifications")
	v.SetDefault("kafka.client_id", "reseller")
	v.SetDefault("kafka.ensure_topic", false)
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replications", 1)

	v.SetDefault("registrar.http_timeout", 30*time.Second)
	v.SetDefault("registrar.call_timeout", 45*time.Second)
	v.SetDefault("registrar.availability_ttl", DefaultAvailabilityTTL)
	v.SetDefault("registrar.credential_key", "")
	v.SetDefault("registrar.breaker_failures", 5)
	v.SetDefault("registrar.breaker_cooldown", 30*time.Second)
	v.SetDefault("registrar.mock_state_prefix", "mockreg")

	v.SetDefault("jobs.renewal_lead_days", 7)
	v.SetDefault("jobs.renewal_years", 1)
	v.SetDefault("jobs.item_delay", 250*time.Millisecond)
	v.SetDefault("jobs.sync_freshness", 6*time.Hour)
	v.SetDefault("jobs.sync_expiry_window_days", 30)
	v.SetDefault("jobs.transfer_completion_after", 7*24*time.Hour)
	v.SetDefault("jobs.expired_period", 24*time.Hour)
	v.SetDefault("jobs.grace_period", 30*24*time.Hour)
	v.SetDefault("jobs.redemption_period", 30*24*time.Hour)
	v.SetDefault("jobs.default_limit", 500)
}

// Load reads configuration. configFile may be empty, in which case
// ./reseller.yaml and /etc/reseller/reseller.yaml are tried.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("reseller")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/reseller/")
	}

	v.SetEnvPrefix("RESELLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the jobs cannot run with.
func (c *Config) Validate() error {
	if c.Jobs.RenewalLeadDays < 0 {
		return fmt.Errorf("jobs.renewal_lead_days must not be negative")
	}
	if c.Jobs.RenewalYears < 1 || c.Jobs.RenewalYears > 10 {
		return fmt.Errorf("jobs.renewal_years must be between 1 and 10")
	}
	if c.Registrar.HTTPTimeout <= 0 {
		return fmt.Errorf("registrar.http_timeout must be positive")
	}
	if c.Jobs.SyncFreshness <= 0 {
		return fmt.Errorf("jobs.sync_freshness must be positive")
	}
	if c.Jobs.ItemDelay < 0 {
		return fmt.Errorf("jobs.item_delay must not be negative")
	}
	if c.Jobs.ExpiredPeriod < 0 || c.Jobs.GracePeriod < 0 || c.Jobs.RedemptionPeriod < 0 {
		return fmt.Errorf("jobs expiry phase periods must not be negative")
	}
	if c.Kafka.EnsureTopic && c.Kafka.Partitions < 1 {
		return fmt.Errorf("kafka.partitions must be at least 1 when ensure_topic is set")
	}
	return nil
}
