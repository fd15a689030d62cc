package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // ledger.timezone must resolve on hosts without zoneinfo

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Lock      LockConfig      `mapstructure:"lock"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout"` // bounds FOR UPDATE waits
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// MigrationURL returns the DSN in the pgx5:// scheme golang-migrate expects.
func (d DatabaseConfig) MigrationURL() string {
	return "pgx5" + strings.TrimPrefix(d.DSN(), "postgres")
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LedgerConfig drives the transaction engine.
type LedgerConfig struct {
	MaximumDailyLimit string        `mapstructure:"maximum_daily_limit"` // decimal, > 0
	Timezone          string        `mapstructure:"timezone"`            // IANA name anchoring the daily window
	MaxCommitRetries  int           `mapstructure:"max_commit_retries"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
}

// DailyLimit parses MaximumDailyLimit.
func (l LedgerConfig) DailyLimit() (decimal.Decimal, error) {
	limit, err := decimal.NewFromString(strings.TrimSpace(l.MaximumDailyLimit))
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger.maximum_daily_limit: %w", err)
	}
	if !limit.IsPositive() {
		return decimal.Zero, errors.New("ledger.maximum_daily_limit must be greater than zero")
	}
	return limit, nil
}

// Location resolves Timezone.
func (l LedgerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ledger.timezone: %w", err)
	}
	return loc, nil
}

// Resolve parses the daily limit and loads the timezone together.
func (l LedgerConfig) Resolve() (decimal.Decimal, *time.Location, error) {
	limit, err := l.DailyLimit()
	if err != nil {
		return decimal.Zero, nil, err
	}
	loc, err := l.Location()
	if err != nil {
		return decimal.Zero, nil, err
	}
	return limit, loc, nil
}

type StorageConfig struct {
	Driver         string `mapstructure:"driver"` // postgres, memory
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

// LockConfig configures the optional Redis per-account commit lock.
type LockConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Expiry     time.Duration `mapstructure:"expiry"`
	Tries      int           `mapstructure:"tries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Read    int           `mapstructure:"read"`  // requests per window on GET routes
	Write   int           `mapstructure:"write"` // requests per window on mutating routes
	Window  time.Duration `mapstructure:"window"`
}

type AuditConfig struct {
	FingerprintKey string `mapstructure:"fingerprint_key"` // keys the BLAKE2b CPF fingerprints
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if _, _, err := c.Ledger.Resolve(); err != nil {
		return err
	}
	if c.Ledger.MaxCommitRetries < 0 {
		return errors.New("ledger.max_commit_retries must not be negative")
	}
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	if len(c.Audit.FingerprintKey) > 64 {
		return errors.New("audit.fingerprint_key must be at most 64 bytes")
	}
	return nil
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: LEDGER_.
// Nested keys use underscore: LEDGER_DATABASE_HOST, LEDGER_LEDGER_MAXIMUM_DAILY_LIMIT, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "account_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.lock_timeout", "5s")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("ledger.maximum_daily_limit", "2000")
	v.SetDefault("ledger.timezone", "UTC")
	v.SetDefault("ledger.max_commit_retries", 3)
	v.SetDefault("ledger.retry_base_delay", "20ms")
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.migrate_on_start", true)
	v.SetDefault("lock.enabled", false)
	v.SetDefault("lock.expiry", "8s")
	v.SetDefault("lock.tries", 32)
	v.SetDefault("lock.retry_delay", "50ms")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.read", 300)
	v.SetDefault("rate_limit.write", 60)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("audit.fingerprint_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// LEDGER_DATABASE_HOST -> database.host
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The file is optional; env vars can suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
