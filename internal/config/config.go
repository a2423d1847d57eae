// Package config loads the ledger configuration from a YAML file,
// HIVEFUND_* environment variables and defaults, in increasing order of
// precedence: defaults, file, environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HIVEFUND_DATABASE_PATH.
const EnvPrefix = "HIVEFUND"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`

	// Required rejects unauthenticated calls. When false, calls without a
	// valid token are served as anonymous guests.
	Required bool `mapstructure:"required"`
}

type LedgerConfig struct {
	MatchTimeout     time.Duration `mapstructure:"match_timeout"`
	CASRetries       int           `mapstructure:"cas_retries"`
	DayLocation      string        `mapstructure:"day_location"`
	LeaderboardLimit int           `mapstructure:"leaderboard_limit"`
}

type SchedulerConfig struct {
	ExpiryInterval time.Duration `mapstructure:"expiry_interval"`
}

// NATSConfig enables event publishing when URL is set.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.path", "./data/ledger.db")
	v.SetDefault("database.busy_timeout", "5s")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.required", true)
	v.SetDefault("ledger.match_timeout", "2s")
	v.SetDefault("ledger.cas_retries", 5)
	v.SetDefault("ledger.day_location", "UTC")
	v.SetDefault("ledger.leaderboard_limit", 10)
	v.SetDefault("scheduler.expiry_interval", "1m")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "hivefund.ledger")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. If path is empty, ./hivefund.yaml is used
// when present. The result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hivefund")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required when auth.required is set"))
	}

	durations := map[string]time.Duration{
		"server.shutdown_timeout":   c.Server.ShutdownTimeout,
		"database.busy_timeout":     c.Database.BusyTimeout,
		"ledger.match_timeout":      c.Ledger.MatchTimeout,
		"scheduler.expiry_interval": c.Scheduler.ExpiryInterval,
	}
	for key, d := range durations {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, d))
		}
	}

	if c.Ledger.CASRetries < 0 {
		errs = append(errs, fmt.Errorf("ledger.cas_retries must not be negative, got %d", c.Ledger.CASRetries))
	}
	if c.Ledger.LeaderboardLimit < 1 || c.Ledger.LeaderboardLimit > 50 {
		errs = append(errs, fmt.Errorf("ledger.leaderboard_limit must be between 1 and 50, got %d", c.Ledger.LeaderboardLimit))
	}
	if _, err := c.Ledger.Location(); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Location loads the time zone in which the daily leaderboard starts.
func (c LedgerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DayLocation)
	if err != nil {
		return nil, fmt.Errorf("ledger.day_location: %w", err)
	}
	return loc, nil
}
