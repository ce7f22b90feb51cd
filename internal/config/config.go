// Package config loads process configuration from the environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full process configuration
type Config struct {
	Host           string   `mapstructure:"host" validate:"required"`
	Port           int      `mapstructure:"port" validate:"gt=0,lt=65536"`
	JWTSecret      string   `mapstructure:"jwt_secret" validate:"required,min=16"`
	CredentialsKey string   `mapstructure:"credentials_key" validate:"required,hexadecimal,len=64"`
	CORSOrigins    []string `mapstructure:"cors_origins"`

	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Format string `mapstructure:"format" validate:"oneof=text json"`
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"gte=0"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
}

// RedisConfig enables the Redis lock backend when URL is set
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// SchedulerConfig controls the periodic sync loop
type SchedulerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	LockRequired bool          `mapstructure:"lock_required"`
	Interval     time.Duration `mapstructure:"interval" validate:"gte=1s"`
	QueueSize    int           `mapstructure:"queue_size" validate:"gt=0"`
}

// FetchConfig tunes outbound requests to integration endpoints
type FetchConfig struct {
	Timeout             time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxBodyBytes        int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
	BreakerFailures     uint32        `mapstructure:"breaker_failures"`
	BreakerOpenTimeout  time.Duration `mapstructure:"breaker_open_timeout" validate:"gte=0"`
	BreakerHalfOpenReqs uint32        `mapstructure:"breaker_half_open_requests"`
	FailureBackoff      time.Duration `mapstructure:"failure_backoff" validate:"gt=0"`
}

// WebhookConfig bounds inbound pushes
type WebhookConfig struct {
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" validate:"gt=0"`
}

// defaults also registers every key so AutomaticEnv can resolve it during
// Unmarshal. Nested keys map to env vars with "." replaced by "_", so
// database.url is read from DATABASE_URL.
var defaults = map[string]any{
	"host":            "0.0.0.0",
	"port":            8080,
	"jwt_secret":      "",
	"credentials_key": "",
	"cors_origins":    []string{},

	"log.format": "text",
	"log.level":  "info",

	"database.url":                "",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  5 * time.Minute,
	"database.conn_max_idle_time": time.Minute,
	"database.connect_timeout":    30 * time.Second,

	"redis.url": "",

	"scheduler.enabled":       true,
	"scheduler.lock_required": false,
	"scheduler.interval":      5 * time.Minute,
	"scheduler.queue_size":    64,

	"fetch.timeout":                    30 * time.Second,
	"fetch.max_body_bytes":             int64(32 << 20),
	"fetch.breaker_failures":           5,
	"fetch.breaker_open_timeout":       time.Minute,
	"fetch.breaker_half_open_requests": 1,
	"fetch.failure_backoff":            15 * time.Minute,

	"webhook.max_body_bytes": int64(32 << 20),
}

// Setup registers defaults and environment lookup on v
func Setup(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfig builds the configuration from the global viper instance
func NewConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load unmarshals and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	Setup(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and reports every failure at once
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
}

func describe(fe validator.FieldError) string {
	name := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters long", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", name, fe.Param())
	case "hexadecimal":
		return name + " must be hexadecimal"
	case "url":
		return name + " must be a valid URL"
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "lt", "lte":
		return fmt.Sprintf("%s must be less than %s", name, fe.Param())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", name, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
}

// NewLogger builds a slog logger writing to w
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c LogConfig) level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
