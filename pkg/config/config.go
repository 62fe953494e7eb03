package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Proton-105/plantshop-bot/pkg/redis"
)

// Config holds runtime configuration for the plant shop bot.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Bot       BotConfig       `mapstructure:"bot"`
	AdminsRaw string          `mapstructure:"admins"`
	Admins    []int64         `mapstructure:"-"`
	ChannelID int64           `mapstructure:"channel_id"`
	Storage   StorageConfig   `mapstructure:"storage"`
	State     StateConfig     `mapstructure:"state"`
	Lock      LockConfig      `mapstructure:"lock"`
	Booking   BookingConfig   `mapstructure:"booking"`
	Redis     redis.Config    `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Dedupe    DedupeConfig    `mapstructure:"dedupe"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token           string        `mapstructure:"token" validate:"required"`
	Username        string        `mapstructure:"username"`
	Language        string        `mapstructure:"language" validate:"oneof=ru en"`
	LongPollTimeout time.Duration `mapstructure:"long_poll_timeout" validate:"gt=0"`
	HandlerTimeout  time.Duration `mapstructure:"handler_timeout" validate:"gt=0"`
	WebhookURL      string        `mapstructure:"webhook_url" validate:"omitempty,url"`
	WebhookListen   string        `mapstructure:"webhook_listen" validate:"required_with=WebhookURL"`
}

// StorageConfig selects where the catalog and bookings documents live.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=file redis postgres"`
	Dir     string `mapstructure:"dir" validate:"required_if=Backend file"`
}

// StateConfig selects the dialog state backend.
type StateConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// LockConfig selects the locking backend for catalog writes and per-user state.
type LockConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// BookingConfig controls pending booking expiry. A zero TTL disables it.
type BookingConfig struct {
	TTL           time.Duration `mapstructure:"ttl" validate:"gte=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

// PostgresConfig holds database connection parameters.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the lib/pq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// LoggerConfig configures pkg/logger.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=text json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	DSN              string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" validate:"gte=0,lte=1"`
}

// ServerConfig configures the metrics/health HTTP server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// RateLimitConfig configures per-user limits for incoming updates.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Backend  string        `mapstructure:"backend" validate:"oneof=memory redis"`
	Requests int           `mapstructure:"requests" validate:"gt=0"`
	Window   time.Duration `mapstructure:"window" validate:"gt=0"`
}

// DedupeConfig controls at-most-once handling of redelivered updates.
type DedupeConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// ParseAdmins turns "1, 2,3" into IDs. Empty items are skipped.
func ParseAdmins(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("admin id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
