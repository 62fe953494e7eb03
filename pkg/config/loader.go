// Package config provides configuration loading and validation utilities.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// legacyAdminKeys are single-admin variables accepted alongside ADMINS.
var legacyAdminKeys = []string{"ADMIN_ID1", "ADMIN_ID2"}

// Load reads .env files, the optional configs/<APP_ENV>.yaml and environment variables,
// validates the result and returns it with the viper instance used for watching.
func Load() (*Config, *viper.Viper, error) {
	// .env files are optional
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	return LoadFile(fmt.Sprintf("./configs/%s.yaml", env), env)
}

// LoadFile is Load with an explicit config path; a missing file is not an error.
func LoadFile(path, env string) (*Config, *viper.Viper, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = env
	}

	return cfg, v, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "")
	v.SetDefault("admins", "")
	v.SetDefault("channel_id", 0)

	v.SetDefault("bot.token", "")
	v.SetDefault("bot.username", "")
	v.SetDefault("bot.language", "ru")
	v.SetDefault("bot.long_poll_timeout", 10*time.Second)
	v.SetDefault("bot.handler_timeout", 15*time.Second)
	v.SetDefault("bot.webhook_url", "")
	v.SetDefault("bot.webhook_listen", "")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dir", "data")

	v.SetDefault("state.backend", "memory")
	v.SetDefault("state.ttl", 0)

	v.SetDefault("lock.backend", "memory")
	v.SetDefault("lock.ttl", 10*time.Second)

	v.SetDefault("booking.ttl", 0)
	v.SetDefault("booking.sweep_interval", time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.pool_timeout", 4*time.Second)
	v.SetDefault("redis.idle_timeout", 5*time.Minute)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.min_retry_backoff", 8*time.Millisecond)
	v.SetDefault("redis.max_retry_backoff", 512*time.Millisecond)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.name", "plantshop")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 30)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.traces_sample_rate", 0.0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("dedupe.enabled", true)
	v.SetDefault("dedupe.backend", "memory")
	v.SetDefault("dedupe.ttl", 24*time.Hour)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	admins, err := ParseAdmins(cfg.AdminsRaw)
	if err != nil {
		return nil, fmt.Errorf("parse admins: %w", err)
	}
	for _, key := range legacyAdminKeys {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		legacy, err := ParseAdmins(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
		admins = append(admins, legacy...)
	}
	cfg.Admins = admins

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if needsRedis(&cfg) && !cfg.Redis.Enabled {
		return nil, errors.New("validate config: a redis backend is selected but redis.enabled is false")
	}
	if cfg.Booking.TTL > 0 && cfg.Booking.TTL < cfg.Booking.SweepInterval {
		return nil, fmt.Errorf("validate config: booking.ttl %s is shorter than booking.sweep_interval %s",
			cfg.Booking.TTL, cfg.Booking.SweepInterval)
	}

	return &cfg, nil
}

func needsRedis(cfg *Config) bool {
	return cfg.Storage.Backend == "redis" ||
		cfg.State.Backend == "redis" ||
		cfg.Lock.Backend == "redis" ||
		(cfg.RateLimit.Enabled && cfg.RateLimit.Backend == "redis") ||
		(cfg.Dedupe.Enabled && cfg.Dedupe.Backend == "redis")
}
