package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_EnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMINS", "10, 20")
	t.Setenv("CHANNEL_ID", "-100500")

	cfg, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), "test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, []int64{10, 20}, cfg.Admins)
	assert.Equal(t, int64(-100500), cfg.ChannelID)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "memory", cfg.State.Backend)
	assert.Equal(t, "ru", cfg.Bot.Language)
	assert.Equal(t, 15*time.Second, cfg.Bot.HandlerTimeout)
	assert.Equal(t, time.Duration(0), cfg.Booking.TTL)
}

func TestLoadFile_YAMLAndOverrides(t *testing.T) {
	path := writeConfig(t, `
bot:
  token: from-file
  language: en
storage:
  backend: redis
redis:
  enabled: true
  addr: redis:6379
booking:
  ttl: 48h
  sweep_interval: 5m
`)
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("ADMIN_ID1", "7")

	cfg, v, err := LoadFile(path, "test")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "from-env", cfg.Bot.Token)
	assert.Equal(t, "en", cfg.Bot.Language)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 48*time.Hour, cfg.Booking.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Booking.SweepInterval)
	assert.Equal(t, []int64{7}, cfg.Admins)
}

func TestLoadFile_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
		body string
	}{
		{name: "missing token", env: map[string]string{}},
		{name: "bad admin id", env: map[string]string{"BOT_TOKEN": "x", "ADMINS": "1,abc"}},
		{name: "unknown storage backend", env: map[string]string{"BOT_TOKEN": "x", "STORAGE_BACKEND": "s3"}},
		{name: "redis backend without redis", env: map[string]string{"BOT_TOKEN": "x", "STATE_BACKEND": "redis"}},
		{name: "sentry without dsn", env: map[string]string{"BOT_TOKEN": "x", "SENTRY_ENABLED": "true"}},
		{name: "ttl shorter than sweep", env: map[string]string{"BOT_TOKEN": "x"}, body: "booking:\n  ttl: 10s\n  sweep_interval: 1m\n"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("BOT_TOKEN", "")
			for k, val := range tc.env {
				t.Setenv(k, val)
			}

			path := filepath.Join(t.TempDir(), "missing.yaml")
			if tc.body != "" {
				path = writeConfig(t, tc.body)
			}

			_, _, err := LoadFile(path, "test")
			assert.Error(t, err)
		})
	}
}

func TestParseAdmins(t *testing.T) {
	ids, err := ParseAdmins(" 1,2 ;3  ")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = ParseAdmins("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "shop", SSLMode: "disable"}.DSN()
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", dsn)
}

func TestWatch_ReloadsAdmins(t *testing.T) {
	t.Setenv("BOT_TOKEN", "x")
	t.Setenv("ADMINS", "")
	path := writeConfig(t, "admins: \"1\"\n")

	cfg, v, err := LoadFile(path, "test")
	require.NoError(t, err)
	require.Equal(t, []int64{1}, cfg.Admins)

	var (
		mu     sync.Mutex
		latest []int64
	)
	Watch(v, nil, func(ids []int64) {
		mu.Lock()
		defer mu.Unlock()
		latest = ids
	})

	require.NoError(t, os.WriteFile(path, []byte("admins: \"1,2\"\n"), 0o600))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 2
	}, 3*time.Second, 20*time.Millisecond)
}
