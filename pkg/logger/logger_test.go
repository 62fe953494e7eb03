package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_MasksAndAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, Options{Level: "debug", Format: "json"}))

	ctx := WithCorrelationID(context.Background(), "abc")
	log.InfoContext(ctx, "bot started", slog.String("token", "123:secret"), slog.Int("admins", 2))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "***", entry["token"])
	assert.Equal(t, float64(2), entry["admins"])
	assert.Equal(t, "abc", entry["correlation_id"])
}

func TestMaskingHandler_PhonesAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.With(slog.String("dsn", "postgres://u:p@db")).Info("booking",
		slog.String("phone", "+79001234567"),
		slog.Group("customer", slog.String("customer_phone", "123"), slog.String("name", "Anna")),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "***", entry["dsn"])
	assert.Equal(t, "***4567", entry["phone"])
	customer := entry["customer"].(map[string]any)
	assert.Equal(t, "***", customer["customer_phone"])
	assert.Equal(t, "Anna", customer["name"])
}

func TestNewHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, Options{Level: "warn"}))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewHandler_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, Options{FilePath: path, MaxSizeMB: 1}))

	log.Info("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, buf.String(), "to file")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestMiddleware_SetsCorrelationID(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = CorrelationIDFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, seen)
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}
