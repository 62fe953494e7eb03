package logger

import (
	"context"
	"log/slog"
	"strings"
)

// Credentials are replaced entirely; customer contact data keeps its last digits so
// support can still match a log line to a booking.
var (
	secretKeys  = []string{"password", "token", "secret", "api_key", "authorization", "dsn"}
	partialKeys = []string{"phone", "customer_phone"}
)

const keepDigits = 4

// MaskingHandler wraps a slog.Handler and masks sensitive attributes before delegating.
type MaskingHandler struct {
	next slog.Handler
}

// NewMaskingHandler creates a handler that masks sensitive fields before passing records downstream.
func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		masked = append(masked, maskAttr(attr))
	}
	return &MaskingHandler{next: h.next.WithAttrs(masked)}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

// Handle masks sensitive attributes, including those nested in groups.
func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)

	record.Attrs(func(attr slog.Attr) bool {
		masked.AddAttrs(maskAttr(attr))
		return true
	})

	return h.next.Handle(ctx, masked)
}

func maskAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		masked := make([]any, 0, len(group))
		for _, nested := range group {
			masked = append(masked, maskAttr(nested))
		}
		return slog.Group(attr.Key, masked...)
	}

	switch {
	case matchesKey(attr.Key, secretKeys):
		attr.Value = slog.StringValue("***")
	case matchesKey(attr.Key, partialKeys):
		attr.Value = slog.StringValue(maskTail(attr.Value.String()))
	}
	return attr
}

func maskTail(value string) string {
	runes := []rune(value)
	if len(runes) <= keepDigits {
		return "***"
	}
	return "***" + string(runes[len(runes)-keepDigits:])
}

func matchesKey(key string, keys []string) bool {
	for _, k := range keys {
		if strings.EqualFold(key, k) {
			return true
		}
	}
	return false
}
