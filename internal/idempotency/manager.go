// Package idempotency makes sure a Telegram update is handled at most once, even when the
// webhook delivery is retried.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrDuplicate is returned when the key was already claimed by an earlier execution.
var ErrDuplicate = errors.New("idempotency key already processed")

// Operation is the work guarded by a key.
type Operation func(ctx context.Context) error

// Manager runs operations at most once per key within the TTL.
type Manager interface {
	Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) error
}

type manager struct {
	store Store
	log   *slog.Logger
}

// NewManager builds a Manager on top of store.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

// Execute claims key and runs fn. A failed fn releases the claim so a redelivery can retry.
// When the store itself fails the operation still runs: a lost update is worse than a rare
// duplicate.
func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) error {
	if fn == nil {
		return errors.New("operation fn cannot be nil")
	}

	claimed, err := m.store.Claim(ctx, key, ttl)
	if err != nil {
		m.log.Warn("idempotency store unavailable, running without dedupe", slog.String("key", key), slog.Any("error", err))
		return fn(ctx)
	}
	if !claimed {
		return ErrDuplicate
	}

	if err := fn(ctx); err != nil {
		if releaseErr := m.store.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			m.log.Warn("failed to release idempotency key", slog.String("key", key), slog.Any("error", releaseErr))
		}
		return err
	}

	return nil
}
