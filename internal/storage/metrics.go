package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Proton-105/plantshop-bot/pkg/metrics"
)

// instrumentedBlob records the latency of every call against the named backend.
type instrumentedBlob struct {
	next    Blob
	backend string
}

// WithMetrics wraps blob so its calls are exported as storage_operation_duration_seconds.
func WithMetrics(blob Blob, backend string) Blob {
	return &instrumentedBlob{next: blob, backend: backend}
}

func (b *instrumentedBlob) Load(ctx context.Context, name string) ([]byte, error) {
	started := time.Now()
	data, err := b.next.Load(ctx, name)

	observed := err
	if errors.Is(err, ErrNotFound) {
		observed = nil
	}
	metrics.ObserveStorage(b.backend, "load", started, observed)

	return data, err
}

func (b *instrumentedBlob) Save(ctx context.Context, name string, data []byte) error {
	started := time.Now()
	err := b.next.Save(ctx, name, data)
	metrics.ObserveStorage(b.backend, "save", started, err)
	return err
}

func (b *instrumentedBlob) HealthCheck(ctx context.Context) error {
	return b.next.HealthCheck(ctx)
}
