package shop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Proton-105/plantshop-bot/internal/domain"
	"github.com/Proton-105/plantshop-bot/internal/lock"
	"github.com/Proton-105/plantshop-bot/internal/storage"
)

var errInjected = errors.New("injected failure")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memBlob is an in-memory storage.Blob with per-document write failures.
type memBlob struct {
	mu        sync.Mutex
	docs      map[string][]byte
	failSave  map[string]bool
	failLoad  bool
	saveCalls map[string]int
}

func newMemBlob() *memBlob {
	return &memBlob{
		docs:      make(map[string][]byte),
		failSave:  make(map[string]bool),
		saveCalls: make(map[string]int),
	}
}

func (b *memBlob) Load(_ context.Context, name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failLoad {
		return nil, errInjected
	}
	data, ok := b.docs[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *memBlob) Save(_ context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.saveCalls[name]++
	if b.failSave[name] {
		return errInjected
	}
	b.docs[name] = append([]byte(nil), data...)
	return nil
}

func (b *memBlob) HealthCheck(context.Context) error {
	return nil
}

func (b *memBlob) setFailSave(name string, fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failSave[name] = fail
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, blob storage.Blob, ttl time.Duration) (*Service, *clock) {
	t.Helper()

	clk := &clock{now: fixedNow}
	svc := NewService(NewStore(blob, testLogger()), lock.NewMemoryLocker(), testLogger(), Options{
		BookingTTL: ttl,
		Now:        clk.Now,
	})
	return svc, clk
}

func addPlant(t *testing.T, svc *Service, name string, quantity int) domain.Plant {
	t.Helper()

	plant, err := svc.AddPlant(context.Background(), domain.PlantDraft{
		Name:        name,
		Description: "Крупнолистное растение",
		Price:       150000,
		Quantity:    quantity,
	})
	require.NoError(t, err)
	return plant
}

func reservation(plantID string, customerID int64) domain.ReservationRequest {
	return domain.ReservationRequest{
		PlantID:       plantID,
		CustomerID:    customerID,
		ChatID:        customerID,
		CustomerName:  "Анна",
		CustomerPhone: "+79991234567",
	}
}
