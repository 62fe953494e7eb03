// Package shop implements the catalog and booking documents and the consistency rules between them.
package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/Proton-105/plantshop-bot/internal/domain"
	"github.com/Proton-105/plantshop-bot/internal/storage"
)

const (
	catalogDocument  = "catalog"
	bookingsDocument = "bookings"
)

// Catalog is the persisted plant collection plus the identifier counter.
type Catalog struct {
	NextID int64                   `json:"next_id"`
	Plants map[string]domain.Plant `json:"plants"`
}

// Bookings is the persisted booking collection keyed by booking ID.
type Bookings struct {
	Items map[string]domain.Booking `json:"bookings"`
}

// Store encodes the shop documents on top of a storage.Blob.
type Store struct {
	blob storage.Blob
	log  *slog.Logger
}

// NewStore builds a Store backed by blob.
func NewStore(blob storage.Blob, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{blob: blob, log: log}
}

// LoadCatalog reads the catalog, returning an empty one when it was never written.
func (s *Store) LoadCatalog(ctx context.Context) (*Catalog, error) {
	catalog := &Catalog{NextID: 1, Plants: make(map[string]domain.Plant)}

	found, err := s.load(ctx, catalogDocument, catalog)
	if err != nil {
		return nil, err
	}
	if !found {
		return catalog, nil
	}

	if catalog.Plants == nil {
		catalog.Plants = make(map[string]domain.Plant)
	}

	for key, plant := range catalog.Plants {
		if plant.ID != key {
			return nil, fmt.Errorf("catalog record %q: id mismatch %q", key, plant.ID)
		}
		if err := plant.Validate(); err != nil {
			return nil, fmt.Errorf("catalog record %q: %w", key, err)
		}
		if n, convErr := strconv.ParseInt(key, 10, 64); convErr == nil && n >= catalog.NextID {
			catalog.NextID = n + 1
		}
	}
	if catalog.NextID < 1 {
		catalog.NextID = 1
	}

	return catalog, nil
}

// SaveCatalog overwrites the catalog document.
func (s *Store) SaveCatalog(ctx context.Context, catalog *Catalog) error {
	return s.save(ctx, catalogDocument, catalog)
}

// LoadBookings reads the bookings, returning an empty set when it was never written.
func (s *Store) LoadBookings(ctx context.Context) (*Bookings, error) {
	bookings := &Bookings{Items: make(map[string]domain.Booking)}

	found, err := s.load(ctx, bookingsDocument, bookings)
	if err != nil {
		return nil, err
	}
	if !found {
		return bookings, nil
	}

	if bookings.Items == nil {
		bookings.Items = make(map[string]domain.Booking)
	}

	for key, booking := range bookings.Items {
		if booking.ID != key {
			return nil, fmt.Errorf("booking record %q: id mismatch %q", key, booking.ID)
		}
		if err := booking.Validate(); err != nil {
			return nil, fmt.Errorf("booking record %q: %w", key, err)
		}
	}

	return bookings, nil
}

// SaveBookings overwrites the bookings document.
func (s *Store) SaveBookings(ctx context.Context, bookings *Bookings) error {
	return s.save(ctx, bookingsDocument, bookings)
}

// HealthCheck delegates to the underlying blob.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.blob.HealthCheck(ctx)
}

func (s *Store) load(ctx context.Context, name string, into any) (bool, error) {
	data, err := s.blob.Load(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", name, err)
	}

	if err := json.Unmarshal(data, into); err != nil {
		s.log.Error("malformed document", slog.String("document", name), slog.Any("error", err))
		return false, fmt.Errorf("decode %s: %w", name, err)
	}

	return true, nil
}

func (s *Store) save(ctx context.Context, name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	if err := s.blob.Save(ctx, name, data); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}

	return nil
}

// Sorted returns the plants ordered by numeric identifier.
func (c *Catalog) Sorted() []domain.Plant {
	plants := make([]domain.Plant, 0, len(c.Plants))
	for _, p := range c.Plants {
		plants = append(plants, p)
	}

	sort.Slice(plants, func(i, j int) bool {
		a, errA := strconv.ParseInt(plants[i].ID, 10, 64)
		b, errB := strconv.ParseInt(plants[j].ID, 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return plants[i].ID < plants[j].ID
	})

	return plants
}

// Sorted returns the bookings ordered by creation time.
func (b *Bookings) Sorted() []domain.Booking {
	items := make([]domain.Booking, 0, len(b.Items))
	for _, booking := range b.Items {
		items = append(items, booking)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	return items
}

// ForPlant counts the bookings that reference plantID.
func (b *Bookings) ForPlant(plantID string) int {
	count := 0
	for _, booking := range b.Items {
		if booking.PlantID == plantID {
			count++
		}
	}
	return count
}

func (b *Bookings) clone() *Bookings {
	items := make(map[string]domain.Booking, len(b.Items))
	for id, booking := range b.Items {
		items[id] = booking
	}
	return &Bookings{Items: items}
}
