package shop

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Proton-105/plantshop-bot/internal/domain"
	"github.com/Proton-105/plantshop-bot/internal/lock"
	"github.com/Proton-105/plantshop-bot/pkg/metrics"
)

// writeLockKey guards every read-modify-write: both documents are rewritten whole,
// so writers of different plants conflict as well.
const writeLockKey = "shop:write"

// Options tunes Service behaviour.
type Options struct {
	// BookingTTL sets expires_at on new bookings; zero disables expiry.
	BookingTTL time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service applies catalog and booking operations under the shop write lock.
type Service struct {
	store  *Store
	locker lock.Locker
	log    *slog.Logger
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
}

// NewService constructs a Service.
func NewService(store *Store, locker lock.Locker, log *slog.Logger, opts Options) *Service {
	if log == nil {
		log = slog.Default()
	}
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		store:  store,
		locker: locker,
		log:    log,
		ttl:    opts.BookingTTL,
		now:    now,
		newID:  uuid.NewString,
	}
}

// Catalog returns every plant ordered by identifier.
func (s *Service) Catalog(ctx context.Context) ([]domain.Plant, error) {
	catalog, err := s.store.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Sorted(), nil
}

// Plant returns a single plant or ErrPlantNotFound.
func (s *Service) Plant(ctx context.Context, plantID string) (domain.Plant, error) {
	catalog, err := s.store.LoadCatalog(ctx)
	if err != nil {
		return domain.Plant{}, err
	}

	plant, ok := catalog.Plants[plantID]
	if !ok {
		return domain.Plant{}, ErrPlantNotFound
	}
	return plant, nil
}

// Reservable returns the plant when a reservation dialog may start for it.
func (s *Service) Reservable(ctx context.Context, plantID string) (domain.Plant, error) {
	plant, err := s.Plant(ctx, plantID)
	if err != nil {
		return domain.Plant{}, err
	}
	if !plant.Available() {
		return plant, ErrSoldOut
	}
	return plant, nil
}

// Bookings returns every booking ordered by creation time.
func (s *Service) Bookings(ctx context.Context) ([]domain.Booking, error) {
	bookings, err := s.store.LoadBookings(ctx)
	if err != nil {
		return nil, err
	}
	return bookings.Sorted(), nil
}

// AddPlant allocates the next identifier and stores the plant.
func (s *Service) AddPlant(ctx context.Context, draft domain.PlantDraft) (domain.Plant, error) {
	unlock, err := s.locker.Lock(ctx, writeLockKey)
	if err != nil {
		return domain.Plant{}, err
	}
	defer unlock()

	catalog, err := s.store.LoadCatalog(ctx)
	if err != nil {
		return domain.Plant{}, err
	}

	plant := domain.Plant{
		ID:          strconv.FormatInt(catalog.NextID, 10),
		Name:        strings.TrimSpace(draft.Name),
		Description: strings.TrimSpace(draft.Description),
		Price:       draft.Price,
		Quantity:    draft.Quantity,
		PhotoID:     draft.PhotoID,
		CreatedAt:   s.now().UTC(),
	}
	if err := plant.Validate(); err != nil {
		return domain.Plant{}, fmt.Errorf("new plant: %w", err)
	}

	catalog.NextID++
	catalog.Plants[plant.ID] = plant

	if err := s.store.SaveCatalog(ctx, catalog); err != nil {
		return domain.Plant{}, err
	}

	s.log.Info("plant added", slog.String("plant_id", plant.ID), slog.String("name", plant.Name), slog.Int("quantity", plant.Quantity))
	return plant, nil
}

// DeletePlant removes a plant unless a booking still references it.
func (s *Service) DeletePlant(ctx context.Context, plantID string) (domain.Plant, error) {
	unlock, err := s.locker.Lock(ctx, writeLockKey)
	if err != nil {
		return domain.Plant{}, err
	}
	defer unlock()

	catalog, bookings, err := s.loadBoth(ctx)
	if err != nil {
		return domain.Plant{}, err
	}

	plant, ok := catalog.Plants[plantID]
	if !ok {
		return domain.Plant{}, ErrPlantNotFound
	}
	if bookings.ForPlant(plantID) > 0 {
		return plant, ErrPlantHasBookings
	}

	delete(catalog.Plants, plantID)
	if err := s.store.SaveCatalog(ctx, catalog); err != nil {
		return domain.Plant{}, err
	}

	s.log.Info("plant deleted", slog.String("plant_id", plantID))
	return plant, nil
}

// Reserve re-reads both documents, verifies the plant still has stock and records a pending
// booking while decrementing the quantity.
func (s *Service) Reserve(ctx context.Context, req domain.ReservationRequest) (domain.Booking, error) {
	unlock, err := s.locker.Lock(ctx, writeLockKey)
	if err != nil {
		return domain.Booking{}, err
	}
	defer unlock()

	catalog, bookings, err := s.loadBoth(ctx)
	if err != nil {
		return domain.Booking{}, err
	}

	plant, ok := catalog.Plants[req.PlantID]
	if !ok {
		return domain.Booking{}, ErrPlantNotFound
	}
	if !plant.Available() {
		metrics.RecordBooking("sold_out")
		return domain.Booking{}, ErrSoldOut
	}

	now := s.now().UTC()
	booking := domain.Booking{
		ID:            s.newID(),
		PlantID:       plant.ID,
		PlantName:     plant.Name,
		PlantPrice:    plant.Price,
		CustomerID:    req.CustomerID,
		ChatID:        req.ChatID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Comment:       strings.TrimSpace(req.Comment),
		Status:        domain.BookingPending,
		CreatedAt:     now,
	}
	if s.ttl > 0 {
		expires := now.Add(s.ttl)
		booking.ExpiresAt = &expires
	}
	if err := booking.Validate(); err != nil {
		return domain.Booking{}, fmt.Errorf("new booking: %w", err)
	}

	previous := bookings.clone()
	bookings.Items[booking.ID] = booking
	plant.Quantity--
	catalog.Plants[plant.ID] = plant

	if err := s.saveBoth(ctx, previous, bookings, catalog); err != nil {
		return domain.Booking{}, err
	}

	metrics.RecordBooking("created")
	s.log.Info("booking created",
		slog.String("booking_id", booking.ID),
		slog.String("plant_id", plant.ID),
		slog.Int64("customer_id", booking.CustomerID),
		slog.Int("quantity_left", plant.Quantity),
	)
	return booking, nil
}

// Confirm marks a pending booking as confirmed by adminID.
func (s *Service) Confirm(ctx context.Context, bookingID string, adminID int64) (domain.Booking, error) {
	unlock, err := s.locker.Lock(ctx, writeLockKey)
	if err != nil {
		return domain.Booking{}, err
	}
	defer unlock()

	bookings, err := s.store.LoadBookings(ctx)
	if err != nil {
		return domain.Booking{}, err
	}

	booking, ok := bookings.Items[bookingID]
	if !ok {
		return domain.Booking{}, ErrBookingNotFound
	}
	if booking.Status == domain.BookingConfirmed {
		return booking, ErrBookingAlreadyConfirmed
	}

	now := s.now().UTC()
	booking.Status = domain.BookingConfirmed
	booking.ConfirmedAt = &now
	booking.ConfirmedBy = adminID
	booking.ExpiresAt = nil
	bookings.Items[bookingID] = booking

	if err := s.store.SaveBookings(ctx, bookings); err != nil {
		return domain.Booking{}, err
	}

	metrics.RecordBooking("confirmed")
	s.log.Info("booking confirmed", slog.String("booking_id", bookingID), slog.Int64("admin_id", adminID))
	return booking, nil
}

// Reject deletes the booking and returns its unit to the plant.
func (s *Service) Reject(ctx context.Context, bookingID string) (domain.Booking, error) {
	unlock, err := s.locker.Lock(ctx, writeLockKey)
	if err != nil {
		return domain.Booking{}, err
	}
	defer unlock()

	catalog, bookings, err := s.loadBoth(ctx)
	if err != nil {
		return domain.Booking{}, err
	}

	booking, ok := bookings.Items[bookingID]
	if !ok {
		return domain.Booking{}, ErrBookingNotFound
	}

	previous := bookings.clone()
	delete(bookings.Items, bookingID)
	restock(catalog, booking.PlantID)

	if err := s.saveBoth(ctx, previous, bookings, catalog); err != nil {
		return domain.Booking{}, err
	}

	metrics.RecordBooking("rejected")
	s.log.Info("booking rejected", slog.String("booking_id", bookingID), slog.String("plant_id", booking.PlantID))
	return booking, nil
}

// ExpireStale removes pending bookings whose expiry has passed and restocks their plants.
func (s *Service) ExpireStale(ctx context.Context) ([]domain.Booking, error) {
	unlock, err := s.locker.Lock(ctx, writeLockKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	catalog, bookings, err := s.loadBoth(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	previous := bookings.clone()
	var expired []domain.Booking
	for _, booking := range bookings.Sorted() {
		if !booking.Expired(now) {
			continue
		}
		delete(bookings.Items, booking.ID)
		restock(catalog, booking.PlantID)
		expired = append(expired, booking)
	}

	if len(expired) == 0 {
		return nil, nil
	}

	if err := s.saveBoth(ctx, previous, bookings, catalog); err != nil {
		return nil, err
	}

	for range expired {
		metrics.RecordBooking("expired")
	}
	s.log.Info("stale bookings expired", slog.Int("count", len(expired)))
	return expired, nil
}

// HealthCheck reports whether the underlying storage is usable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func (s *Service) loadBoth(ctx context.Context) (*Catalog, *Bookings, error) {
	catalog, err := s.store.LoadCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := s.store.LoadBookings(ctx)
	if err != nil {
		return nil, nil, err
	}
	return catalog, bookings, nil
}

// saveBoth writes bookings then catalog; if the catalog write fails the previous bookings
// document is written back so both stay consistent.
func (s *Service) saveBoth(ctx context.Context, previous, bookings *Bookings, catalog *Catalog) error {
	if err := s.store.SaveBookings(ctx, bookings); err != nil {
		return err
	}

	if err := s.store.SaveCatalog(ctx, catalog); err != nil {
		if restoreErr := s.store.SaveBookings(ctx, previous); restoreErr != nil {
			s.log.Error("failed to restore bookings after catalog write failure",
				slog.Any("error", restoreErr),
				slog.Any("cause", err),
			)
		}
		return err
	}

	return nil
}

func restock(catalog *Catalog, plantID string) {
	plant, ok := catalog.Plants[plantID]
	if !ok {
		return
	}
	plant.Quantity++
	catalog.Plants[plantID] = plant
}
