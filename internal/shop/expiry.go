package shop

import (
	"context"
	"log/slog"
	"time"

	"github.com/Proton-105/plantshop-bot/internal/domain"
)

// ExpiredHandler is invoked once for every booking removed by the sweeper.
type ExpiredHandler func(ctx context.Context, booking domain.Booking)

// Sweeper periodically expires stale pending bookings.
type Sweeper struct {
	service   *Service
	log       *slog.Logger
	interval  time.Duration
	onExpired ExpiredHandler
}

// NewSweeper constructs a Sweeper. A non-positive interval disables it.
func NewSweeper(service *Service, log *slog.Logger, interval time.Duration, onExpired ExpiredHandler) *Sweeper {
	if log == nil {
		log = slog.Default()
	}

	return &Sweeper{
		service:   service,
		log:       log,
		interval:  interval,
		onExpired: onExpired,
	}
}

// Run starts the sweep loop until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s == nil || s.service == nil || s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("booking sweeper stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single expiry pass.
func (s *Sweeper) Sweep(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	expired, err := s.service.ExpireStale(ctx)
	if err != nil {
		s.log.Error("booking sweep failed", slog.Any("error", err))
		return 0
	}

	for _, booking := range expired {
		s.log.Info("booking expired",
			slog.String("booking_id", booking.ID),
			slog.String("plant_id", booking.PlantID),
			slog.Int64("customer_id", booking.CustomerID),
		)
		if s.onExpired != nil {
			s.onExpired(ctx, booking)
		}
	}

	return len(expired)
}
