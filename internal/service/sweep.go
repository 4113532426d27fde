package service

import (
	"context"
	"time"

	"parkfinder/internal/logging"
)

// Sweeper deletes reservations that expired longer than retention ago.
// Occupancy counts already exclude expired rows, so the sweep only
// reclaims storage and is safe to run at any cadence.
type Sweeper struct {
	reservations ReservationStore
	retention    time.Duration
	now          func() time.Time
}

func NewSweeper(reservations ReservationStore, retention time.Duration) *Sweeper {
	return &Sweeper{
		reservations: reservations,
		retention:    retention,
		now:          time.Now,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	cutoff := s.now().UTC().Add(-s.retention)

	deleted, err := s.reservations.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		logging.Logger.WithError(err).Error("Sweep: failed to delete expired reservations")
		return
	}
	if deleted > 0 {
		logging.Logger.WithField("deleted", deleted).Info("Sweep: removed expired reservations")
	}
}
