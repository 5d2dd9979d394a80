package booking

import (
	"context"
	"time"

	"snapbook/models"

	"go.uber.org/zap"
)

// syncAvailability writes the photographer availability implied by b. The
// target is derived from the booking, so retrying it is always safe. When the
// retries run out the photographer is queued for reconcile.
func (s *DefaultBookingService) syncAvailability(ctx context.Context, b *models.Booking) {
	ctx = context.WithoutCancel(ctx)
	target := models.AvailabilityFor(b.Status)

	attempts := s.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = s.Availability.Apply(ctx, b.PhotographerID, b.ID, target); err == nil {
			return
		}
		s.Logger.Warn("availability write failed",
			zap.String("bookingId", b.ID),
			zap.String("photographerId", b.PhotographerID),
			zap.String("target", string(target)),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < attempts {
			time.Sleep(s.RetryBackoff * time.Duration(attempt))
		}
	}
	s.scheduleReconcile(ctx, b.PhotographerID, "availability retries exhausted")
}

func (s *DefaultBookingService) scheduleReconcile(ctx context.Context, photographerID, reason string) {
	logger := s.Logger.With(zap.String("photographerId", photographerID), zap.String("reason", reason))
	if s.Reconciler == nil {
		logger.Error("availability may be stale and no reconciler is configured")
		return
	}
	if err := s.Reconciler.ScheduleReconcile(context.WithoutCancel(ctx), photographerID); err != nil {
		logger.Error("failed to schedule availability reconcile", zap.Error(err))
		return
	}
	logger.Info("availability reconcile scheduled")
}
