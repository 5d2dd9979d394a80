package availability

import (
	"context"
	"errors"
	"fmt"

	"snapbook/apperr"
	photographerRepo "snapbook/database/repository/photographer"
	"snapbook/models"

	"go.uber.org/zap"
)

// derive computes the availability implied by the outstanding bookings.
func derive(live bool, active []models.Booking) (models.Availability, string) {
	var owner *models.Booking
	for i := range active {
		if owner == nil || active[i].Status == models.BookingAccepted {
			owner = &active[i]
		}
	}
	if owner != nil {
		return models.AvailabilityFor(owner.Status), owner.ID
	}
	if live {
		return models.AvailabilityAvailable, ""
	}
	return models.AvailabilityOffline, ""
}

// reconcileAttempts bounds how often Reconcile re-reads after losing a race.
const reconcileAttempts = 3

// Reconcile recomputes availability from outstanding bookings and repairs drift.
func (s *DefaultAvailabilityService) Reconcile(ctx context.Context, photographerID string) (*ReconcileResult, error) {
	var err error
	for attempt := 0; attempt < reconcileAttempts; attempt++ {
		var result *ReconcileResult
		result, err = s.reconcileOnce(ctx, photographerID)
		if err == nil || !errors.Is(err, apperr.ErrConflict) {
			return result, err
		}
		s.Logger.Debug("reconcile raced a concurrent write",
			zap.String("photographerId", photographerID),
			zap.Int("attempt", attempt+1))
	}
	return nil, err
}

// reconcileOnce reads the status before the bookings. Every booking-driven
// write bumps the status version, so a transition landing between the two
// reads fails the final compare-and-set instead of being overwritten.
func (s *DefaultAvailabilityService) reconcileOnce(ctx context.Context, photographerID string) (*ReconcileResult, error) {
	current, err := s.Repo.Get(ctx, photographerID)
	missing := errors.Is(err, apperr.ErrNotFound)
	if err != nil && !missing {
		return nil, err
	}

	active, err := s.Bookings.ListActiveByPhotographer(ctx, photographerID)
	if err != nil {
		return nil, err
	}
	if len(active) > 1 {
		s.Logger.Error("photographer holds more than one outstanding booking",
			zap.String("photographerId", photographerID),
			zap.Int("count", len(active)))
	}

	if missing {
		if len(active) == 0 {
			return nil, fmt.Errorf("reconcile %s: %w", photographerID, apperr.ErrNotFound)
		}
		target, bookingID := derive(true, active)
		status := &models.PhotographerStatus{
			PhotographerID:   photographerID,
			Availability:     target,
			CurrentBookingID: bookingID,
			Version:          1,
			LastChangedAt:    s.Now(),
		}
		if err := s.Repo.Create(ctx, status); err != nil {
			return nil, err
		}
		s.emit(ctx, status, "", "reconcile")
		return &ReconcileResult{Status: status, Repaired: true}, nil
	}

	target, bookingID := derive(current.Availability.IsLive(), active)
	if current.Availability == target && current.CurrentBookingID == bookingID {
		return &ReconcileResult{Status: current, Previous: current.Availability}, nil
	}
	if s.claimInFlight(current, active) {
		s.Logger.Debug("leaving fresh claim for its booking insert",
			zap.String("photographerId", photographerID),
			zap.String("bookingId", current.CurrentBookingID))
		return &ReconcileResult{Status: current, Previous: current.Availability}, nil
	}

	s.Logger.Warn("photographer availability drifted",
		zap.String("photographerId", photographerID),
		zap.String("stored", string(current.Availability)),
		zap.String("storedBookingId", current.CurrentBookingID),
		zap.String("derived", string(target)),
		zap.String("derivedBookingId", bookingID))

	update := photographerRepo.StatusUpdate{
		Availability:     target,
		CurrentBookingID: &bookingID,
		ChangedAt:        s.Now(),
	}
	if target == models.AvailabilityOffline {
		update.ClearLocation = true
	}
	updated, err := s.Repo.CompareAndSet(ctx, photographerID,
		photographerRepo.StatusCondition{Version: &current.Version}, update)
	if err != nil {
		return nil, &apperr.TransitionError{Op: "reconcile", EntityID: photographerID, From: string(current.Availability), To: string(target), Err: err}
	}
	s.emit(ctx, updated, current.Availability, "reconcile")
	return &ReconcileResult{Status: updated, Previous: current.Availability, Repaired: true}, nil
}

// claimInFlight reports whether current is a pending claim younger than
// ClaimGrace whose booking has not been stored yet.
func (s *DefaultAvailabilityService) claimInFlight(current *models.PhotographerStatus, active []models.Booking) bool {
	if current.Availability != models.AvailabilityPending || current.CurrentBookingID == "" {
		return false
	}
	for _, b := range active {
		if b.ID == current.CurrentBookingID {
			return false
		}
	}
	return s.Now().Sub(current.LastChangedAt) < s.ClaimGrace
}

// ReconcileAll runs Reconcile for every live photographer.
func (s *DefaultAvailabilityService) ReconcileAll(ctx context.Context) (*SweepResult, error) {
	live, err := s.Repo.ListLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile sweep: %w", err)
	}

	result := &SweepResult{}
	var errs []error
	for _, st := range live {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		result.Checked++
		r, err := s.Reconcile(ctx, st.PhotographerID)
		if err != nil {
			result.Failed = append(result.Failed, st.PhotographerID)
			errs = append(errs, err)
			continue
		}
		if r.Repaired {
			result.Repaired++
		}
	}
	return result, errors.Join(errs...)
}
