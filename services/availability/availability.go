package availability

import (
	"context"
	"errors"
	"fmt"

	"snapbook/apperr"
	photographerRepo "snapbook/database/repository/photographer"
	"snapbook/models"
	"snapbook/services/events"

	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func (s *DefaultAvailabilityService) GoLive(ctx context.Context, photographerID string, location models.GeoPoint) (*models.PhotographerStatus, error) {
	if photographerID == "" {
		return nil, fmt.Errorf("goLive: photographer id is required: %w", apperr.ErrInvalidInput)
	}
	if err := location.Validate(); err != nil {
		return nil, fmt.Errorf("goLive %s: %v: %w", photographerID, err, apperr.ErrInvalidInput)
	}

	current, err := s.Repo.Get(ctx, photographerID)
	if errors.Is(err, apperr.ErrNotFound) {
		status := &models.PhotographerStatus{
			PhotographerID: photographerID,
			Availability:   models.AvailabilityAvailable,
			Location:       &location,
			Version:        1,
			LastChangedAt:  s.Now(),
		}
		if err := s.Repo.Create(ctx, status); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				return nil, s.liveError(photographerID, "")
			}
			return nil, err
		}
		s.emit(ctx, status, models.AvailabilityOffline, "go_live")
		return status, nil
	}
	if err != nil {
		return nil, err
	}
	if current.Availability != models.AvailabilityOffline {
		return nil, s.liveError(photographerID, current.Availability)
	}

	updated, err := s.Repo.CompareAndSet(ctx, photographerID,
		photographerRepo.StatusCondition{
			Availability: []models.Availability{models.AvailabilityOffline},
			Version:      &current.Version,
		},
		photographerRepo.StatusUpdate{
			Availability:     models.AvailabilityAvailable,
			Location:         &location,
			CurrentBookingID: strPtr(""),
			ChangedAt:        s.Now(),
		})
	if errors.Is(err, apperr.ErrConflict) {
		if latest, gerr := s.Repo.Get(ctx, photographerID); gerr == nil && latest.Availability.IsLive() {
			return nil, s.liveError(photographerID, latest.Availability)
		}
		return nil, &apperr.TransitionError{Op: "goLive", EntityID: photographerID, From: string(models.AvailabilityOffline), To: string(models.AvailabilityAvailable), Err: err}
	}
	if err != nil {
		return nil, err
	}
	s.emit(ctx, updated, models.AvailabilityOffline, "go_live")
	return updated, nil
}

func (s *DefaultAvailabilityService) liveError(photographerID string, current models.Availability) error {
	return &apperr.TransitionError{
		Op:       "goLive",
		EntityID: photographerID,
		From:     string(current),
		To:       string(models.AvailabilityAvailable),
		Err:      apperr.ErrAlreadyLive,
	}
}

func (s *DefaultAvailabilityService) GoOffline(ctx context.Context, photographerID string) (*models.PhotographerStatus, error) {
	active, err := s.Bookings.ListActiveByPhotographer(ctx, photographerID)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return nil, s.activeBookingError(photographerID, models.AvailabilityFor(active[0].Status))
	}

	current, err := s.Repo.Get(ctx, photographerID)
	if err != nil {
		return nil, err
	}
	switch current.Availability {
	case models.AvailabilityOffline:
		return current, nil
	case models.AvailabilityPending, models.AvailabilityBusy:
		return nil, s.activeBookingError(photographerID, current.Availability)
	}

	updated, err := s.Repo.CompareAndSet(ctx, photographerID,
		photographerRepo.StatusCondition{
			Availability: []models.Availability{models.AvailabilityAvailable},
			BookingID:    strPtr(""),
		},
		photographerRepo.StatusUpdate{
			Availability:  models.AvailabilityOffline,
			ClearLocation: true,
			ChangedAt:     s.Now(),
		})
	if errors.Is(err, apperr.ErrConflict) {
		latest, gerr := s.Repo.Get(ctx, photographerID)
		if gerr != nil {
			return nil, gerr
		}
		switch latest.Availability {
		case models.AvailabilityOffline:
			return latest, nil
		case models.AvailabilityPending, models.AvailabilityBusy:
			return nil, s.activeBookingError(photographerID, latest.Availability)
		}
		return nil, &apperr.TransitionError{Op: "goOffline", EntityID: photographerID, From: string(latest.Availability), To: string(models.AvailabilityOffline), Err: err}
	}
	if err != nil {
		return nil, err
	}
	s.emit(ctx, updated, current.Availability, "go_offline")
	return updated, nil
}

func (s *DefaultAvailabilityService) activeBookingError(photographerID string, current models.Availability) error {
	return &apperr.TransitionError{
		Op:       "goOffline",
		EntityID: photographerID,
		From:     string(current),
		To:       string(models.AvailabilityOffline),
		Err:      apperr.ErrHasActiveBooking,
	}
}

func (s *DefaultAvailabilityService) GetStatus(ctx context.Context, photographerID string) (*models.PhotographerStatus, error) {
	return s.Repo.Get(ctx, photographerID)
}

func (s *DefaultAvailabilityService) IsAvailable(ctx context.Context, photographerID string) (bool, error) {
	status, err := s.Repo.Get(ctx, photographerID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status.Availability == models.AvailabilityAvailable, nil
}

func (s *DefaultAvailabilityService) IsLive(ctx context.Context, photographerID string) (bool, error) {
	status, err := s.Repo.Get(ctx, photographerID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status.Availability.IsLive(), nil
}

func (s *DefaultAvailabilityService) Claim(ctx context.Context, photographerID, bookingID string) error {
	updated, err := s.Repo.CompareAndSet(ctx, photographerID,
		photographerRepo.StatusCondition{
			Availability: []models.Availability{models.AvailabilityAvailable},
			BookingID:    strPtr(""),
		},
		photographerRepo.StatusUpdate{
			Availability:     models.AvailabilityPending,
			CurrentBookingID: &bookingID,
			ChangedAt:        s.Now(),
		})
	if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrNotFound) {
		return &apperr.TransitionError{
			Op:       "createBooking",
			EntityID: photographerID,
			To:       string(models.AvailabilityPending),
			Err:      apperr.ErrPhotographerUnavailable,
		}
	}
	if err != nil {
		return err
	}
	s.emit(ctx, updated, models.AvailabilityAvailable, "booking_"+bookingID)
	return nil
}

func (s *DefaultAvailabilityService) Release(ctx context.Context, photographerID, bookingID string) error {
	updated, err := s.Repo.CompareAndSet(ctx, photographerID,
		photographerRepo.StatusCondition{
			Availability: []models.Availability{models.AvailabilityPending},
			BookingID:    &bookingID,
		},
		photographerRepo.StatusUpdate{
			Availability:     models.AvailabilityAvailable,
			CurrentBookingID: strPtr(""),
			ChangedAt:        s.Now(),
		})
	if errors.Is(err, apperr.ErrConflict) {
		// Already released or taken over by a reconcile pass.
		return nil
	}
	if err != nil {
		return err
	}
	s.emit(ctx, updated, models.AvailabilityPending, "release_"+bookingID)
	return nil
}

func (s *DefaultAvailabilityService) Apply(ctx context.Context, photographerID, bookingID string, target models.Availability) error {
	update := photographerRepo.StatusUpdate{Availability: target, ChangedAt: s.Now()}
	if target != models.AvailabilityBusy && target != models.AvailabilityPending {
		update.CurrentBookingID = strPtr("")
	}

	updated, err := s.Repo.CompareAndSet(ctx, photographerID,
		photographerRepo.StatusCondition{BookingID: &bookingID},
		update)
	if errors.Is(err, apperr.ErrConflict) {
		// The status no longer points at this booking: either this write
		// already landed or a newer booking owns the photographer.
		s.Logger.Debug("availability write superseded",
			zap.String("photographerId", photographerID),
			zap.String("bookingId", bookingID),
			zap.String("target", string(target)))
		return nil
	}
	if err != nil {
		return err
	}
	s.emit(ctx, updated, "", "booking_"+bookingID)
	return nil
}

func (s *DefaultAvailabilityService) emit(ctx context.Context, status *models.PhotographerStatus, from models.Availability, reason string) {
	if s.Events == nil {
		return
	}
	e := events.New(events.AvailabilityChanged)
	e.PhotographerID = status.PhotographerID
	e.From = string(from)
	e.To = string(status.Availability)
	e.BookingID = status.CurrentBookingID
	e.Data = map[string]string{"reason": reason}
	s.Events.Publish(ctx, e)
}
