package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"snapbook/apperr"
	"snapbook/models"

	"go.uber.org/zap"
)

func validateCreate(input CreateBookingInput) error {
	var problems []string
	if strings.TrimSpace(input.ClientID) == "" {
		problems = append(problems, "clientId is required")
	}
	if strings.TrimSpace(input.PhotographerID) == "" {
		problems = append(problems, "photographerId is required")
	}
	if input.ClientID != "" && input.ClientID == input.PhotographerID {
		problems = append(problems, "a client cannot book themselves")
	}
	if strings.TrimSpace(input.Package) == "" {
		problems = append(problems, "package is required")
	}
	if input.Price <= 0 {
		problems = append(problems, "price must be positive")
	}
	if input.NumberOfPhotos <= 0 {
		problems = append(problems, "numberOfPhotos must be positive")
	}
	if err := input.Location.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("createBooking: %s: %w", strings.Join(problems, "; "), apperr.ErrInvalidInput)
	}
	return nil
}

// CreateBooking claims the photographer and then stores a pending booking.
// A failed insert releases the claim again.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, actor models.Actor, input CreateBookingInput) (*models.Booking, error) {
	if actor.Role == models.RoleClient && input.ClientID == "" {
		input.ClientID = actor.ID
	}
	if !actor.Is(models.RoleClient, input.ClientID) {
		return nil, &apperr.TransitionError{Op: "createBooking", To: string(models.BookingPending), Err: apperr.ErrUnauthorized}
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	now := s.Now()
	booking := &models.Booking{
		ID:             s.NewID(),
		ClientID:       input.ClientID,
		PhotographerID: input.PhotographerID,
		Status:         models.BookingPending,
		Package:        strings.TrimSpace(input.Package),
		Price:          input.Price,
		NumberOfPhotos: input.NumberOfPhotos,
		Location:       input.Location,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.Availability.Claim(ctx, booking.PhotographerID, booking.ID); err != nil {
		if errors.Is(err, apperr.ErrUnknownOutcome) {
			s.scheduleReconcile(ctx, booking.PhotographerID, "claim outcome unknown")
		}
		return nil, err
	}

	if err := s.Repo.Create(ctx, booking); err != nil {
		s.rollbackClaim(ctx, booking, err)
		if errors.Is(err, apperr.ErrConflict) {
			return nil, &apperr.TransitionError{
				Op:       "createBooking",
				EntityID: booking.PhotographerID,
				To:       string(models.BookingPending),
				Err:      fmt.Errorf("%w: %v", apperr.ErrPhotographerUnavailable, err),
			}
		}
		return nil, err
	}

	s.Logger.Info("booking created",
		zap.String("bookingId", booking.ID),
		zap.String("clientId", booking.ClientID),
		zap.String("photographerId", booking.PhotographerID))
	s.publish(ctx, booking, actor, "", createTransition)
	return booking, nil
}

// rollbackClaim undoes the pending claim after a failed insert. When the
// insert may have landed the photographer is left to reconcile instead.
func (s *DefaultBookingService) rollbackClaim(ctx context.Context, booking *models.Booking, cause error) {
	if errors.Is(cause, apperr.ErrUnknownOutcome) {
		s.scheduleReconcile(ctx, booking.PhotographerID, "booking insert outcome unknown")
		return
	}
	if err := s.Availability.Release(context.WithoutCancel(ctx), booking.PhotographerID, booking.ID); err != nil {
		s.Logger.Warn("failed to release photographer claim",
			zap.String("bookingId", booking.ID),
			zap.String("photographerId", booking.PhotographerID),
			zap.Error(err))
		s.scheduleReconcile(ctx, booking.PhotographerID, "claim release failed")
	}
}
