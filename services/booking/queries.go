package booking

import (
	"context"
	"fmt"

	"snapbook/apperr"
	"snapbook/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// GetBooking returns a booking to one of its parties or to an admin.
func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleAdmin || actor.Is(models.RoleClient, b.ClientID) || actor.Is(models.RolePhotographer, b.PhotographerID) {
		return b, nil
	}
	return nil, fmt.Errorf("booking %s: %w", bookingID, apperr.ErrUnauthorized)
}

// ListBookings scopes filter to the actor's own bookings unless the actor is an admin.
func (s *DefaultBookingService) ListBookings(ctx context.Context, actor models.Actor, filter models.BookingFilter) ([]models.Booking, error) {
	switch actor.Role {
	case models.RoleClient:
		filter.ClientID = actor.ID
	case models.RolePhotographer:
		filter.PhotographerID = actor.ID
	case models.RoleAdmin:
	default:
		return nil, fmt.Errorf("listBookings: unknown role %q: %w", actor.Role, apperr.ErrUnauthorized)
	}
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, fmt.Errorf("listBookings: unknown status %q: %w", st, apperr.ErrInvalidInput)
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.Repo.List(ctx, filter)
}
