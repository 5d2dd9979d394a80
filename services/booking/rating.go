package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"snapbook/apperr"
	bookingRepo "snapbook/database/repository/booking"
	"snapbook/models"
	"snapbook/services/events"
)

const (
	MinRating = 1
	MaxRating = 5
)

// RateBooking records the client's rating on a completed booking. A later
// rating overwrites an earlier one.
func (s *DefaultBookingService) RateBooking(ctx context.Context, bookingID string, actor models.Actor, rating int) (*models.Booking, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, fmt.Errorf("rating %d outside [%d,%d]: %w", rating, MinRating, MaxRating, apperr.ErrOutOfRange)
	}

	current, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	fail := func(err error) error {
		return &apperr.TransitionError{Op: "rateBooking", EntityID: bookingID, From: string(current.Status), To: string(models.BookingCompleted), Err: err}
	}
	if !actor.Is(models.RoleClient, current.ClientID) {
		return nil, fail(apperr.ErrUnauthorized)
	}
	if current.Status != models.BookingCompleted {
		return nil, fail(apperr.ErrInvalidTransition)
	}

	updated, err := s.Repo.UpdateIfStatus(ctx, bookingID,
		[]models.BookingStatus{models.BookingCompleted},
		bookingRepo.BookingUpdate{Rating: &rating, UpdatedAt: s.Now()})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, fail(apperr.ErrConflict)
		}
		return nil, err
	}

	if s.Events != nil {
		e := events.New(events.BookingRated)
		e.BookingID = updated.ID
		e.ClientID = updated.ClientID
		e.PhotographerID = updated.PhotographerID
		e.ActorID = actor.ID
		e.From = string(updated.Status)
		e.To = string(updated.Status)
		e.Data = map[string]string{"rating": strconv.Itoa(rating)}
		s.Events.Publish(ctx, e)
	}
	return updated, nil
}
