package booking

import (
	"context"
	"errors"
	"time"

	"snapbook/apperr"
	bookingRepo "snapbook/database/repository/booking"
	"snapbook/models"
	"snapbook/services/events"

	"go.uber.org/zap"
)

type transition struct {
	op   string
	role models.Role
	to   models.BookingStatus
	kind events.Kind
}

var (
	createTransition = transition{op: "createBooking", role: models.RoleClient, to: models.BookingPending, kind: events.BookingCreated}

	acceptTransition   = transition{op: "acceptBooking", role: models.RolePhotographer, to: models.BookingAccepted, kind: events.BookingAccepted}
	rejectTransition   = transition{op: "rejectBooking", role: models.RolePhotographer, to: models.BookingRejected, kind: events.BookingRejected}
	cancelTransition   = transition{op: "cancelBooking", role: models.RoleClient, to: models.BookingCancelled, kind: events.BookingCancelled}
	completeTransition = transition{op: "completeBooking", role: models.RolePhotographer, to: models.BookingCompleted, kind: events.BookingCompleted}
)

func (s *DefaultBookingService) AcceptBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error) {
	return s.transition(ctx, bookingID, actor, acceptTransition)
}

func (s *DefaultBookingService) RejectBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error) {
	return s.transition(ctx, bookingID, actor, rejectTransition)
}

func (s *DefaultBookingService) CancelBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error) {
	return s.transition(ctx, bookingID, actor, cancelTransition)
}

func (s *DefaultBookingService) CompleteBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error) {
	return s.transition(ctx, bookingID, actor, completeTransition)
}

// owner returns the party of b allowed to act in role.
func owner(b *models.Booking, role models.Role) string {
	if role == models.RoleClient {
		return b.ClientID
	}
	return b.PhotographerID
}

// transition checks role, then state, then writes conditioned on the status
// it observed. The derived availability write follows the booking write.
func (s *DefaultBookingService) transition(ctx context.Context, bookingID string, actor models.Actor, t transition) (*models.Booking, error) {
	current, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	fail := func(err error) error {
		return &apperr.TransitionError{Op: t.op, EntityID: bookingID, From: string(current.Status), To: string(t.to), Err: err}
	}

	if !actor.Is(t.role, owner(current, t.role)) {
		return nil, fail(apperr.ErrUnauthorized)
	}
	if !current.Status.CanTransitionTo(t.to) {
		return nil, fail(apperr.ErrInvalidTransition)
	}

	now := s.Now()
	update := bookingUpdate(t.to, now)
	updated, err := s.Repo.UpdateIfStatus(ctx, bookingID, []models.BookingStatus{current.Status}, update)
	if err != nil {
		if errors.Is(err, apperr.ErrUnknownOutcome) {
			s.scheduleReconcile(ctx, current.PhotographerID, t.op+" outcome unknown")
			return nil, fail(err)
		}
		if errors.Is(err, apperr.ErrConflict) {
			return nil, fail(apperr.ErrConflict)
		}
		return nil, err
	}

	s.syncAvailability(ctx, updated)

	s.Logger.Info("booking transitioned",
		zap.String("bookingId", bookingID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("actorId", actor.ID))
	s.publish(ctx, updated, actor, current.Status, t)
	return updated, nil
}

func bookingUpdate(to models.BookingStatus, now time.Time) bookingRepo.BookingUpdate {
	update := bookingRepo.BookingUpdate{Status: &to, UpdatedAt: now}
	if to == models.BookingCompleted {
		update.CompletedAt = &now
	}
	return update
}

func (s *DefaultBookingService) publish(ctx context.Context, b *models.Booking, actor models.Actor, from models.BookingStatus, t transition) {
	if s.Events == nil {
		return
	}
	e := events.New(t.kind)
	e.BookingID = b.ID
	e.ClientID = b.ClientID
	e.PhotographerID = b.PhotographerID
	e.ActorID = actor.ID
	e.From = string(from)
	e.To = string(b.Status)
	e.Data = map[string]string{"package": b.Package}
	s.Events.Publish(ctx, e)
}
