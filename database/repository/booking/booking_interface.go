package bookingRepo

import (
	"context"
	"time"

	"snapbook/models"
)

// BookingUpdate lists the fields a transition may write. Nil fields are left untouched.
type BookingUpdate struct {
	Status      *models.BookingStatus
	CompletedAt *time.Time
	Rating      *int
	UpdatedAt   time.Time
}

// BookingRepository defines methods for booking data access.
type BookingRepository interface {
	// Create inserts a new booking. A second outstanding booking for the same
	// photographer is refused with apperr.ErrConflict.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID retrieves a booking by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// UpdateIfStatus applies update only while the stored status is one of
	// expected. It returns apperr.ErrConflict when the condition no longer holds.
	UpdateIfStatus(ctx context.Context, id string, expected []models.BookingStatus, update BookingUpdate) (*models.Booking, error)
	// List returns bookings matching filter, newest first.
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	// ListActiveByPhotographer returns the photographer's pending or accepted bookings.
	ListActiveByPhotographer(ctx context.Context, photographerID string) ([]models.Booking, error)
}
