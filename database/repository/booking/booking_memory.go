package bookingRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"snapbook/apperr"
	"snapbook/models"
)

// MemoryBookingRepo is an in-process BookingRepository. Every method holds a
// single mutex so UpdateIfStatus has the same compare-and-swap semantics as
// the MongoDB implementation.
type MemoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]models.Booking)}
}

func (r *MemoryBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists: %w", booking.ID, apperr.ErrConflict)
	}
	booking.Active = booking.Status.IsOutstanding()
	if booking.Active {
		for _, b := range r.bookings {
			if b.Active && b.PhotographerID == booking.PhotographerID {
				return fmt.Errorf("photographer %s already has booking %s: %w", b.PhotographerID, b.ID, apperr.ErrConflict)
			}
		}
	}
	r.bookings[booking.ID] = cloneBooking(*booking)
	return nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, apperr.ErrNotFound)
	}
	out := cloneBooking(b)
	return &out, nil
}

func (r *MemoryBookingRepo) UpdateIfStatus(_ context.Context, id string, expected []models.BookingStatus, update BookingUpdate) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, apperr.ErrNotFound)
	}
	if !containsStatus(expected, b.Status) {
		return nil, fmt.Errorf("booking %s: %w", id, apperr.ErrConflict)
	}
	if update.Status != nil {
		b.Status = *update.Status
		b.Active = b.Status.IsOutstanding()
	}
	if update.CompletedAt != nil {
		t := *update.CompletedAt
		b.CompletedAt = &t
	}
	if update.Rating != nil {
		v := *update.Rating
		b.Rating = &v
	}
	b.UpdatedAt = update.UpdatedAt
	r.bookings[id] = b

	out := cloneBooking(b)
	return &out, nil
}

func (r *MemoryBookingRepo) List(_ context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Booking{}
	for _, b := range r.bookings {
		if filter.ClientID != "" && b.ClientID != filter.ClientID {
			continue
		}
		if filter.PhotographerID != "" && b.PhotographerID != filter.PhotographerID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, b.Status) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryBookingRepo) ListActiveByPhotographer(_ context.Context, photographerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Booking{}
	for _, b := range r.bookings {
		if b.Active && b.PhotographerID == photographerID {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func containsStatus(set []models.BookingStatus, s models.BookingStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func cloneBooking(b models.Booking) models.Booking {
	if b.Location.Coordinates != nil {
		b.Location.Coordinates = append([]float64(nil), b.Location.Coordinates...)
	}
	if b.CompletedAt != nil {
		t := *b.CompletedAt
		b.CompletedAt = &t
	}
	if b.Rating != nil {
		v := *b.Rating
		b.Rating = &v
	}
	return b
}
