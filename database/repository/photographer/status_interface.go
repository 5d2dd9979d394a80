package photographerRepo

import (
	"context"
	"time"

	"snapbook/models"
)

// StatusCondition is the expected state a CompareAndSet is keyed on. Nil or
// empty fields are not checked.
type StatusCondition struct {
	Availability []models.Availability
	BookingID    *string // "" matches "no current booking"
	Version      *int64
}

// StatusUpdate is the new state written by CompareAndSet.
type StatusUpdate struct {
	Availability     models.Availability
	Location         *models.GeoPoint
	ClearLocation    bool
	CurrentBookingID *string // "" clears the field
	ChangedAt        time.Time
}

// StatusRepository defines methods for photographer status data access.
type StatusRepository interface {
	// Get retrieves the status document for a photographer.
	Get(ctx context.Context, photographerID string) (*models.PhotographerStatus, error)
	// Create inserts the first status document; a duplicate is apperr.ErrConflict.
	Create(ctx context.Context, status *models.PhotographerStatus) error
	// CompareAndSet writes update and bumps Version while cond holds.
	CompareAndSet(ctx context.Context, photographerID string, cond StatusCondition, update StatusUpdate) (*models.PhotographerStatus, error)
	// ListLive returns every photographer that is not offline.
	ListLive(ctx context.Context) ([]models.PhotographerStatus, error)
}

// Matches reports whether s satisfies cond.
func (cond StatusCondition) Matches(s models.PhotographerStatus) bool {
	if len(cond.Availability) > 0 {
		found := false
		for _, a := range cond.Availability {
			if a == s.Availability {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if cond.BookingID != nil && *cond.BookingID != s.CurrentBookingID {
		return false
	}
	if cond.Version != nil && *cond.Version != s.Version {
		return false
	}
	return true
}

// Apply returns s with update written over it.
func (update StatusUpdate) Apply(s models.PhotographerStatus) models.PhotographerStatus {
	s.Availability = update.Availability
	if update.Location != nil {
		loc := *update.Location
		loc.Coordinates = append([]float64(nil), loc.Coordinates...)
		s.Location = &loc
	}
	if update.ClearLocation {
		s.Location = nil
	}
	if update.CurrentBookingID != nil {
		s.CurrentBookingID = *update.CurrentBookingID
	}
	s.LastChangedAt = update.ChangedAt
	s.Version++
	return s
}
