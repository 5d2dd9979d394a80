package models

import "time"

// Availability is the photographer's live/offline state combined with their outstanding booking.
type Availability string

const (
	AvailabilityOffline   Availability = "offline"
	AvailabilityAvailable Availability = "available"
	AvailabilityPending   Availability = "pending"
	AvailabilityBusy      Availability = "busy"
)

// IsLive reports whether the photographer has opted in to receive work.
func (a Availability) IsLive() bool {
	return a != "" && a != AvailabilityOffline
}

// PhotographerStatus is the per-photographer availability document.
type PhotographerStatus struct {
	PhotographerID   string       `bson:"photographerId" json:"photographerId"`
	Availability     Availability `bson:"availability" json:"availability"`
	Location         *GeoPoint    `bson:"location,omitempty" json:"location,omitempty"`
	CurrentBookingID string       `bson:"currentBookingId,omitempty" json:"currentBookingId,omitempty"`
	Version          int64        `bson:"version" json:"version"`
	LastChangedAt    time.Time    `bson:"lastChangedAt" json:"lastChangedAt"`
}

// AvailabilityFor derives the availability implied by a booking status.
func AvailabilityFor(status BookingStatus) Availability {
	switch status {
	case BookingPending:
		return AvailabilityPending
	case BookingAccepted:
		return AvailabilityBusy
	default:
		return AvailabilityAvailable
	}
}
