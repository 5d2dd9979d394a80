package models

import "time"

// BookingStatus is the lifecycle state of a booking session.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// bookingTransitions is the directed graph every booking walks through.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingAccepted, BookingRejected, BookingCancelled},
	BookingAccepted:  {BookingCompleted, BookingCancelled},
	BookingRejected:  {},
	BookingCancelled: {},
	BookingCompleted: {},
}

// IsValid reports whether s is a known booking status.
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether the graph has an edge s -> target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no edge leaves s.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// IsOutstanding reports whether a booking in this status still holds its photographer.
func (s BookingStatus) IsOutstanding() bool {
	return s == BookingPending || s == BookingAccepted
}

func (s BookingStatus) String() string {
	return string(s)
}

// Booking is one engagement request from a client to a photographer.
type Booking struct {
	ID             string        `bson:"id" json:"id"`
	ClientID       string        `bson:"clientId" json:"clientId"`
	PhotographerID string        `bson:"photographerId" json:"photographerId"`
	Status         BookingStatus `bson:"status" json:"status"`
	Package        string        `bson:"package" json:"package"`
	Price          int64         `bson:"price" json:"price"`                   // smallest currency unit
	NumberOfPhotos int           `bson:"numberOfPhotos" json:"numberOfPhotos"` // target count
	Location       GeoPoint      `bson:"location" json:"location"`
	Active         bool          `bson:"active" json:"-"` // mirrors Status.IsOutstanding for the partial unique index
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time     `bson:"updatedAt" json:"updatedAt"`
	CompletedAt    *time.Time    `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	Rating         *int          `bson:"rating,omitempty" json:"rating,omitempty"`
}

// BookingFilter narrows ListBookings. Zero fields are ignored.
type BookingFilter struct {
	ClientID       string          `form:"clientId"`
	PhotographerID string          `form:"photographerId"`
	Statuses       []BookingStatus `form:"status"`
	Limit          int64           `form:"limit"`
}
