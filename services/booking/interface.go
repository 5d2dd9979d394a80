package booking

import (
	"context"
	"time"

	bookingRepo "snapbook/database/repository/booking"
	"snapbook/models"
	"snapbook/services/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingInput is what a client submits to request a photographer.
type CreateBookingInput struct {
	ClientID       string          `json:"clientId"`
	PhotographerID string          `json:"photographerId" binding:"required"`
	Package        string          `json:"package" binding:"required"`
	Price          int64           `json:"price" binding:"required"`
	NumberOfPhotos int             `json:"numberOfPhotos" binding:"required"`
	Location       models.GeoPoint `json:"location" binding:"required"`
}

// BookingService drives a booking through its lifecycle.
type BookingService interface {
	CreateBooking(ctx context.Context, actor models.Actor, input CreateBookingInput) (*models.Booking, error)
	AcceptBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)
	RejectBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)
	RateBooking(ctx context.Context, bookingID string, actor models.Actor, rating int) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)
	ListBookings(ctx context.Context, actor models.Actor, filter models.BookingFilter) ([]models.Booking, error)
}

// Availability is the part of the availability service the lifecycle drives.
type Availability interface {
	Claim(ctx context.Context, photographerID, bookingID string) error
	Release(ctx context.Context, photographerID, bookingID string) error
	Apply(ctx context.Context, photographerID, bookingID string, target models.Availability) error
}

// ReconcileScheduler queues an out-of-band availability repair.
type ReconcileScheduler interface {
	ScheduleReconcile(ctx context.Context, photographerID string) error
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo         bookingRepo.BookingRepository
	Availability Availability
	Reconciler   ReconcileScheduler
	Events       events.Publisher
	Logger       *zap.Logger

	// RetryAttempts bounds the inline retries of the availability write.
	RetryAttempts int
	RetryBackoff  time.Duration

	Now   func() time.Time
	NewID func() string
}

func NewBookingService(
	repo bookingRepo.BookingRepository,
	availability Availability,
	reconciler ReconcileScheduler,
	pub events.Publisher,
	logger *zap.Logger,
) *DefaultBookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultBookingService{
		Repo:          repo,
		Availability:  availability,
		Reconciler:    reconciler,
		Events:        pub,
		Logger:        logger,
		RetryAttempts: 3,
		RetryBackoff:  100 * time.Millisecond,
		Now:           func() time.Time { return time.Now().UTC() },
		NewID:         uuid.NewString,
	}
}
