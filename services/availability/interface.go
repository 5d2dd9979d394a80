package availability

import (
	"context"
	"time"

	"snapbook/database"
	photographerRepo "snapbook/database/repository/photographer"
	"snapbook/models"
	"snapbook/services/events"

	"go.uber.org/zap"
)

// ActiveBookings is the slice of the booking store availability depends on.
type ActiveBookings interface {
	ListActiveByPhotographer(ctx context.Context, photographerID string) ([]models.Booking, error)
}

// AvailabilityService tracks whether a photographer is live, available or busy.
type AvailabilityService interface {
	GoLive(ctx context.Context, photographerID string, location models.GeoPoint) (*models.PhotographerStatus, error)
	GoOffline(ctx context.Context, photographerID string) (*models.PhotographerStatus, error)
	GetStatus(ctx context.Context, photographerID string) (*models.PhotographerStatus, error)
	IsAvailable(ctx context.Context, photographerID string) (bool, error)
	IsLive(ctx context.Context, photographerID string) (bool, error)

	// Claim moves an available photographer to pending for bookingID.
	Claim(ctx context.Context, photographerID, bookingID string) error
	// Release undoes a Claim whose booking was never stored.
	Release(ctx context.Context, photographerID, bookingID string) error
	// Apply writes the availability derived from a booking transition.
	// It is idempotent and safe to retry with the same arguments.
	Apply(ctx context.Context, photographerID, bookingID string, target models.Availability) error

	Reconcile(ctx context.Context, photographerID string) (*ReconcileResult, error)
	ReconcileAll(ctx context.Context) (*SweepResult, error)
}

// ReconcileResult reports what a reconcile pass found for one photographer.
type ReconcileResult struct {
	Status   *models.PhotographerStatus `json:"status"`
	Previous models.Availability        `json:"previous"`
	Repaired bool                       `json:"repaired"`
}

// SweepResult summarises ReconcileAll.
type SweepResult struct {
	Checked  int      `json:"checked"`
	Repaired int      `json:"repaired"`
	Failed   []string `json:"failed,omitempty"`
}

// DefaultAvailabilityService implements AvailabilityService.
type DefaultAvailabilityService struct {
	Repo     photographerRepo.StatusRepository
	Bookings ActiveBookings
	Events   events.Publisher
	Logger   *zap.Logger
	Now      func() time.Time
	// ClaimGrace is how long Reconcile leaves a claim alone while its
	// booking insert may still be in flight.
	ClaimGrace time.Duration
}

func NewAvailabilityService(
	repo photographerRepo.StatusRepository,
	bookings ActiveBookings,
	pub events.Publisher,
	logger *zap.Logger,
) *DefaultAvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultAvailabilityService{
		Repo:     repo,
		Bookings: bookings,
		Events:   pub,
		Logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },

		ClaimGrace: 2 * database.OpTimeout,
	}
}
