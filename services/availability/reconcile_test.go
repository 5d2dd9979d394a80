package availability

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingRepo "snapbook/database/repository/booking"
	photographerRepo "snapbook/database/repository/photographer"
	"snapbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRepairsMissedBusy(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)
	require.NoError(t, f.svc.Claim(ctx, "p1", "b1"))
	require.NoError(t, f.bookings.Create(ctx, &models.Booking{ID: "b1", PhotographerID: "p1", ClientID: "c1", Status: models.BookingAccepted}))

	// the accept wrote the booking but the availability write was lost
	result, err := f.svc.Reconcile(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, result.Repaired)
	assert.Equal(t, models.AvailabilityPending, result.Previous)
	assert.Equal(t, models.AvailabilityBusy, result.Status.Availability)
	assert.Equal(t, "b1", result.Status.CurrentBookingID)

	again, err := f.svc.Reconcile(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, again.Repaired)
}

func TestReconcileFreesOrphanedClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)
	require.NoError(t, f.svc.Claim(ctx, "p1", "never-stored"))

	later := time.Now().UTC().Add(f.svc.ClaimGrace + time.Second)
	f.svc.Now = func() time.Time { return later }
	result, err := f.svc.Reconcile(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, result.Repaired)
	assert.Equal(t, models.AvailabilityAvailable, result.Status.Availability)
	assert.Empty(t, result.Status.CurrentBookingID)
}

func TestReconcileLeavesFreshClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)
	require.NoError(t, f.svc.Claim(ctx, "p1", "b1"))

	// the booking insert has not landed yet
	result, err := f.svc.Reconcile(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, result.Repaired)
	assert.Equal(t, models.AvailabilityPending, result.Status.Availability)

	require.NoError(t, f.bookings.Create(ctx, &models.Booking{ID: "b1", PhotographerID: "p1", ClientID: "c1", Status: models.BookingPending}))
	result, err = f.svc.Reconcile(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, result.Repaired)
	assert.Equal(t, "b1", result.Status.CurrentBookingID)
}

// hookedBookings runs after once, right after the first listing returns.
type hookedBookings struct {
	ActiveBookings
	after func()
	once  sync.Once
}

func (h *hookedBookings) ListActiveByPhotographer(ctx context.Context, photographerID string) ([]models.Booking, error) {
	out, err := h.ActiveBookings.ListActiveByPhotographer(ctx, photographerID)
	h.once.Do(h.after)
	return out, err
}

func TestReconcileLosesToConcurrentCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)
	require.NoError(t, f.svc.Claim(ctx, "p1", "b1"))
	// accepted, but the busy write was lost: the status is still pending
	require.NoError(t, f.bookings.Create(ctx, &models.Booking{ID: "b1", PhotographerID: "p1", ClientID: "c1", Status: models.BookingAccepted}))

	completed := models.BookingCompleted
	f.svc.Bookings = &hookedBookings{ActiveBookings: f.bookings, after: func() {
		_, err := f.bookings.UpdateIfStatus(ctx, "b1", []models.BookingStatus{models.BookingAccepted},
			bookingRepo.BookingUpdate{Status: &completed, UpdatedAt: time.Now().UTC()})
		require.NoError(t, err)
		require.NoError(t, f.svc.Apply(ctx, "p1", "b1", models.AvailabilityAvailable))
	}}

	result, err := f.svc.Reconcile(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, result.Repaired)

	st, err := f.statuses.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityAvailable, st.Availability)
	assert.Empty(t, st.CurrentBookingID)
}

func TestReconcileMissingStatusWithoutBookings(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Reconcile(context.Background(), "nobody")
	assert.Error(t, err)
}

func TestReconcileAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	now := time.Now().UTC()

	require.NoError(t, f.statuses.Create(ctx, &models.PhotographerStatus{
		PhotographerID: "ok", Availability: models.AvailabilityAvailable, Version: 1, LastChangedAt: now,
	}))
	require.NoError(t, f.statuses.Create(ctx, &models.PhotographerStatus{
		PhotographerID: "stuck", Availability: models.AvailabilityBusy, CurrentBookingID: "gone", Version: 1, LastChangedAt: now,
	}))
	require.NoError(t, f.statuses.Create(ctx, &models.PhotographerStatus{
		PhotographerID: "away", Availability: models.AvailabilityOffline, Version: 1, LastChangedAt: now,
	}))

	result, err := f.svc.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Repaired)
	assert.Empty(t, result.Failed)

	stuck, err := f.statuses.Get(ctx, "stuck")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityAvailable, stuck.Availability)
}

func TestDerivePrefersAcceptedBooking(t *testing.T) {
	target, id := derive(true, []models.Booking{
		{ID: "a", Status: models.BookingPending},
		{ID: "b", Status: models.BookingAccepted},
	})
	assert.Equal(t, models.AvailabilityBusy, target)
	assert.Equal(t, "b", id)

	target, id = derive(false, nil)
	assert.Equal(t, models.AvailabilityOffline, target)
	assert.Empty(t, id)
}

var _ photographerRepo.StatusRepository = (*photographerRepo.MemoryStatusRepo)(nil)
