package availability

import (
	"context"
	"sync"
	"testing"

	"snapbook/apperr"
	bookingRepo "snapbook/database/repository/booking"
	photographerRepo "snapbook/database/repository/photographer"
	"snapbook/models"
	"snapbook/services/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Kind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	svc      *DefaultAvailabilityService
	statuses *photographerRepo.MemoryStatusRepo
	bookings *bookingRepo.MemoryBookingRepo
	events   *recorder
}

func newFixture() *fixture {
	f := &fixture{
		statuses: photographerRepo.NewMemoryStatusRepo(),
		bookings: bookingRepo.NewMemoryBookingRepo(),
		events:   &recorder{},
	}
	f.svc = NewAvailabilityService(f.statuses, f.bookings, f.events, nil)
	return f
}

var nairobi = models.NewGeoPoint(-1.2921, 36.8219)

func TestGoLive(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	status, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityAvailable, status.Availability)
	require.NotNil(t, status.Location)
	assert.InDelta(t, -1.2921, status.Location.Lat(), 1e-9)

	_, err = f.svc.GoLive(ctx, "p1", nairobi)
	assert.ErrorIs(t, err, apperr.ErrAlreadyLive)

	live, err := f.svc.IsLive(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, live)
	assert.Equal(t, []events.Kind{events.AvailabilityChanged}, f.events.kinds())
}

func TestGoLiveRejectsBadInput(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GoLive(context.Background(), "", nairobi)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.svc.GoLive(context.Background(), "p1", models.NewGeoPoint(91, 0))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestGoOfflineThenLiveAgain(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)

	status, err := f.svc.GoOffline(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityOffline, status.Availability)
	assert.Nil(t, status.Location)

	// offline to offline is a no-op
	again, err := f.svc.GoOffline(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, status.Version, again.Version)

	status, err = f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityAvailable, status.Availability)
}

func TestGoOfflineWithActiveBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)
	require.NoError(t, f.svc.Claim(ctx, "p1", "b1"))
	require.NoError(t, f.bookings.Create(ctx, &models.Booking{ID: "b1", PhotographerID: "p1", ClientID: "c1", Status: models.BookingPending}))

	_, err = f.svc.GoOffline(ctx, "p1")
	assert.ErrorIs(t, err, apperr.ErrHasActiveBooking)

	status, err := f.svc.GetStatus(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityPending, status.Availability)
}

func TestClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.svc.Claim(ctx, "p1", string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range results {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrPhotographerUnavailable)
	}
	assert.Equal(t, 1, won)
}

func TestClaimOfflinePhotographer(t *testing.T) {
	f := newFixture()
	err := f.svc.Claim(context.Background(), "ghost", "b1")
	assert.ErrorIs(t, err, apperr.ErrPhotographerUnavailable)

	ok, err := f.svc.IsAvailable(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseOnlyUndoesOwnClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)
	require.NoError(t, f.svc.Claim(ctx, "p1", "b1"))

	require.NoError(t, f.svc.Release(ctx, "p1", "other"))
	status, _ := f.svc.GetStatus(ctx, "p1")
	assert.Equal(t, models.AvailabilityPending, status.Availability)

	require.NoError(t, f.svc.Release(ctx, "p1", "b1"))
	status, _ = f.svc.GetStatus(ctx, "p1")
	assert.Equal(t, models.AvailabilityAvailable, status.Availability)
	assert.Empty(t, status.CurrentBookingID)
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)
	require.NoError(t, f.svc.Claim(ctx, "p1", "b1"))

	require.NoError(t, f.svc.Apply(ctx, "p1", "b1", models.AvailabilityBusy))
	require.NoError(t, f.svc.Apply(ctx, "p1", "b1", models.AvailabilityBusy))
	status, _ := f.svc.GetStatus(ctx, "p1")
	assert.Equal(t, models.AvailabilityBusy, status.Availability)
	assert.Equal(t, "b1", status.CurrentBookingID)

	require.NoError(t, f.svc.Apply(ctx, "p1", "b1", models.AvailabilityAvailable))
	require.NoError(t, f.svc.Apply(ctx, "p1", "b1", models.AvailabilityAvailable))
	status, _ = f.svc.GetStatus(ctx, "p1")
	assert.Equal(t, models.AvailabilityAvailable, status.Availability)
	assert.Empty(t, status.CurrentBookingID)
}

func TestStaleApplyDoesNotClobberNewClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.svc.GoLive(ctx, "p1", nairobi)
	require.NoError(t, err)
	require.NoError(t, f.svc.Claim(ctx, "p1", "b1"))
	require.NoError(t, f.svc.Apply(ctx, "p1", "b1", models.AvailabilityAvailable))
	require.NoError(t, f.svc.Claim(ctx, "p1", "b2"))

	// late retry for the finished booking
	require.NoError(t, f.svc.Apply(ctx, "p1", "b1", models.AvailabilityAvailable))

	status, _ := f.svc.GetStatus(ctx, "p1")
	assert.Equal(t, models.AvailabilityPending, status.Availability)
	assert.Equal(t, "b2", status.CurrentBookingID)
}
