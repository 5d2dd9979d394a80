package photographerRepo

import (
	"context"
	"sync"
	"testing"
	"time"

	"snapbook/apperr"
	"snapbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCompareAndSetIsExclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStatusRepo()
	require.NoError(t, repo.Create(ctx, &models.PhotographerStatus{
		PhotographerID: "p1",
		Availability:   models.AvailabilityAvailable,
		Version:        1,
	}))
	assert.ErrorIs(t, repo.Create(ctx, &models.PhotographerStatus{PhotographerID: "p1"}), apperr.ErrConflict)

	var wg sync.WaitGroup
	wins := make(chan string, 10)
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CompareAndSet(ctx, "p1",
				StatusCondition{Availability: []models.Availability{models.AvailabilityAvailable}, BookingID: strPtr("")},
				StatusUpdate{Availability: models.AvailabilityPending, CurrentBookingID: &id, ChangedAt: time.Now()})
			if err == nil {
				wins <- id
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []string
	for id := range wins {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1)

	st, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityPending, st.Availability)
	assert.Equal(t, winners[0], st.CurrentBookingID)
	assert.EqualValues(t, 2, st.Version)
}

func TestListLiveAndLocation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStatusRepo()
	loc := models.NewGeoPoint(1, 2)
	require.NoError(t, repo.Create(ctx, &models.PhotographerStatus{PhotographerID: "p2", Availability: models.AvailabilityAvailable, Location: &loc}))
	require.NoError(t, repo.Create(ctx, &models.PhotographerStatus{PhotographerID: "p1", Availability: models.AvailabilityOffline}))

	live, err := repo.ListLive(ctx)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "p2", live[0].PhotographerID)

	// Returned copies do not alias the stored document.
	live[0].Location.Coordinates[0] = 99
	st, _ := repo.Get(ctx, "p2")
	assert.Equal(t, 2.0, st.Location.Lng())

	st, err = repo.CompareAndSet(ctx, "p2", StatusCondition{}, StatusUpdate{Availability: models.AvailabilityOffline, ClearLocation: true})
	require.NoError(t, err)
	assert.Nil(t, st.Location)

	_, err = repo.CompareAndSet(ctx, "nobody", StatusCondition{}, StatusUpdate{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
