package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBusFansOutInOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var seen []string

	bus.OnTransition("first", func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+string(e.Kind))
		return nil
	})
	unsubscribe := bus.OnTransition("second", func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+string(e.Kind))
		return nil
	})

	bus.Publish(context.Background(), New(BookingCreated))
	unsubscribe()
	bus.Publish(context.Background(), New(BookingAccepted))

	assert.Equal(t, []string{
		"first:booking.created",
		"second:booking.created",
		"first:booking.accepted",
	}, seen)
}

func TestBusIsolatesFailingHooks(t *testing.T) {
	bus := NewBus(nil)
	delivered := 0

	bus.OnTransition("error", func(context.Context, Event) error { return errors.New("broker down") })
	bus.OnTransition("panic", func(context.Context, Event) error { panic("bad hook") })
	bus.OnTransition("ok", func(context.Context, Event) error {
		delivered++
		return nil
	})

	assert.NotPanics(t, func() { bus.Publish(context.Background(), New(PhotoApproved)) })
	assert.Equal(t, 1, delivered)
}

func TestNewStampsEvent(t *testing.T) {
	a, b := New(BookingRated), New(BookingRated)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.OccurredAt.IsZero())
}
