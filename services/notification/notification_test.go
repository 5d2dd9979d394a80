package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	deviceRepo "snapbook/database/repository/device"
	"snapbook/models"
	"snapbook/services/events"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, m)
	return "projects/test/messages/1", nil
}

type fakePusher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakePusher) Push(_ context.Context, recipientID string, _ models.PushMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recipientID)
	return f.err
}

func bookingEvent(kind events.Kind) events.Event {
	e := events.New(kind)
	e.BookingID = "b1"
	e.ClientID = "c1"
	e.PhotographerID = "p1"
	e.ActorID = "c1"
	e.Data = map[string]string{"package": "Basic"}
	return e
}

func TestMessagesRouting(t *testing.T) {
	cases := map[events.Kind]string{
		events.BookingCreated:   "p1",
		events.BookingAccepted:  "c1",
		events.BookingRejected:  "c1",
		events.BookingCancelled: "p1",
		events.BookingCompleted: "c1",
		events.BookingRated:     "p1",
		events.PhotoApproved:    "c1",
		events.PhotoRejected:    "p1",
	}
	for kind, recipient := range cases {
		msgs := Messages(bookingEvent(kind))
		require.Len(t, msgs, 1, kind)
		assert.Equal(t, recipient, msgs[0].RecipientID, kind)
		assert.Equal(t, string(kind), msgs[0].Message.Data["type"])
		assert.Equal(t, "b1", msgs[0].Message.Data["bookingId"])
	}

	assert.Empty(t, Messages(bookingEvent(events.AvailabilityChanged)))
	assert.Empty(t, Messages(bookingEvent(events.PhotoUploaded)))

	created := Messages(bookingEvent(events.BookingCreated))
	assert.Contains(t, created[0].Message.Body, "Basic")

	cancelledByPhotographer := bookingEvent(events.BookingCancelled)
	cancelledByPhotographer.ActorID = "p1"
	assert.Equal(t, "c1", Messages(cancelledByPhotographer)[0].RecipientID)
}

func TestDispatchReportsFailuresHandleSwallowsThem(t *testing.T) {
	pusher := &fakePusher{err: errors.New("fcm down")}
	d := NewDispatcher(pusher, nil)

	err := d.Dispatch(context.Background(), bookingEvent(events.BookingAccepted))
	assert.Error(t, err)

	assert.NoError(t, d.Handle(context.Background(), bookingEvent(events.BookingAccepted)))
	d.Wait()
	assert.Equal(t, []string{"c1", "c1"}, pusher.calls)
}

func TestHandleSurvivesCancelledContext(t *testing.T) {
	pusher := &fakePusher{}
	d := NewDispatcher(pusher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Handle(ctx, bookingEvent(events.BookingCompleted)))
	cancel()
	d.Wait()
	assert.Equal(t, []string{"c1"}, pusher.calls)
}

func TestFCMPusher(t *testing.T) {
	ctx := context.Background()
	tokens := deviceRepo.NewMemoryTokenRepo()
	require.NoError(t, tokens.Upsert(ctx, &models.DeviceToken{OwnerID: "c1", Role: models.RoleClient, FCMToken: "tok-1"}))
	sender := &fakeSender{}
	pusher, err := NewFCMPusher(tokens, sender)
	require.NoError(t, err)

	err = pusher.Push(ctx, "c1", models.PushMessage{Title: "t", Body: "b", Data: map[string]string{"type": "x"}})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "tok-1", sender.sent[0].Token)
	assert.Equal(t, "client", sender.sent[0].Data["role"])
	assert.Equal(t, "high", sender.sent[0].Android.Priority)

	err = pusher.Push(ctx, "nobody", models.PushMessage{Title: "t"})
	assert.ErrorIs(t, err, ErrNoDeviceToken)

	sender.err = errors.New("quota")
	assert.Error(t, pusher.Push(ctx, "c1", models.PushMessage{Title: "t"}))
}
