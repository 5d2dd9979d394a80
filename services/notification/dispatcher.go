package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"snapbook/models"
	"snapbook/services/events"

	"go.uber.org/zap"
)

// Addressed is a push message bound to its recipient.
type Addressed struct {
	RecipientID string
	Role        models.Role
	Message     models.PushMessage
}

// Dispatcher turns domain events into push notifications. Delivery is best
// effort: failures are logged and never reach the caller of the transition.
type Dispatcher struct {
	Pusher  Pusher
	Logger  *zap.Logger
	Timeout time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(pusher Pusher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{Pusher: pusher, Logger: logger, Timeout: 10 * time.Second}
}

// Handle is an events.Hook. It sends in the background and returns at once.
func (d *Dispatcher) Handle(ctx context.Context, e events.Event) error {
	msgs := Messages(e)
	if len(msgs) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.deliver(ctx, e, msgs)
	}()
	return nil
}

// Dispatch sends every message for e synchronously and reports the failures.
func (d *Dispatcher) Dispatch(ctx context.Context, e events.Event) error {
	return d.deliver(ctx, e, Messages(e))
}

// Wait blocks until background deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, e events.Event, msgs []Addressed) error {
	var errs []error
	for _, m := range msgs {
		pctx, cancel := context.WithTimeout(ctx, d.Timeout)
		err := d.Pusher.Push(pctx, m.RecipientID, m.Message)
		cancel()

		logger := d.Logger.With(
			zap.String("event", string(e.Kind)),
			zap.String("eventId", e.ID),
			zap.String("recipientId", m.RecipientID))
		switch {
		case errors.Is(err, ErrNoDeviceToken):
			logger.Debug("push skipped, no device registered")
		case err != nil:
			logger.Warn("push failed", zap.Error(err))
			errs = append(errs, err)
		default:
			logger.Debug("push sent")
		}
	}
	return errors.Join(errs...)
}

// Messages builds the pushes owed for e. Events nobody is told about yield nil.
func Messages(e events.Event) []Addressed {
	data := map[string]string{"type": string(e.Kind)}
	if e.BookingID != "" {
		data["bookingId"] = e.BookingID
	}
	if e.PhotoID != "" {
		data["photoId"] = e.PhotoID
	}

	toClient := func(title, body string) []Addressed {
		return addressed(e.ClientID, models.RoleClient, title, body, data)
	}
	toPhotographer := func(title, body string) []Addressed {
		return addressed(e.PhotographerID, models.RolePhotographer, title, body, data)
	}

	switch e.Kind {
	case events.BookingCreated:
		return toPhotographer("New booking request 📸",
			fmt.Sprintf("A client requested the %s package. Accept or reject it from your dashboard.", packageName(e)))
	case events.BookingAccepted:
		return toClient("Booking accepted 🎉", "Your photographer accepted the booking and is on the way.")
	case events.BookingRejected:
		return toClient("Booking declined", "Your photographer could not take this booking. Try another photographer nearby.")
	case events.BookingCancelled:
		if e.ActorID == e.PhotographerID {
			return toClient("Booking cancelled", "The photographer cancelled this booking.")
		}
		return toPhotographer("Booking cancelled", "The client cancelled this booking. You are available again.")
	case events.BookingCompleted:
		return toClient("Shoot complete ✅", "Your session is complete. Your photos will appear once they are reviewed.")
	case events.BookingRated:
		return toPhotographer("New rating ⭐", fmt.Sprintf("A client rated your session %s/5.", e.Data["rating"]))
	case events.PhotoApproved:
		return toClient("New photo ready", "A photo from your session was approved and is ready to download.")
	case events.PhotoRejected:
		return toPhotographer("Photo rejected", fmt.Sprintf("A photo was rejected: %s", e.Data["reason"]))
	case events.PhotoReplaced:
		return toPhotographer("Photo replaced", "An admin replaced one of your photos. It is back in review.")
	case events.PhotoEnhanced:
		return toClient("Photo enhanced ✨", "An enhanced version of one of your photos is available.")
	}
	return nil
}

func addressed(recipientID string, role models.Role, title, body string, data map[string]string) []Addressed {
	if recipientID == "" {
		return nil
	}
	d := make(map[string]string, len(data)+1)
	for k, v := range data {
		d[k] = v
	}
	d["role"] = string(role)
	return []Addressed{{
		RecipientID: recipientID,
		Role:        role,
		Message:     models.PushMessage{Title: title, Body: body, Data: d},
	}}
}

func packageName(e events.Event) string {
	if p := e.Data["package"]; p != "" {
		return p
	}
	return "requested"
}
