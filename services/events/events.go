package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind names a domain event. The value doubles as the broker routing key.
type Kind string

const (
	BookingCreated   Kind = "booking.created"
	BookingAccepted  Kind = "booking.accepted"
	BookingRejected  Kind = "booking.rejected"
	BookingCancelled Kind = "booking.cancelled"
	BookingCompleted Kind = "booking.completed"
	BookingRated     Kind = "booking.rated"

	AvailabilityChanged Kind = "photographer.availability_changed"

	PhotoUploaded Kind = "photo.uploaded"
	PhotoApproved Kind = "photo.approved"
	PhotoRejected Kind = "photo.rejected"
	PhotoReplaced Kind = "photo.replaced"
	PhotoEnhanced Kind = "photo.enhanced"
)

// Event is emitted after every successful state change.
type Event struct {
	ID             string            `json:"id"`
	Kind           Kind              `json:"kind"`
	BookingID      string            `json:"bookingId,omitempty"`
	PhotoID        string            `json:"photoId,omitempty"`
	ClientID       string            `json:"clientId,omitempty"`
	PhotographerID string            `json:"photographerId,omitempty"`
	ActorID        string            `json:"actorId,omitempty"`
	From           string            `json:"from,omitempty"`
	To             string            `json:"to,omitempty"`
	OccurredAt     time.Time         `json:"occurredAt"`
	Data           map[string]string `json:"data,omitempty"`
}

// New stamps an event with an id and time.
func New(kind Kind) Event {
	return Event{ID: uuid.NewString(), Kind: kind, OccurredAt: time.Now().UTC()}
}

// Publisher is what the state machines emit into.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Hook observes events. An error is logged and never reaches the publisher.
type Hook func(ctx context.Context, e Event) error

type namedHook struct {
	id   uint64
	name string
	fn   Hook
}

// Bus fans every published event out to the registered hooks, in order.
type Bus struct {
	mu     sync.RWMutex
	hooks  []namedHook
	nextID uint64
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger}
}

// OnTransition registers fn and returns a function that removes it.
func (b *Bus) OnTransition(name string, fn Hook) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.hooks = append(b.hooks, namedHook{id: id, name: name, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, h := range b.hooks {
			if h.id == id {
				b.hooks = append(b.hooks[:i:i], b.hooks[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	hooks := make([]namedHook, len(b.hooks))
	copy(hooks, b.hooks)
	b.mu.RUnlock()

	for _, h := range hooks {
		if err := b.call(ctx, h, e); err != nil {
			b.logger.Warn("event hook failed",
				zap.String("hook", h.name),
				zap.String("kind", string(e.Kind)),
				zap.String("eventId", e.ID),
				zap.Error(err))
		}
	}
}

func (b *Bus) call(ctx context.Context, h namedHook, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return h.fn(ctx, e)
}
