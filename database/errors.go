package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snapbook/apperr"

	"go.mongodb.org/mongo-driver/mongo"
)

// OpTimeout bounds every single-document round trip.
const OpTimeout = 5 * time.Second

// NewContext derives a per-operation timeout from the caller's context.
func NewContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, d)
}

// Classify maps driver errors onto the shared taxonomy. Timeouts and network
// failures become ErrUnknownOutcome: the server may have applied the write.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrConflict, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrUnknownOutcome, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
