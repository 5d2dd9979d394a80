// Package apperr holds the error taxonomy shared by the booking, availability
// and moderation services. Callers branch with errors.Is on the sentinels.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidTransition       = errors.New("invalid transition")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrConflict                = errors.New("conflict")
	ErrPhotographerUnavailable = errors.New("photographer unavailable")
	ErrAlreadyLive             = errors.New("photographer already live")
	ErrHasActiveBooking        = errors.New("photographer has an active booking")
	ErrBookingNotCompleted     = errors.New("booking not completed")
	ErrNotFound                = errors.New("not found")
	ErrOutOfRange              = errors.New("value out of range")
	ErrInvalidInput            = errors.New("invalid input")

	// ErrUnknownOutcome marks a transport failure or timeout against a port.
	// The write may or may not have been applied; re-fetch before retrying.
	ErrUnknownOutcome = errors.New("unknown outcome")
)

// TransitionError describes a rejected or failed state change.
type TransitionError struct {
	Op       string
	EntityID string
	From     string
	To       string
	Err      error
}

func (e *TransitionError) Error() string {
	if e.From != "" || e.To != "" {
		return fmt.Sprintf("%s %s (%s -> %s): %v", e.Op, e.EntityID, e.From, e.To, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.EntityID, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

// Experience is what the caller should render for a failed operation.
type Experience string

const (
	ExperienceRefresh        Experience = "refresh"
	ExperienceNotPermitted   Experience = "not_permitted"
	ExperiencePrecondition   Experience = "precondition"
	ExperienceInvalidInput   Experience = "invalid_input"
	ExperienceNotFound       Experience = "not_found"
	ExperienceUnknownOutcome Experience = "unknown_outcome"
	ExperienceInternal       Experience = "internal"
)

// ExperienceOf classifies err for the UI layer.
func ExperienceOf(err error) Experience {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownOutcome), errors.Is(err, context.DeadlineExceeded):
		return ExperienceUnknownOutcome
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidTransition):
		return ExperienceRefresh
	case errors.Is(err, ErrUnauthorized):
		return ExperienceNotPermitted
	case errors.Is(err, ErrPhotographerUnavailable),
		errors.Is(err, ErrAlreadyLive),
		errors.Is(err, ErrHasActiveBooking),
		errors.Is(err, ErrBookingNotCompleted):
		return ExperiencePrecondition
	case errors.Is(err, ErrOutOfRange), errors.Is(err, ErrInvalidInput):
		return ExperienceInvalidInput
	case errors.Is(err, ErrNotFound):
		return ExperienceNotFound
	default:
		return ExperienceInternal
	}
}

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	for _, s := range []struct {
		err  error
		code string
	}{
		{ErrUnknownOutcome, "unknown_outcome"},
		{ErrConflict, "conflict"},
		{ErrInvalidTransition, "invalid_transition"},
		{ErrUnauthorized, "unauthorized"},
		{ErrPhotographerUnavailable, "photographer_unavailable"},
		{ErrAlreadyLive, "already_live"},
		{ErrHasActiveBooking, "has_active_booking"},
		{ErrBookingNotCompleted, "booking_not_completed"},
		{ErrOutOfRange, "out_of_range"},
		{ErrInvalidInput, "invalid_input"},
		{ErrNotFound, "not_found"},
	} {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "unknown_outcome"
	}
	return "internal"
}

// HTTPStatus maps err onto a response status.
func HTTPStatus(err error) int {
	switch ExperienceOf(err) {
	case ExperienceRefresh:
		return http.StatusConflict
	case ExperienceNotPermitted:
		return http.StatusForbidden
	case ExperiencePrecondition:
		return http.StatusUnprocessableEntity
	case ExperienceInvalidInput:
		return http.StatusBadRequest
	case ExperienceNotFound:
		return http.StatusNotFound
	case ExperienceUnknownOutcome:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
