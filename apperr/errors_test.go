package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	cases := []struct {
		err        error
		experience Experience
		code       string
		status     int
	}{
		{ErrConflict, ExperienceRefresh, "conflict", http.StatusConflict},
		{ErrInvalidTransition, ExperienceRefresh, "invalid_transition", http.StatusConflict},
		{ErrUnauthorized, ExperienceNotPermitted, "unauthorized", http.StatusForbidden},
		{ErrPhotographerUnavailable, ExperiencePrecondition, "photographer_unavailable", http.StatusUnprocessableEntity},
		{ErrHasActiveBooking, ExperiencePrecondition, "has_active_booking", http.StatusUnprocessableEntity},
		{ErrOutOfRange, ExperienceInvalidInput, "out_of_range", http.StatusBadRequest},
		{ErrNotFound, ExperienceNotFound, "not_found", http.StatusNotFound},
		{ErrUnknownOutcome, ExperienceUnknownOutcome, "unknown_outcome", http.StatusServiceUnavailable},
		{context.DeadlineExceeded, ExperienceUnknownOutcome, "unknown_outcome", http.StatusServiceUnavailable},
		{errors.New("boom"), ExperienceInternal, "internal", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("op: %w", tc.err)
		assert.Equal(t, tc.experience, ExperienceOf(wrapped), tc.err)
		assert.Equal(t, tc.code, Code(wrapped), tc.err)
		assert.Equal(t, tc.status, HTTPStatus(wrapped), tc.err)
	}
	assert.Equal(t, Experience(""), ExperienceOf(nil))
}

func TestTransitionError(t *testing.T) {
	err := &TransitionError{Op: "acceptBooking", EntityID: "b1", From: "accepted", To: "accepted", Err: ErrInvalidTransition}
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "acceptBooking b1 (accepted -> accepted): invalid transition", err.Error())

	var te *TransitionError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &te))
	assert.Equal(t, "b1", te.EntityID)

	bare := &TransitionError{Op: "claim", EntityID: "p1", Err: ErrPhotographerUnavailable}
	assert.Equal(t, "claim p1: photographer unavailable", bare.Error())
}
