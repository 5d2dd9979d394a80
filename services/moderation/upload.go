package moderation

import (
	"context"
	"fmt"
	"strings"

	"snapbook/apperr"
	"snapbook/models"
	"snapbook/services/events"

	"go.uber.org/zap"
)

// RegisterUpload records a new pending photo for a completed booking.
func (s *DefaultModerationService) RegisterUpload(ctx context.Context, actor models.Actor, input RegisterUploadInput) (*models.Photo, error) {
	if strings.TrimSpace(input.BookingID) == "" || strings.TrimSpace(input.FileRef) == "" {
		return nil, fmt.Errorf("registerUpload: bookingId and fileRef are required: %w", apperr.ErrInvalidInput)
	}

	booking, err := s.Bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if input.ClientID == "" {
		input.ClientID = booking.ClientID
	}
	if input.PhotographerID == "" {
		input.PhotographerID = booking.PhotographerID
	}
	if input.ClientID != booking.ClientID || input.PhotographerID != booking.PhotographerID {
		return nil, fmt.Errorf("registerUpload: parties do not match booking %s: %w", booking.ID, apperr.ErrInvalidInput)
	}

	fail := func(err error) error {
		return &apperr.TransitionError{Op: "registerUpload", EntityID: booking.ID, From: string(booking.Status), To: string(models.PhotoPending), Err: err}
	}
	if actor.Role != models.RoleAdmin && !actor.Is(models.RolePhotographer, booking.PhotographerID) {
		return nil, fail(apperr.ErrUnauthorized)
	}
	if booking.Status != models.BookingCompleted {
		return nil, fail(apperr.ErrBookingNotCompleted)
	}

	now := s.Now()
	photo := &models.Photo{
		ID:             s.NewID(),
		BookingID:      booking.ID,
		ClientID:       booking.ClientID,
		PhotographerID: booking.PhotographerID,
		Status:         models.PhotoPending,
		FileRef:        input.FileRef,
		ThumbnailRef:   input.ThumbnailRef,
		Version:        1,
		UploadedAt:     now,
		UpdatedAt:      now,
	}
	if err := s.Photos.Create(ctx, photo); err != nil {
		return nil, err
	}

	s.Logger.Info("photo uploaded",
		zap.String("photoId", photo.ID),
		zap.String("bookingId", photo.BookingID))
	s.publish(ctx, events.PhotoUploaded, photo, actor, "", nil)
	return photo, nil
}

func (s *DefaultModerationService) publish(ctx context.Context, kind events.Kind, p *models.Photo, actor models.Actor, from models.PhotoStatus, data map[string]string) {
	if s.Events == nil {
		return
	}
	e := events.New(kind)
	e.PhotoID = p.ID
	e.BookingID = p.BookingID
	e.ClientID = p.ClientID
	e.PhotographerID = p.PhotographerID
	e.ActorID = actor.ID
	e.From = string(from)
	e.To = string(p.Status)
	e.Data = data
	s.Events.Publish(ctx, e)
}
