package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"snapbook/apperr"
	photoRepo "snapbook/database/repository/photo"
	"snapbook/models"
	"snapbook/services/events"

	"go.uber.org/zap"
)

const maxEnhanceAttempts = 3

func strPtr(s string) *string { return &s }

func canReview(actor models.Actor, p *models.Photo) bool {
	return actor.Role == models.RoleAdmin || actor.Is(models.RolePhotographer, p.PhotographerID)
}

func photoError(op string, p *models.Photo, to models.PhotoStatus, err error) error {
	return &apperr.TransitionError{Op: op, EntityID: p.ID, From: string(p.Status), To: string(to), Err: err}
}

func (s *DefaultModerationService) ApprovePhoto(ctx context.Context, photoID string, actor models.Actor) (*models.Photo, error) {
	return s.review(ctx, "approvePhoto", photoID, actor, models.PhotoApproved, "")
}

func (s *DefaultModerationService) RejectPhoto(ctx context.Context, photoID string, actor models.Actor, reason string) (*models.Photo, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("rejectPhoto %s: reason is required: %w", photoID, apperr.ErrInvalidInput)
	}
	return s.review(ctx, "rejectPhoto", photoID, actor, models.PhotoRejected, reason)
}

// review moves a pending photo to a terminal status, keyed on the version it read.
func (s *DefaultModerationService) review(ctx context.Context, op, photoID string, actor models.Actor, to models.PhotoStatus, reason string) (*models.Photo, error) {
	current, err := s.Photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if !canReview(actor, current) {
		return nil, photoError(op, current, to, apperr.ErrUnauthorized)
	}
	if current.Status != models.PhotoPending {
		return nil, photoError(op, current, to, apperr.ErrInvalidTransition)
	}

	update := photoRepo.PhotoUpdate{
		Status:      &to,
		ReviewedBy:  strPtr(actor.ID),
		BumpVersion: true,
		UpdatedAt:   s.Now(),
	}
	if reason != "" {
		update.RejectionReason = strPtr(reason)
	}
	updated, err := s.Photos.CompareAndSet(ctx, photoID,
		photoRepo.PhotoCondition{Version: &current.Version, Statuses: []models.PhotoStatus{models.PhotoPending}},
		update)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, photoError(op, current, to, apperr.ErrConflict)
		}
		return nil, err
	}

	kind := events.PhotoApproved
	var data map[string]string
	if to == models.PhotoRejected {
		kind = events.PhotoRejected
		data = map[string]string{"reason": reason}
	}
	s.Logger.Info("photo reviewed",
		zap.String("photoId", photoID),
		zap.String("status", string(to)),
		zap.String("actorId", actor.ID))
	s.publish(ctx, kind, updated, actor, current.Status, data)
	return updated, nil
}

// ReplacePhoto re-points the photo at a new binary and sends it back to review.
func (s *DefaultModerationService) ReplacePhoto(ctx context.Context, photoID string, actor models.Actor, newFileRef, newThumbnailRef string) (*models.Photo, error) {
	current, err := s.Photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin || actor.ID == "" {
		return nil, photoError("replacePhoto", current, models.PhotoPending, apperr.ErrUnauthorized)
	}
	if strings.TrimSpace(newFileRef) == "" {
		return nil, fmt.Errorf("replacePhoto %s: fileRef is required: %w", photoID, apperr.ErrInvalidInput)
	}

	pending := models.PhotoPending
	updated, err := s.Photos.CompareAndSet(ctx, photoID,
		photoRepo.PhotoCondition{Version: &current.Version},
		photoRepo.PhotoUpdate{
			Status:          &pending,
			FileRef:         &newFileRef,
			ThumbnailRef:    &newThumbnailRef,
			RejectionReason: strPtr(""),
			ReviewedBy:      strPtr(""),
			ClearEnhance:    true,
			BumpVersion:     true,
			UpdatedAt:       s.Now(),
		})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, photoError("replacePhoto", current, pending, apperr.ErrConflict)
		}
		return nil, err
	}

	s.Logger.Info("photo replaced", zap.String("photoId", photoID), zap.String("actorId", actor.ID))
	s.publish(ctx, events.PhotoReplaced, updated, actor, current.Status, nil)
	return updated, nil
}

// EnhancePhoto attaches an enhanced derivative. It does not touch the
// moderation status, and it only fails with a conflict when the photo's
// binary was replaced underneath it.
func (s *DefaultModerationService) EnhancePhoto(ctx context.Context, photoID string, actor models.Actor, input EnhanceInput) (*models.Photo, error) {
	current, err := s.Photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if !canReview(actor, current) {
		return nil, photoError("enhancePhoto", current, current.Status, apperr.ErrUnauthorized)
	}

	enhancedRef := input.EnhancedRef
	if enhancedRef == "" {
		if s.Enhancer == nil {
			return nil, fmt.Errorf("enhancePhoto %s: enhancedRef is required: %w", photoID, apperr.ErrInvalidInput)
		}
		if enhancedRef, err = s.Enhancer.EnhancedURL(current.FileRef, input.Settings); err != nil {
			return nil, fmt.Errorf("enhancePhoto %s: %w", photoID, err)
		}
	}

	fileRef := current.FileRef
	for attempt := 1; ; attempt++ {
		enhanced := true
		settings := input.Settings
		updated, err := s.Photos.CompareAndSet(ctx, photoID,
			photoRepo.PhotoCondition{Version: &current.Version},
			photoRepo.PhotoUpdate{
				IsEnhanced:      &enhanced,
				EnhancedRef:     &enhancedRef,
				EnhanceSettings: &settings,
				UpdatedAt:       s.Now(),
			})
		if err == nil {
			s.publish(ctx, events.PhotoEnhanced, updated, actor, updated.Status, map[string]string{"enhancedRef": enhancedRef})
			return updated, nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return nil, err
		}

		// A review bumped the version: retry against the same binary.
		latest, gerr := s.Photos.GetByID(ctx, photoID)
		if gerr != nil {
			return nil, gerr
		}
		if latest.FileRef != fileRef || attempt >= maxEnhanceAttempts {
			return nil, photoError("enhancePhoto", current, current.Status, apperr.ErrConflict)
		}
		current = latest
	}
}
