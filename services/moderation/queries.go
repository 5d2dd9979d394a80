package moderation

import (
	"context"
	"fmt"

	"snapbook/apperr"
	"snapbook/models"
)

// canView: admins and the booking's photographer see everything, the client
// only sees approved photos.
func canView(actor models.Actor, p *models.Photo) bool {
	switch {
	case actor.Role == models.RoleAdmin:
		return true
	case actor.Is(models.RolePhotographer, p.PhotographerID):
		return true
	case actor.Is(models.RoleClient, p.ClientID):
		return p.Status == models.PhotoApproved
	}
	return false
}

func (s *DefaultModerationService) GetPhoto(ctx context.Context, photoID string, actor models.Actor) (*models.Photo, error) {
	p, err := s.Photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, p) {
		return nil, fmt.Errorf("photo %s: %w", photoID, apperr.ErrUnauthorized)
	}
	return p, nil
}

func (s *DefaultModerationService) ListPhotos(ctx context.Context, actor models.Actor, filter models.PhotoFilter) ([]models.Photo, error) {
	switch actor.Role {
	case models.RoleClient:
		filter.ClientID = actor.ID
		filter.Statuses = []models.PhotoStatus{models.PhotoApproved}
	case models.RolePhotographer:
		filter.PhotographerID = actor.ID
	case models.RoleAdmin:
	default:
		return nil, fmt.Errorf("listPhotos: unknown role %q: %w", actor.Role, apperr.ErrUnauthorized)
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 500
	}
	return s.Photos.List(ctx, filter)
}
