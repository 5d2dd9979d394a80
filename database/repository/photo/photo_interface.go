package photoRepo

import (
	"context"
	"time"

	"snapbook/models"
)

// PhotoCondition is the expected state a CompareAndSet is keyed on.
type PhotoCondition struct {
	Version  *int64
	Statuses []models.PhotoStatus
}

// PhotoUpdate lists the fields a moderation step may write. Nil fields are
// left untouched; BumpVersion is set by steps that other steps must not
// interleave with (review, replace).
type PhotoUpdate struct {
	Status          *models.PhotoStatus
	FileRef         *string
	ThumbnailRef    *string
	RejectionReason *string // "" clears
	ReviewedBy      *string // "" clears
	IsEnhanced      *bool
	EnhancedRef     *string // "" clears
	EnhanceSettings *models.EnhanceSettings
	ClearEnhance    bool
	BumpVersion     bool
	UpdatedAt       time.Time
}

// PhotoRepository defines methods for photo data access.
type PhotoRepository interface {
	// Create inserts a new photo record.
	Create(ctx context.Context, photo *models.Photo) error
	// GetByID retrieves a photo by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Photo, error)
	// CompareAndSet applies update while cond holds, else apperr.ErrConflict.
	CompareAndSet(ctx context.Context, id string, cond PhotoCondition, update PhotoUpdate) (*models.Photo, error)
	// List returns photos matching filter, newest first.
	List(ctx context.Context, filter models.PhotoFilter) ([]models.Photo, error)
}

// Matches reports whether p satisfies cond.
func (cond PhotoCondition) Matches(p models.Photo) bool {
	if cond.Version != nil && *cond.Version != p.Version {
		return false
	}
	if len(cond.Statuses) == 0 {
		return true
	}
	for _, s := range cond.Statuses {
		if s == p.Status {
			return true
		}
	}
	return false
}

// Apply returns p with update written over it.
func (update PhotoUpdate) Apply(p models.Photo) models.Photo {
	if update.Status != nil {
		p.Status = *update.Status
	}
	if update.FileRef != nil {
		p.FileRef = *update.FileRef
	}
	if update.ThumbnailRef != nil {
		p.ThumbnailRef = *update.ThumbnailRef
	}
	if update.RejectionReason != nil {
		p.RejectionReason = *update.RejectionReason
	}
	if update.ReviewedBy != nil {
		p.ReviewedBy = *update.ReviewedBy
	}
	if update.ClearEnhance {
		p.IsEnhanced = false
		p.EnhancedRef = ""
		p.EnhanceSettings = nil
	}
	if update.IsEnhanced != nil {
		p.IsEnhanced = *update.IsEnhanced
	}
	if update.EnhancedRef != nil {
		p.EnhancedRef = *update.EnhancedRef
	}
	if update.EnhanceSettings != nil {
		s := *update.EnhanceSettings
		p.EnhanceSettings = &s
	}
	if update.BumpVersion {
		p.Version++
	}
	p.UpdatedAt = update.UpdatedAt
	return p
}
