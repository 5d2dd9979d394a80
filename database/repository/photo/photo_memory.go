package photoRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"snapbook/apperr"
	"snapbook/models"
)

// MemoryPhotoRepo is an in-process PhotoRepository guarded by one mutex.
type MemoryPhotoRepo struct {
	mu     sync.Mutex
	photos map[string]models.Photo
}

func NewMemoryPhotoRepo() *MemoryPhotoRepo {
	return &MemoryPhotoRepo{photos: make(map[string]models.Photo)}
}

func (r *MemoryPhotoRepo) Create(_ context.Context, photo *models.Photo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.photos[photo.ID]; ok {
		return fmt.Errorf("photo %s: %w", photo.ID, apperr.ErrConflict)
	}
	r.photos[photo.ID] = clonePhoto(*photo)
	return nil
}

func (r *MemoryPhotoRepo) GetByID(_ context.Context, id string) (*models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.photos[id]
	if !ok {
		return nil, fmt.Errorf("photo %s: %w", id, apperr.ErrNotFound)
	}
	out := clonePhoto(p)
	return &out, nil
}

func (r *MemoryPhotoRepo) CompareAndSet(_ context.Context, id string, cond PhotoCondition, update PhotoUpdate) (*models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.photos[id]
	if !ok {
		return nil, fmt.Errorf("photo %s: %w", id, apperr.ErrNotFound)
	}
	if !cond.Matches(p) {
		return nil, fmt.Errorf("photo %s: %w", id, apperr.ErrConflict)
	}
	p = update.Apply(p)
	r.photos[id] = p
	out := clonePhoto(p)
	return &out, nil
}

func (r *MemoryPhotoRepo) List(_ context.Context, filter models.PhotoFilter) ([]models.Photo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Photo{}
	for _, p := range r.photos {
		if filter.BookingID != "" && p.BookingID != filter.BookingID {
			continue
		}
		if filter.ClientID != "" && p.ClientID != filter.ClientID {
			continue
		}
		if filter.PhotographerID != "" && p.PhotographerID != filter.PhotographerID {
			continue
		}
		if len(filter.Statuses) > 0 && !(PhotoCondition{Statuses: filter.Statuses}).Matches(p) {
			continue
		}
		out = append(out, clonePhoto(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func clonePhoto(p models.Photo) models.Photo {
	if p.EnhanceSettings != nil {
		s := *p.EnhanceSettings
		p.EnhanceSettings = &s
	}
	return p
}
