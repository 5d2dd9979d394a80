package photographerRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"snapbook/apperr"
	"snapbook/models"
)

// MemoryStatusRepo is an in-process StatusRepository guarded by one mutex.
type MemoryStatusRepo struct {
	mu       sync.Mutex
	statuses map[string]models.PhotographerStatus
}

func NewMemoryStatusRepo() *MemoryStatusRepo {
	return &MemoryStatusRepo{statuses: make(map[string]models.PhotographerStatus)}
}

func (r *MemoryStatusRepo) Get(_ context.Context, photographerID string) (*models.PhotographerStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.statuses[photographerID]
	if !ok {
		return nil, fmt.Errorf("photographer %s: %w", photographerID, apperr.ErrNotFound)
	}
	out := cloneStatus(s)
	return &out, nil
}

func (r *MemoryStatusRepo) Create(_ context.Context, status *models.PhotographerStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.statuses[status.PhotographerID]; ok {
		return fmt.Errorf("photographer %s: %w", status.PhotographerID, apperr.ErrConflict)
	}
	r.statuses[status.PhotographerID] = cloneStatus(*status)
	return nil
}

func (r *MemoryStatusRepo) CompareAndSet(_ context.Context, photographerID string, cond StatusCondition, update StatusUpdate) (*models.PhotographerStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.statuses[photographerID]
	if !ok {
		return nil, fmt.Errorf("photographer %s: %w", photographerID, apperr.ErrNotFound)
	}
	if !cond.Matches(s) {
		return nil, fmt.Errorf("photographer %s: %w", photographerID, apperr.ErrConflict)
	}
	s = update.Apply(s)
	r.statuses[photographerID] = s
	out := cloneStatus(s)
	return &out, nil
}

func (r *MemoryStatusRepo) ListLive(_ context.Context) ([]models.PhotographerStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.PhotographerStatus{}
	for _, s := range r.statuses {
		if s.Availability.IsLive() {
			out = append(out, cloneStatus(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhotographerID < out[j].PhotographerID })
	return out, nil
}

func cloneStatus(s models.PhotographerStatus) models.PhotographerStatus {
	if s.Location != nil {
		loc := *s.Location
		loc.Coordinates = append([]float64(nil), loc.Coordinates...)
		s.Location = &loc
	}
	return s
}
