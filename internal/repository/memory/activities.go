package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
)

// ActivityRepository stores activities in memory
type ActivityRepository struct {
	mu         sync.RWMutex
	activities map[string]domain.Activity
}

// NewActivityRepository constructs an empty activity store
func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{activities: make(map[string]domain.Activity)}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.activities {
		if existing.Name == activity.Name {
			return domain.ErrDuplicate
		}
	}

	now := time.Now()
	if activity.ID == "" {
		activity.ID = newID()
	}
	activity.CreatedAt = now
	activity.UpdatedAt = now
	r.activities[activity.ID] = *activity
	return nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *ActivityRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Activity{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if a, ok := r.activities[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r *ActivityRepository) ListAvailable(ctx context.Context) ([]*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Activity{}
	for _, a := range r.activities {
		if a.Available {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ActivityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.activities[activity.ID]
	if !ok {
		return domain.ErrNotFound
	}
	activity.CreatedAt = existing.CreatedAt
	activity.UpdatedAt = time.Now()
	r.activities[activity.ID] = *activity
	return nil
}

func (r *ActivityRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.activities)), nil
}
