package repository

import (
	"context"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
)

const activityCacheTTL = 10 * time.Minute

// CachedActivityRepository wraps an ActivityRepository with read-through caching.
// Activities change rarely and are read on every member write and dashboard build.
type CachedActivityRepository struct {
	next  domain.ActivityRepository
	cache domain.CacheRepository
}

// NewCachedActivityRepository creates a new cached activity repository
func NewCachedActivityRepository(next domain.ActivityRepository, cache domain.CacheRepository) *CachedActivityRepository {
	return &CachedActivityRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	if err := r.next.Create(ctx, activity); err != nil {
		return err
	}
	_ = r.cache.Delete(ctx, activitiesAvailable)
	return nil
}

// GetByID retrieves an activity with caching
func (r *CachedActivityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	key := activityByIDKeyPrefix + id

	var activity domain.Activity
	if err := r.cache.Get(ctx, key, &activity); err == nil {
		return &activity, nil
	}

	result, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Store in cache (ignore cache errors)
	_ = r.cache.Set(ctx, key, result, activityCacheTTL)
	return result, nil
}

// GetByIDs resolves each id through the per-activity cache, batching the misses
func (r *CachedActivityRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Activity, error) {
	found := make(map[string]*domain.Activity, len(ids))
	var missing []string
	for _, id := range ids {
		var activity domain.Activity
		if err := r.cache.Get(ctx, activityByIDKeyPrefix+id, &activity); err == nil {
			found[id] = &activity
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		fetched, err := r.next.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, activity := range fetched {
			found[activity.ID] = activity
			_ = r.cache.Set(ctx, activityByIDKeyPrefix+activity.ID, activity, activityCacheTTL)
		}
	}

	activities := make([]*domain.Activity, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, id := range ids {
		if activity, ok := found[id]; ok && !seen[id] {
			seen[id] = true
			activities = append(activities, activity)
		}
	}
	return activities, nil
}

// ListAvailable retrieves the available activities with caching
func (r *CachedActivityRepository) ListAvailable(ctx context.Context) ([]*domain.Activity, error) {
	var activities []*domain.Activity
	if err := r.cache.Get(ctx, activitiesAvailable, &activities); err == nil {
		return activities, nil
	}

	result, err := r.next.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, activitiesAvailable, result, activityCacheTTL)
	return result, nil
}

// Update updates an activity and invalidates caches
func (r *CachedActivityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	if err := r.next.Update(ctx, activity); err != nil {
		return err
	}
	_ = r.cache.Delete(ctx, activityByIDKeyPrefix+activity.ID, activitiesAvailable)
	return nil
}

func (r *CachedActivityRepository) Count(ctx context.Context) (int64, error) {
	return r.next.Count(ctx)
}
