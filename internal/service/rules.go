package service

import (
	"context"
	"log"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
)

// DashboardCacheKey is the Redis key of the cached dashboard report
const DashboardCacheKey = "dashboard:report"

// Rules carries the business constants and clock shared by the services
type Rules struct {
	Location  *time.Location
	Pricing   domain.PlanPricing
	LookAhead time.Duration
	// Now is the clock; tests pin it
	Now func() time.Time
}

func (r Rules) now() time.Time {
	if r.Now == nil {
		return time.Now().In(r.loc())
	}
	return r.Now().In(r.loc())
}

func (r Rules) loc() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

func (r Rules) lookAhead() time.Duration {
	if r.LookAhead <= 0 {
		return 7 * 24 * time.Hour
	}
	return r.LookAhead
}

// invalidateDashboard drops the cached report after a write that changes it.
// Cache errors only cost freshness, so they are logged and swallowed.
func invalidateDashboard(ctx context.Context, cache domain.CacheRepository) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, DashboardCacheKey); err != nil {
		log.Printf("[Dashboard] Failed to invalidate cache: %v", err)
	}
}
