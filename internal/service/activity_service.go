package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mansoorceksport/gymledger/internal/domain"
)

// ActivityInput is the create/update payload for an activity.
// Nil fields are left untouched on update.
type ActivityInput struct {
	Name      *string          `json:"name"`
	Available *bool            `json:"available"`
	Price     *int64           `json:"price"`
	Category  *domain.Category `json:"category"`
}

// ActivityService manages the activity catalogue
type ActivityService struct {
	activities domain.ActivityRepository
	cache      domain.CacheRepository
}

// NewActivityService creates a new ActivityService. cache may be nil.
func NewActivityService(activities domain.ActivityRepository, cache domain.CacheRepository) *ActivityService {
	return &ActivityService{activities: activities, cache: cache}
}

// Create validates and stores a new activity. Activities are available unless stated otherwise.
func (s *ActivityService) Create(ctx context.Context, in ActivityInput) (*domain.Activity, error) {
	activity := &domain.Activity{Available: true}
	if in.Name == nil {
		return nil, domain.NewValidationError("name", "is required")
	}
	if in.Category == nil {
		return nil, domain.NewValidationError("category", "is required")
	}
	if err := applyActivityInput(activity, in); err != nil {
		return nil, err
	}

	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}
	invalidateDashboard(ctx, s.cache)
	return activity, nil
}

// Get returns one activity
func (s *ActivityService) Get(ctx context.Context, id string) (*domain.Activity, error) {
	return s.activities.GetByID(ctx, id)
}

// ListAvailable returns the activities members can currently sign up for
func (s *ActivityService) ListAvailable(ctx context.Context) ([]*domain.Activity, error) {
	return s.activities.ListAvailable(ctx)
}

// Update applies a partial update
func (s *ActivityService) Update(ctx context.Context, id string, in ActivityInput) (*domain.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyActivityInput(activity, in); err != nil {
		return nil, err
	}
	if err := s.activities.Update(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to update activity %s: %w", id, err)
	}
	invalidateDashboard(ctx, s.cache)
	return activity, nil
}

func applyActivityInput(activity *domain.Activity, in ActivityInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.NewValidationError("name", "must not be empty")
		}
		activity.Name = name
	}
	if in.Available != nil {
		activity.Available = *in.Available
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return domain.NewValidationError("price", "must not be negative")
		}
		activity.Price = *in.Price
	}
	if in.Category != nil {
		category := domain.Category(strings.ToLower(strings.TrimSpace(string(*in.Category))))
		if category == "" {
			return domain.NewValidationError("category", "must not be empty")
		}
		activity.Category = category
	}
	return nil
}
