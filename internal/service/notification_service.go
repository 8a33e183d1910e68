package service

import (
	"context"

	"github.com/mansoorceksport/gymledger/internal/domain"
)

// NotificationService exposes the notification feed to staff
type NotificationService struct {
	notifications domain.NotificationRepository
	cache         domain.CacheRepository
}

// NewNotificationService creates a new NotificationService. cache may be nil.
func NewNotificationService(notifications domain.NotificationRepository, cache domain.CacheRepository) *NotificationService {
	return &NotificationService{notifications: notifications, cache: cache}
}

// List returns all notifications, newest first
func (s *NotificationService) List(ctx context.Context) ([]*domain.Notification, error) {
	return s.notifications.List(ctx)
}

// MarkRead flips a notification's unread flag
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return err
	}
	invalidateDashboard(ctx, s.cache)
	return nil
}
