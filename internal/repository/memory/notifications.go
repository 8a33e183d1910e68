package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
)

// NotificationRepository stores notifications in memory
type NotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]domain.Notification
	// FailCreate and FailDelete simulate store outages in tests
	FailCreate error
	FailDelete error
}

// NewNotificationRepository constructs an empty notification store
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{notifications: make(map[string]domain.Notification)}
}

func (r *NotificationRepository) CreateMany(ctx context.Context, notifications []*domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailCreate != nil {
		return r.FailCreate
	}
	for _, n := range notifications {
		if n.ID == "" {
			n.ID = newID()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		r.notifications[n.ID] = *n
	}
	return nil
}

func (r *NotificationRepository) List(ctx context.Context) ([]*domain.Notification, error) {
	return r.filter(func(domain.Notification) bool { return true }), nil
}

func (r *NotificationRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*domain.Notification, error) {
	return r.filter(func(n domain.Notification) bool {
		return !n.CreatedAt.Before(from) && n.CreatedAt.Before(to)
	}), nil
}

func (r *NotificationRepository) ListByKind(ctx context.Context, kind domain.NotificationKind) ([]*domain.Notification, error) {
	return r.filter(func(n domain.Notification) bool { return n.Kind == kind }), nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.IsUnread = false
	r.notifications[id] = n
	return nil
}

func (r *NotificationRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return r.deleteWhere(func(n domain.Notification) bool { return set[n.ID] })
}

func (r *NotificationRepository) DeleteByKindCreatedBefore(ctx context.Context, kind domain.NotificationKind, before time.Time) (int64, error) {
	return r.deleteWhere(func(n domain.Notification) bool {
		return n.Kind == kind && n.CreatedAt.Before(before)
	})
}

func (r *NotificationRepository) DeleteByPaymentID(ctx context.Context, paymentID string) (int64, error) {
	return r.deleteWhere(func(n domain.Notification) bool { return n.PaymentID == paymentID })
}

func (r *NotificationRepository) deleteWhere(match func(domain.Notification) bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailDelete != nil {
		return 0, r.FailDelete
	}
	var deleted int64
	for id, n := range r.notifications {
		if match(n) {
			delete(r.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *NotificationRepository) filter(keep func(domain.Notification) bool) []*domain.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Notification{}
	for _, n := range r.notifications {
		if keep(n) {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
