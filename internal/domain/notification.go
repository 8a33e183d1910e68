package domain

import (
	"context"
	"time"
)

// NotificationKind distinguishes reminder types
type NotificationKind string

const (
	NotificationExpiration NotificationKind = "expiration"
	NotificationBirthday   NotificationKind = "birthday"
)

// Notification is a one-day reminder shown on the staff dashboard
type Notification struct {
	ID          string           `bson:"_id,omitempty" json:"id"`
	Kind        NotificationKind `bson:"kind" json:"kind"`
	Title       string           `bson:"title" json:"title"`
	Description string           `bson:"description" json:"description"`
	MemberID    string           `bson:"member" json:"member"`
	PaymentID   string           `bson:"payment,omitempty" json:"payment,omitempty"`
	IsUnread    bool             `bson:"is_unread" json:"is_unread"`
	CreatedAt   time.Time        `bson:"created_at" json:"created_at"`
}

// NotificationRepository defines persistence operations for notifications
type NotificationRepository interface {
	CreateMany(ctx context.Context, notifications []*Notification) error
	List(ctx context.Context) ([]*Notification, error)
	// ListCreatedBetween returns notifications created in [from, to)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*Notification, error)
	ListByKind(ctx context.Context, kind NotificationKind) ([]*Notification, error)
	MarkRead(ctx context.Context, id string) error

	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	DeleteByKindCreatedBefore(ctx context.Context, kind NotificationKind, before time.Time) (int64, error)
	DeleteByPaymentID(ctx context.Context, paymentID string) (int64, error)
}

// JobSummary reports the outcome of one notification job run
type JobSummary struct {
	RunID             string    `json:"run_id"`
	StartedAt         time.Time `json:"started_at"`
	ExpiringMembers   int       `json:"expiring_members"`
	ExpirationCreated int       `json:"expiration_created"`
	BirthdayCreated   int       `json:"birthday_created"`
	Cleaned           int64     `json:"cleaned"`
	CleanupError      string    `json:"cleanup_error,omitempty"`
}

// Created returns the number of notifications inserted by the run
func (s *JobSummary) Created() int {
	return s.ExpirationCreated + s.BirthdayCreated
}
