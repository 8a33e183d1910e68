package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/mansoorceksport/gymledger/internal/telemetry"
	"github.com/oklog/ulid/v2"
)

// birthdayMarkers identify birthday notifications by title, including ones
// written before notifications carried a kind
var birthdayMarkers = []string{"birthday", "cumpleaños"}

// NotificationJob generates the daily expiration and birthday reminders.
// Two runs racing on the same day can both pass the per-day check and insert
// duplicates; the scheduler never overlaps runs, manual triggers can.
type NotificationJob struct {
	members       domain.MemberRepository
	notifications domain.NotificationRepository
	cache         domain.CacheRepository
	metrics       *telemetry.Metrics
	rules         Rules
}

// NewNotificationJob creates a new NotificationJob. cache and metrics may be nil.
func NewNotificationJob(
	members domain.MemberRepository,
	notifications domain.NotificationRepository,
	cache domain.CacheRepository,
	metrics *telemetry.Metrics,
	rules Rules,
) *NotificationJob {
	return &NotificationJob{
		members:       members,
		notifications: notifications,
		cache:         cache,
		metrics:       metrics,
		rules:         rules,
	}
}

// Run executes one pass: expiration reminders, birthday greetings, then cleanup.
// Generation errors abort the run and are returned. Cleanup errors are recorded
// in the summary only.
func (j *NotificationJob) Run(ctx context.Context) (*domain.JobSummary, error) {
	started := time.Now()
	now := j.rules.now()
	summary := &domain.JobSummary{
		RunID:     ulid.Make().String(),
		StartedAt: now,
	}

	if err := j.generate(ctx, now, summary); err != nil {
		log.Printf("[NotificationJob] Run %s failed: %v", summary.RunID, err)
		j.metrics.JobRun(ctx, "failed", time.Since(started).Seconds())
		return summary, err
	}

	cleaned, err := j.cleanup(ctx, now)
	summary.Cleaned = cleaned
	if err != nil {
		summary.CleanupError = err.Error()
		log.Printf("[NotificationJob] Run %s cleanup failed: %v", summary.RunID, err)
	}

	if summary.Created() > 0 || summary.Cleaned > 0 {
		invalidateDashboard(ctx, j.cache)
	}

	j.metrics.JobRun(ctx, "success", time.Since(started).Seconds())
	log.Printf("[NotificationJob] Run %s: %d expiring, %d expiration and %d birthday notifications created, %d cleaned",
		summary.RunID, summary.ExpiringMembers, summary.ExpirationCreated, summary.BirthdayCreated, summary.Cleaned)
	return summary, nil
}

func (j *NotificationJob) generate(ctx context.Context, now time.Time, summary *domain.JobSummary) error {
	loc := j.rules.loc()
	dayStart, nextDay := domain.DayBounds(now, loc)

	expiring, err := j.members.GetExpiringBetween(ctx, now, now.Add(j.rules.lookAhead()))
	if err != nil {
		return fmt.Errorf("failed to load expiring members: %w", err)
	}
	summary.ExpiringMembers = len(expiring)

	today, err := j.notifications.ListCreatedBetween(ctx, dayStart, nextDay)
	if err != nil {
		return fmt.Errorf("failed to load today's notifications: %w", err)
	}
	notifiedToday := make(map[string]bool, len(today))
	for _, n := range today {
		notifiedToday[n.MemberID] = true
	}

	var reminders []*domain.Notification
	for _, m := range expiring {
		if notifiedToday[m.ID] {
			continue
		}
		notifiedToday[m.ID] = true
		reminders = append(reminders, expirationNotification(m, now, loc))
	}
	if err := j.notifications.CreateMany(ctx, reminders); err != nil {
		return fmt.Errorf("failed to insert expiration notifications: %w", err)
	}
	summary.ExpirationCreated = len(reminders)
	j.metrics.NotificationsCreated(ctx, string(domain.NotificationExpiration), len(reminders))

	members, err := j.members.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load members: %w", err)
	}

	greetedToday := make(map[string]bool)
	for _, n := range today {
		if isBirthdayNotification(n) {
			greetedToday[n.MemberID] = true
		}
	}

	var greetings []*domain.Notification
	for _, m := range members {
		if greetedToday[m.ID] || !domain.IsBirthday(m.BirthDate, now, loc) {
			continue
		}
		greetedToday[m.ID] = true
		greetings = append(greetings, birthdayNotification(m, now))
	}
	if err := j.notifications.CreateMany(ctx, greetings); err != nil {
		return fmt.Errorf("failed to insert birthday notifications: %w", err)
	}
	summary.BirthdayCreated = len(greetings)
	j.metrics.NotificationsCreated(ctx, string(domain.NotificationBirthday), len(greetings))

	return nil
}

// cleanup removes reminders that no longer describe reality: the member is gone,
// renewed after the reminder, no longer expiring soon, or the reminder is from a
// previous day and either the plan lapsed or today's reminder replaced it.
// Birthday greetings live for one day.
func (j *NotificationJob) cleanup(ctx context.Context, now time.Time) (int64, error) {
	dayStart, _ := domain.DayBounds(now, j.rules.loc())
	horizon := now.Add(j.rules.lookAhead())

	var errs []error
	var cleaned int64

	reminders, err := j.notifications.ListByKind(ctx, domain.NotificationExpiration)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to load expiration notifications: %w", err))
	} else {
		stale, err := j.staleReminders(ctx, reminders, dayStart, horizon)
		if err != nil {
			errs = append(errs, err)
		} else if len(stale) > 0 {
			n, err := j.notifications.DeleteByIDs(ctx, stale)
			cleaned += n
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	n, err := j.notifications.DeleteByKindCreatedBefore(ctx, domain.NotificationBirthday, dayStart)
	cleaned += n
	if err != nil {
		errs = append(errs, err)
	}

	return cleaned, errors.Join(errs...)
}

func (j *NotificationJob) staleReminders(ctx context.Context, reminders []*domain.Notification, dayStart, horizon time.Time) ([]string, error) {
	if len(reminders) == 0 {
		return nil, nil
	}

	var memberIDs []string
	remindedToday := make(map[string]bool)
	for _, n := range reminders {
		memberIDs = append(memberIDs, n.MemberID)
		if !n.CreatedAt.Before(dayStart) {
			remindedToday[n.MemberID] = true
		}
	}

	members, err := j.members.GetByIDs(ctx, uniqueIDs(memberIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load notified members: %w", err)
	}
	byID := make(map[string]*domain.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	var stale []string
	for _, n := range reminders {
		m, ok := byID[n.MemberID]
		fromPreviousDay := n.CreatedAt.Before(dayStart)

		switch {
		case !ok:
			stale = append(stale, n.ID)
		case m.Plan.LastRenewalDate.After(n.CreatedAt):
			stale = append(stale, n.ID)
		case m.Plan.ExpirationDate.After(horizon):
			stale = append(stale, n.ID)
		case fromPreviousDay && m.Plan.ExpirationDate.Before(dayStart):
			stale = append(stale, n.ID)
		case fromPreviousDay && remindedToday[n.MemberID]:
			stale = append(stale, n.ID)
		}
	}
	return stale, nil
}

func expirationNotification(m *domain.Member, now time.Time, loc *time.Location) *domain.Notification {
	text := fmt.Sprintf("Plan for %s expires on %s.", m.Name, m.Plan.ExpirationDate.In(loc).Format("02/01/2006"))
	return &domain.Notification{
		Kind:        domain.NotificationExpiration,
		Title:       text,
		Description: text,
		MemberID:    m.ID,
		IsUnread:    true,
		CreatedAt:   now,
	}
}

func birthdayNotification(m *domain.Member, now time.Time) *domain.Notification {
	return &domain.Notification{
		Kind:        domain.NotificationBirthday,
		Title:       fmt.Sprintf("Happy birthday, %s! 🎉", m.Name),
		Description: fmt.Sprintf("Today is %s's birthday. Wish them a great day at the gym! 🎂", m.Name),
		MemberID:    m.ID,
		IsUnread:    true,
		CreatedAt:   now,
	}
}

func isBirthdayNotification(n *domain.Notification) bool {
	if n.Kind == domain.NotificationBirthday {
		return true
	}
	title := strings.ToLower(n.Title)
	for _, marker := range birthdayMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}
