package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/mansoorceksport/gymledger/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store unavailable")

type testEnv struct {
	now           time.Time
	rules         Rules
	members       *memory.MemberRepository
	activities    *memory.ActivityRepository
	payments      *memory.PaymentRepository
	notifications *memory.NotificationRepository
}

// newTestEnv pins the clock at now, in UTC unless now carries another location
func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	env := &testEnv{
		now:           now,
		members:       memory.NewMemberRepository(),
		activities:    memory.NewActivityRepository(),
		payments:      memory.NewPaymentRepository(),
		notifications: memory.NewNotificationRepository(),
	}
	env.rules = Rules{
		Location:  now.Location(),
		Pricing:   domain.PlanPricing{BasePrice: 17000, PromotionPrice: 25000},
		LookAhead: 7 * 24 * time.Hour,
		Now:       func() time.Time { return env.now },
	}
	return env
}

func (e *testEnv) addActivity(t *testing.T, name string, category domain.Category) *domain.Activity {
	t.Helper()
	a := &domain.Activity{Name: name, Category: category, Available: true, Price: 1000}
	require.NoError(t, e.activities.Create(context.Background(), a))
	return a
}

// addMember stores a member directly, bypassing pricing
func (e *testEnv) addMember(t *testing.T, name string, expiration time.Time, mutate ...func(*domain.Member)) *domain.Member {
	t.Helper()
	m := &domain.Member{
		Name:  name,
		Email: name + "@gym.test",
		Plan: domain.Plan{
			Type:            domain.PlanMonthly,
			StartDate:       expiration.AddDate(0, -1, 0),
			ExpirationDate:  expiration,
			LastRenewalDate: expiration.AddDate(0, -1, 0),
		},
		CreatedAt: e.now.AddDate(-1, 0, 0),
	}
	for _, fn := range mutate {
		fn(m)
	}
	require.NoError(t, e.members.Create(context.Background(), m))
	return m
}

func (e *testEnv) addPayment(t *testing.T, amount int64, date time.Time, activityIDs ...string) *domain.Payment {
	t.Helper()
	p := &domain.Payment{Amount: amount, Date: date, MemberID: "m", ActivityIDs: activityIDs}
	require.NoError(t, e.payments.Create(context.Background(), p))
	return p
}

// failingMembers wraps a member store and fails selected calls
type failingMembers struct {
	domain.MemberRepository
	failUpdate bool
	failAll    bool
}

func (f *failingMembers) Update(ctx context.Context, m *domain.Member) error {
	if f.failUpdate {
		return errStoreDown
	}
	return f.MemberRepository.Update(ctx, m)
}

func (f *failingMembers) GetExpiringBetween(ctx context.Context, from, to time.Time) ([]*domain.Member, error) {
	if f.failAll {
		return nil, errStoreDown
	}
	return f.MemberRepository.GetExpiringBetween(ctx, from, to)
}

func (f *failingMembers) CountActiveAt(ctx context.Context, at time.Time) (int64, error) {
	if f.failAll {
		return 0, errStoreDown
	}
	return f.MemberRepository.CountActiveAt(ctx, at)
}

// recordingFiles captures uploads in memory
type recordingFiles struct {
	uploads map[string][]byte
}

func (r *recordingFiles) Upload(ctx context.Context, file []byte, filename string, contentType string) (string, error) {
	if r.uploads == nil {
		r.uploads = map[string][]byte{}
	}
	r.uploads[filename] = file
	return "http://files.test/reports/" + filename, nil
}
