package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/mansoorceksport/gymledger/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestDashboardIncomeAcrossYearBoundary(t *testing.T) {
	now := utc(2024, 10, 10, 12, 0)
	env := newTestEnv(t, now)

	env.addPayment(t, 9999, utc(2023, 10, 31, 23, 59)) // just before the window
	env.addPayment(t, 500, utc(2023, 11, 1, 0, 0))     // exactly at the window start
	env.addPayment(t, 1000, utc(2023, 11, 20, 10, 0))
	env.addPayment(t, 300, utc(2024, 1, 5, 10, 0))
	env.addPayment(t, 2000, utc(2024, 10, 1, 9, 0))

	svc := NewDashboardService(env.members, env.activities, env.payments, env.notifications, nil, 0, env.rules)
	dashboard, err := svc.GetDashboard(context.Background())
	require.NoError(t, err)

	require.Len(t, dashboard.IncomeByMonth, 12)
	require.Len(t, dashboard.MonthsReference, 12)
	assert.Equal(t, "2023-11", dashboard.MonthsReference[0])
	assert.Equal(t, "2024-01", dashboard.MonthsReference[2])
	assert.Equal(t, "2024-10", dashboard.MonthsReference[11])

	assert.Equal(t, int64(1500), dashboard.IncomeByMonth[0])
	assert.Equal(t, int64(300), dashboard.IncomeByMonth[2])
	assert.Equal(t, int64(2000), dashboard.IncomeByMonth[11])

	var windowTotal int64
	for _, v := range dashboard.IncomeByMonth {
		windowTotal += v
	}
	assert.Equal(t, int64(3800), windowTotal)
	assert.Equal(t, int64(13799), dashboard.TotalIncome)
}

func TestDashboardWindowInGymTimezone(t *testing.T) {
	cordoba := time.FixedZone("ART", -3*60*60)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, cordoba)
	env := newTestEnv(t, now)

	// 01:00 UTC on March 1st is still February 29th in Cordoba
	env.addPayment(t, 700, utc(2024, 3, 1, 1, 0))

	svc := NewDashboardService(env.members, env.activities, env.payments, env.notifications, nil, 0, env.rules)
	dashboard, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-02", dashboard.MonthsReference[10])
	assert.Equal(t, int64(700), dashboard.IncomeByMonth[10])
	assert.Equal(t, int64(0), dashboard.IncomeByMonth[11])
}

func TestDashboardCounts(t *testing.T) {
	now := utc(2024, 10, 10, 12, 0)
	env := newTestEnv(t, now)
	env.addActivity(t, "Weights", domain.CategoryStrength)

	// Active on Sep 15 - Oct 15, expiring within the week
	env.addMember(t, "ana", utc(2024, 10, 15, 0, 0), func(m *domain.Member) {
		m.CreatedAt = now.AddDate(0, 0, -5)
	})
	// Starts exactly on the October checkpoint
	env.addMember(t, "bruno", utc(2024, 11, 1, 0, 0))
	// Lapsed long ago
	env.addMember(t, "carla", utc(2023, 12, 20, 0, 0))

	require.NoError(t, env.notifications.CreateMany(context.Background(), []*domain.Notification{
		{Kind: domain.NotificationExpiration, Title: "x", MemberID: "m", CreatedAt: now},
	}))

	svc := NewDashboardService(env.members, env.activities, env.payments, env.notifications, nil, 0, env.rules)
	dashboard, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), dashboard.MembersCount)
	assert.Equal(t, int64(1), dashboard.MembersJoinedLast30Days)
	assert.Equal(t, int64(1), dashboard.TotalActivities)
	assert.Equal(t, int64(1), dashboard.ExpiringMembersCount)
	assert.Len(t, dashboard.Notifications, 1)

	// Checkpoints: 2023-11 .. 2024-10
	assert.Equal(t, int64(0), dashboard.ActiveMembersByMonth[0])  // carla only starts Nov 20
	assert.Equal(t, int64(1), dashboard.ActiveMembersByMonth[1])  // carla on Dec 1
	assert.Equal(t, int64(0), dashboard.ActiveMembersByMonth[2])  // nobody on Jan 1
	assert.Equal(t, int64(0), dashboard.ActiveMembersByMonth[10]) // ana starts Sep 15
	assert.Equal(t, int64(2), dashboard.ActiveMembersByMonth[11]) // ana and bruno on Oct 1
}

func TestDashboardActivitySplit(t *testing.T) {
	now := utc(2024, 10, 10, 12, 0)
	env := newTestEnv(t, now)
	weights := env.addActivity(t, "Weights", domain.CategoryStrength)
	yoga := env.addActivity(t, "Yoga", domain.CategoryClass)

	env.addPayment(t, 20000, now.AddDate(0, 0, -1), weights.ID, yoga.ID)
	env.addPayment(t, 17000, now.AddDate(0, -2, 0), weights.ID)
	env.addPayment(t, 5000, now.AddDate(0, -3, 0))

	svc := NewDashboardService(env.members, env.activities, env.payments, env.notifications, nil, 0, env.rules)
	dashboard, err := svc.Build(context.Background())
	require.NoError(t, err)

	require.Len(t, dashboard.ActivityIncome, 2)
	assert.Equal(t, weights.ID, dashboard.ActivityIncome[0].ActivityID)
	assert.Equal(t, "Weights", dashboard.ActivityIncome[0].Activity.Name)
	assert.InDelta(t, 27000, dashboard.ActivityIncome[0].Income, 0.001)
	assert.Equal(t, yoga.ID, dashboard.ActivityIncome[1].ActivityID)
	assert.InDelta(t, 10000, dashboard.ActivityIncome[1].Income, 0.001)

	members := map[string]int{}
	for _, am := range dashboard.ActivityMembers {
		members[am.ActivityID] = am.Members
	}
	assert.Equal(t, 2, members[weights.ID])
	assert.Equal(t, 1, members[yoga.ID])
	assert.Equal(t, int64(42000), dashboard.TotalIncome)
}

func TestDashboardSubQueryFailureAborts(t *testing.T) {
	env := newTestEnv(t, utc(2024, 10, 10, 12, 0))
	members := &failingMembers{MemberRepository: env.members, failAll: true}

	svc := NewDashboardService(members, env.activities, env.payments, env.notifications, nil, 0, env.rules)
	_, err := svc.GetDashboard(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestDashboardIsCachedUntilInvalidated(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := repository.NewRedisCacheRepository(client)

	now := utc(2024, 10, 10, 12, 0)
	env := newTestEnv(t, now)
	env.addPayment(t, 1000, now.AddDate(0, 0, -1))

	svc := NewDashboardService(env.members, env.activities, env.payments, env.notifications, cache, time.Minute, env.rules)
	ctx := context.Background()

	first, err := svc.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), first.TotalIncome)
	assert.True(t, mr.Exists(DashboardCacheKey))

	env.addPayment(t, 500, now.AddDate(0, 0, -1))
	cached, err := svc.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cached.TotalIncome)

	invalidateDashboard(ctx, cache)
	fresh, err := svc.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), fresh.TotalIncome)
}
