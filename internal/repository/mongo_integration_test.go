package repository

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// setupTestDB spins up a fresh MongoDB container and returns the database connection
// along with a cleanup function.
func setupTestDB(t *testing.T) (*mongo.Database, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	ctx := context.Background()

	mongodbContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}

	endpoint, err := mongodbContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(endpoint))
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}

	return mongoClient.Database("gymledger_test"), func() {
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("failed to disconnect mongo: %v", err)
		}
		if err := mongodbContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}
}

func TestMongoRepositories(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	cordoba, err := time.LoadLocation("America/Argentina/Cordoba")
	require.NoError(t, err)

	members := NewMongoMemberRepository(db)
	activities := NewMongoActivityRepository(db)
	payments := NewMongoPaymentRepository(db)
	notifications := NewMongoNotificationRepository(db)

	t.Run("activities", func(t *testing.T) {
		weights := &domain.Activity{Name: "Weights", Category: domain.CategoryStrength, Available: true, Price: 17000}
		require.NoError(t, activities.Create(ctx, weights))
		assert.ErrorIs(t, activities.Create(ctx, &domain.Activity{Name: "Weights"}), domain.ErrDuplicate)

		pilates := &domain.Activity{Name: "Pilates", Category: domain.CategoryClass, Available: false}
		require.NoError(t, activities.Create(ctx, pilates))

		available, err := activities.ListAvailable(ctx)
		require.NoError(t, err)
		require.Len(t, available, 1)
		assert.Equal(t, "Weights", available[0].Name)

		got, err := activities.GetByIDs(ctx, []string{weights.ID, pilates.ID, "not-an-id"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		_, err = activities.GetByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		count, err := activities.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("members", func(t *testing.T) {
		start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		ana := &domain.Member{
			Name:        "Ana Perez",
			Email:       "ana@gym.test",
			ActivityIDs: []string{"a1"},
			Plan: domain.Plan{
				Type:            domain.PlanMonthly,
				StartDate:       start,
				ExpirationDate:  start.AddDate(0, 1, 0),
				LastRenewalDate: start,
				Price:           17000,
			},
		}
		require.NoError(t, members.Create(ctx, ana))
		assert.ErrorIs(t, members.Create(ctx, &domain.Member{Name: "Other", Email: "ana@gym.test"}), domain.ErrDuplicate)

		bruno := &domain.Member{
			Name:  "Bruno Diaz",
			Email: "bruno@gym.test",
			Plan: domain.Plan{
				Type:           domain.PlanSemiAnnual,
				StartDate:      start,
				ExpirationDate: start.AddDate(0, 6, 0),
			},
		}
		require.NoError(t, members.Create(ctx, bruno))

		loaded, err := members.GetByID(ctx, ana.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanMonthly, loaded.Plan.Type)
		assert.True(t, loaded.Plan.ExpirationDate.Equal(ana.Plan.ExpirationDate))
		assert.Equal(t, []string{"a1"}, loaded.ActivityIDs)
		assert.Equal(t, int64(17000), loaded.Plan.Price)

		found, err := members.List(ctx, domain.MemberFilter{Search: "BRU"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, bruno.ID, found[0].ID)

		total, err := members.Count(ctx, domain.MemberFilter{Search: "gym.test"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		// regex metacharacters are matched literally
		none, err := members.Count(ctx, domain.MemberFilter{Search: ".*"})
		require.NoError(t, err)
		assert.Zero(t, none)

		expiring, err := members.GetExpiringBetween(ctx, start.AddDate(0, 0, 25), start.AddDate(0, 1, 2))
		require.NoError(t, err)
		require.Len(t, expiring, 1)
		assert.Equal(t, ana.ID, expiring[0].ID)

		active, err := members.CountActiveAt(ctx, start.AddDate(0, 2, 0))
		require.NoError(t, err)
		assert.Equal(t, int64(1), active)

		loaded.Email = "bruno@gym.test"
		assert.ErrorIs(t, members.Update(ctx, loaded), domain.ErrDuplicate)

		_, err = members.GetByID(ctx, "ffffffffffffffffffffffff")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("payments are summed by local month", func(t *testing.T) {
		// 02:00 UTC on Apr 1 is still March in Cordoba
		dates := []time.Time{
			time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
			time.Date(2024, 4, 1, 2, 0, 0, 0, time.UTC),
			time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC),
		}
		for i, date := range dates {
			p := &domain.Payment{Amount: int64(1000 * (i + 1)), Date: date, MemberID: "m1", ActivityIDs: []string{"a1"}}
			require.NoError(t, payments.Create(ctx, p))
		}
		// no receipt on either payment is not a conflict
		require.NoError(t, payments.Create(ctx, &domain.Payment{Amount: 1, Date: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)}))

		sums, err := payments.SumByMonth(ctx,
			time.Date(2024, 3, 1, 0, 0, 0, 0, cordoba),
			time.Date(2024, 5, 1, 0, 0, 0, 0, cordoba),
			cordoba)
		require.NoError(t, err)
		require.Len(t, sums, 2)
		assert.Equal(t, domain.MonthlyIncome{Year: 2024, Month: time.March, TotalIncome: 3000}, sums[0])
		assert.Equal(t, domain.MonthlyIncome{Year: 2024, Month: time.April, TotalIncome: 3000}, sums[1])

		april, err := payments.GetBetween(ctx,
			time.Date(2024, 4, 1, 0, 0, 0, 0, cordoba),
			time.Date(2024, 5, 1, 0, 0, 0, 0, cordoba))
		require.NoError(t, err)
		assert.Len(t, april, 1)

		receipt := &domain.Payment{ReceiptNo: "R-1", Amount: 5, Date: dates[0]}
		require.NoError(t, payments.Create(ctx, receipt))
		assert.ErrorIs(t, payments.Create(ctx, &domain.Payment{ReceiptNo: "R-1", Amount: 5, Date: dates[0]}), domain.ErrDuplicate)

		require.NoError(t, payments.Delete(ctx, receipt.ID))
		assert.ErrorIs(t, payments.Delete(ctx, receipt.ID), domain.ErrNotFound)
	})

	t.Run("notifications", func(t *testing.T) {
		today := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
		batch := []*domain.Notification{
			{Kind: domain.NotificationBirthday, Title: "Happy birthday, Ana!", MemberID: "m1", IsUnread: true, CreatedAt: today.AddDate(0, 0, -1)},
			{Kind: domain.NotificationBirthday, Title: "Happy birthday, Bruno!", MemberID: "m2", IsUnread: true, CreatedAt: today},
			{Kind: domain.NotificationExpiration, Title: "Plan expiring", MemberID: "m1", PaymentID: "p1", IsUnread: true, CreatedAt: today},
		}
		require.NoError(t, notifications.CreateMany(ctx, batch))
		require.NoError(t, notifications.CreateMany(ctx, nil))

		dayStart := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
		todays, err := notifications.ListCreatedBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Len(t, todays, 2)

		require.NoError(t, notifications.MarkRead(ctx, batch[1].ID))
		assert.ErrorIs(t, notifications.MarkRead(ctx, "ffffffffffffffffffffffff"), domain.ErrNotFound)

		removed, err := notifications.DeleteByKindCreatedBefore(ctx, domain.NotificationBirthday, dayStart)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		removed, err = notifications.DeleteByPaymentID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		rest, err := notifications.List(ctx)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.False(t, rest[0].IsUnread)
	})
}
