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

func ptr[T any](v T) *T { return &v }

func TestActivityServiceCreate(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	svc := NewActivityService(env.activities, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, ActivityInput{
		Name:     ptr("  Spinning "),
		Category: ptr(domain.Category("Class")),
		Price:    ptr(int64(9000)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Spinning", created.Name)
	assert.Equal(t, domain.CategoryClass, created.Category)
	assert.True(t, created.Available)

	tests := []struct {
		name  string
		input ActivityInput
		field string
	}{
		{"missing name", ActivityInput{Category: ptr(domain.CategoryClass)}, "name"},
		{"blank name", ActivityInput{Name: ptr("  "), Category: ptr(domain.CategoryClass)}, "name"},
		{"missing category", ActivityInput{Name: ptr("Yoga")}, "category"},
		{"negative price", ActivityInput{Name: ptr("Yoga"), Category: ptr(domain.CategoryClass), Price: ptr(int64(-1))}, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestActivityServicePartialUpdate(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	yoga := env.addActivity(t, "Yoga", domain.CategoryClass)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	require.NoError(t, mr.Set(DashboardCacheKey, "{}"))

	svc := NewActivityService(env.activities, repository.NewRedisCacheRepository(client))
	ctx := context.Background()

	updated, err := svc.Update(ctx, yoga.ID, ActivityInput{Available: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Available)
	assert.Equal(t, "Yoga", updated.Name)
	assert.Equal(t, yoga.Price, updated.Price)
	assert.False(t, mr.Exists(DashboardCacheKey))

	available, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)

	_, err = svc.Update(ctx, "missing", ActivityInput{Available: ptr(true)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
