package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/gymledger/internal/config"
	"github.com/mansoorceksport/gymledger/internal/domain"
	"github.com/mansoorceksport/gymledger/internal/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-123"

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.MaxBodySizeMB = 1
	cfg.Server.StorageDriver = "memory"
	cfg.JWT.Secret = testSecret
	cfg.Redis.DashboardCacheTTL = time.Minute
	cfg.Redis.IdempotencyTTL = time.Hour
	cfg.Gym.Timezone = "UTC"
	cfg.Gym.BasePrice = 17000
	cfg.Gym.PromotionPrice = 25000
	cfg.Gym.ExpiryLookAheadDays = 7
	cfg.OTEL.PrometheusEnabled = true
	return cfg
}

func issueToken(t *testing.T, roles ...string) string {
	t.Helper()
	token, err := middleware.IssueStaffToken(testSecret, domain.StaffClaims{
		UserID: "desk-1",
		Email:  "desk@gym.test",
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return token
}

func TestGoldenPath(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	app := NewApp(AppDependencies{
		Config:      testConfig(),
		RedisClient: redisClient,
		Now:         func() time.Time { return now },
	})
	require.NotNil(t, app.NotificationJob)

	token := issueToken(t, domain.RoleStaff)

	request := func(method, path, token string, body interface{}, headers ...string) (*http.Response, apiResponse) {
		var reader io.Reader
		if body != nil {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(b)
		}
		req, err := http.NewRequest(method, path, reader)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}

		resp, err := app.HTTP.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		var out apiResponse
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = json.Unmarshal(raw, &out)
		return resp, out
	}

	// public endpoints
	resp, _ := request(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// staff guard
	resp, _ = request(http.MethodGet, "/v1/members", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(http.MethodGet, "/v1/members", issueToken(t, "member"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// catalogue
	resp, body := request(http.MethodPost, "/v1/activities", token, map[string]interface{}{"name": "Weights", "category": "strength"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Error)
	var weights domain.Activity
	require.NoError(t, json.Unmarshal(body.Data, &weights))

	resp, body = request(http.MethodPost, "/v1/activities", token, map[string]interface{}{"name": "Yoga", "category": "class"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Error)
	var yoga domain.Activity
	require.NoError(t, json.Unmarshal(body.Data, &yoga))

	// enrolment with both categories earns the promotion
	resp, body = request(http.MethodPost, "/v1/members", token, map[string]interface{}{
		"name":       "Ana Perez",
		"email":      "ana@gym.test",
		"birth_date": "1991-03-10",
		"plan":       map[string]interface{}{"type": "monthly", "start_date": "2024-02-12"},
		"activities": []string{weights.ID, yoga.ID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Error)
	var member domain.Member
	require.NoError(t, json.Unmarshal(body.Data, &member))
	assert.Equal(t, int64(25000), member.Plan.Price)
	assert.True(t, member.Plan.Promotion)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), member.Plan.ExpirationDate)

	// the plan expires in two days and today is the birthday
	resp, body = request(http.MethodPost, "/v1/notifications/run", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Error)
	var summary domain.JobSummary
	require.NoError(t, json.Unmarshal(body.Data, &summary))
	assert.Equal(t, 1, summary.ExpirationCreated)
	assert.Equal(t, 1, summary.BirthdayCreated)

	resp, body = request(http.MethodGet, "/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var before domain.Dashboard
	require.NoError(t, json.Unmarshal(body.Data, &before))
	assert.Equal(t, int64(1), before.ExpiringMembersCount)
	assert.Equal(t, int64(0), before.TotalIncome)
	assert.Len(t, before.Notifications, 2)
	assert.True(t, mr.Exists("dashboard:report"))

	// a retried payment with the same correlation id is applied once
	payment := map[string]interface{}{"member_id": member.ID, "amount": 25000}
	resp, body = request(http.MethodPost, "/v1/payments", token, payment, middleware.CorrelationHeader, "pay-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Error)
	assert.False(t, mr.Exists("dashboard:report"))

	resp, _ = request(http.MethodPost, "/v1/payments", token, payment, middleware.CorrelationHeader, "pay-1")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("X-Idempotent-Replay"))

	resp, body = request(http.MethodGet, "/v1/payments", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payments []domain.Payment
	require.NoError(t, json.Unmarshal(body.Data, &payments))
	require.Len(t, payments, 1)

	resp, body = request(http.MethodGet, "/v1/members/"+member.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body.Data, &member))
	assert.Equal(t, time.Date(2024, 4, 10, 15, 0, 0, 0, time.UTC), member.Plan.ExpirationDate)

	// the renewal clears the reminder on the next run
	resp, body = request(http.MethodPost, "/v1/notifications/run", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Error)
	require.NoError(t, json.Unmarshal(body.Data, &summary))
	assert.Equal(t, int64(1), summary.Cleaned)

	resp, body = request(http.MethodGet, "/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after domain.Dashboard
	require.NoError(t, json.Unmarshal(body.Data, &after))
	assert.Equal(t, int64(25000), after.TotalIncome)
	assert.Equal(t, int64(25000), after.IncomeByMonth[11])
	assert.Equal(t, int64(0), after.ExpiringMembersCount)
	assert.Len(t, after.Notifications, 1)

	resp, body = request(http.MethodGet, "/v1/payments/current", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var billing domain.BillingSummary
	require.NoError(t, json.Unmarshal(body.Data, &billing))
	assert.Equal(t, int64(25000), billing.Total)
}

func TestNewAppWithoutRedis(t *testing.T) {
	cfg := testConfig()
	cfg.OTEL.PrometheusEnabled = false
	app := NewApp(AppDependencies{Config: cfg})

	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	resp, err := app.HTTP.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err = http.NewRequest(http.MethodGet, "/v1/dashboard", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, domain.RoleAdmin))
	resp, err = app.HTTP.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
