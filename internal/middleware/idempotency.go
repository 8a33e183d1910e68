package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	CorrelationHeader = "X-Correlation-ID"
	inFlightMarker    = "in-flight"
)

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyMiddleware replays the stored response for a repeated X-Correlation-ID.
// A request whose twin is still running gets 409. Only 2xx responses are stored;
// failures release the key so the client can retry.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(CorrelationHeader)
		if correlationID == "" {
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%s:%s", c.Path(), correlationID)
		ctx := c.UserContext()

		reserved, err := redisClient.SetNX(ctx, key, inFlightMarker, ttl).Result()
		if err != nil {
			// Redis down: serve the request without the guarantee rather than failing it
			log.Printf("[Idempotency] Redis unavailable, skipping check for %s: %v", correlationID, err)
			return c.Next()
		}

		if !reserved {
			return replay(c, redisClient, key)
		}

		if err := c.Next(); err != nil {
			release(redisClient, key)
			return err
		}

		statusCode := c.Response().StatusCode()
		if statusCode < 200 || statusCode >= 300 {
			release(redisClient, key)
			return nil
		}

		// fasthttp reuses the response buffer after the handler returns
		body := append([]byte(nil), c.Response().Body()...)
		payload, err := json.Marshal(cachedResponse{Status: statusCode, Body: body})
		if err != nil || !json.Valid(body) {
			release(redisClient, key)
			return nil
		}

		storeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisClient.Set(storeCtx, key, payload, ttl).Err(); err != nil {
			log.Printf("[Idempotency] Failed to store response for %s: %v", correlationID, err)
		}
		return nil
	}
}

func replay(c *fiber.Ctx, redisClient *redis.Client, key string) error {
	stored, err := redisClient.Get(c.UserContext(), key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Idempotency store unavailable",
		})
	}

	if string(stored) == inFlightMarker || len(stored) == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "A request with this correlation id is already being processed",
		})
	}

	var resp cachedResponse
	if err := json.Unmarshal(stored, &resp); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "A request with this correlation id is already being processed",
		})
	}

	c.Set("X-Idempotent-Replay", "true")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(resp.Status).Send(resp.Body)
}

func release(redisClient *redis.Client, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = redisClient.Del(ctx, key).Err()
}
