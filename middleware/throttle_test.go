package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_BurstThenReject(t *testing.T) {
	throttle := NewThrottle(ThrottleConfig{RPS: 0.001, Burst: 2}, func(c *fiber.Ctx) string {
		return c.Get("X-Test-IP")
	})
	t.Cleanup(throttle.Stop)
	app := newTestApp(throttle.Handler())

	send := func(ip string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Test-IP", ip)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, http.StatusOK, send("41.1.1.1").StatusCode)
	assert.Equal(t, http.StatusOK, send("41.1.1.1").StatusCode)

	resp := send("41.1.1.1")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("41.2.2.2").StatusCode, "buckets are per key")
	assert.Equal(t, 2, throttle.Len())
}

func TestThrottle_CleanupDropsIdleKeys(t *testing.T) {
	throttle := NewThrottle(ThrottleConfig{RPS: 1, Burst: 1, IdleTimeout: time.Minute}, nil)
	t.Cleanup(throttle.Stop)

	assert.True(t, throttle.Allow("41.1.1.1"))
	assert.False(t, throttle.Allow("41.1.1.1"))

	throttle.cleanup(time.Now())
	assert.Equal(t, 1, throttle.Len())

	throttle.cleanup(time.Now().Add(2 * time.Minute))
	assert.Zero(t, throttle.Len())
	assert.True(t, throttle.Allow("41.1.1.1"), "a dropped key starts with a full bucket")
}
