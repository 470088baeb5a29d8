package middlewares

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext_SetsRequestIDAndDeadline(t *testing.T) {
	app := fiber.New()
	app.Use(RequestContext(time.Second))
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		assert.True(t, ok)
		return c.SendString(c.Locals(LocRequestID).(string))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Header.Get(fiber.HeaderXRequestID))
}

func TestWithTimeout_ExtendsDeadline(t *testing.T) {
	app := fiber.New()
	app.Use(RequestContext(time.Second))
	app.Get("/", WithTimeout(time.Hour), func(c *fiber.Ctx) error {
		dl, ok := c.UserContext().Deadline()
		require.True(t, ok)
		assert.True(t, time.Until(dl) > time.Minute)
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, defaultOrigins, allowedOrigins(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, allowedOrigins(" https://a.example, ,https://b.example "))
}

func TestRecalcRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/semesters/:id/recalculate", RecalcRateLimiter(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/semesters/s1/recalculate", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, fiber.StatusTooManyRequests}, codes)

	resp, err := app.Test(httptest.NewRequest("POST", "/semesters/s2/recalculate", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
