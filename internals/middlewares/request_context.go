package middlewares

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/utils"
)

const (
	LocRequestID = "reqid"

	DefaultRequestTimeout = 5 * time.Second
	RecalcRequestTimeout  = 2 * time.Minute
)

// RequestContext: Request-ID + timing + timeout guard untuk UserContext.
// Handler service membaca c.UserContext(), jadi deadline ikut ke gorm.
func RequestContext(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = utils.UUID()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals(LocRequestID, id)

		start := time.Now()
		ctx, cancel := context.WithTimeout(c.Context(), timeout)
		defer cancel()
		c.SetUserContext(ctx)

		err := c.Next()
		log.Printf("[REQ] id=%s %s %s status=%d dur=%s", id, c.Method(), c.OriginalURL(), c.Response().StatusCode(), time.Since(start))
		return err
	}
}

// WithTimeout mengganti deadline UserContext untuk satu route
// (mis. rekalkulasi semester). Deadline parent tidak diwarisi karena
// tidak bisa diperpanjang.
func WithTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
