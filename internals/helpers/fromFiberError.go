package helper

import "github.com/gofiber/fiber/v2"

// ErrorHandler dipasang di fiber.Config supaya error yang lolos dari
// handler/middleware (404 route, 401 AuthJWT, limiter) tetap memakai
// envelope yang sama.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return FromError(c, err)
}
