package auth

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"competency_backend/internals/constants"
	helperAuth "competency_backend/internals/helpers/auth"
)

// RoleMiddlewareWithCustomError validasi role + custom error message
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles := helperAuth.GetRoles(c)
		if len(roles) == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized: missing role information")
		}

		for _, allowed := range allowedRoles {
			if helperAuth.HasRole(c, allowed) {
				return c.Next()
			}
		}

		log.Printf("[RoleMiddleware] denied roles=%v path=%s", roles, c.Path())
		if customForbiddenMessage == "" {
			customForbiddenMessage = "Forbidden: you are not authorized to access this resource"
		}
		return fiber.NewError(fiber.StatusForbidden, customForbiddenMessage)
	}
}

// Shortcut biar lebih clean pemakaian
func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}

// RequireStudent menolak token tanpa klaim student_id.
func RequireStudent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := helperAuth.GetStudentIDFromToken(c); err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) && fe.Code == fiber.StatusForbidden {
				return fiber.NewError(fiber.StatusForbidden, constants.RoleErrorStudent("diagnosis"))
			}
			return err
		}
		return c.Next()
	}
}
