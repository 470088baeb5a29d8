package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const LocDB = "db"

// DBMiddleware untuk menambahkan koneksi db ke context request
func DBMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocDB, db)
		return c.Next()
	}
}

// DBFromCtx mengambil koneksi yang dipasang DBMiddleware (nil kalau tidak ada).
func DBFromCtx(c *fiber.Ctx) *gorm.DB {
	db, _ := c.Locals(LocDB).(*gorm.DB)
	return db
}
