package routes

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"competency_backend/internals/configs"
	database "competency_backend/internals/databases"
	helper "competency_backend/internals/helpers"
	"competency_backend/internals/middlewares"
)

// AppConfig: sonic untuk JSON + ErrorHandler dengan envelope standar.
func AppConfig() fiber.Config {
	return fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          helper.ErrorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          2*time.Minute + 15*time.Second,
		IdleTimeout:           90 * time.Second,
	}
}

func BaseRoutes(app *fiber.App, db *gorm.DB) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Competency diagnosis service 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		conn := middlewares.DBFromCtx(c)
		if conn == nil {
			conn = db
		}
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		if conn == nil || database.Ping(conn) != nil {
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    configs.GetEnv("RAILWAY_ENVIRONMENT"),
		})
	})
}
