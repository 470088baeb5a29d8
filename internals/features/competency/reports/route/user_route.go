package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"competency_backend/internals/features/competency/reports/controller"
)

func ReportUserRoutes(user fiber.Router, db *gorm.DB, v *validator.Validate) {
	ctl := controller.NewReportController(db, v)
	user.Get("/me/dashboard", ctl.MyDashboard)
}
