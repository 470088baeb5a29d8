package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"competency_backend/internals/features/competency/summaries/controller"
	"competency_backend/internals/middlewares"
)

func SummaryAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctl := controller.NewSummaryController(db)

	sem := admin.Group("/semesters")
	sem.Post("/:id/recalculate",
		middlewares.RecalcRateLimiter(),
		middlewares.WithTimeout(middlewares.RecalcRequestTimeout),
		ctl.RecalculateSemester,
	)
	sem.Post("/:sid/students/:id/recalculate", ctl.RecalculateStudent)
	sem.Get("/:sid/students/:id/summary", ctl.GetStudentSummary)
}
