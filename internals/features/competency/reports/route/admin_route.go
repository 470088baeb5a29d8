package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"competency_backend/internals/features/competency/reports/controller"
)

func ReportAdminRoutes(admin fiber.Router, db *gorm.DB, v *validator.Validate) {
	ctl := controller.NewReportController(db, v)

	diag := admin.Group("/diagnoses")
	diag.Get("/:id/report", ctl.RunReport)
	diag.Get("/:id/distribution", ctl.ResponseDistribution)
	diag.Get("/:id/targets", ctl.Targets)

	sem := admin.Group("/semesters")
	sem.Get("/:id/department-averages", ctl.DepartmentAverages)
	sem.Get("/:sid/students/:id/comparison", ctl.StudentComparison)

	st := admin.Group("/students")
	st.Get("/:id/dashboard", ctl.StudentDashboard)
	st.Get("/:id/trend", ctl.StudentTrend)
}
