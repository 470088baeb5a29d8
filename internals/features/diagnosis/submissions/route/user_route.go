package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"competency_backend/internals/features/diagnosis/submissions/controller"
)

func DiagnosisSubmissionUserRoutes(user fiber.Router, db *gorm.DB, v *validator.Validate) {
	ctl := controller.NewDiagnosisSubmissionController(db, v)

	g := user.Group("/diagnoses")
	g.Get("/:id", ctl.GetQuestions)
	g.Post("/:id/submit", ctl.Submit)
	g.Get("/:id/submission", ctl.GetMine)
}
