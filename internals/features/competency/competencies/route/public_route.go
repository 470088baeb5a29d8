// file: internals/features/competency/competencies/route/public_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	competencyCtl "competency_backend/internals/features/competency/competencies/controller"
)

func CompetencyPublicRoutes(public fiber.Router, db *gorm.DB) {
	ctl := competencyCtl.NewCompetencyController(db)
	public.Get("/competencies", ctl.List)
}
