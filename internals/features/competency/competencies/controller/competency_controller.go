// file: internals/features/competency/competencies/controller/competency_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	svc "competency_backend/internals/features/competency/competencies/service"
	helper "competency_backend/internals/helpers"
)

type CompetencyController struct {
	Catalog *svc.CatalogService
}

func NewCompetencyController(db *gorm.DB) *CompetencyController {
	return &CompetencyController{Catalog: svc.NewCatalogService(db)}
}

// GET /api/public/competencies
func (ctl *CompetencyController) List(c *fiber.Ctx) error {
	rows, err := ctl.Catalog.List(c.UserContext(), nil)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}
