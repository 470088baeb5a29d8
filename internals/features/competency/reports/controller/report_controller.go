package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"competency_backend/internals/features/competency/reports/dto"
	svc "competency_backend/internals/features/competency/reports/service"
	helper "competency_backend/internals/helpers"
	helperAuth "competency_backend/internals/helpers/auth"
)

type ReportController struct {
	DB      *gorm.DB
	Service *svc.ReportService
}

func NewReportController(db *gorm.DB, v *validator.Validate) *ReportController {
	return &ReportController{DB: db, Service: svc.NewReportService(db, v)}
}

/* ===================== PER DIAGNOSIS ===================== */

// GET /api/a/diagnoses/:id/report
func (ctl *ReportController) RunReport(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	rep, err := ctl.Service.RunReport(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", rep)
}

// GET /api/a/diagnoses/:id/distribution
func (ctl *ReportController) ResponseDistribution(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	out, err := ctl.Service.ResponseDistribution(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/a/diagnoses/:id/targets?status=&page=&per_page=
func (ctl *ReportController) Targets(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.ResolvePaging(c, 50, 500)
	rows, total, err := ctl.Service.Targets(c.UserContext(), id, dto.TargetFilter{
		Status:  helper.QueryUpper(c, "status"),
		Page:    pg.Page,
		PerPage: pg.PerPage,
	})
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage, len(rows)))
}

/* ===================== PER SEMESTER ===================== */

// GET /api/a/semesters/:id/department-averages
func (ctl *ReportController) DepartmentAverages(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	out, err := ctl.Service.DepartmentAverages(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/a/semesters/:sid/students/:id/comparison
func (ctl *ReportController) StudentComparison(c *fiber.Ctx) error {
	semID, err := helper.ParseUUIDParam(c, "sid")
	if err != nil {
		return helper.FromError(c, err)
	}
	studentID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	out, err := ctl.Service.StudentComparison(c.UserContext(), semID, studentID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

/* ===================== PER STUDENT ===================== */

// GET /api/a/students/:id/dashboard
func (ctl *ReportController) StudentDashboard(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	out, err := ctl.Service.StudentDashboard(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/a/students/:id/trend?semester_ids=a,b
func (ctl *ReportController) StudentTrend(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	semIDs, err := helper.ParseUUIDListQuery(c, "semester_ids")
	if err != nil {
		return helper.FromError(c, err)
	}
	out, err := ctl.Service.StudentTrend(c.UserContext(), id, semIDs)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/u/me/dashboard
func (ctl *ReportController) MyDashboard(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	out, err := ctl.Service.StudentDashboard(c.UserContext(), studentID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}
