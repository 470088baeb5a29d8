package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"competency_backend/internals/features/competency/summaries/dto"
	svc "competency_backend/internals/features/competency/summaries/service"
	helper "competency_backend/internals/helpers"
)

type SummaryController struct {
	DB      *gorm.DB
	Service *svc.SummaryService
}

func NewSummaryController(db *gorm.DB) *SummaryController {
	return &SummaryController{DB: db, Service: svc.NewSummaryService(db)}
}

// =======================
// 🔁 Rebuild satu semester (summaries + cohort stats)
// POST /api/a/semesters/:id/recalculate
// =======================
func (ctl *SummaryController) RecalculateSemester(c *fiber.Ctx) error {
	semID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	res, err := ctl.Service.RecalculateAllSummaries(c.UserContext(), semID)
	if err != nil {
		return helper.FromError(c, err)
	}
	log.Printf("[SummaryController] semester=%s rebuilt by request id=%v", semID, c.Locals("reqid"))
	return helper.JsonOK(c, "Semester recalculated", res)
}

// =======================
// 🔁 Rekalkulasi satu siswa
// POST /api/a/semesters/:sid/students/:id/recalculate
// =======================
func (ctl *SummaryController) RecalculateStudent(c *fiber.Ctx) error {
	semID, err := helper.ParseUUIDParam(c, "sid")
	if err != nil {
		return helper.FromError(c, err)
	}
	studentID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	rows, err := ctl.Service.RecalculateStudentSummary(c.UserContext(), semID, studentID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "Student recalculated", dto.StudentSummaryResponse{
		SemesterID: semID,
		StudentID:  studentID,
		Rows:       dto.FromModels(rows),
	})
}

// =======================
// 🔍 Summary tersimpan
// GET /api/a/semesters/:sid/students/:id/summary
// =======================
func (ctl *SummaryController) GetStudentSummary(c *fiber.Ctx) error {
	semID, err := helper.ParseUUIDParam(c, "sid")
	if err != nil {
		return helper.FromError(c, err)
	}
	studentID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	rows, err := ctl.Service.ForStudent(c.UserContext(), semID, studentID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.StudentSummaryResponse{
		SemesterID: semID,
		StudentID:  studentID,
		Rows:       dto.FromModels(rows),
	})
}
