package controller

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"competency_backend/internals/features/diagnosis/runs/dto"
	svc "competency_backend/internals/features/diagnosis/runs/service"
	helper "competency_backend/internals/helpers"
	helperAuth "competency_backend/internals/helpers/auth"
)

type DiagnosisRunController struct {
	DB      *gorm.DB
	Service *svc.DiagnosisRunService
}

func NewDiagnosisRunController(db *gorm.DB, v *validator.Validate) *DiagnosisRunController {
	return &DiagnosisRunController{DB: db, Service: svc.NewDiagnosisRunService(db, v)}
}

// =======================
// ➕ Create
// POST /api/a/diagnoses
// =======================
func (ctl *DiagnosisRunController) Create(c *fiber.Ctx) error {
	actorID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var body dto.CreateDiagnosisRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	id, err := ctl.Service.Create(c.UserContext(), body)
	if err != nil {
		return helper.FromError(c, err)
	}
	log.Printf("[DiagnosisRunController] run=%s created by user=%s", id, actorID)
	run, questions, err := ctl.Service.Detail(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "Diagnosis created", dto.FromDetail(*run, questions, true))
}

// =======================
// 📄 List
// GET /api/a/diagnoses?semester_id=&status=&page=&per_page=
// =======================
func (ctl *DiagnosisRunController) List(c *fiber.Ctx) error {
	semID, err := helper.ParseUUIDQuery(c, "semester_id")
	if err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.ResolvePaging(c, 20, 100)

	items, total, err := ctl.Service.List(c.UserContext(), dto.ListDiagnosisFilter{
		SemesterID: semID,
		Status:     helper.QueryUpper(c, "status"),
		Page:       pg.Page,
		PerPage:    pg.PerPage,
	})
	if err != nil {
		return helper.FromError(c, err)
	}

	resp := make([]dto.DiagnosisResponse, 0, len(items))
	for _, it := range items {
		r := dto.FromModel(it.Run)
		tc, sc := it.TargetCount, it.SubmissionCount
		r.TargetCount, r.SubmissionCount = &tc, &sc
		resp = append(resp, r)
	}
	return helper.JsonList(c, "ok", resp, helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage, len(resp)))
}

// =======================
// 🔍 Detail (dengan soal + kunci jawaban)
// GET /api/a/diagnoses/:id
// =======================
func (ctl *DiagnosisRunController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	run, questions, err := ctl.Service.Detail(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromDetail(*run, questions, true))
}

// =======================
// ✏️ Update (partial)
// PATCH /api/a/diagnoses/:id
// =======================
func (ctl *DiagnosisRunController) Update(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	var body dto.UpdateDiagnosisRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if _, err := ctl.Service.Update(c.UserContext(), id, body); err != nil {
		return helper.FromError(c, err)
	}
	run, questions, err := ctl.Service.Detail(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "Diagnosis updated", dto.FromDetail(*run, questions, true))
}

// =======================
// 🗑️ Delete
// DELETE /api/a/diagnoses/:id
// =======================
func (ctl *DiagnosisRunController) Delete(c *fiber.Ctx) error {
	actorID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := ctl.Service.Delete(c.UserContext(), id); err != nil {
		return helper.FromError(c, err)
	}
	log.Printf("[DiagnosisRunController] run=%s deleted by user=%s", id, actorID)
	return helper.JsonDeleted(c, "Diagnosis deleted", fiber.Map{"id": id})
}

// =======================
// ⏹ Expire target (override manual)
// POST /api/a/diagnoses/:id/targets/:student_id/expire
// =======================
func (ctl *DiagnosisRunController) ExpireTarget(c *fiber.Ctx) error {
	runID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	studentID, err := helper.ParseUUIDParam(c, "student_id")
	if err != nil {
		return helper.FromError(c, err)
	}
	target, err := ctl.Service.ExpireTarget(c.UserContext(), runID, studentID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "Target expired", dto.FromTargetModel(*target))
}
