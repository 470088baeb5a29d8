package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	summaryDto "competency_backend/internals/features/competency/summaries/dto"
	runDto "competency_backend/internals/features/diagnosis/runs/dto"
	runModel "competency_backend/internals/features/diagnosis/runs/model"
	runService "competency_backend/internals/features/diagnosis/runs/service"
	"competency_backend/internals/features/diagnosis/submissions/dto"
	svc "competency_backend/internals/features/diagnosis/submissions/service"
	helper "competency_backend/internals/helpers"
	"competency_backend/internals/helpers/apperror"
	helperAuth "competency_backend/internals/helpers/auth"
)

type DiagnosisSubmissionController struct {
	DB      *gorm.DB
	Service *svc.SubmissionService
	Runs    *runService.DiagnosisRunService
}

func NewDiagnosisSubmissionController(db *gorm.DB, v *validator.Validate) *DiagnosisSubmissionController {
	return &DiagnosisSubmissionController{
		DB:      db,
		Service: svc.NewSubmissionService(db, v),
		Runs:    runService.NewDiagnosisRunService(db, v),
	}
}

type SubmitResponse struct {
	Submission dto.SubmissionResponse       `json:"submission"`
	Summaries  []summaryDto.SummaryResponse `json:"summaries"`
}

// =======================
// 📝 Submit jawaban sendiri
// POST /api/u/diagnoses/:id/submit
// =======================
func (ctl *DiagnosisSubmissionController) Submit(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	runID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	var body dto.SubmitRequest
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	res, err := ctl.Service.Submit(c.UserContext(), runID, studentID, body)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "Diagnosis submitted", SubmitResponse{
		Submission: dto.FromModel(res.Submission, res.Answers),
		Summaries:  summaryDto.FromModels(res.Summaries),
	})
}

// =======================
// 🔍 Submission milik sendiri
// GET /api/u/diagnoses/:id/submission
// =======================
func (ctl *DiagnosisSubmissionController) GetMine(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	runID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	sub, answers, err := ctl.Service.Get(c.UserContext(), runID, studentID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(*sub, answers))
}

// =======================
// 📄 Soal untuk siswa (tanpa kunci jawaban)
// GET /api/u/diagnoses/:id
// =======================
func (ctl *DiagnosisSubmissionController) GetQuestions(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetStudentIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	runID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}

	run, questions, err := ctl.Runs.Detail(c.UserContext(), runID)
	if err != nil {
		return helper.FromError(c, err)
	}
	if run.DiagnosisRunStatus == runModel.RunStatusDraft {
		return helper.FromError(c, apperror.ErrDiagnosisNotFound)
	}

	var n int64
	if err := ctl.DB.WithContext(c.UserContext()).
		Model(&runModel.DiagnosisTargetModel{}).
		Where("diagnosis_target_run_id = ? AND diagnosis_target_student_id = ?", runID, studentID).
		Count(&n).Error; err != nil {
		return helper.FromError(c, err)
	}
	if n == 0 {
		return helper.FromError(c, apperror.ErrNotATarget)
	}
	return helper.JsonOK(c, "ok", runDto.FromDetail(*run, questions, false))
}
