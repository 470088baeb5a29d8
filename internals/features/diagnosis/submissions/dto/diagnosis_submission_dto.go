// file: internals/features/diagnosis/submissions/dto/diagnosis_submission_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"competency_backend/internals/features/diagnosis/submissions/model"
)

// =======================
// Request DTO
// =======================

type AnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" validate:"required"`
	ScaleValue *int      `json:"scale_value,omitempty"`
	TextValue  *string   `json:"text_value,omitempty" validate:"omitempty,max=2000"`
}

type SubmitRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

// =======================
// Response DTO
// =======================

type AnswerResponse struct {
	QuestionID uuid.UUID `json:"question_id"`
	ScaleValue *int      `json:"scale_value,omitempty"`
	TextValue  *string   `json:"text_value,omitempty"`
	IsCorrect  *bool     `json:"is_correct,omitempty"`
}

type SubmissionResponse struct {
	ID          uuid.UUID        `json:"id"`
	RunID       uuid.UUID        `json:"run_id"`
	StudentID   uuid.UUID        `json:"student_id"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Answers     []AnswerResponse `json:"answers"`
}

func FromModel(s model.DiagnosisSubmissionModel, answers []model.DiagnosisAnswerModel) SubmissionResponse {
	out := SubmissionResponse{
		ID:          s.DiagnosisSubmissionID,
		RunID:       s.DiagnosisSubmissionRunID,
		StudentID:   s.DiagnosisSubmissionStudentID,
		SubmittedAt: s.DiagnosisSubmissionSubmittedAt,
		Answers:     make([]AnswerResponse, 0, len(answers)),
	}
	for _, a := range answers {
		out.Answers = append(out.Answers, AnswerResponse{
			QuestionID: a.DiagnosisAnswerQuestionID,
			ScaleValue: a.DiagnosisAnswerScaleValue,
			TextValue:  a.DiagnosisAnswerTextValue,
			IsCorrect:  a.DiagnosisAnswerIsCorrect,
		})
	}
	return out
}
