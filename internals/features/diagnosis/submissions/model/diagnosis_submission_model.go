// file: internals/features/diagnosis/submissions/model/diagnosis_submission_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiagnosisSubmissionModel: satu baris per (run, student). The unique index
// is what closes the race between two concurrent submits.
type DiagnosisSubmissionModel struct {
	DiagnosisSubmissionID          uuid.UUID `gorm:"type:uuid;primaryKey;column:diagnosis_submission_id" json:"diagnosis_submission_id"`
	DiagnosisSubmissionRunID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_diagnosis_submissions_run_student;column:diagnosis_submission_run_id" json:"diagnosis_submission_run_id"`
	DiagnosisSubmissionStudentID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_diagnosis_submissions_run_student;index:idx_diagnosis_submissions_student;column:diagnosis_submission_student_id" json:"diagnosis_submission_student_id"`
	DiagnosisSubmissionSubmittedAt time.Time `gorm:"not null;column:diagnosis_submission_submitted_at" json:"diagnosis_submission_submitted_at"`
}

func (DiagnosisSubmissionModel) TableName() string { return "diagnosis_submissions" }

func (m *DiagnosisSubmissionModel) BeforeCreate(tx *gorm.DB) error {
	if m.DiagnosisSubmissionID == uuid.Nil {
		m.DiagnosisSubmissionID = uuid.New()
	}
	return nil
}

type DiagnosisAnswerModel struct {
	DiagnosisAnswerID           uuid.UUID `gorm:"type:uuid;primaryKey;column:diagnosis_answer_id" json:"diagnosis_answer_id"`
	DiagnosisAnswerSubmissionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_diagnosis_answers_submission_question;column:diagnosis_answer_submission_id" json:"diagnosis_answer_submission_id"`
	DiagnosisAnswerQuestionID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_diagnosis_answers_submission_question;index:idx_diagnosis_answers_question;column:diagnosis_answer_question_id" json:"diagnosis_answer_question_id"`

	DiagnosisAnswerScaleValue *int    `gorm:"type:integer;column:diagnosis_answer_scale_value" json:"diagnosis_answer_scale_value,omitempty"`
	DiagnosisAnswerTextValue  *string `gorm:"type:text;column:diagnosis_answer_text_value" json:"diagnosis_answer_text_value,omitempty"`
	// set for SHORT questions only
	DiagnosisAnswerIsCorrect *bool `gorm:"column:diagnosis_answer_is_correct" json:"diagnosis_answer_is_correct,omitempty"`
}

func (DiagnosisAnswerModel) TableName() string { return "diagnosis_answers" }

func (m *DiagnosisAnswerModel) BeforeCreate(tx *gorm.DB) error {
	if m.DiagnosisAnswerID == uuid.Nil {
		m.DiagnosisAnswerID = uuid.New()
	}
	return nil
}
