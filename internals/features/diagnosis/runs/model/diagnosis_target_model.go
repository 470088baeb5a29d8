// file: internals/features/diagnosis/runs/model/diagnosis_target_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TargetStatus string

const (
	TargetStatusPending   TargetStatus = "PENDING"
	TargetStatusSubmitted TargetStatus = "SUBMITTED"
	TargetStatusExpired   TargetStatus = "EXPIRED"
)

type DiagnosisTargetModel struct {
	DiagnosisTargetID           uuid.UUID    `gorm:"type:uuid;primaryKey;column:diagnosis_target_id" json:"diagnosis_target_id"`
	DiagnosisTargetRunID        uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uq_diagnosis_targets_run_student;column:diagnosis_target_run_id" json:"diagnosis_target_run_id"`
	DiagnosisTargetStudentID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uq_diagnosis_targets_run_student;index:idx_diagnosis_targets_student;column:diagnosis_target_student_id" json:"diagnosis_target_student_id"`
	DiagnosisTargetStatus       TargetStatus `gorm:"type:varchar(10);not null;column:diagnosis_target_status" json:"diagnosis_target_status"`
	DiagnosisTargetRegisteredAt time.Time    `gorm:"not null;column:diagnosis_target_registered_at" json:"diagnosis_target_registered_at"`
	DiagnosisTargetSubmittedAt  *time.Time   `gorm:"column:diagnosis_target_submitted_at" json:"diagnosis_target_submitted_at,omitempty"`
}

func (DiagnosisTargetModel) TableName() string { return "diagnosis_targets" }

func (m *DiagnosisTargetModel) BeforeCreate(tx *gorm.DB) error {
	if m.DiagnosisTargetID == uuid.Nil {
		m.DiagnosisTargetID = uuid.New()
	}
	if m.DiagnosisTargetStatus == "" {
		m.DiagnosisTargetStatus = TargetStatusPending
	}
	return nil
}
