// file: internals/features/diagnosis/runs/model/diagnosis_run_model.go
package model

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RunStatus string

const (
	RunStatusDraft  RunStatus = "DRAFT"
	RunStatusOpen   RunStatus = "OPEN"
	RunStatusClosed RunStatus = "CLOSED"
)

type DiagnosisRunModel struct {
	DiagnosisRunID           uuid.UUID  `gorm:"type:uuid;primaryKey;column:diagnosis_run_id" json:"diagnosis_run_id"`
	DiagnosisRunSemesterID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_diagnosis_runs_semester;column:diagnosis_run_semester_id" json:"diagnosis_run_semester_id"`
	DiagnosisRunTitle        string     `gorm:"type:text;not null;column:diagnosis_run_title" json:"diagnosis_run_title"`
	DiagnosisRunDescription  *string    `gorm:"type:text;column:diagnosis_run_description" json:"diagnosis_run_description,omitempty"`
	DiagnosisRunTargetGrade  *int       `gorm:"type:integer;column:diagnosis_run_target_grade" json:"diagnosis_run_target_grade,omitempty"`
	DiagnosisRunTargetDeptID *uuid.UUID `gorm:"type:uuid;column:diagnosis_run_target_dept_id" json:"diagnosis_run_target_dept_id,omitempty"`

	// semester|grade|dept with "*" for the wildcard; unique so that NULL
	// filters still collide (plain composite unique treats NULLs as distinct).
	DiagnosisRunTargetKey string `gorm:"type:varchar(100);not null;uniqueIndex:uq_diagnosis_runs_target_key;column:diagnosis_run_target_key" json:"-"`

	DiagnosisRunStartAt time.Time `gorm:"not null;column:diagnosis_run_start_at" json:"diagnosis_run_start_at"`
	DiagnosisRunEndAt   time.Time `gorm:"not null;column:diagnosis_run_end_at" json:"diagnosis_run_end_at"`
	DiagnosisRunStatus  RunStatus `gorm:"type:varchar(10);not null;column:diagnosis_run_status" json:"diagnosis_run_status"`

	DiagnosisRunCreatedAt time.Time `gorm:"autoCreateTime;column:diagnosis_run_created_at" json:"diagnosis_run_created_at"`
	DiagnosisRunUpdatedAt time.Time `gorm:"autoUpdateTime;column:diagnosis_run_updated_at" json:"diagnosis_run_updated_at"`
}

func (DiagnosisRunModel) TableName() string { return "diagnosis_runs" }

func (m *DiagnosisRunModel) BeforeCreate(tx *gorm.DB) error {
	if m.DiagnosisRunID == uuid.Nil {
		m.DiagnosisRunID = uuid.New()
	}
	if m.DiagnosisRunStatus == "" {
		m.DiagnosisRunStatus = RunStatusDraft
	}
	return nil
}

func (m *DiagnosisRunModel) BeforeSave(tx *gorm.DB) error {
	m.DiagnosisRunTitle = strings.TrimSpace(m.DiagnosisRunTitle)
	if m.DiagnosisRunDescription != nil {
		d := strings.TrimSpace(*m.DiagnosisRunDescription)
		if d == "" {
			m.DiagnosisRunDescription = nil
		} else {
			m.DiagnosisRunDescription = &d
		}
	}
	if !m.DiagnosisRunEndAt.After(m.DiagnosisRunStartAt) {
		return errors.New("diagnosis_run_end_at must be after diagnosis_run_start_at")
	}
	m.DiagnosisRunTargetKey = TargetKey(m.DiagnosisRunSemesterID, m.DiagnosisRunTargetGrade, m.DiagnosisRunTargetDeptID)
	return nil
}

// AcceptsAt reports whether a submission at t is inside the open window.
func (m DiagnosisRunModel) AcceptsAt(t time.Time) bool {
	return m.DiagnosisRunStatus == RunStatusOpen &&
		!t.Before(m.DiagnosisRunStartAt) && !t.After(m.DiagnosisRunEndAt)
}

// TargetKey builds the audience key used by the uniqueness rule.
func TargetKey(semesterID uuid.UUID, grade *int, deptID *uuid.UUID) string {
	g := "*"
	if grade != nil {
		g = strconv.Itoa(*grade)
	}
	d := "*"
	if deptID != nil {
		d = deptID.String()
	}
	return semesterID.String() + "|" + g + "|" + d
}
