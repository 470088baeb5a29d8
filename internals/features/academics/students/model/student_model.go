// file: internals/features/academics/students/model/student_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Academic status values on the roster. Only ENROLLED students are
// eligible diagnosis targets.
const (
	AcademicStatusEnrolled  = "ENROLLED"
	AcademicStatusLeave     = "LEAVE"
	AcademicStatusGraduated = "GRADUATED"
	AcademicStatusWithdrawn = "WITHDRAWN"
)

// StudentModel is the roster row maintained by the student affairs
// subsystem; read-only here.
type StudentModel struct {
	StudentID             uuid.UUID  `gorm:"type:uuid;primaryKey;column:student_id" json:"student_id"`
	StudentNumber         string     `gorm:"type:varchar(32);not null;uniqueIndex:uq_students_number;column:student_number" json:"student_number"`
	StudentName           string     `gorm:"type:text;not null;column:student_name" json:"student_name"`
	StudentGrade          int        `gorm:"type:integer;not null;index:idx_students_grade_dept;column:student_grade" json:"student_grade"`
	StudentDepartmentID   *uuid.UUID `gorm:"type:uuid;index:idx_students_grade_dept;column:student_department_id" json:"student_department_id,omitempty"`
	StudentAcademicStatus string     `gorm:"type:varchar(16);not null;default:ENROLLED;column:student_academic_status" json:"student_academic_status"`

	StudentCreatedAt time.Time `gorm:"autoCreateTime;column:student_created_at" json:"student_created_at"`
	StudentUpdatedAt time.Time `gorm:"autoUpdateTime;column:student_updated_at" json:"student_updated_at"`
}

func (StudentModel) TableName() string { return "students" }

func (m *StudentModel) BeforeCreate(tx *gorm.DB) error {
	if m.StudentID == uuid.Nil {
		m.StudentID = uuid.New()
	}
	if strings.TrimSpace(m.StudentAcademicStatus) == "" {
		m.StudentAcademicStatus = AcademicStatusEnrolled
	}
	return nil
}

func (m StudentModel) IsEnrolled() bool {
	return m.StudentAcademicStatus == AcademicStatusEnrolled
}

type DepartmentModel struct {
	DepartmentID   uuid.UUID `gorm:"type:uuid;primaryKey;column:department_id" json:"department_id"`
	DepartmentName string    `gorm:"type:text;not null;column:department_name" json:"department_name"`

	DepartmentCreatedAt time.Time `gorm:"autoCreateTime;column:department_created_at" json:"department_created_at"`
}

func (DepartmentModel) TableName() string { return "departments" }

func (m *DepartmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.DepartmentID == uuid.Nil {
		m.DepartmentID = uuid.New()
	}
	return nil
}
