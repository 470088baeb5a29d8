// file: internals/features/academics/semesters/model/semester_model.go
package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SemesterModel is owned by the academic calendar subsystem. The diagnosis
// engine only references it by id and reads its date range.
type SemesterModel struct {
	SemesterID        uuid.UUID `gorm:"type:uuid;primaryKey;column:semester_id" json:"semester_id"`
	SemesterName      string    `gorm:"type:text;not null;column:semester_name" json:"semester_name"`
	SemesterStartDate time.Time `gorm:"not null;column:semester_start_date" json:"semester_start_date"`
	SemesterEndDate   time.Time `gorm:"not null;column:semester_end_date" json:"semester_end_date"`

	SemesterCreatedAt time.Time `gorm:"autoCreateTime;column:semester_created_at" json:"semester_created_at"`
	SemesterUpdatedAt time.Time `gorm:"autoUpdateTime;column:semester_updated_at" json:"semester_updated_at"`
}

func (SemesterModel) TableName() string { return "semesters" }

func (m *SemesterModel) BeforeCreate(tx *gorm.DB) error {
	if m.SemesterID == uuid.Nil {
		m.SemesterID = uuid.New()
	}
	return nil
}

func (m *SemesterModel) BeforeSave(tx *gorm.DB) error {
	m.SemesterName = strings.TrimSpace(m.SemesterName)
	if m.SemesterEndDate.Before(m.SemesterStartDate) {
		return errors.New("semester_end_date must be >= semester_start_date")
	}
	return nil
}

// Contains reports whether t falls inside the semester (inclusive).
func (m SemesterModel) Contains(t time.Time) bool {
	return !t.Before(m.SemesterStartDate) && !t.After(m.SemesterEndDate)
}
