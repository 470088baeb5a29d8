package academics

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	semesterModel "competency_backend/internals/features/academics/semesters/model"
	studentModel "competency_backend/internals/features/academics/students/model"
)

type SemesterSeed struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type DepartmentSeed struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type StudentSeed struct {
	ID             uuid.UUID  `json:"id"`
	Number         string     `json:"number"`
	Name           string     `json:"name"`
	Grade          int        `json:"grade"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty"`
	AcademicStatus string     `json:"academic_status,omitempty"`
}

type RosterSeed struct {
	Semesters   []SemesterSeed   `json:"semesters"`
	Departments []DepartmentSeed `json:"departments"`
	Students    []StudentSeed    `json:"students"`
}

// SeedRosterFromJSON memuat roster demo. Baris yang sudah ada (per primary
// key / student_number) dilewati, jadi aman dijalankan ulang.
func SeedRosterFromJSON(ctx context.Context, db *gorm.DB, filePath string) error {
	log.Println("📥 Membaca file roster:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}
	var in RosterSeed
	if err := sonic.Unmarshal(file, &in); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		semesters := make([]semesterModel.SemesterModel, 0, len(in.Semesters))
		for _, s := range in.Semesters {
			semesters = append(semesters, semesterModel.SemesterModel{
				SemesterID:        s.ID,
				SemesterName:      s.Name,
				SemesterStartDate: s.StartDate,
				SemesterEndDate:   s.EndDate,
			})
		}
		departments := make([]studentModel.DepartmentModel, 0, len(in.Departments))
		for _, d := range in.Departments {
			departments = append(departments, studentModel.DepartmentModel{
				DepartmentID:   d.ID,
				DepartmentName: d.Name,
			})
		}
		students := make([]studentModel.StudentModel, 0, len(in.Students))
		for _, s := range in.Students {
			students = append(students, studentModel.StudentModel{
				StudentID:             s.ID,
				StudentNumber:         s.Number,
				StudentName:           s.Name,
				StudentGrade:          s.Grade,
				StudentDepartmentID:   s.DepartmentID,
				StudentAcademicStatus: s.AcademicStatus,
			})
		}

		skip := clause.OnConflict{DoNothing: true}
		if len(semesters) > 0 {
			if err := tx.Clauses(skip).Create(&semesters).Error; err != nil {
				return fmt.Errorf("insert semesters: %w", err)
			}
		}
		if len(departments) > 0 {
			if err := tx.Clauses(skip).Create(&departments).Error; err != nil {
				return fmt.Errorf("insert departments: %w", err)
			}
		}
		if len(students) > 0 {
			if err := tx.Clauses(skip).CreateInBatches(&students, 500).Error; err != nil {
				return fmt.Errorf("insert students: %w", err)
			}
		}
		log.Printf("✅ Roster: %d semester, %d jurusan, %d siswa", len(semesters), len(departments), len(students))
		return nil
	})
}
