// Package testdb builds throwaway SQLite databases and roster fixtures for
// package tests.
package testdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	database "competency_backend/internals/databases"
	semesterModel "competency_backend/internals/features/academics/semesters/model"
	studentModel "competency_backend/internals/features/academics/students/model"
	competencyModel "competency_backend/internals/features/competency/competencies/model"
)

// Open returns a migrated database in t.TempDir() with the competency
// catalog seeded.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db := OpenEmpty(t)
	catalog := competencyModel.DefaultCatalog()
	if err := db.Create(&catalog).Error; err != nil {
		t.Fatalf("seed competencies: %v", err)
	}
	return db
}

// OpenEmpty is Open without the catalog.
func OpenEmpty(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = db.Logger.LogMode(gormLogger.Silent)
	t.Cleanup(func() { _ = database.Close(db) })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Clock is a settable time source for services that stamp rows.
type Clock struct{ T time.Time }

func NewClock(t time.Time) *Clock { return &Clock{T: t} }

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

func Semester(t *testing.T, db *gorm.DB, name string, start, end time.Time) semesterModel.SemesterModel {
	t.Helper()
	s := semesterModel.SemesterModel{SemesterName: name, SemesterStartDate: start, SemesterEndDate: end}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("create semester: %v", err)
	}
	return s
}

func Department(t *testing.T, db *gorm.DB, name string) studentModel.DepartmentModel {
	t.Helper()
	d := studentModel.DepartmentModel{DepartmentName: name}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("create department: %v", err)
	}
	return d
}

// Student creates an ENROLLED student unless status is given.
func Student(t *testing.T, db *gorm.DB, grade int, deptID *uuid.UUID, status ...string) studentModel.StudentModel {
	t.Helper()
	st := studentModel.StudentModel{
		StudentNumber:       uuid.NewString()[:12],
		StudentName:         "Student " + uuid.NewString()[:6],
		StudentGrade:        grade,
		StudentDepartmentID: deptID,
	}
	if len(status) > 0 {
		st.StudentAcademicStatus = status[0]
	}
	if err := db.Create(&st).Error; err != nil {
		t.Fatalf("create student: %v", err)
	}
	return st
}
