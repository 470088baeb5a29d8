// file: internals/features/diagnosis/runs/service/target_generator.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	studentModel "competency_backend/internals/features/academics/students/model"
	"competency_backend/internals/features/diagnosis/runs/model"
)

const targetInsertBatch = 500

// TargetGenerator computes the audience of a run from its grade/department
// filters. It must run inside the run-creation transaction.
type TargetGenerator struct {
	Now func() time.Time
}

func NewTargetGenerator(now func() time.Time) *TargetGenerator {
	if now == nil {
		now = time.Now
	}
	return &TargetGenerator{Now: now}
}

// EligibleStudentIDs returns enrolled students matching both filters
// (nil = wildcard), in one query.
func (g *TargetGenerator) EligibleStudentIDs(ctx context.Context, tx *gorm.DB, grade *int, deptID *uuid.UUID) ([]uuid.UUID, error) {
	q := tx.WithContext(ctx).
		Model(&studentModel.StudentModel{}).
		Where("student_academic_status = ?", studentModel.AcademicStatusEnrolled)
	if grade != nil {
		q = q.Where("student_grade = ?", *grade)
	}
	if deptID != nil {
		q = q.Where("student_department_id = ?", *deptID)
	}
	var ids []uuid.UUID
	if err := q.Order("student_number ASC").Pluck("student_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("select eligible students: %w", err)
	}
	return ids, nil
}

// Generate bulk-inserts one PENDING target per eligible student and returns
// how many were created.
func (g *TargetGenerator) Generate(ctx context.Context, tx *gorm.DB, run *model.DiagnosisRunModel) (int, error) {
	ids, err := g.EligibleStudentIDs(ctx, tx, run.DiagnosisRunTargetGrade, run.DiagnosisRunTargetDeptID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		log.Printf("[TargetGenerator] run=%s has no eligible students", run.DiagnosisRunID)
		return 0, nil
	}

	now := g.Now()
	targets := make([]model.DiagnosisTargetModel, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, model.DiagnosisTargetModel{
			DiagnosisTargetRunID:        run.DiagnosisRunID,
			DiagnosisTargetStudentID:    id,
			DiagnosisTargetStatus:       model.TargetStatusPending,
			DiagnosisTargetRegisteredAt: now,
		})
	}
	if err := tx.WithContext(ctx).CreateInBatches(&targets, targetInsertBatch).Error; err != nil {
		return 0, fmt.Errorf("insert targets: %w", err)
	}
	log.Printf("[TargetGenerator] run=%s targets=%d", run.DiagnosisRunID, len(targets))
	return len(targets), nil
}
