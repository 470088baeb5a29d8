// file: internals/features/competency/cohort_stats/service/cohort_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"competency_backend/internals/features/competency/cohort_stats/model"
	catalogService "competency_backend/internals/features/competency/competencies/service"
	summaryModel "competency_backend/internals/features/competency/summaries/model"
	runModel "competency_backend/internals/features/diagnosis/runs/model"
)

type CohortService struct {
	DB      *gorm.DB
	Catalog *catalogService.CatalogService
	Now     func() time.Time
}

func NewCohortService(db *gorm.DB) *CohortService {
	return &CohortService{
		DB:      db,
		Catalog: catalogService.NewCatalogService(db),
		Now:     time.Now,
	}
}

func (s *CohortService) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return s.DB
	}
	return tx
}

// TargetCount is the number of distinct students targeted by any run of the
// semester.
func (s *CohortService) TargetCount(ctx context.Context, tx *gorm.DB, semesterID uuid.UUID) (int64, error) {
	var n int64
	err := s.conn(tx).WithContext(ctx).
		Model(&runModel.DiagnosisTargetModel{}).
		Joins("JOIN diagnosis_runs ON diagnosis_runs.diagnosis_run_id = diagnosis_targets.diagnosis_target_run_id").
		Where("diagnosis_runs.diagnosis_run_semester_id = ?", semesterID).
		Distinct("diagnosis_targets.diagnosis_target_student_id").
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count semester targets: %w", err)
	}
	return n, nil
}

// TotalsByCompetency loads the totalScore of every summary row of the
// semester grouped by competency id.
func (s *CohortService) TotalsByCompetency(ctx context.Context, tx *gorm.DB, semesterID uuid.UUID) (map[uuid.UUID][]float64, error) {
	type row struct {
		CompetencyID uuid.UUID
		Total        float64
	}
	var rows []row
	if err := s.conn(tx).WithContext(ctx).
		Model(&summaryModel.SemesterStudentCompetencySummaryModel{}).
		Select("summary_competency_id AS competency_id, summary_total_score AS total").
		Where("summary_semester_id = ?", semesterID).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load semester totals: %w", err)
	}
	out := make(map[uuid.UUID][]float64)
	for _, r := range rows {
		out[r.CompetencyID] = append(out[r.CompetencyID], r.Total)
	}
	return out, nil
}

// Compute builds one stat row per competency without touching the database.
func Compute(semesterID uuid.UUID, catalog catalogService.Catalog, totals map[uuid.UUID][]float64, targetCount int64, now time.Time) ([]model.SemesterCompetencyCohortStatModel, error) {
	out := make([]model.SemesterCompetencyCohortStatModel, 0, len(catalog))
	for _, c := range catalog {
		xs := totals[c.CompetencyID]
		d := Describe(xs)
		dist, err := DistributionJSON(xs)
		if err != nil {
			return nil, fmt.Errorf("encode distribution: %w", err)
		}
		out = append(out, model.SemesterCompetencyCohortStatModel{
			CohortStatSemesterID:      semesterID,
			CohortStatCompetencyID:    c.CompetencyID,
			CohortStatTargetCount:     int(targetCount),
			CohortStatCalculatedCount: d.Count,
			CohortStatMean:            d.Mean,
			CohortStatMax:             d.Max,
			CohortStatMedian:          d.Median,
			CohortStatStdDev:          d.StdDev,
			CohortStatDistribution:    dist,
			CohortStatCalculatedAt:    now,
		})
	}
	return out, nil
}

// ComputeSemester is the request-scoped variant of RebuildSemester.
func (s *CohortService) ComputeSemester(ctx context.Context, tx *gorm.DB, semesterID uuid.UUID) ([]model.SemesterCompetencyCohortStatModel, error) {
	catalog, err := s.Catalog.RequireAll(ctx, s.conn(tx))
	if err != nil {
		return nil, err
	}
	targets, err := s.TargetCount(ctx, tx, semesterID)
	if err != nil {
		return nil, err
	}
	totals, err := s.TotalsByCompetency(ctx, tx, semesterID)
	if err != nil {
		return nil, err
	}
	return Compute(semesterID, catalog, totals, targets, s.Now())
}

// RebuildSemester replaces the persisted cohort stats of the semester. It
// runs in the caller's transaction.
func (s *CohortService) RebuildSemester(ctx context.Context, tx *gorm.DB, semesterID uuid.UUID) ([]model.SemesterCompetencyCohortStatModel, error) {
	rows, err := s.ComputeSemester(ctx, tx, semesterID)
	if err != nil {
		return nil, err
	}
	db := s.conn(tx).WithContext(ctx)
	if err := db.Where("cohort_stat_semester_id = ?", semesterID).
		Delete(&model.SemesterCompetencyCohortStatModel{}).Error; err != nil {
		return nil, fmt.Errorf("delete cohort stats: %w", err)
	}
	if err := db.Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("insert cohort stats: %w", err)
	}
	log.Printf("[CohortService] rebuilt semester=%s competencies=%d", semesterID, len(rows))
	return rows, nil
}

// Persisted returns the stored stats of the semester keyed by competency id.
func (s *CohortService) Persisted(ctx context.Context, semesterID uuid.UUID) (map[uuid.UUID]model.SemesterCompetencyCohortStatModel, error) {
	var rows []model.SemesterCompetencyCohortStatModel
	if err := s.DB.WithContext(ctx).
		Where("cohort_stat_semester_id = ?", semesterID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load cohort stats: %w", err)
	}
	out := make(map[uuid.UUID]model.SemesterCompetencyCohortStatModel, len(rows))
	for _, r := range rows {
		out[r.CohortStatCompetencyID] = r
	}
	return out, nil
}
