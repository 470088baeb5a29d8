// file: internals/features/competency/summaries/service/summary_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	semesterModel "competency_backend/internals/features/academics/semesters/model"
	studentModel "competency_backend/internals/features/academics/students/model"
	cohortService "competency_backend/internals/features/competency/cohort_stats/service"
	competencyModel "competency_backend/internals/features/competency/competencies/model"
	catalogService "competency_backend/internals/features/competency/competencies/service"
	"competency_backend/internals/features/competency/summaries/model"
	runModel "competency_backend/internals/features/diagnosis/runs/model"
	submissionModel "competency_backend/internals/features/diagnosis/submissions/model"
	helper "competency_backend/internals/helpers"
	"competency_backend/internals/helpers/apperror"
)

const summaryInsertBatch = 500

type SummaryService struct {
	DB      *gorm.DB
	Catalog *catalogService.CatalogService
	Cohort  *cohortService.CohortService
	Now     func() time.Time
}

func NewSummaryService(db *gorm.DB) *SummaryService {
	return &SummaryService{
		DB:      db,
		Catalog: catalogService.NewCatalogService(db),
		Cohort:  cohortService.NewCohortService(db),
		Now:     time.Now,
	}
}

// WithClock pins the time source here and on the cohort engine.
func (s *SummaryService) WithClock(now func() time.Time) *SummaryService {
	s.Now = now
	s.Cohort.Now = now
	return s
}

/* =========================================================
   LOADERS
========================================================= */

func requireSemester(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	var sem semesterModel.SemesterModel
	if err := tx.WithContext(ctx).Select("semester_id").First(&sem, "semester_id = ?", id).Error; err != nil {
		if helper.IsNotFound(err) {
			return apperror.ErrSemesterNotFound
		}
		return fmt.Errorf("load semester: %w", err)
	}
	return nil
}

// semesterQuestions returns every question of every run in the semester.
func semesterQuestions(ctx context.Context, tx *gorm.DB, semesterID uuid.UUID) (map[uuid.UUID]runModel.DiagnosisQuestionModel, error) {
	runIDs := tx.Model(&runModel.DiagnosisRunModel{}).
		Select("diagnosis_run_id").
		Where("diagnosis_run_semester_id = ?", semesterID)

	var qs []runModel.DiagnosisQuestionModel
	if err := tx.WithContext(ctx).
		Where("diagnosis_question_run_id IN (?)", runIDs).
		Find(&qs).Error; err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	out := make(map[uuid.UUID]runModel.DiagnosisQuestionModel, len(qs))
	for _, q := range qs {
		out[q.DiagnosisQuestionID] = q
	}
	return out, nil
}

// diagnosisScores bulk-loads the answers submitted in the semester (one
// student when studentID is set) and folds them into raw subtotals.
func diagnosisScores(ctx context.Context, tx *gorm.DB, semesterID uuid.UUID, studentID *uuid.UUID) (map[uuid.UUID]Scores, error) {
	questions, err := semesterQuestions(ctx, tx, semesterID)
	if err != nil {
		return nil, err
	}

	type answerRow struct {
		StudentID  uuid.UUID
		QuestionID uuid.UUID
		ScaleValue *int
		IsCorrect  *bool
	}
	q := tx.WithContext(ctx).
		Table("diagnosis_answers AS a").
		Select(`s.diagnosis_submission_student_id AS student_id,
			a.diagnosis_answer_question_id AS question_id,
			a.diagnosis_answer_scale_value AS scale_value,
			a.diagnosis_answer_is_correct AS is_correct`).
		Joins("JOIN diagnosis_submissions s ON s.diagnosis_submission_id = a.diagnosis_answer_submission_id").
		Joins("JOIN diagnosis_runs r ON r.diagnosis_run_id = s.diagnosis_submission_run_id").
		Where("r.diagnosis_run_semester_id = ?", semesterID)
	if studentID != nil {
		q = q.Where("s.diagnosis_submission_student_id = ?", *studentID)
	}
	var rows []answerRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}

	out := make(map[uuid.UUID]Scores)
	for _, r := range rows {
		sc := out[r.StudentID]
		sc.Add(questions, Answer{QuestionID: r.QuestionID, ScaleValue: r.ScaleValue, IsCorrect: r.IsCorrect})
		out[r.StudentID] = sc
	}
	return out, nil
}

/* =========================================================
   ROW BUILDING
========================================================= */

type externalKey struct {
	student    uuid.UUID
	competency uuid.UUID
}

// BuildRow rounds the diagnosis subtotals and merges the external scores
// into the total. The weight slot comes from the competency code, not from
// the catalog position.
func BuildRow(semesterID, studentID uuid.UUID, comp competencyModel.CompetencyModel, sc Scores, ext model.ExternalScores, now time.Time) model.SemesterStudentCompetencySummaryModel {
	var skill, apt float64
	if slot := comp.Index(); slot >= 0 {
		skill = sc.Skill[slot]
		apt = sc.Aptitude[slot]
	}
	diag := cohortService.Round2(skill + apt)
	return model.SemesterStudentCompetencySummaryModel{
		SummarySemesterID:             semesterID,
		SummaryStudentID:              studentID,
		SummaryCompetencyID:           comp.CompetencyID,
		SummaryDiagnosisSkillScore:    cohortService.Round2(skill),
		SummaryDiagnosisAptitudeScore: cohortService.Round2(apt),
		SummaryDiagnosisScore:         diag,
		SummaryCurricularScore:        ext.Curricular,
		SummaryExtraScore:             ext.Extra,
		SummarySelfExtraScore:         ext.SelfExtra,
		SummaryTotalScore:             cohortService.Round2(diag + ext.Curricular + ext.Extra + ext.SelfExtra),
		SummaryCalculatedAt:           now,
	}
}

/* =========================================================
   SINGLE STUDENT
========================================================= */

// RecalculateStudentSummary opens its own transaction.
func (s *SummaryService) RecalculateStudentSummary(ctx context.Context, semesterID, studentID uuid.UUID) ([]model.SemesterStudentCompetencySummaryModel, error) {
	var out []model.SemesterStudentCompetencySummaryModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.RecalculateStudentSummaryTx(ctx, tx, semesterID, studentID)
		out = rows
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecalculateStudentSummaryTx recomputes the diagnosis part of the student's
// six summary rows and upserts them, keeping the external score columns.
// Cohort stats are not touched.
func (s *SummaryService) RecalculateStudentSummaryTx(ctx context.Context, tx *gorm.DB, semesterID, studentID uuid.UUID) ([]model.SemesterStudentCompetencySummaryModel, error) {
	if err := requireSemester(ctx, tx, semesterID); err != nil {
		return nil, err
	}
	var st studentModel.StudentModel
	if err := tx.WithContext(ctx).Select("student_id").First(&st, "student_id = ?", studentID).Error; err != nil {
		if helper.IsNotFound(err) {
			return nil, apperror.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	catalog, err := s.Catalog.RequireAll(ctx, tx)
	if err != nil {
		return nil, err
	}

	scores, err := diagnosisScores(ctx, tx, semesterID, &studentID)
	if err != nil {
		return nil, err
	}

	var existing []model.SemesterStudentCompetencySummaryModel
	if err := tx.WithContext(ctx).
		Where("summary_semester_id = ? AND summary_student_id = ?", semesterID, studentID).
		Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("load existing summaries: %w", err)
	}
	ext := make(map[uuid.UUID]model.ExternalScores, len(existing))
	for _, r := range existing {
		ext[r.SummaryCompetencyID] = r.External()
	}

	now := s.Now()
	sc := scores[studentID]
	rows := make([]model.SemesterStudentCompetencySummaryModel, 0, len(catalog))
	for _, c := range catalog {
		rows = append(rows, BuildRow(semesterID, studentID, c, sc, ext[c.CompetencyID], now))
	}

	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "summary_semester_id"},
				{Name: "summary_student_id"},
				{Name: "summary_competency_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"summary_diagnosis_skill_score",
				"summary_diagnosis_aptitude_score",
				"summary_diagnosis_score",
				"summary_total_score",
				"summary_calculated_at",
			}),
		}).
		Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("upsert summaries: %w", err)
	}

	var stored []model.SemesterStudentCompetencySummaryModel
	if err := tx.WithContext(ctx).
		Where("summary_semester_id = ? AND summary_student_id = ?", semesterID, studentID).
		Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload summaries: %w", err)
	}
	return orderByCatalog(stored, catalog), nil
}

func orderByCatalog(rows []model.SemesterStudentCompetencySummaryModel, catalog catalogService.Catalog) []model.SemesterStudentCompetencySummaryModel {
	byComp := make(map[uuid.UUID]model.SemesterStudentCompetencySummaryModel, len(rows))
	for _, r := range rows {
		byComp[r.SummaryCompetencyID] = r
	}
	out := make([]model.SemesterStudentCompetencySummaryModel, 0, len(rows))
	for _, c := range catalog {
		if r, ok := byComp[c.CompetencyID]; ok {
			out = append(out, r)
		}
	}
	return out
}

/* =========================================================
   WHOLE SEMESTER
========================================================= */

type BatchResult struct {
	SemesterID   uuid.UUID `json:"semester_id"`
	Students     int       `json:"students"`
	SummaryRows  int       `json:"summary_rows"`
	CohortStats  int       `json:"cohort_stats"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// semesterStudents is the rebuild population: enrolled students, anyone who
// submitted in the semester, and anyone already holding a summary row (so
// external scores of departed students survive). This deliberately goes
// beyond enrolled x competencies: once a non-enrolled student has submitted
// or holds external scores, the semester has more rows than that product.
func semesterStudents(ctx context.Context, tx *gorm.DB, semesterID uuid.UUID) ([]uuid.UUID, error) {
	var enrolled, submitted, existing []uuid.UUID
	if err := tx.WithContext(ctx).
		Model(&studentModel.StudentModel{}).
		Where("student_academic_status = ?", studentModel.AcademicStatusEnrolled).
		Order("student_number ASC").
		Pluck("student_id", &enrolled).Error; err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	if err := tx.WithContext(ctx).
		Model(&submissionModel.DiagnosisSubmissionModel{}).
		Joins("JOIN diagnosis_runs ON diagnosis_runs.diagnosis_run_id = diagnosis_submissions.diagnosis_submission_run_id").
		Where("diagnosis_runs.diagnosis_run_semester_id = ?", semesterID).
		Distinct().
		Pluck("diagnosis_submissions.diagnosis_submission_student_id", &submitted).Error; err != nil {
		return nil, fmt.Errorf("list submitters: %w", err)
	}
	if err := tx.WithContext(ctx).
		Model(&model.SemesterStudentCompetencySummaryModel{}).
		Where("summary_semester_id = ?", semesterID).
		Distinct().
		Pluck("summary_student_id", &existing).Error; err != nil {
		return nil, fmt.Errorf("list summarized students: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(enrolled))
	out := make([]uuid.UUID, 0, len(enrolled))
	for _, list := range [][]uuid.UUID{enrolled, submitted, existing} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// RecalculateAllSummaries deletes and rebuilds every summary row of the
// semester, then rebuilds its cohort stats, all in one transaction.
func (s *SummaryService) RecalculateAllSummaries(ctx context.Context, semesterID uuid.UUID) (*BatchResult, error) {
	started := time.Now()
	var res BatchResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireSemester(ctx, tx, semesterID); err != nil {
			return err
		}
		catalog, err := s.Catalog.RequireAll(ctx, tx)
		if err != nil {
			return err
		}

		var existing []model.SemesterStudentCompetencySummaryModel
		if err := tx.WithContext(ctx).
			Select("summary_student_id", "summary_competency_id", "summary_curricular_score", "summary_extra_score", "summary_self_extra_score").
			Where("summary_semester_id = ?", semesterID).
			Find(&existing).Error; err != nil {
			return fmt.Errorf("load external scores: %w", err)
		}
		ext := make(map[externalKey]model.ExternalScores, len(existing))
		for _, r := range existing {
			ext[externalKey{r.SummaryStudentID, r.SummaryCompetencyID}] = r.External()
		}

		students, err := semesterStudents(ctx, tx, semesterID)
		if err != nil {
			return err
		}
		scores, err := diagnosisScores(ctx, tx, semesterID, nil)
		if err != nil {
			return err
		}

		if err := tx.WithContext(ctx).
			Where("summary_semester_id = ?", semesterID).
			Delete(&model.SemesterStudentCompetencySummaryModel{}).Error; err != nil {
			return fmt.Errorf("delete summaries: %w", err)
		}

		now := s.Now()
		rows := make([]model.SemesterStudentCompetencySummaryModel, 0, len(students)*len(catalog))
		for _, sid := range students {
			sc := scores[sid]
			for _, c := range catalog {
				rows = append(rows, BuildRow(semesterID, sid, c, sc, ext[externalKey{sid, c.CompetencyID}], now))
			}
		}
		if len(rows) > 0 {
			if err := tx.WithContext(ctx).CreateInBatches(&rows, summaryInsertBatch).Error; err != nil {
				return fmt.Errorf("insert summaries: %w", err)
			}
		}

		stats, err := s.Cohort.RebuildSemester(ctx, tx, semesterID)
		if err != nil {
			return err
		}

		res = BatchResult{
			SemesterID:   semesterID,
			Students:     len(students),
			SummaryRows:  len(rows),
			CohortStats:  len(stats),
			CalculatedAt: now,
		}
		return nil
	})
	if err != nil {
		log.Printf("[SummaryService] recalculation of semester=%s failed: %v", semesterID, err)
		return nil, err
	}
	log.Printf("[SummaryService] recalculated semester=%s students=%d rows=%d in %s",
		semesterID, res.Students, res.SummaryRows, time.Since(started).Round(time.Millisecond))
	return &res, nil
}

// ForStudent returns the student's stored summary rows for the semester in
// catalog order.
func (s *SummaryService) ForStudent(ctx context.Context, semesterID, studentID uuid.UUID) ([]model.SemesterStudentCompetencySummaryModel, error) {
	catalog, err := s.Catalog.RequireAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	var rows []model.SemesterStudentCompetencySummaryModel
	if err := s.DB.WithContext(ctx).
		Where("summary_semester_id = ? AND summary_student_id = ?", semesterID, studentID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	return orderByCatalog(rows, catalog), nil
}
