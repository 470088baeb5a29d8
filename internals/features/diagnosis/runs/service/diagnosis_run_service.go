// file: internals/features/diagnosis/runs/service/diagnosis_run_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	semesterModel "competency_backend/internals/features/academics/semesters/model"
	studentModel "competency_backend/internals/features/academics/students/model"
	"competency_backend/internals/features/diagnosis/runs/dto"
	"competency_backend/internals/features/diagnosis/runs/model"
	submissionModel "competency_backend/internals/features/diagnosis/submissions/model"
	helper "competency_backend/internals/helpers"
	"competency_backend/internals/helpers/apperror"
)

/* =========================================================
   SERVICE
========================================================= */

type DiagnosisRunService struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Targets   *TargetGenerator
	Now       func() time.Time
}

func NewDiagnosisRunService(db *gorm.DB, v *validator.Validate) *DiagnosisRunService {
	if v == nil {
		v = validator.New()
	}
	return &DiagnosisRunService{
		DB:        db,
		Validator: v,
		Targets:   NewTargetGenerator(time.Now),
		Now:       time.Now,
	}
}

// WithClock pins the time source of the service and its target generator.
func (s *DiagnosisRunService) WithClock(now func() time.Time) *DiagnosisRunService {
	s.Now = now
	s.Targets = NewTargetGenerator(now)
	return s
}

func (s *DiagnosisRunService) validate(v any) error {
	if err := s.Validator.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return apperror.Validation("invalid diagnosis input", helper.ValidationFields(ve))
		}
		return apperror.Validation(err.Error(), nil)
	}
	return nil
}

func validateQuestions(list []dto.QuestionRequest) error {
	fields := map[string][]string{}
	for i, q := range list {
		for k, v := range q.CheckRules("questions[" + strconv.Itoa(i) + "].") {
			fields[k] = append(fields[k], v...)
		}
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid questions", fields)
	}
	return nil
}

/* =========================================================
   CREATE
========================================================= */

// Create persists a DRAFT run with its questions and generates its targets
// in one transaction. Returns the new run id.
func (s *DiagnosisRunService) Create(ctx context.Context, in dto.CreateDiagnosisRequest) (uuid.UUID, error) {
	in.Normalize()
	if err := s.validate(in); err != nil {
		return uuid.Nil, err
	}
	if err := validateQuestions(in.Questions); err != nil {
		return uuid.Nil, err
	}

	run := in.ToModel()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var semCount int64
		if err := tx.Model(&semesterModel.SemesterModel{}).
			Where("semester_id = ?", in.SemesterID).
			Count(&semCount).Error; err != nil {
			return fmt.Errorf("check semester: %w", err)
		}
		if semCount == 0 {
			return apperror.ErrSemesterNotFound
		}

		if in.TargetDeptID != nil {
			var deptCount int64
			if err := tx.Model(&studentModel.DepartmentModel{}).
				Where("department_id = ?", *in.TargetDeptID).
				Count(&deptCount).Error; err != nil {
				return fmt.Errorf("check department: %w", err)
			}
			if deptCount == 0 {
				return apperror.Validation("unknown department", map[string][]string{"target_dept_id": {"exists"}})
			}
		}

		key := model.TargetKey(in.SemesterID, in.TargetGrade, in.TargetDeptID)
		var dup int64
		if err := tx.Model(&model.DiagnosisRunModel{}).
			Where("diagnosis_run_target_key = ?", key).
			Count(&dup).Error; err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if dup > 0 {
			return apperror.ErrDuplicateDiagnosisForSemester
		}

		if err := tx.Create(&run).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return apperror.Wrap(apperror.KindDuplicateDiagnosisForSemester, err, "a diagnosis already exists for this semester, grade and department")
			}
			return fmt.Errorf("insert run: %w", err)
		}

		questions := dto.QuestionsToModels(run.DiagnosisRunID, in.Questions)
		if err := tx.Create(&questions).Error; err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}

		if _, err := s.Targets.Generate(ctx, tx, &run); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("[DiagnosisRunService] Create failed: %v", err)
		return uuid.Nil, err
	}

	log.Printf("[DiagnosisRunService] created run=%s semester=%s key=%s", run.DiagnosisRunID, run.DiagnosisRunSemesterID, run.DiagnosisRunTargetKey)
	return run.DiagnosisRunID, nil
}

/* =========================================================
   UPDATE
========================================================= */

func (s *DiagnosisRunService) Update(ctx context.Context, runID uuid.UUID, p dto.UpdateDiagnosisRequest) (*model.DiagnosisRunModel, error) {
	if p.Questions != nil {
		if len(p.Questions) == 0 {
			return nil, apperror.Validation("question set cannot be empty", map[string][]string{"questions": {"min"}})
		}
		for i := range p.Questions {
			p.Questions[i].Normalize()
		}
	}
	if err := s.validate(p); err != nil {
		return nil, err
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return nil, apperror.Validation("title cannot be empty", map[string][]string{"title": {"required"}})
		}
		p.Title = &t
	}
	if err := validateQuestions(p.Questions); err != nil {
		return nil, err
	}

	var run model.DiagnosisRunModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&run, "diagnosis_run_id = ?", runID).Error; err != nil {
			if helper.IsNotFound(err) {
				return apperror.ErrDiagnosisNotFound
			}
			return fmt.Errorf("load run: %w", err)
		}
		if run.DiagnosisRunStatus == model.RunStatusClosed {
			return apperror.ErrCannotModifyClosedDiagnosis
		}

		if p.Title != nil {
			run.DiagnosisRunTitle = *p.Title
		}
		if p.Description != nil {
			run.DiagnosisRunDescription = p.Description
		}
		if p.EndAt != nil {
			if p.EndAt.Before(run.DiagnosisRunEndAt) {
				return apperror.Validation("end time can only be extended", map[string][]string{"end_at": {"extension_only"}})
			}
			run.DiagnosisRunEndAt = *p.EndAt
		}
		if p.Status != nil {
			next, err := model.NextRunStatus(run.DiagnosisRunStatus, model.RunStatus(*p.Status))
			if err != nil {
				return err
			}
			run.DiagnosisRunStatus = next
		}

		if p.Questions != nil {
			subs, err := countSubmissions(ctx, tx, run.DiagnosisRunID)
			if err != nil {
				return err
			}
			if subs > 0 {
				return apperror.ErrCannotModifyQuestionsWithSubmissions
			}
			if err := tx.Where("diagnosis_question_run_id = ?", run.DiagnosisRunID).
				Delete(&model.DiagnosisQuestionModel{}).Error; err != nil {
				return fmt.Errorf("delete questions: %w", err)
			}
			questions := dto.QuestionsToModels(run.DiagnosisRunID, p.Questions)
			if err := tx.Create(&questions).Error; err != nil {
				return fmt.Errorf("insert questions: %w", err)
			}
		}

		if err := tx.Save(&run).Error; err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[DiagnosisRunService] updated run=%s status=%s", run.DiagnosisRunID, run.DiagnosisRunStatus)
	return &run, nil
}

/* =========================================================
   DELETE
========================================================= */

// Delete removes the run with its questions and targets. Runs with
// submissions are refused; submissions are never cascaded.
func (s *DiagnosisRunService) Delete(ctx context.Context, runID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var run model.DiagnosisRunModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&run, "diagnosis_run_id = ?", runID).Error; err != nil {
			if helper.IsNotFound(err) {
				return apperror.ErrDiagnosisNotFound
			}
			return fmt.Errorf("load run: %w", err)
		}

		subs, err := countSubmissions(ctx, tx, runID)
		if err != nil {
			return err
		}
		if subs > 0 {
			return apperror.ErrCannotDeleteDiagnosisWithSubmissions
		}

		if err := tx.Where("diagnosis_question_run_id = ?", runID).
			Delete(&model.DiagnosisQuestionModel{}).Error; err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if err := tx.Where("diagnosis_target_run_id = ?", runID).
			Delete(&model.DiagnosisTargetModel{}).Error; err != nil {
			return fmt.Errorf("delete targets: %w", err)
		}
		if err := tx.Delete(&run).Error; err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		log.Printf("[DiagnosisRunService] deleted run=%s", runID)
		return nil
	})
}

func countSubmissions(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (int64, error) {
	var n int64
	if err := tx.WithContext(ctx).
		Model(&submissionModel.DiagnosisSubmissionModel{}).
		Where("diagnosis_submission_run_id = ?", runID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

/* =========================================================
   READ
========================================================= */

type RunListItem struct {
	Run             model.DiagnosisRunModel
	TargetCount     int64
	SubmissionCount int64
}

func (s *DiagnosisRunService) List(ctx context.Context, f dto.ListDiagnosisFilter) ([]RunListItem, int64, error) {
	if err := s.validate(f); err != nil {
		return nil, 0, err
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = 20
	}

	q := s.DB.WithContext(ctx).Model(&model.DiagnosisRunModel{})
	if f.SemesterID != nil {
		q = q.Where("diagnosis_run_semester_id = ?", *f.SemesterID)
	}
	if f.Status != nil {
		q = q.Where("diagnosis_run_status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	var runs []model.DiagnosisRunModel
	if err := q.Order("diagnosis_run_start_at DESC, diagnosis_run_created_at DESC").
		Offset((f.Page - 1) * f.PerPage).
		Limit(f.PerPage).
		Find(&runs).Error; err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		return []RunListItem{}, total, nil
	}

	ids := make([]uuid.UUID, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.DiagnosisRunID)
	}

	type countRow struct {
		RunID uuid.UUID
		N     int64
	}
	var targetCounts, subCounts []countRow
	if err := s.DB.WithContext(ctx).Model(&model.DiagnosisTargetModel{}).
		Select("diagnosis_target_run_id AS run_id, COUNT(*) AS n").
		Where("diagnosis_target_run_id IN ?", ids).
		Group("diagnosis_target_run_id").
		Scan(&targetCounts).Error; err != nil {
		return nil, 0, fmt.Errorf("count targets: %w", err)
	}
	if err := s.DB.WithContext(ctx).Model(&submissionModel.DiagnosisSubmissionModel{}).
		Select("diagnosis_submission_run_id AS run_id, COUNT(*) AS n").
		Where("diagnosis_submission_run_id IN ?", ids).
		Group("diagnosis_submission_run_id").
		Scan(&subCounts).Error; err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	tc := make(map[uuid.UUID]int64, len(targetCounts))
	for _, r := range targetCounts {
		tc[r.RunID] = r.N
	}
	sc := make(map[uuid.UUID]int64, len(subCounts))
	for _, r := range subCounts {
		sc[r.RunID] = r.N
	}

	out := make([]RunListItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunListItem{
			Run:             r,
			TargetCount:     tc[r.DiagnosisRunID],
			SubmissionCount: sc[r.DiagnosisRunID],
		})
	}
	return out, total, nil
}

// Detail returns the run and its questions ordered for display.
func (s *DiagnosisRunService) Detail(ctx context.Context, runID uuid.UUID) (*model.DiagnosisRunModel, []model.DiagnosisQuestionModel, error) {
	var run model.DiagnosisRunModel
	if err := s.DB.WithContext(ctx).First(&run, "diagnosis_run_id = ?", runID).Error; err != nil {
		if helper.IsNotFound(err) {
			return nil, nil, apperror.ErrDiagnosisNotFound
		}
		return nil, nil, fmt.Errorf("load run: %w", err)
	}
	var questions []model.DiagnosisQuestionModel
	if err := s.DB.WithContext(ctx).
		Where("diagnosis_question_run_id = ?", runID).
		Order("diagnosis_question_sort_order ASC, diagnosis_question_created_at ASC").
		Find(&questions).Error; err != nil {
		return nil, nil, fmt.Errorf("load questions: %w", err)
	}
	return &run, questions, nil
}

/* =========================================================
   TARGET OVERRIDE
========================================================= */

// ExpireTarget is the manual PENDING → EXPIRED override. Nothing expires
// targets automatically.
func (s *DiagnosisRunService) ExpireTarget(ctx context.Context, runID, studentID uuid.UUID) (*model.DiagnosisTargetModel, error) {
	var target model.DiagnosisTargetModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var run model.DiagnosisRunModel
		if err := tx.First(&run, "diagnosis_run_id = ?", runID).Error; err != nil {
			if helper.IsNotFound(err) {
				return apperror.ErrDiagnosisNotFound
			}
			return fmt.Errorf("load run: %w", err)
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("diagnosis_target_run_id = ? AND diagnosis_target_student_id = ?", runID, studentID).
			First(&target).Error; err != nil {
			if helper.IsNotFound(err) {
				return apperror.ErrNotATarget
			}
			return fmt.Errorf("load target: %w", err)
		}
		next, err := model.NextTargetStatus(target.DiagnosisTargetStatus, model.TargetEventExpire)
		if err != nil {
			return err
		}
		target.DiagnosisTargetStatus = next
		if err := tx.Save(&target).Error; err != nil {
			return fmt.Errorf("save target: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &target, nil
}
