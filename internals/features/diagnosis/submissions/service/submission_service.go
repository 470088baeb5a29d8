// file: internals/features/diagnosis/submissions/service/submission_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	summaryModel "competency_backend/internals/features/competency/summaries/model"
	summaryService "competency_backend/internals/features/competency/summaries/service"
	runModel "competency_backend/internals/features/diagnosis/runs/model"
	"competency_backend/internals/features/diagnosis/submissions/dto"
	"competency_backend/internals/features/diagnosis/submissions/model"
	helper "competency_backend/internals/helpers"
	"competency_backend/internals/helpers/apperror"
)

// StudentRecalculator is the part of the summary engine the scorer calls
// inside its own transaction.
type StudentRecalculator interface {
	RecalculateStudentSummaryTx(ctx context.Context, tx *gorm.DB, semesterID, studentID uuid.UUID) ([]summaryModel.SemesterStudentCompetencySummaryModel, error)
}

type SubmissionService struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Summaries StudentRecalculator
	Now       func() time.Time
}

func NewSubmissionService(db *gorm.DB, v *validator.Validate) *SubmissionService {
	if v == nil {
		v = validator.New()
	}
	return &SubmissionService{
		DB:        db,
		Validator: v,
		Summaries: summaryService.NewSummaryService(db),
		Now:       time.Now,
	}
}

type SubmitResult struct {
	Submission model.DiagnosisSubmissionModel
	Answers    []model.DiagnosisAnswerModel
	Summaries  []summaryModel.SemesterStudentCompetencySummaryModel
}

/* =========================================================
   SUBMIT
========================================================= */

// Submit stores one student's answers, grades SHORT answers, marks the
// target SUBMITTED and recalculates the student's semester summary. Any
// failure rolls the whole submission back.
func (s *SubmissionService) Submit(ctx context.Context, runID, studentID uuid.UUID, req dto.SubmitRequest) (*SubmitResult, error) {
	if err := s.Validator.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return nil, apperror.Validation("invalid answers", helper.ValidationFields(ve))
		}
		return nil, apperror.Validation(err.Error(), nil)
	}

	var res SubmitResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.Now()

		// 1) run
		var run runModel.DiagnosisRunModel
		if err := tx.First(&run, "diagnosis_run_id = ?", runID).Error; err != nil {
			if helper.IsNotFound(err) {
				return apperror.ErrDiagnosisNotFound
			}
			return fmt.Errorf("load run: %w", err)
		}
		if !run.AcceptsAt(now) {
			return apperror.ErrDiagnosisNotOpen
		}

		// 2) target
		var target runModel.DiagnosisTargetModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("diagnosis_target_run_id = ? AND diagnosis_target_student_id = ?", runID, studentID).
			First(&target).Error; err != nil {
			if helper.IsNotFound(err) {
				return apperror.ErrNotATarget
			}
			return fmt.Errorf("load target: %w", err)
		}
		next, err := runModel.NextTargetStatus(target.DiagnosisTargetStatus, runModel.TargetEventSubmit)
		if err != nil {
			return err
		}

		// 3) questions
		var qs []runModel.DiagnosisQuestionModel
		if err := tx.Where("diagnosis_question_run_id = ?", runID).Find(&qs).Error; err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		questions := make(map[uuid.UUID]runModel.DiagnosisQuestionModel, len(qs))
		for _, q := range qs {
			questions[q.DiagnosisQuestionID] = q
		}

		// 4) grade
		answers, err := gradeAnswers(questions, req.Answers)
		if err != nil {
			return err
		}

		// 5) persist
		sub := model.DiagnosisSubmissionModel{
			DiagnosisSubmissionRunID:       runID,
			DiagnosisSubmissionStudentID:   studentID,
			DiagnosisSubmissionSubmittedAt: now,
		}
		if err := tx.Create(&sub).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return apperror.Wrap(apperror.KindAlreadySubmitted, err, "diagnosis already submitted")
			}
			return fmt.Errorf("insert submission: %w", err)
		}
		for i := range answers {
			answers[i].DiagnosisAnswerSubmissionID = sub.DiagnosisSubmissionID
		}
		if err := tx.Create(&answers).Error; err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}

		// 6) target → SUBMITTED
		if err := tx.Model(&target).Updates(map[string]any{
			"diagnosis_target_status":       next,
			"diagnosis_target_submitted_at": now,
		}).Error; err != nil {
			return fmt.Errorf("update target: %w", err)
		}

		// 7) summary, same transaction
		rows, err := s.Summaries.RecalculateStudentSummaryTx(ctx, tx, run.DiagnosisRunSemesterID, studentID)
		if err != nil {
			return fmt.Errorf("recalculate summary: %w", err)
		}

		res = SubmitResult{Submission: sub, Answers: answers, Summaries: rows}
		return nil
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			log.Printf("[SubmissionService] submit run=%s student=%s failed: %v", runID, studentID, err)
		}
		return nil, err
	}

	log.Printf("[SubmissionService] run=%s student=%s answers=%d", runID, studentID, len(res.Answers))
	return &res, nil
}

// gradeAnswers maps requests onto answer rows. Unknown or repeated
// questions fail validation; SCALE values are stored unclamped.
func gradeAnswers(questions map[uuid.UUID]runModel.DiagnosisQuestionModel, in []dto.AnswerRequest) ([]model.DiagnosisAnswerModel, error) {
	fields := map[string][]string{}
	seen := make(map[uuid.UUID]struct{}, len(in))
	out := make([]model.DiagnosisAnswerModel, 0, len(in))

	for i, a := range in {
		prefix := "answers[" + strconv.Itoa(i) + "]."
		q, ok := questions[a.QuestionID]
		if !ok {
			fields[prefix+"question_id"] = append(fields[prefix+"question_id"], "unknown_question")
			continue
		}
		if _, dup := seen[a.QuestionID]; dup {
			fields[prefix+"question_id"] = append(fields[prefix+"question_id"], "duplicate")
			continue
		}
		seen[a.QuestionID] = struct{}{}

		row := model.DiagnosisAnswerModel{DiagnosisAnswerQuestionID: a.QuestionID}
		switch q.DiagnosisQuestionType {
		case runModel.QuestionTypeScale:
			if a.ScaleValue == nil {
				fields[prefix+"scale_value"] = append(fields[prefix+"scale_value"], "required")
				continue
			}
			v := *a.ScaleValue
			row.DiagnosisAnswerScaleValue = &v
		case runModel.QuestionTypeShort:
			text := ""
			if a.TextValue != nil {
				text = *a.TextValue
			}
			key := ""
			if q.DiagnosisQuestionAnswerKey != nil {
				key = *q.DiagnosisQuestionAnswerKey
			}
			correct := MatchShortAnswer(text, key)
			row.DiagnosisAnswerTextValue = &text
			row.DiagnosisAnswerIsCorrect = &correct
		}
		out = append(out, row)
	}

	if len(fields) > 0 {
		return nil, apperror.Validation("invalid answers", fields)
	}
	return out, nil
}

/* =========================================================
   READ
========================================================= */

// Get returns the student's submission for the run with its answers.
func (s *SubmissionService) Get(ctx context.Context, runID, studentID uuid.UUID) (*model.DiagnosisSubmissionModel, []model.DiagnosisAnswerModel, error) {
	var sub model.DiagnosisSubmissionModel
	if err := s.DB.WithContext(ctx).
		Where("diagnosis_submission_run_id = ? AND diagnosis_submission_student_id = ?", runID, studentID).
		First(&sub).Error; err != nil {
		if helper.IsNotFound(err) {
			return nil, nil, apperror.New(apperror.KindDiagnosisNotFound, "submission not found")
		}
		return nil, nil, fmt.Errorf("load submission: %w", err)
	}
	var answers []model.DiagnosisAnswerModel
	if err := s.DB.WithContext(ctx).
		Where("diagnosis_answer_submission_id = ?", sub.DiagnosisSubmissionID).
		Find(&answers).Error; err != nil {
		return nil, nil, fmt.Errorf("load answers: %w", err)
	}
	return &sub, answers, nil
}
