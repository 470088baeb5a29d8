package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	studentModel "competency_backend/internals/features/academics/students/model"
	summaryModel "competency_backend/internals/features/competency/summaries/model"
	summaryService "competency_backend/internals/features/competency/summaries/service"
	runModel "competency_backend/internals/features/diagnosis/runs/model"
	"competency_backend/internals/features/diagnosis/submissions/dto"
	"competency_backend/internals/features/diagnosis/submissions/model"
	"competency_backend/internals/helpers/apperror"
	"competency_backend/internals/helpers/testdb"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type env struct {
	db      *gorm.DB
	svc     *SubmissionService
	clock   *testdb.Clock
	run     runModel.DiagnosisRunModel
	scale   runModel.DiagnosisQuestionModel
	short   runModel.DiagnosisQuestionModel
	student studentModel.StudentModel
}

func setup(t *testing.T) env {
	t.Helper()
	db := testdb.Open(t)
	clock := testdb.NewClock(t0.Add(time.Hour))
	sem := testdb.Semester(t, db, "2026-1", t0.AddDate(0, -1, 0), t0.AddDate(0, 4, 0))
	st := testdb.Student(t, db, 2, nil)

	run := runModel.DiagnosisRunModel{
		DiagnosisRunSemesterID: sem.SemesterID,
		DiagnosisRunTitle:      "Diagnosis",
		DiagnosisRunStartAt:    t0,
		DiagnosisRunEndAt:      t0.Add(48 * time.Hour),
		DiagnosisRunStatus:     runModel.RunStatusOpen,
	}
	require.NoError(t, db.Create(&run).Error)

	scale := runModel.NewQuestion(runModel.QuestionDomainSkill, runModel.QuestionTypeScale, "scale", 1, runModel.Weights{10})
	scale.DiagnosisQuestionRunID = run.DiagnosisRunID
	key := "Paris"
	short := runModel.NewQuestion(runModel.QuestionDomainAptitude, runModel.QuestionTypeShort, "short", 2, runModel.Weights{2, 6})
	short.DiagnosisQuestionRunID = run.DiagnosisRunID
	short.DiagnosisQuestionAnswerKey = &key
	require.NoError(t, db.Create(&scale).Error)
	require.NoError(t, db.Create(&short).Error)

	require.NoError(t, db.Create(&runModel.DiagnosisTargetModel{
		DiagnosisTargetRunID:        run.DiagnosisRunID,
		DiagnosisTargetStudentID:    st.StudentID,
		DiagnosisTargetRegisteredAt: t0,
	}).Error)

	svc := NewSubmissionService(db, nil)
	svc.Now = clock.Now
	svc.Summaries = summaryService.NewSummaryService(db).WithClock(clock.Now)

	return env{db: db, svc: svc, clock: clock, run: run, scale: scale, short: short, student: st}
}

func intp(i int) *int       { return &i }
func strp(s string) *string { return &s }

func (e env) request(scale int, text string) dto.SubmitRequest {
	return dto.SubmitRequest{Answers: []dto.AnswerRequest{
		{QuestionID: e.scale.DiagnosisQuestionID, ScaleValue: intp(scale)},
		{QuestionID: e.short.DiagnosisQuestionID, TextValue: strp(text)},
	}}
}

func (e env) targetStatus(t *testing.T) runModel.TargetStatus {
	t.Helper()
	var tg runModel.DiagnosisTargetModel
	require.NoError(t, e.db.First(&tg, "diagnosis_target_run_id = ? AND diagnosis_target_student_id = ?", e.run.DiagnosisRunID, e.student.StudentID).Error)
	return tg.DiagnosisTargetStatus
}

func countSubmissions(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.DiagnosisSubmissionModel{}).Count(&n).Error)
	return n
}

func TestSubmit_HappyPath(t *testing.T) {
	e := setup(t)

	res, err := e.svc.Submit(context.Background(), e.run.DiagnosisRunID, e.student.StudentID, e.request(3, "  paris "))
	require.NoError(t, err)
	require.Len(t, res.Answers, 2)
	require.NotNil(t, res.Answers[1].DiagnosisAnswerIsCorrect)
	assert.True(t, *res.Answers[1].DiagnosisAnswerIsCorrect)
	assert.Nil(t, res.Answers[0].DiagnosisAnswerIsCorrect)

	assert.Equal(t, runModel.TargetStatusSubmitted, e.targetStatus(t))

	require.Len(t, res.Summaries, 6)
	// C1: 10*3/5 + 2 ; C2: 6
	assert.Equal(t, 6.0, res.Summaries[0].SummaryDiagnosisSkillScore)
	assert.Equal(t, 2.0, res.Summaries[0].SummaryDiagnosisAptitudeScore)
	assert.Equal(t, 8.0, res.Summaries[0].SummaryTotalScore)
	assert.Equal(t, 6.0, res.Summaries[1].SummaryTotalScore)
}

func TestSubmit_WrongShortAnswerScoresZero(t *testing.T) {
	e := setup(t)
	res, err := e.svc.Submit(context.Background(), e.run.DiagnosisRunID, e.student.StudentID, e.request(5, "London"))
	require.NoError(t, err)
	assert.False(t, *res.Answers[1].DiagnosisAnswerIsCorrect)
	assert.Equal(t, 10.0, res.Summaries[0].SummaryTotalScore)
	assert.Equal(t, 0.0, res.Summaries[1].SummaryTotalScore)
}

func TestSubmit_Twice(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, err := e.svc.Submit(ctx, e.run.DiagnosisRunID, e.student.StudentID, e.request(3, "Paris"))
	require.NoError(t, err)

	_, err = e.svc.Submit(ctx, e.run.DiagnosisRunID, e.student.StudentID, e.request(1, "Paris"))
	assert.ErrorIs(t, err, apperror.ErrAlreadySubmitted)
	assert.EqualValues(t, 1, countSubmissions(t, e.db))
}

func TestSubmit_UniqueIndexClosesRace(t *testing.T) {
	e := setup(t)
	// another request already inserted the submission but the target still reads PENDING
	require.NoError(t, e.db.Create(&model.DiagnosisSubmissionModel{
		DiagnosisSubmissionRunID:       e.run.DiagnosisRunID,
		DiagnosisSubmissionStudentID:   e.student.StudentID,
		DiagnosisSubmissionSubmittedAt: t0,
	}).Error)

	_, err := e.svc.Submit(context.Background(), e.run.DiagnosisRunID, e.student.StudentID, e.request(3, "Paris"))
	assert.ErrorIs(t, err, apperror.ErrAlreadySubmitted)
	assert.Equal(t, runModel.TargetStatusPending, e.targetStatus(t))
}

func TestSubmit_NotATarget(t *testing.T) {
	e := setup(t)
	other := testdb.Student(t, e.db, 2, nil)
	_, err := e.svc.Submit(context.Background(), e.run.DiagnosisRunID, other.StudentID, e.request(3, "Paris"))
	assert.ErrorIs(t, err, apperror.ErrNotATarget)
}

func TestSubmit_ExpiredTarget(t *testing.T) {
	e := setup(t)
	require.NoError(t, e.db.Model(&runModel.DiagnosisTargetModel{}).
		Where("diagnosis_target_student_id = ?", e.student.StudentID).
		Update("diagnosis_target_status", runModel.TargetStatusExpired).Error)

	_, err := e.svc.Submit(context.Background(), e.run.DiagnosisRunID, e.student.StudentID, e.request(3, "Paris"))
	assert.ErrorIs(t, err, apperror.ErrTargetExpired)
}

func TestSubmit_RunNotOpen(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.Submit(ctx, uuid.New(), e.student.StudentID, e.request(3, "Paris"))
	assert.ErrorIs(t, err, apperror.ErrDiagnosisNotFound)

	e.clock.Advance(72 * time.Hour)
	_, err = e.svc.Submit(ctx, e.run.DiagnosisRunID, e.student.StudentID, e.request(3, "Paris"))
	assert.ErrorIs(t, err, apperror.ErrDiagnosisNotOpen, "after the window")

	e.clock.T = t0.Add(time.Hour)
	require.NoError(t, e.db.Model(&e.run).Update("diagnosis_run_status", runModel.RunStatusDraft).Error)
	_, err = e.svc.Submit(ctx, e.run.DiagnosisRunID, e.student.StudentID, e.request(3, "Paris"))
	assert.ErrorIs(t, err, apperror.ErrDiagnosisNotOpen, "draft run")
}

func TestSubmit_Validation(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.Submit(ctx, e.run.DiagnosisRunID, e.student.StudentID, dto.SubmitRequest{})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	req := e.request(3, "Paris")
	req.Answers = append(req.Answers, dto.AnswerRequest{QuestionID: uuid.New(), ScaleValue: intp(1)})
	_, err = e.svc.Submit(ctx, e.run.DiagnosisRunID, e.student.StudentID, req)
	require.ErrorIs(t, err, apperror.ErrValidation)
	var ae *apperror.Error
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Fields, "answers[2].question_id")

	req = e.request(3, "Paris")
	req.Answers[0].ScaleValue = nil
	_, err = e.svc.Submit(ctx, e.run.DiagnosisRunID, e.student.StudentID, req)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	req = e.request(3, "Paris")
	req.Answers = append(req.Answers, req.Answers[0])
	_, err = e.svc.Submit(ctx, e.run.DiagnosisRunID, e.student.StudentID, req)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Zero(t, countSubmissions(t, e.db))
	assert.Equal(t, runModel.TargetStatusPending, e.targetStatus(t))
}

type failingRecalculator struct{}

func (failingRecalculator) RecalculateStudentSummaryTx(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) ([]summaryModel.SemesterStudentCompetencySummaryModel, error) {
	return nil, errors.New("boom")
}

func TestSubmit_RecalculationFailureRollsBack(t *testing.T) {
	e := setup(t)
	e.svc.Summaries = failingRecalculator{}

	_, err := e.svc.Submit(context.Background(), e.run.DiagnosisRunID, e.student.StudentID, e.request(3, "Paris"))
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))

	assert.Zero(t, countSubmissions(t, e.db))
	var n int64
	e.db.Model(&model.DiagnosisAnswerModel{}).Count(&n)
	assert.Zero(t, n)
	e.db.Model(&summaryModel.SemesterStudentCompetencySummaryModel{}).Count(&n)
	assert.Zero(t, n)
	assert.Equal(t, runModel.TargetStatusPending, e.targetStatus(t))
}

func TestGet(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, _, err := e.svc.Get(ctx, e.run.DiagnosisRunID, e.student.StudentID)
	assert.ErrorIs(t, err, apperror.ErrDiagnosisNotFound)

	_, err = e.svc.Submit(ctx, e.run.DiagnosisRunID, e.student.StudentID, e.request(2, "x"))
	require.NoError(t, err)
	sub, answers, err := e.svc.Get(ctx, e.run.DiagnosisRunID, e.student.StudentID)
	require.NoError(t, err)
	assert.Equal(t, e.student.StudentID, sub.DiagnosisSubmissionStudentID)
	assert.Len(t, answers, 2)
}
