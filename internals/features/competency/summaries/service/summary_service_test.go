package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	cohortModel "competency_backend/internals/features/competency/cohort_stats/model"
	competencyModel "competency_backend/internals/features/competency/competencies/model"
	"competency_backend/internals/features/competency/summaries/model"
	runModel "competency_backend/internals/features/diagnosis/runs/model"
	submissionModel "competency_backend/internals/features/diagnosis/submissions/model"
	"competency_backend/internals/helpers/apperror"
	"competency_backend/internals/helpers/testdb"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type env struct {
	db    *gorm.DB
	svc   *SummaryService
	clock *testdb.Clock
	semID uuid.UUID
	run   runModel.DiagnosisRunModel
	scale runModel.DiagnosisQuestionModel
	short runModel.DiagnosisQuestionModel
}

func setup(t *testing.T) env {
	t.Helper()
	db := testdb.Open(t)
	clock := testdb.NewClock(t0)
	sem := testdb.Semester(t, db, "2026-1", t0.AddDate(0, -1, 0), t0.AddDate(0, 4, 0))

	run := runModel.DiagnosisRunModel{
		DiagnosisRunSemesterID: sem.SemesterID,
		DiagnosisRunTitle:      "Diagnosis",
		DiagnosisRunStartAt:    t0,
		DiagnosisRunEndAt:      t0.Add(48 * time.Hour),
		DiagnosisRunStatus:     runModel.RunStatusOpen,
	}
	require.NoError(t, db.Create(&run).Error)

	scale := runModel.NewQuestion(runModel.QuestionDomainSkill, runModel.QuestionTypeScale, "scale", 1, runModel.Weights{10, 0, 0, 0, 0, 5})
	scale.DiagnosisQuestionRunID = run.DiagnosisRunID
	key := "paris"
	short := runModel.NewQuestion(runModel.QuestionDomainAptitude, runModel.QuestionTypeShort, "short", 2, runModel.Weights{3, 4, 0, 0, 0, 0})
	short.DiagnosisQuestionRunID = run.DiagnosisRunID
	short.DiagnosisQuestionAnswerKey = &key
	require.NoError(t, db.Create(&scale).Error)
	require.NoError(t, db.Create(&short).Error)

	return env{
		db:    db,
		svc:   NewSummaryService(db).WithClock(clock.Now),
		clock: clock,
		semID: sem.SemesterID,
		run:   run,
		scale: scale,
		short: short,
	}
}

// submit writes a submission directly, bypassing the scorer.
func (e env) submit(t *testing.T, studentID uuid.UUID, scale int, correct bool) {
	t.Helper()
	sub := submissionModel.DiagnosisSubmissionModel{
		DiagnosisSubmissionRunID:       e.run.DiagnosisRunID,
		DiagnosisSubmissionStudentID:   studentID,
		DiagnosisSubmissionSubmittedAt: t0,
	}
	require.NoError(t, e.db.Create(&sub).Error)
	text := "x"
	answers := []submissionModel.DiagnosisAnswerModel{
		{DiagnosisAnswerSubmissionID: sub.DiagnosisSubmissionID, DiagnosisAnswerQuestionID: e.scale.DiagnosisQuestionID, DiagnosisAnswerScaleValue: &scale},
		{DiagnosisAnswerSubmissionID: sub.DiagnosisSubmissionID, DiagnosisAnswerQuestionID: e.short.DiagnosisQuestionID, DiagnosisAnswerTextValue: &text, DiagnosisAnswerIsCorrect: &correct},
	}
	require.NoError(t, e.db.Create(&answers).Error)
}

func (e env) competency(t *testing.T, code string) competencyModel.CompetencyModel {
	t.Helper()
	var c competencyModel.CompetencyModel
	require.NoError(t, e.db.First(&c, "competency_code = ?", code).Error)
	return c
}

func TestRecalculateStudentSummary_Scores(t *testing.T) {
	e := setup(t)
	st := testdb.Student(t, e.db, 1, nil)
	e.submit(t, st.StudentID, 4, true)

	rows, err := e.svc.RecalculateStudentSummary(context.Background(), e.semID, st.StudentID)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	c1 := rows[0]
	assert.Equal(t, e.competency(t, "C1").CompetencyID, c1.SummaryCompetencyID)
	assert.Equal(t, 8.0, c1.SummaryDiagnosisSkillScore)
	assert.Equal(t, 3.0, c1.SummaryDiagnosisAptitudeScore)
	assert.Equal(t, 11.0, c1.SummaryDiagnosisScore)
	assert.Equal(t, 11.0, c1.SummaryTotalScore)

	assert.Equal(t, 4.0, rows[1].SummaryDiagnosisAptitudeScore)
	assert.Equal(t, 0.0, rows[2].SummaryDiagnosisScore)
	assert.Equal(t, 4.0, rows[5].SummaryDiagnosisSkillScore)
	assert.True(t, c1.SummaryCalculatedAt.Equal(t0))
}

func TestRecalculateStudentSummary_NoSubmissionsIsZero(t *testing.T) {
	e := setup(t)
	st := testdb.Student(t, e.db, 1, nil)

	rows, err := e.svc.RecalculateStudentSummary(context.Background(), e.semID, st.StudentID)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	for _, r := range rows {
		assert.Zero(t, r.SummaryTotalScore)
	}
}

func TestRecalculateStudentSummary_Idempotent(t *testing.T) {
	e := setup(t)
	st := testdb.Student(t, e.db, 1, nil)
	e.submit(t, st.StudentID, 3, false)
	ctx := context.Background()

	first, err := e.svc.RecalculateStudentSummary(ctx, e.semID, st.StudentID)
	require.NoError(t, err)
	second, err := e.svc.RecalculateStudentSummary(ctx, e.semID, st.StudentID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var n int64
	e.db.Model(&model.SemesterStudentCompetencySummaryModel{}).Count(&n)
	assert.EqualValues(t, 6, n)
}

func TestRecalculateStudentSummary_PreservesExternalScores(t *testing.T) {
	e := setup(t)
	st := testdb.Student(t, e.db, 1, nil)
	ctx := context.Background()
	_, err := e.svc.RecalculateStudentSummary(ctx, e.semID, st.StudentID)
	require.NoError(t, err)

	c1 := e.competency(t, "C1")
	require.NoError(t, e.db.Model(&model.SemesterStudentCompetencySummaryModel{}).
		Where("summary_student_id = ? AND summary_competency_id = ?", st.StudentID, c1.CompetencyID).
		Updates(map[string]any{
			"summary_curricular_score": 20.5,
			"summary_extra_score":      4,
			"summary_self_extra_score": 1.25,
		}).Error)

	e.submit(t, st.StudentID, 5, true)
	rows, err := e.svc.RecalculateStudentSummary(ctx, e.semID, st.StudentID)
	require.NoError(t, err)

	assert.Equal(t, 13.0, rows[0].SummaryDiagnosisScore)
	assert.Equal(t, 20.5, rows[0].SummaryCurricularScore)
	assert.Equal(t, 4.0, rows[0].SummaryExtraScore)
	assert.Equal(t, 1.25, rows[0].SummarySelfExtraScore)
	assert.Equal(t, 38.75, rows[0].SummaryTotalScore)
}

func TestRecalculateStudentSummary_Errors(t *testing.T) {
	e := setup(t)
	st := testdb.Student(t, e.db, 1, nil)
	ctx := context.Background()

	_, err := e.svc.RecalculateStudentSummary(ctx, uuid.New(), st.StudentID)
	assert.ErrorIs(t, err, apperror.ErrSemesterNotFound)

	_, err = e.svc.RecalculateStudentSummary(ctx, e.semID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrAccountNotFound)

	require.NoError(t, e.db.Where("competency_code = ?", "C6").Delete(&competencyModel.CompetencyModel{}).Error)
	_, err = e.svc.RecalculateStudentSummary(ctx, e.semID, st.StudentID)
	assert.ErrorContains(t, err, "C6 missing")
}

func TestRecalculateAllSummaries(t *testing.T) {
	e := setup(t)
	a := testdb.Student(t, e.db, 1, nil)
	b := testdb.Student(t, e.db, 1, nil)
	testdb.Student(t, e.db, 2, nil)
	graduated := testdb.Student(t, e.db, 3, nil, "GRADUATED")

	// a: C1 = 8 + 3 = 11 ; b: C1 = 10 + 0 = 10 ; graduated submitted before leaving: C1 = 2
	e.submit(t, a.StudentID, 4, true)
	e.submit(t, b.StudentID, 5, false)
	e.submit(t, graduated.StudentID, 1, false)

	ctx := context.Background()
	_, err := e.svc.RecalculateStudentSummary(ctx, e.semID, a.StudentID)
	require.NoError(t, err)
	c1 := e.competency(t, "C1")
	require.NoError(t, e.db.Model(&model.SemesterStudentCompetencySummaryModel{}).
		Where("summary_student_id = ? AND summary_competency_id = ?", a.StudentID, c1.CompetencyID).
		Update("summary_curricular_score", 9).Error)

	res, err := e.svc.RecalculateAllSummaries(ctx, e.semID)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Students)
	assert.Equal(t, 24, res.SummaryRows)
	assert.Equal(t, 6, res.CohortStats)

	var n int64
	e.db.Model(&model.SemesterStudentCompetencySummaryModel{}).Where("summary_semester_id = ?", e.semID).Count(&n)
	assert.EqualValues(t, 24, n)

	var aC1 model.SemesterStudentCompetencySummaryModel
	require.NoError(t, e.db.First(&aC1, "summary_student_id = ? AND summary_competency_id = ?", a.StudentID, c1.CompetencyID).Error)
	assert.Equal(t, 9.0, aC1.SummaryCurricularScore, "external score survives the rebuild")
	assert.Equal(t, 20.0, aC1.SummaryTotalScore)

	var stat cohortModel.SemesterCompetencyCohortStatModel
	require.NoError(t, e.db.First(&stat, "cohort_stat_semester_id = ? AND cohort_stat_competency_id = ?", e.semID, c1.CompetencyID).Error)
	// totals 20, 10, 0, 2
	assert.Equal(t, 4, stat.CohortStatCalculatedCount)
	assert.Equal(t, 8.0, stat.CohortStatMean)
	assert.Equal(t, 6.0, stat.CohortStatMedian)
	assert.Equal(t, 20.0, stat.CohortStatMax)
	assert.Equal(t, 7.87, stat.CohortStatStdDev)
	assert.JSONEq(t, `{"0-10":2,"10-20":1,"20-30":1}`, string(stat.CohortStatDistribution))

	// rerun: same shape, no duplicates
	again, err := e.svc.RecalculateAllSummaries(ctx, e.semID)
	require.NoError(t, err)
	assert.Equal(t, res.SummaryRows, again.SummaryRows)
	e.db.Model(&cohortModel.SemesterCompetencyCohortStatModel{}).Count(&n)
	assert.EqualValues(t, 6, n)
}

func TestRecalculateAllSummaries_UnknownSemesterRollsBack(t *testing.T) {
	e := setup(t)
	_, err := e.svc.RecalculateAllSummaries(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrSemesterNotFound)
}
