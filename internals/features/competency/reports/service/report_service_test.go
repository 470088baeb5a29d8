package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	studentModel "competency_backend/internals/features/academics/students/model"
	"competency_backend/internals/features/competency/reports/dto"
	summaryService "competency_backend/internals/features/competency/summaries/service"
	runDTO "competency_backend/internals/features/diagnosis/runs/dto"
	runModel "competency_backend/internals/features/diagnosis/runs/model"
	runService "competency_backend/internals/features/diagnosis/runs/service"
	subDTO "competency_backend/internals/features/diagnosis/submissions/dto"
	subService "competency_backend/internals/features/diagnosis/submissions/service"
	"competency_backend/internals/helpers/apperror"
	"competency_backend/internals/helpers/testdb"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type world struct {
	db       *gorm.DB
	clock    *testdb.Clock
	reports  *ReportService
	runs     *runService.DiagnosisRunService
	subs     *subService.SubmissionService
	sums     *summaryService.SummaryService
	semID    uuid.UUID
	runID    uuid.UUID
	scaleQ   uuid.UUID
	shortQ   uuid.UUID
	students []studentModel.StudentModel
}

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func build(t *testing.T) world {
	t.Helper()
	db := testdb.Open(t)
	clock := testdb.NewClock(t0)
	sem := testdb.Semester(t, db, "2026-1", t0.AddDate(0, -1, 0), t0.AddDate(0, 4, 0))
	w := world{
		db:      db,
		clock:   clock,
		reports: NewReportService(db, nil),
		runs:    runService.NewDiagnosisRunService(db, nil).WithClock(clock.Now),
		sums:    summaryService.NewSummaryService(db).WithClock(clock.Now),
		semID:   sem.SemesterID,
	}
	w.subs = subService.NewSubmissionService(db, nil)
	w.subs.Now = clock.Now
	w.subs.Summaries = w.sums

	for i := 0; i < 3; i++ {
		w.students = append(w.students, testdb.Student(t, db, 2, nil))
	}

	ctx := context.Background()
	id, err := w.runs.Create(ctx, runDTO.CreateDiagnosisRequest{
		Title:       "Grade 2 diagnosis",
		SemesterID:  sem.SemesterID,
		TargetGrade: intp(2),
		StartAt:     t0,
		EndAt:       t0.Add(72 * time.Hour),
		Questions: []runDTO.QuestionRequest{
			{Domain: "SKILL", Type: "SCALE", Content: "scale", C1MaxScore: 10},
			{Domain: "APTITUDE", Type: "SHORT", Content: "short", AnswerKey: strp("yes"), C1MaxScore: 4, C2MaxScore: 2},
		},
	})
	require.NoError(t, err)
	_, err = w.runs.Update(ctx, id, runDTO.UpdateDiagnosisRequest{Status: strp("OPEN")})
	require.NoError(t, err)
	w.runID = id

	_, qs, err := w.runs.Detail(ctx, id)
	require.NoError(t, err)
	w.scaleQ = qs[0].DiagnosisQuestionID
	w.shortQ = qs[1].DiagnosisQuestionID
	return w
}

func (w world) submit(t *testing.T, st studentModel.StudentModel, scale int, text string) {
	t.Helper()
	_, err := w.subs.Submit(context.Background(), w.runID, st.StudentID, subDTO.SubmitRequest{Answers: []subDTO.AnswerRequest{
		{QuestionID: w.scaleQ, ScaleValue: intp(scale)},
		{QuestionID: w.shortQ, TextValue: strp(text)},
	}})
	require.NoError(t, err)
}

func TestRunReport(t *testing.T) {
	w := build(t)
	w.clock.Advance(time.Hour)
	w.submit(t, w.students[0], 5, "YES") // C1 = 10 + 4
	w.submit(t, w.students[1], 1, "no")  // C1 = 2
	ctx := context.Background()

	rep, err := w.reports.RunReport(ctx, w.runID)
	require.NoError(t, err)
	assert.Equal(t, "OPEN", rep.Run.Status)
	assert.Equal(t, "2026-1", rep.Run.SemesterName)
	assert.Equal(t, dto.Participation{Targets: 3, Submitted: 2, Pending: 1, Rate: 66.67}, rep.Participation)

	assert.Equal(t, 2, rep.Respondents)
	require.Len(t, rep.Radar, 6)
	assert.Equal(t, "C1", rep.Radar[0].Code)
	assert.Equal(t, 6.0, rep.Radar[0].Skill)
	assert.Equal(t, 2.0, rep.Radar[0].Aptitude)
	assert.Equal(t, 8.0, rep.Radar[0].Diagnosis)
	assert.Equal(t, 1.0, rep.Radar[1].Diagnosis)

	assert.Equal(t, "computed", rep.StatsSource)
	require.Len(t, rep.Stats, 6)
	assert.Equal(t, 3, rep.Stats[0].TargetCount)
	assert.Equal(t, 2, rep.Stats[0].CalculatedCount, "only submitters have summaries before a batch rebuild")
	assert.Equal(t, 8.0, rep.Stats[0].Mean)

	require.Len(t, rep.Trend, 1)
	assert.Equal(t, w.runID, rep.Trend[0].RunID)

	_, err = w.sums.RecalculateAllSummaries(ctx, w.semID)
	require.NoError(t, err)
	rep, err = w.reports.RunReport(ctx, w.runID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", rep.StatsSource)
	assert.Equal(t, 3, rep.Stats[0].CalculatedCount)
	assert.Equal(t, 5.33, rep.Stats[0].Mean)
	assert.Equal(t, map[string]int{"0-10": 2, "10-20": 1}, rep.Stats[0].Distribution)
	require.NotNil(t, rep.StatsCalculatedAt)
	assert.True(t, rep.StatsCalculatedAt.Equal(w.clock.Now()))
	assert.False(t, rep.StatsStale)

	// a later submission leaves the persisted table behind the summaries
	w.clock.Advance(time.Hour)
	w.submit(t, w.students[2], 3, "yes")
	rep, err = w.reports.RunReport(ctx, w.runID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", rep.StatsSource)
	assert.True(t, rep.StatsStale)
	assert.Equal(t, 5.33, rep.Stats[0].Mean, "persisted numbers are served until the next rebuild")

	_, err = w.reports.RunReport(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrDiagnosisNotFound)
}

func TestRunReport_TrendAcrossSemesters(t *testing.T) {
	w := build(t)
	ctx := context.Background()
	next := testdb.Semester(t, w.db, "2026-2", t0.AddDate(0, 5, 0), t0.AddDate(0, 10, 0))
	_, err := w.runs.Create(ctx, runDTO.CreateDiagnosisRequest{
		Title:       "Grade 2 follow-up",
		SemesterID:  next.SemesterID,
		TargetGrade: intp(2),
		StartAt:     t0.AddDate(0, 5, 0),
		EndAt:       t0.AddDate(0, 5, 7),
		Questions:   []runDTO.QuestionRequest{{Domain: "SKILL", Type: "SCALE", Content: "q", C3MaxScore: 1}},
	})
	require.NoError(t, err)
	other := testdb.Semester(t, w.db, "2027-1", t0.AddDate(1, 0, 0), t0.AddDate(1, 4, 0))
	_, err = w.runs.Create(ctx, runDTO.CreateDiagnosisRequest{
		Title:      "Everyone",
		SemesterID: other.SemesterID,
		StartAt:    t0.AddDate(1, 0, 0),
		EndAt:      t0.AddDate(1, 0, 7),
		Questions:  []runDTO.QuestionRequest{{Domain: "SKILL", Type: "SCALE", Content: "q"}},
	})
	require.NoError(t, err)

	rep, err := w.reports.RunReport(ctx, w.runID)
	require.NoError(t, err)
	require.Len(t, rep.Trend, 2, "only runs for the same audience")
	assert.Equal(t, "2026-1", rep.Trend[0].SemesterName)
	assert.Equal(t, "2026-2", rep.Trend[1].SemesterName)
	assert.Equal(t, 0, rep.Trend[1].Respondents)
}

func TestResponseDistribution(t *testing.T) {
	w := build(t)
	w.clock.Advance(time.Hour)
	w.submit(t, w.students[0], 5, "yes")
	w.submit(t, w.students[1], 5, "nope")
	w.submit(t, w.students[2], 2, "yes")

	dist, err := w.reports.ResponseDistribution(context.Background(), w.runID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, dist.Submissions)
	require.Len(t, dist.Questions, 2)

	scale := dist.Questions[0]
	assert.Equal(t, "SCALE", scale.Type)
	assert.Equal(t, []dto.ValueCount{{Value: 2, Count: 1}, {Value: 5, Count: 2}}, scale.Values)
	require.NotNil(t, scale.Mean)
	assert.Equal(t, 4.0, *scale.Mean)
	assert.Equal(t, 0, scale.Unanswered)

	short := dist.Questions[1]
	assert.Equal(t, 2, *short.Correct)
	assert.Equal(t, 1, *short.Incorrect)
	assert.Nil(t, short.Mean)
}

func TestTargets(t *testing.T) {
	w := build(t)
	w.clock.Advance(time.Hour)
	w.submit(t, w.students[0], 3, "yes")
	ctx := context.Background()

	rows, total, err := w.reports.Targets(ctx, w.runID, dto.TargetFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 3)

	rows, total, err = w.reports.Targets(ctx, w.runID, dto.TargetFilter{Status: strp("PENDING"), PerPage: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 1)
	assert.Equal(t, string(runModel.TargetStatusPending), rows[0].Status)
	assert.Nil(t, rows[0].SubmittedAt)

	rows, _, err = w.reports.Targets(ctx, w.runID, dto.TargetFilter{Status: strp("SUBMITTED")})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, w.students[0].StudentID, rows[0].StudentID)
	assert.NotNil(t, rows[0].SubmittedAt)

	_, _, err = w.reports.Targets(ctx, w.runID, dto.TargetFilter{Status: strp("LOST")})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestStudentDashboard(t *testing.T) {
	w := build(t)
	ctx := context.Background()

	dash, err := w.reports.StudentDashboard(ctx, w.students[0].StudentID)
	require.NoError(t, err)
	require.Len(t, dash.Diagnoses, 1)
	assert.Equal(t, "PENDING", dash.Diagnoses[0].TargetStatus)
	assert.Nil(t, dash.Latest)

	w.clock.Advance(time.Hour)
	w.submit(t, w.students[0], 5, "yes")
	dash, err = w.reports.StudentDashboard(ctx, w.students[0].StudentID)
	require.NoError(t, err)
	assert.Equal(t, "SUBMITTED", dash.Diagnoses[0].TargetStatus)
	require.NotNil(t, dash.Latest)
	assert.Equal(t, w.semID, dash.Latest.SemesterID)
	require.Len(t, dash.Latest.Rows, 6)
	assert.Equal(t, 14.0, dash.Latest.Rows[0].Total)

	_, err = w.reports.StudentDashboard(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrAccountNotFound)
}

func TestAdHocAnalytics(t *testing.T) {
	w := build(t)
	w.clock.Advance(time.Hour)
	w.submit(t, w.students[0], 5, "yes") // 14
	w.submit(t, w.students[1], 5, "no")  // 10
	ctx := context.Background()
	_, err := w.sums.RecalculateAllSummaries(ctx, w.semID)
	require.NoError(t, err)

	deps, err := w.reports.DepartmentAverages(ctx, w.semID)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Nil(t, deps[0].DepartmentID)
	assert.Equal(t, 3, deps[0].StudentCount)
	assert.Equal(t, 8.0, deps[0].Competencies[0].Mean)

	cmp, err := w.reports.StudentComparison(ctx, w.semID, w.students[0].StudentID)
	require.NoError(t, err)
	assert.True(t, cmp.HasSummary)
	assert.Equal(t, 14.0, cmp.Rows[0].StudentScore)
	assert.Equal(t, 8.0, cmp.Rows[0].CohortMean)
	assert.Equal(t, 10.0, cmp.Rows[0].CohortMedian)
	assert.Equal(t, 83.33, cmp.Rows[0].PercentileRank)

	trend, err := w.reports.StudentTrend(ctx, w.students[0].StudentID, nil)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.Equal(t, 14.0, trend[0].Values[0].Score)
	assert.Equal(t, 8.0, trend[0].Values[0].CohortMean)

	_, err = w.reports.DepartmentAverages(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrSemesterNotFound)
}

// countQueries counts SELECTs issued through db while fn runs.
func countQueries(t *testing.T, db *gorm.DB, fn func()) int {
	t.Helper()
	n := 0
	name := "test:count_" + uuid.NewString()
	inc := func(*gorm.DB) { n++ }
	require.NoError(t, db.Callback().Query().After("gorm:query").Register(name, inc))
	require.NoError(t, db.Callback().Row().After("gorm:row").Register(name, inc))
	defer func() {
		_ = db.Callback().Query().Remove(name)
		_ = db.Callback().Row().Remove(name)
	}()
	fn()
	return n
}

func TestRunReport_TrendQueriesDoNotGrowWithRuns(t *testing.T) {
	w := build(t)
	ctx := context.Background()
	w.clock.Advance(time.Hour)
	w.submit(t, w.students[0], 5, "yes")

	report := func() *dto.RunReport {
		rep, err := w.reports.RunReport(ctx, w.runID)
		require.NoError(t, err)
		return rep
	}
	var rep *dto.RunReport
	base := countQueries(t, w.db, func() { rep = report() })
	require.Len(t, rep.Trend, 1)

	for i := 1; i <= 3; i++ {
		sem := testdb.Semester(t, w.db, "later-"+uuid.NewString()[:4], t0.AddDate(0, 5*i, 0), t0.AddDate(0, 5*i+4, 0))
		_, err := w.runs.Create(ctx, runDTO.CreateDiagnosisRequest{
			Title:       "Grade 2 follow-up",
			SemesterID:  sem.SemesterID,
			TargetGrade: intp(2),
			StartAt:     t0.AddDate(0, 5*i, 0),
			EndAt:       t0.AddDate(0, 5*i, 7),
			Questions:   []runDTO.QuestionRequest{{Domain: "SKILL", Type: "SCALE", Content: "q", C1MaxScore: 1}},
		})
		require.NoError(t, err)
	}

	grown := countQueries(t, w.db, func() { rep = report() })
	require.Len(t, rep.Trend, 4)
	assert.Equal(t, base, grown)
	assert.Equal(t, 1, rep.Trend[0].Respondents)
	assert.Equal(t, 14.0, rep.Trend[0].Radar[0].Diagnosis)
}
