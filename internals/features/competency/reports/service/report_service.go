// file: internals/features/competency/reports/service/report_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	semesterModel "competency_backend/internals/features/academics/semesters/model"
	studentModel "competency_backend/internals/features/academics/students/model"
	cohortModel "competency_backend/internals/features/competency/cohort_stats/model"
	cohortService "competency_backend/internals/features/competency/cohort_stats/service"
	catalogService "competency_backend/internals/features/competency/competencies/service"
	"competency_backend/internals/features/competency/reports/dto"
	summaryModel "competency_backend/internals/features/competency/summaries/model"
	summaryService "competency_backend/internals/features/competency/summaries/service"
	runModel "competency_backend/internals/features/diagnosis/runs/model"
	submissionModel "competency_backend/internals/features/diagnosis/submissions/model"
	helper "competency_backend/internals/helpers"
	"competency_backend/internals/helpers/apperror"
)

// ReportService is read-only; it composes runs, submissions, summaries and
// cohort stats into dashboard payloads.
type ReportService struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Catalog   *catalogService.CatalogService
	Cohort    *cohortService.CohortService
}

func NewReportService(db *gorm.DB, v *validator.Validate) *ReportService {
	if v == nil {
		v = validator.New()
	}
	return &ReportService{
		DB:        db,
		Validator: v,
		Catalog:   catalogService.NewCatalogService(db),
		Cohort:    cohortService.NewCohortService(db),
	}
}

func (s *ReportService) loadRun(ctx context.Context, runID uuid.UUID) (*runModel.DiagnosisRunModel, error) {
	var run runModel.DiagnosisRunModel
	if err := s.DB.WithContext(ctx).First(&run, "diagnosis_run_id = ?", runID).Error; err != nil {
		if helper.IsNotFound(err) {
			return nil, apperror.ErrDiagnosisNotFound
		}
		return nil, fmt.Errorf("load run: %w", err)
	}
	return &run, nil
}

/* =========================================================
   RUN REPORT
========================================================= */

func (s *ReportService) RunReport(ctx context.Context, runID uuid.UUID) (*dto.RunReport, error) {
	run, err := s.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.Catalog.RequireAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	var sem semesterModel.SemesterModel
	if err := s.DB.WithContext(ctx).First(&sem, "semester_id = ?", run.DiagnosisRunSemesterID).Error; err != nil && !helper.IsNotFound(err) {
		return nil, fmt.Errorf("load semester: %w", err)
	}

	out := &dto.RunReport{
		Run: dto.RunHeader{
			ID:           run.DiagnosisRunID,
			SemesterID:   run.DiagnosisRunSemesterID,
			SemesterName: sem.SemesterName,
			Title:        run.DiagnosisRunTitle,
			TargetGrade:  run.DiagnosisRunTargetGrade,
			TargetDeptID: run.DiagnosisRunTargetDeptID,
			StartAt:      run.DiagnosisRunStartAt,
			EndAt:        run.DiagnosisRunEndAt,
			Status:       string(run.DiagnosisRunStatus),
		},
	}

	if out.Participation, err = s.participation(ctx, runID); err != nil {
		return nil, err
	}

	// stats table: persisted rows when the semester was rebuilt, else on the fly
	persisted, err := s.Cohort.Persisted(ctx, run.DiagnosisRunSemesterID)
	if err != nil {
		return nil, err
	}
	var stats []cohortModel.SemesterCompetencyCohortStatModel
	if len(persisted) > 0 {
		out.StatsSource = "persisted"
		var calculatedAt time.Time
		for _, c := range catalog {
			if r, ok := persisted[c.CompetencyID]; ok {
				stats = append(stats, r)
				if calculatedAt.IsZero() || r.CohortStatCalculatedAt.Before(calculatedAt) {
					calculatedAt = r.CohortStatCalculatedAt
				}
			}
		}
		out.StatsCalculatedAt = &calculatedAt
		if out.StatsStale, err = s.submittedSince(ctx, run.DiagnosisRunSemesterID, calculatedAt); err != nil {
			return nil, err
		}
	} else {
		out.StatsSource = "computed"
		if stats, err = s.Cohort.ComputeSemester(ctx, nil, run.DiagnosisRunSemesterID); err != nil {
			return nil, err
		}
	}
	byID := make(map[uuid.UUID]string, len(catalog))
	names := make(map[uuid.UUID]string, len(catalog))
	for _, c := range catalog {
		byID[c.CompetencyID] = c.CompetencyCode
		names[c.CompetencyID] = c.CompetencyName
	}
	for _, st := range stats {
		row := dto.StatRow{
			Code:            byID[st.CohortStatCompetencyID],
			Name:            names[st.CohortStatCompetencyID],
			TargetCount:     st.CohortStatTargetCount,
			CalculatedCount: st.CohortStatCalculatedCount,
			Mean:            st.CohortStatMean,
			Max:             st.CohortStatMax,
			Median:          st.CohortStatMedian,
			StdDev:          st.CohortStatStdDev,
		}
		if len(st.CohortStatDistribution) > 0 {
			if err := sonic.Unmarshal(st.CohortStatDistribution, &row.Distribution); err != nil {
				return nil, fmt.Errorf("decode distribution: %w", err)
			}
		}
		out.Stats = append(out.Stats, row)
	}

	if out.Radar, out.Respondents, err = s.runRadar(ctx, run.DiagnosisRunID, catalog); err != nil {
		return nil, err
	}
	if out.Trend, err = s.runTrend(ctx, run, catalog); err != nil {
		return nil, err
	}
	return out, nil
}

// submittedSince reports whether any submission of the semester is newer
// than t.
func (s *ReportService) submittedSince(ctx context.Context, semesterID uuid.UUID, t time.Time) (bool, error) {
	var last submissionModel.DiagnosisSubmissionModel
	if err := s.DB.WithContext(ctx).
		Joins("JOIN diagnosis_runs ON diagnosis_runs.diagnosis_run_id = diagnosis_submissions.diagnosis_submission_run_id").
		Where("diagnosis_runs.diagnosis_run_semester_id = ?", semesterID).
		Order("diagnosis_submissions.diagnosis_submission_submitted_at DESC").
		Limit(1).
		Find(&last).Error; err != nil {
		return false, fmt.Errorf("load latest submission: %w", err)
	}
	return last.DiagnosisSubmissionID != uuid.Nil && last.DiagnosisSubmissionSubmittedAt.After(t), nil
}

func (s *ReportService) participation(ctx context.Context, runID uuid.UUID) (dto.Participation, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	if err := s.DB.WithContext(ctx).
		Model(&runModel.DiagnosisTargetModel{}).
		Select("diagnosis_target_status AS status, COUNT(*) AS n").
		Where("diagnosis_target_run_id = ?", runID).
		Group("diagnosis_target_status").
		Scan(&rows).Error; err != nil {
		return dto.Participation{}, fmt.Errorf("count targets: %w", err)
	}
	var p dto.Participation
	for _, r := range rows {
		p.Targets += r.N
		switch runModel.TargetStatus(r.Status) {
		case runModel.TargetStatusSubmitted:
			p.Submitted = r.N
		case runModel.TargetStatusPending:
			p.Pending = r.N
		case runModel.TargetStatusExpired:
			p.Expired = r.N
		}
	}
	if p.Targets > 0 {
		p.Rate = cohortService.Round2(float64(p.Submitted) / float64(p.Targets) * 100)
	}
	return p, nil
}

// runsScores scores every submission of the given runs against their
// questions: run id → student id → subtotals. Three queries regardless of
// how many runs are asked for.
func (s *ReportService) runsScores(ctx context.Context, runIDs []uuid.UUID) (map[uuid.UUID]map[uuid.UUID]summaryService.Scores, error) {
	out := make(map[uuid.UUID]map[uuid.UUID]summaryService.Scores, len(runIDs))
	if len(runIDs) == 0 {
		return out, nil
	}

	var qs []runModel.DiagnosisQuestionModel
	if err := s.DB.WithContext(ctx).Where("diagnosis_question_run_id IN ?", runIDs).Find(&qs).Error; err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	questions := make(map[uuid.UUID]runModel.DiagnosisQuestionModel, len(qs))
	for _, q := range qs {
		questions[q.DiagnosisQuestionID] = q
	}

	type respondent struct {
		RunID     uuid.UUID
		StudentID uuid.UUID
	}
	var subs []respondent
	if err := s.DB.WithContext(ctx).
		Model(&submissionModel.DiagnosisSubmissionModel{}).
		Select("diagnosis_submission_run_id AS run_id, diagnosis_submission_student_id AS student_id").
		Where("diagnosis_submission_run_id IN ?", runIDs).
		Scan(&subs).Error; err != nil {
		return nil, fmt.Errorf("load respondents: %w", err)
	}
	for _, id := range runIDs {
		out[id] = map[uuid.UUID]summaryService.Scores{}
	}
	for _, r := range subs {
		out[r.RunID][r.StudentID] = summaryService.Scores{}
	}

	type row struct {
		RunID      uuid.UUID
		StudentID  uuid.UUID
		QuestionID uuid.UUID
		ScaleValue *int
		IsCorrect  *bool
	}
	var rows []row
	if err := s.DB.WithContext(ctx).
		Table("diagnosis_answers AS a").
		Select(`s.diagnosis_submission_run_id AS run_id,
			s.diagnosis_submission_student_id AS student_id,
			a.diagnosis_answer_question_id AS question_id,
			a.diagnosis_answer_scale_value AS scale_value,
			a.diagnosis_answer_is_correct AS is_correct`).
		Joins("JOIN diagnosis_submissions s ON s.diagnosis_submission_id = a.diagnosis_answer_submission_id").
		Where("s.diagnosis_submission_run_id IN ?", runIDs).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	for _, r := range rows {
		byStudent := out[r.RunID]
		sc := byStudent[r.StudentID]
		sc.Add(questions, summaryService.Answer{QuestionID: r.QuestionID, ScaleValue: r.ScaleValue, IsCorrect: r.IsCorrect})
		byStudent[r.StudentID] = sc
	}
	return out, nil
}

// radar is the mean diagnosis score of one run's respondents per
// competency.
func radar(scores map[uuid.UUID]summaryService.Scores, catalog catalogService.Catalog) []dto.RadarPoint {
	points := make([]dto.RadarPoint, 0, len(catalog))
	for _, c := range catalog {
		var skill, apt, diag []float64
		if i := c.Index(); i >= 0 {
			for _, sc := range scores {
				skill = append(skill, sc.Skill[i])
				apt = append(apt, sc.Aptitude[i])
				diag = append(diag, sc.Skill[i]+sc.Aptitude[i])
			}
		}
		points = append(points, dto.RadarPoint{
			Code:      c.CompetencyCode,
			Name:      c.CompetencyName,
			Skill:     cohortService.Round2(cohortService.Mean(skill)),
			Aptitude:  cohortService.Round2(cohortService.Mean(apt)),
			Diagnosis: cohortService.Round2(cohortService.Mean(diag)),
		})
	}
	return points
}

func (s *ReportService) runRadar(ctx context.Context, runID uuid.UUID, catalog catalogService.Catalog) ([]dto.RadarPoint, int, error) {
	all, err := s.runsScores(ctx, []uuid.UUID{runID})
	if err != nil {
		return nil, 0, err
	}
	scores := all[runID]
	return radar(scores, catalog), len(scores), nil
}

// runTrend walks the runs addressed to the same grade/department across
// semesters, oldest first.
func (s *ReportService) runTrend(ctx context.Context, run *runModel.DiagnosisRunModel, catalog catalogService.Catalog) ([]dto.RunTrendPoint, error) {
	q := s.DB.WithContext(ctx).
		Table("diagnosis_runs AS r").
		Select("r.*").
		Joins("LEFT JOIN semesters sm ON sm.semester_id = r.diagnosis_run_semester_id")
	if run.DiagnosisRunTargetGrade == nil {
		q = q.Where("r.diagnosis_run_target_grade IS NULL")
	} else {
		q = q.Where("r.diagnosis_run_target_grade = ?", *run.DiagnosisRunTargetGrade)
	}
	if run.DiagnosisRunTargetDeptID == nil {
		q = q.Where("r.diagnosis_run_target_dept_id IS NULL")
	} else {
		q = q.Where("r.diagnosis_run_target_dept_id = ?", *run.DiagnosisRunTargetDeptID)
	}
	var runs []runModel.DiagnosisRunModel
	if err := q.Order("sm.semester_start_date ASC, r.diagnosis_run_start_at ASC").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("load trend runs: %w", err)
	}

	runIDs := make([]uuid.UUID, 0, len(runs))
	semIDs := make([]uuid.UUID, 0, len(runs))
	for _, r := range runs {
		runIDs = append(runIDs, r.DiagnosisRunID)
		semIDs = append(semIDs, r.DiagnosisRunSemesterID)
	}
	semNames := map[uuid.UUID]string{}
	if len(semIDs) > 0 {
		var sems []semesterModel.SemesterModel
		if err := s.DB.WithContext(ctx).Where("semester_id IN ?", semIDs).Find(&sems).Error; err != nil {
			return nil, fmt.Errorf("load semesters: %w", err)
		}
		for _, sm := range sems {
			semNames[sm.SemesterID] = sm.SemesterName
		}
	}

	scores, err := s.runsScores(ctx, runIDs)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RunTrendPoint, 0, len(runs))
	for _, r := range runs {
		byStudent := scores[r.DiagnosisRunID]
		out = append(out, dto.RunTrendPoint{
			RunID:        r.DiagnosisRunID,
			SemesterID:   r.DiagnosisRunSemesterID,
			SemesterName: semNames[r.DiagnosisRunSemesterID],
			StartAt:      r.DiagnosisRunStartAt,
			Respondents:  len(byStudent),
			Radar:        radar(byStudent, catalog),
		})
	}
	return out, nil
}

/* =========================================================
   RESPONSE DISTRIBUTION
========================================================= */

func (s *ReportService) ResponseDistribution(ctx context.Context, runID uuid.UUID) (*dto.ResponseDistribution, error) {
	if _, err := s.loadRun(ctx, runID); err != nil {
		return nil, err
	}

	var qs []runModel.DiagnosisQuestionModel
	if err := s.DB.WithContext(ctx).
		Where("diagnosis_question_run_id = ?", runID).
		Order("diagnosis_question_sort_order ASC, diagnosis_question_created_at ASC").
		Find(&qs).Error; err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	var subs int64
	if err := s.DB.WithContext(ctx).
		Model(&submissionModel.DiagnosisSubmissionModel{}).
		Where("diagnosis_submission_run_id = ?", runID).
		Count(&subs).Error; err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	var answers []submissionModel.DiagnosisAnswerModel
	if err := s.DB.WithContext(ctx).
		Joins("JOIN diagnosis_submissions s ON s.diagnosis_submission_id = diagnosis_answers.diagnosis_answer_submission_id").
		Where("s.diagnosis_submission_run_id = ?", runID).
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	byQuestion := make(map[uuid.UUID][]submissionModel.DiagnosisAnswerModel)
	for _, a := range answers {
		byQuestion[a.DiagnosisAnswerQuestionID] = append(byQuestion[a.DiagnosisAnswerQuestionID], a)
	}

	out := &dto.ResponseDistribution{RunID: runID, Submissions: subs}
	for _, q := range qs {
		list := byQuestion[q.DiagnosisQuestionID]
		qd := dto.QuestionDistribution{
			QuestionID: q.DiagnosisQuestionID,
			SortOrder:  q.DiagnosisQuestionSortOrder,
			Domain:     string(q.DiagnosisQuestionDomain),
			Type:       string(q.DiagnosisQuestionType),
			Content:    q.DiagnosisQuestionContent,
		}
		switch q.DiagnosisQuestionType {
		case runModel.QuestionTypeScale:
			counts := map[int]int{}
			var values []float64
			for _, a := range list {
				if a.DiagnosisAnswerScaleValue == nil {
					continue
				}
				counts[*a.DiagnosisAnswerScaleValue]++
				values = append(values, float64(*a.DiagnosisAnswerScaleValue))
			}
			for v, n := range counts {
				qd.Values = append(qd.Values, dto.ValueCount{Value: v, Count: n})
			}
			sort.Slice(qd.Values, func(i, j int) bool { return qd.Values[i].Value < qd.Values[j].Value })
			qd.Responses = len(values)
			if len(values) > 0 {
				m := cohortService.Round2(cohortService.Mean(values))
				qd.Mean = &m
			}
		case runModel.QuestionTypeShort:
			correct, incorrect := 0, 0
			for _, a := range list {
				if a.DiagnosisAnswerIsCorrect != nil && *a.DiagnosisAnswerIsCorrect {
					correct++
				} else {
					incorrect++
				}
			}
			qd.Responses = correct + incorrect
			qd.Correct = &correct
			qd.Incorrect = &incorrect
		}
		qd.Unanswered = int(subs) - qd.Responses
		if qd.Unanswered < 0 {
			qd.Unanswered = 0
		}
		out.Questions = append(out.Questions, qd)
	}
	return out, nil
}

/* =========================================================
   TARGETS
========================================================= */

func (s *ReportService) Targets(ctx context.Context, runID uuid.UUID, f dto.TargetFilter) ([]dto.TargetRow, int64, error) {
	if err := s.Validator.Struct(f); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			return nil, 0, apperror.Validation("invalid filter", helper.ValidationFields(ve))
		}
		return nil, 0, apperror.Validation(err.Error(), nil)
	}
	if _, err := s.loadRun(ctx, runID); err != nil {
		return nil, 0, err
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = 50
	}

	q := s.DB.WithContext(ctx).
		Table("diagnosis_targets AS t").
		Joins("JOIN students st ON st.student_id = t.diagnosis_target_student_id").
		Where("t.diagnosis_target_run_id = ?", runID)
	if f.Status != nil {
		q = q.Where("t.diagnosis_target_status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count targets: %w", err)
	}

	var rows []dto.TargetRow
	if err := q.Select(`st.student_id AS student_id,
			st.student_number AS student_number,
			st.student_name AS student_name,
			st.student_grade AS grade,
			st.student_department_id AS department_id,
			t.diagnosis_target_status AS status,
			t.diagnosis_target_registered_at AS registered_at,
			t.diagnosis_target_submitted_at AS submitted_at`).
		Order("st.student_number ASC").
		Offset((f.Page - 1) * f.PerPage).
		Limit(f.PerPage).
		Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list targets: %w", err)
	}
	if rows == nil {
		rows = []dto.TargetRow{}
	}
	return rows, total, nil
}

/* =========================================================
   STUDENT DASHBOARD
========================================================= */

func (s *ReportService) StudentDashboard(ctx context.Context, studentID uuid.UUID) (*dto.StudentDashboard, error) {
	var st studentModel.StudentModel
	if err := s.DB.WithContext(ctx).First(&st, "student_id = ?", studentID).Error; err != nil {
		if helper.IsNotFound(err) {
			return nil, apperror.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	out := &dto.StudentDashboard{
		StudentID:     st.StudentID,
		StudentNumber: st.StudentNumber,
		StudentName:   st.StudentName,
		Grade:         st.StudentGrade,
	}

	if err := s.DB.WithContext(ctx).
		Table("diagnosis_targets AS t").
		Select(`r.diagnosis_run_id AS run_id,
			r.diagnosis_run_title AS title,
			r.diagnosis_run_semester_id AS semester_id,
			r.diagnosis_run_status AS run_status,
			t.diagnosis_target_status AS target_status,
			r.diagnosis_run_start_at AS start_at,
			r.diagnosis_run_end_at AS end_at,
			t.diagnosis_target_submitted_at AS submitted_at`).
		Joins("JOIN diagnosis_runs r ON r.diagnosis_run_id = t.diagnosis_target_run_id").
		Where("t.diagnosis_target_student_id = ?", studentID).
		Order("r.diagnosis_run_start_at DESC").
		Scan(&out.Diagnoses).Error; err != nil {
		return nil, fmt.Errorf("load diagnoses: %w", err)
	}
	if out.Diagnoses == nil {
		out.Diagnoses = []dto.DashboardDiagnosis{}
	}

	// latest semester the student has summaries in
	var sem semesterModel.SemesterModel
	err := s.DB.WithContext(ctx).
		Where("semester_id IN (?)", s.DB.Model(&summaryModel.SemesterStudentCompetencySummaryModel{}).
			Select("summary_semester_id").
			Where("summary_student_id = ?", studentID)).
		Order("semester_start_date DESC").
		First(&sem).Error
	switch {
	case helper.IsNotFound(err):
		return out, nil
	case err != nil:
		return nil, fmt.Errorf("load latest semester: %w", err)
	}

	latest, err := s.semesterSummary(ctx, sem, studentID)
	if err != nil {
		return nil, err
	}
	out.Latest = latest
	return out, nil
}

func (s *ReportService) semesterSummary(ctx context.Context, sem semesterModel.SemesterModel, studentID uuid.UUID) (*dto.SemesterSummary, error) {
	catalog, err := s.Catalog.RequireAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	var rows []summaryModel.SemesterStudentCompetencySummaryModel
	if err := s.DB.WithContext(ctx).
		Where("summary_semester_id = ? AND summary_student_id = ?", sem.SemesterID, studentID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	byComp := make(map[uuid.UUID]summaryModel.SemesterStudentCompetencySummaryModel, len(rows))
	for _, r := range rows {
		byComp[r.SummaryCompetencyID] = r
	}
	out := &dto.SemesterSummary{SemesterID: sem.SemesterID, SemesterName: sem.SemesterName}
	for _, c := range catalog {
		r, ok := byComp[c.CompetencyID]
		if !ok {
			continue
		}
		out.Rows = append(out.Rows, dto.SummaryRow{
			Code:           c.CompetencyCode,
			Name:           c.CompetencyName,
			DiagnosisSkill: r.SummaryDiagnosisSkillScore,
			DiagnosisApt:   r.SummaryDiagnosisAptitudeScore,
			Diagnosis:      r.SummaryDiagnosisScore,
			Curricular:     r.SummaryCurricularScore,
			Extra:          r.SummaryExtraScore,
			SelfExtra:      r.SummarySelfExtraScore,
			Total:          r.SummaryTotalScore,
			CalculatedAt:   r.SummaryCalculatedAt,
		})
	}
	return out, nil
}

/* =========================================================
   AD HOC ANALYTICS (delegated)
========================================================= */

func (s *ReportService) DepartmentAverages(ctx context.Context, semesterID uuid.UUID) ([]cohortService.DepartmentAverage, error) {
	return s.Cohort.DepartmentAverages(ctx, semesterID)
}

func (s *ReportService) StudentTrend(ctx context.Context, studentID uuid.UUID, semesterIDs []uuid.UUID) ([]cohortService.TrendPoint, error) {
	return s.Cohort.StudentTrend(ctx, studentID, semesterIDs)
}

func (s *ReportService) StudentComparison(ctx context.Context, semesterID, studentID uuid.UUID) (*cohortService.Comparison, error) {
	return s.Cohort.StudentComparison(ctx, semesterID, studentID)
}
