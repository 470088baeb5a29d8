// file: internals/features/competency/cohort_stats/service/adhoc.go
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	semesterModel "competency_backend/internals/features/academics/semesters/model"
	studentModel "competency_backend/internals/features/academics/students/model"
	summaryModel "competency_backend/internals/features/competency/summaries/model"
	helper "competency_backend/internals/helpers"
	"competency_backend/internals/helpers/apperror"
)

/* =========================================================
   Request-scoped analytics. These read summaries directly and
   never touch the persisted cohort stat table.
========================================================= */

type CompetencyValue struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

type DepartmentAverage struct {
	DepartmentID   *uuid.UUID        `json:"department_id"`
	DepartmentName string            `json:"department_name"`
	StudentCount   int               `json:"student_count"`
	Competencies   []CompetencyValue `json:"competencies"`
}

// DepartmentAverages returns the mean totalScore per department per
// competency. Students without a department are grouped under a nil id.
func (s *CohortService) DepartmentAverages(ctx context.Context, semesterID uuid.UUID) ([]DepartmentAverage, error) {
	if err := s.requireSemester(ctx, semesterID); err != nil {
		return nil, err
	}
	catalog, err := s.Catalog.RequireAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	type row struct {
		StudentID      uuid.UUID
		DepartmentID   *uuid.UUID
		DepartmentName *string
		CompetencyID   uuid.UUID
		Total          float64
	}
	var rows []row
	if err := s.DB.WithContext(ctx).
		Table("semester_student_competency_summaries AS sm").
		Select(`sm.summary_student_id AS student_id,
			st.student_department_id AS department_id,
			d.department_name AS department_name,
			sm.summary_competency_id AS competency_id,
			sm.summary_total_score AS total`).
		Joins("JOIN students st ON st.student_id = sm.summary_student_id").
		Joins("LEFT JOIN departments d ON d.department_id = st.student_department_id").
		Where("sm.summary_semester_id = ?", semesterID).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load department totals: %w", err)
	}

	type bucket struct {
		id       *uuid.UUID
		name     string
		students map[uuid.UUID]struct{}
		totals   map[uuid.UUID][]float64
	}
	buckets := map[string]*bucket{}
	var order []string
	for _, r := range rows {
		key := ""
		name := "(none)"
		if r.DepartmentID != nil {
			key = r.DepartmentID.String()
		}
		if r.DepartmentName != nil {
			name = *r.DepartmentName
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{id: r.DepartmentID, name: name, students: map[uuid.UUID]struct{}{}, totals: map[uuid.UUID][]float64{}}
			buckets[key] = b
			order = append(order, key)
		}
		b.students[r.StudentID] = struct{}{}
		b.totals[r.CompetencyID] = append(b.totals[r.CompetencyID], r.Total)
	}

	out := make([]DepartmentAverage, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		da := DepartmentAverage{DepartmentID: b.id, DepartmentName: b.name, StudentCount: len(b.students)}
		for _, c := range catalog {
			xs := b.totals[c.CompetencyID]
			da.Competencies = append(da.Competencies, CompetencyValue{
				Code:  c.CompetencyCode,
				Name:  c.CompetencyName,
				Mean:  Round2(Mean(xs)),
				Count: len(xs),
			})
		}
		out = append(out, da)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DepartmentName < out[j].DepartmentName })
	return out, nil
}

type TrendValue struct {
	Code       string  `json:"code"`
	Score      float64 `json:"score"`
	CohortMean float64 `json:"cohort_mean"`
}

type TrendPoint struct {
	SemesterID   uuid.UUID    `json:"semester_id"`
	SemesterName string       `json:"semester_name"`
	StartDate    time.Time    `json:"start_date"`
	Values       []TrendValue `json:"values"`
}

// StudentTrend returns, per semester in chronological order, the student's
// totalScore per competency next to the cohort mean. Empty semesterIDs means
// every semester the student has summaries in.
func (s *CohortService) StudentTrend(ctx context.Context, studentID uuid.UUID, semesterIDs []uuid.UUID) ([]TrendPoint, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	catalog, err := s.Catalog.RequireAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	var own []summaryModel.SemesterStudentCompetencySummaryModel
	q := s.DB.WithContext(ctx).Where("summary_student_id = ?", studentID)
	if len(semesterIDs) > 0 {
		q = q.Where("summary_semester_id IN ?", semesterIDs)
	}
	if err := q.Find(&own).Error; err != nil {
		return nil, fmt.Errorf("load student summaries: %w", err)
	}

	semSet := map[uuid.UUID]struct{}{}
	for _, id := range semesterIDs {
		semSet[id] = struct{}{}
	}
	scores := map[uuid.UUID]map[uuid.UUID]float64{}
	for _, r := range own {
		semSet[r.SummarySemesterID] = struct{}{}
		if scores[r.SummarySemesterID] == nil {
			scores[r.SummarySemesterID] = map[uuid.UUID]float64{}
		}
		scores[r.SummarySemesterID][r.SummaryCompetencyID] = r.SummaryTotalScore
	}
	if len(semSet) == 0 {
		return []TrendPoint{}, nil
	}
	ids := make([]uuid.UUID, 0, len(semSet))
	for id := range semSet {
		ids = append(ids, id)
	}

	var sems []semesterModel.SemesterModel
	if err := s.DB.WithContext(ctx).
		Where("semester_id IN ?", ids).
		Order("semester_start_date ASC").
		Find(&sems).Error; err != nil {
		return nil, fmt.Errorf("load semesters: %w", err)
	}

	type meanRow struct {
		SemesterID   uuid.UUID
		CompetencyID uuid.UUID
		Mean         float64
	}
	var means []meanRow
	if err := s.DB.WithContext(ctx).
		Model(&summaryModel.SemesterStudentCompetencySummaryModel{}).
		Select("summary_semester_id AS semester_id, summary_competency_id AS competency_id, AVG(summary_total_score) AS mean").
		Where("summary_semester_id IN ?", ids).
		Group("summary_semester_id, summary_competency_id").
		Scan(&means).Error; err != nil {
		return nil, fmt.Errorf("load cohort means: %w", err)
	}
	cohort := map[uuid.UUID]map[uuid.UUID]float64{}
	for _, m := range means {
		if cohort[m.SemesterID] == nil {
			cohort[m.SemesterID] = map[uuid.UUID]float64{}
		}
		cohort[m.SemesterID][m.CompetencyID] = m.Mean
	}

	out := make([]TrendPoint, 0, len(sems))
	for _, sem := range sems {
		p := TrendPoint{SemesterID: sem.SemesterID, SemesterName: sem.SemesterName, StartDate: sem.SemesterStartDate}
		for _, c := range catalog {
			p.Values = append(p.Values, TrendValue{
				Code:       c.CompetencyCode,
				Score:      scores[sem.SemesterID][c.CompetencyID],
				CohortMean: Round2(cohort[sem.SemesterID][c.CompetencyID]),
			})
		}
		out = append(out, p)
	}
	return out, nil
}

type ComparisonRow struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	StudentScore   float64 `json:"student_score"`
	CohortMean     float64 `json:"cohort_mean"`
	CohortMedian   float64 `json:"cohort_median"`
	CohortStdDev   float64 `json:"cohort_stddev"`
	PercentileRank float64 `json:"percentile_rank"`
	CohortCount    int     `json:"cohort_count"`
}

type Comparison struct {
	SemesterID uuid.UUID       `json:"semester_id"`
	StudentID  uuid.UUID       `json:"student_id"`
	HasSummary bool            `json:"has_summary"`
	Rows       []ComparisonRow `json:"rows"`
}

// StudentComparison lines the student's totalScore up against the cohort of
// the semester, per competency.
func (s *CohortService) StudentComparison(ctx context.Context, semesterID, studentID uuid.UUID) (*Comparison, error) {
	if err := s.requireSemester(ctx, semesterID); err != nil {
		return nil, err
	}
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	catalog, err := s.Catalog.RequireAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	totals, err := s.TotalsByCompetency(ctx, nil, semesterID)
	if err != nil {
		return nil, err
	}

	var own []summaryModel.SemesterStudentCompetencySummaryModel
	if err := s.DB.WithContext(ctx).
		Where("summary_semester_id = ? AND summary_student_id = ?", semesterID, studentID).
		Find(&own).Error; err != nil {
		return nil, fmt.Errorf("load student summaries: %w", err)
	}
	mine := make(map[uuid.UUID]float64, len(own))
	for _, r := range own {
		mine[r.SummaryCompetencyID] = r.SummaryTotalScore
	}

	out := &Comparison{SemesterID: semesterID, StudentID: studentID, HasSummary: len(own) > 0}
	for _, c := range catalog {
		xs := totals[c.CompetencyID]
		d := Describe(xs)
		row := ComparisonRow{
			Code:         c.CompetencyCode,
			Name:         c.CompetencyName,
			StudentScore: mine[c.CompetencyID],
			CohortMean:   d.Mean,
			CohortMedian: d.Median,
			CohortStdDev: d.StdDev,
			CohortCount:  d.Count,
		}
		if out.HasSummary {
			row.PercentileRank = Round2(PercentileRank(xs, row.StudentScore))
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func (s *CohortService) requireSemester(ctx context.Context, id uuid.UUID) error {
	var sem semesterModel.SemesterModel
	if err := s.DB.WithContext(ctx).Select("semester_id").First(&sem, "semester_id = ?", id).Error; err != nil {
		if helper.IsNotFound(err) {
			return apperror.ErrSemesterNotFound
		}
		return fmt.Errorf("load semester: %w", err)
	}
	return nil
}

func (s *CohortService) requireStudent(ctx context.Context, id uuid.UUID) error {
	var st studentModel.StudentModel
	if err := s.DB.WithContext(ctx).Select("student_id").First(&st, "student_id = ?", id).Error; err != nil {
		if helper.IsNotFound(err) {
			return apperror.ErrAccountNotFound
		}
		return fmt.Errorf("load student: %w", err)
	}
	return nil
}
