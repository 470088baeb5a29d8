// file: internals/features/competency/reports/dto/report_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

/* ===================== RUN REPORT ===================== */

type RunHeader struct {
	ID           uuid.UUID  `json:"id"`
	SemesterID   uuid.UUID  `json:"semester_id"`
	SemesterName string     `json:"semester_name"`
	Title        string     `json:"title"`
	TargetGrade  *int       `json:"target_grade,omitempty"`
	TargetDeptID *uuid.UUID `json:"target_dept_id,omitempty"`
	StartAt      time.Time  `json:"start_at"`
	EndAt        time.Time  `json:"end_at"`
	Status       string     `json:"status"`
}

type Participation struct {
	Targets   int64   `json:"targets"`
	Submitted int64   `json:"submitted"`
	Pending   int64   `json:"pending"`
	Expired   int64   `json:"expired"`
	Rate      float64 `json:"rate"` // percent of targets that submitted
}

type StatRow struct {
	Code            string         `json:"code"`
	Name            string         `json:"name"`
	TargetCount     int            `json:"target_count"`
	CalculatedCount int            `json:"calculated_count"`
	Mean            float64        `json:"mean"`
	Max             float64        `json:"max"`
	Median          float64        `json:"median"`
	StdDev          float64        `json:"stddev"`
	Distribution    map[string]int `json:"distribution,omitempty"`
}

type RadarPoint struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Skill     float64 `json:"skill"`
	Aptitude  float64 `json:"aptitude"`
	Diagnosis float64 `json:"diagnosis"`
}

type RunTrendPoint struct {
	RunID        uuid.UUID    `json:"run_id"`
	SemesterID   uuid.UUID    `json:"semester_id"`
	SemesterName string       `json:"semester_name"`
	StartAt      time.Time    `json:"start_at"`
	Respondents  int          `json:"respondents"`
	Radar        []RadarPoint `json:"radar"`
}

type RunReport struct {
	Run           RunHeader     `json:"run"`
	Participation Participation `json:"participation"`
	StatsSource   string        `json:"stats_source"` // persisted | computed
	// oldest calculated_at of the persisted rows; stale when a submission
	// in the semester came in after it
	StatsCalculatedAt *time.Time      `json:"stats_calculated_at,omitempty"`
	StatsStale        bool            `json:"stats_stale"`
	Stats             []StatRow       `json:"stats"`
	Respondents       int             `json:"respondents"`
	Radar             []RadarPoint    `json:"radar"`
	Trend             []RunTrendPoint `json:"trend"`
}

/* ===================== DISTRIBUTION ===================== */

type ValueCount struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

type QuestionDistribution struct {
	QuestionID uuid.UUID    `json:"question_id"`
	SortOrder  int          `json:"sort_order"`
	Domain     string       `json:"domain"`
	Type       string       `json:"type"`
	Content    string       `json:"content"`
	Responses  int          `json:"responses"`
	Unanswered int          `json:"unanswered"`
	Values     []ValueCount `json:"values,omitempty"` // SCALE
	Mean       *float64     `json:"mean,omitempty"`   // SCALE
	Correct    *int         `json:"correct,omitempty"`
	Incorrect  *int         `json:"incorrect,omitempty"`
}

type ResponseDistribution struct {
	RunID       uuid.UUID              `json:"run_id"`
	Submissions int64                  `json:"submissions"`
	Questions   []QuestionDistribution `json:"questions"`
}

/* ===================== TARGETS ===================== */

type TargetRow struct {
	StudentID     uuid.UUID  `json:"student_id"`
	StudentNumber string     `json:"student_number"`
	StudentName   string     `json:"student_name"`
	Grade         int        `json:"grade"`
	DepartmentID  *uuid.UUID `json:"department_id,omitempty"`
	Status        string     `json:"status"`
	RegisteredAt  time.Time  `json:"registered_at"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
}

type TargetFilter struct {
	Status  *string `validate:"omitempty,oneof=PENDING SUBMITTED EXPIRED"`
	Page    int
	PerPage int
}

/* ===================== STUDENT DASHBOARD ===================== */

type DashboardDiagnosis struct {
	RunID        uuid.UUID  `json:"run_id"`
	Title        string     `json:"title"`
	SemesterID   uuid.UUID  `json:"semester_id"`
	RunStatus    string     `json:"run_status"`
	TargetStatus string     `json:"target_status"`
	StartAt      time.Time  `json:"start_at"`
	EndAt        time.Time  `json:"end_at"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

type SummaryRow struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	DiagnosisSkill float64   `json:"diagnosis_skill"`
	DiagnosisApt   float64   `json:"diagnosis_aptitude"`
	Diagnosis      float64   `json:"diagnosis"`
	Curricular     float64   `json:"curricular"`
	Extra          float64   `json:"extra"`
	SelfExtra      float64   `json:"self_extra"`
	Total          float64   `json:"total"`
	CalculatedAt   time.Time `json:"calculated_at"`
}

type SemesterSummary struct {
	SemesterID   uuid.UUID    `json:"semester_id"`
	SemesterName string       `json:"semester_name"`
	Rows         []SummaryRow `json:"rows"`
}

type StudentDashboard struct {
	StudentID     uuid.UUID            `json:"student_id"`
	StudentNumber string               `json:"student_number"`
	StudentName   string               `json:"student_name"`
	Grade         int                  `json:"grade"`
	Diagnoses     []DashboardDiagnosis `json:"diagnoses"`
	Latest        *SemesterSummary     `json:"latest_summary,omitempty"`
}
