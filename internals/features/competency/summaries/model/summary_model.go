// file: internals/features/competency/summaries/model/summary_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SemesterStudentCompetencySummaryModel is a derived cache row, rebuildable
// from submissions plus the externally written curricular/extra columns.
type SemesterStudentCompetencySummaryModel struct {
	SummaryID           uuid.UUID `gorm:"type:uuid;primaryKey;column:summary_id" json:"summary_id"`
	SummarySemesterID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_summaries_semester_student_competency;column:summary_semester_id" json:"summary_semester_id"`
	SummaryStudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_summaries_semester_student_competency;index:idx_summaries_student;column:summary_student_id" json:"summary_student_id"`
	SummaryCompetencyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_summaries_semester_student_competency;column:summary_competency_id" json:"summary_competency_id"`

	SummaryDiagnosisSkillScore    float64 `gorm:"type:numeric(12,2);not null;default:0;column:summary_diagnosis_skill_score" json:"summary_diagnosis_skill_score"`
	SummaryDiagnosisAptitudeScore float64 `gorm:"type:numeric(12,2);not null;default:0;column:summary_diagnosis_aptitude_score" json:"summary_diagnosis_aptitude_score"`
	SummaryDiagnosisScore         float64 `gorm:"type:numeric(12,2);not null;default:0;column:summary_diagnosis_score" json:"summary_diagnosis_score"`

	// written by the curricular / extracurricular subsystems
	SummaryCurricularScore float64 `gorm:"type:numeric(12,2);not null;default:0;column:summary_curricular_score" json:"summary_curricular_score"`
	SummaryExtraScore      float64 `gorm:"type:numeric(12,2);not null;default:0;column:summary_extra_score" json:"summary_extra_score"`
	SummarySelfExtraScore  float64 `gorm:"type:numeric(12,2);not null;default:0;column:summary_self_extra_score" json:"summary_self_extra_score"`

	SummaryTotalScore   float64   `gorm:"type:numeric(12,2);not null;default:0;column:summary_total_score" json:"summary_total_score"`
	SummaryCalculatedAt time.Time `gorm:"not null;column:summary_calculated_at" json:"summary_calculated_at"`
}

func (SemesterStudentCompetencySummaryModel) TableName() string {
	return "semester_student_competency_summaries"
}

func (m *SemesterStudentCompetencySummaryModel) BeforeCreate(tx *gorm.DB) error {
	if m.SummaryID == uuid.Nil {
		m.SummaryID = uuid.New()
	}
	return nil
}

// ExternalScores are the columns owned by other subsystems.
type ExternalScores struct {
	Curricular float64
	Extra      float64
	SelfExtra  float64
}

func (m SemesterStudentCompetencySummaryModel) External() ExternalScores {
	return ExternalScores{
		Curricular: m.SummaryCurricularScore,
		Extra:      m.SummaryExtraScore,
		SelfExtra:  m.SummarySelfExtraScore,
	}
}
