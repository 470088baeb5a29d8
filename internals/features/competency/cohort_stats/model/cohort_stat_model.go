// file: internals/features/competency/cohort_stats/model/cohort_stat_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SemesterCompetencyCohortStatModel struct {
	CohortStatID           uuid.UUID `gorm:"type:uuid;primaryKey;column:cohort_stat_id" json:"cohort_stat_id"`
	CohortStatSemesterID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_cohort_stats_semester_competency;column:cohort_stat_semester_id" json:"cohort_stat_semester_id"`
	CohortStatCompetencyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_cohort_stats_semester_competency;column:cohort_stat_competency_id" json:"cohort_stat_competency_id"`

	CohortStatTargetCount     int     `gorm:"type:integer;not null;default:0;column:cohort_stat_target_count" json:"cohort_stat_target_count"`
	CohortStatCalculatedCount int     `gorm:"type:integer;not null;default:0;column:cohort_stat_calculated_count" json:"cohort_stat_calculated_count"`
	CohortStatMean            float64 `gorm:"type:numeric(12,2);not null;default:0;column:cohort_stat_mean" json:"cohort_stat_mean"`
	CohortStatMax             float64 `gorm:"type:numeric(12,2);not null;default:0;column:cohort_stat_max" json:"cohort_stat_max"`
	CohortStatMedian          float64 `gorm:"type:numeric(12,2);not null;default:0;column:cohort_stat_median" json:"cohort_stat_median"`
	CohortStatStdDev          float64 `gorm:"type:numeric(12,2);not null;default:0;column:cohort_stat_stddev" json:"cohort_stat_stddev"`

	// counts per 10-point band of total score, e.g. {"0-10":3,"10-20":5,...}
	CohortStatDistribution datatypes.JSON `gorm:"column:cohort_stat_distribution" json:"cohort_stat_distribution,omitempty"`

	CohortStatCalculatedAt time.Time `gorm:"not null;column:cohort_stat_calculated_at" json:"cohort_stat_calculated_at"`
}

func (SemesterCompetencyCohortStatModel) TableName() string {
	return "semester_competency_cohort_stats"
}

func (m *SemesterCompetencyCohortStatModel) BeforeCreate(tx *gorm.DB) error {
	if m.CohortStatID == uuid.Nil {
		m.CohortStatID = uuid.New()
	}
	return nil
}
