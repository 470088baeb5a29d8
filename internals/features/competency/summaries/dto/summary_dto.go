// file: internals/features/competency/summaries/dto/summary_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"competency_backend/internals/features/competency/summaries/model"
)

type SummaryResponse struct {
	CompetencyID      uuid.UUID `json:"competency_id"`
	DiagnosisSkill    float64   `json:"diagnosis_skill"`
	DiagnosisAptitude float64   `json:"diagnosis_aptitude"`
	Diagnosis         float64   `json:"diagnosis"`
	Curricular        float64   `json:"curricular"`
	Extra             float64   `json:"extra"`
	SelfExtra         float64   `json:"self_extra"`
	Total             float64   `json:"total"`
	CalculatedAt      time.Time `json:"calculated_at"`
}

type StudentSummaryResponse struct {
	SemesterID uuid.UUID         `json:"semester_id"`
	StudentID  uuid.UUID         `json:"student_id"`
	Rows       []SummaryResponse `json:"rows"`
}

func FromModel(m model.SemesterStudentCompetencySummaryModel) SummaryResponse {
	return SummaryResponse{
		CompetencyID:      m.SummaryCompetencyID,
		DiagnosisSkill:    m.SummaryDiagnosisSkillScore,
		DiagnosisAptitude: m.SummaryDiagnosisAptitudeScore,
		Diagnosis:         m.SummaryDiagnosisScore,
		Curricular:        m.SummaryCurricularScore,
		Extra:             m.SummaryExtraScore,
		SelfExtra:         m.SummarySelfExtraScore,
		Total:             m.SummaryTotalScore,
		CalculatedAt:      m.SummaryCalculatedAt,
	}
}

func FromModels(rows []model.SemesterStudentCompetencySummaryModel) []SummaryResponse {
	out := make([]SummaryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromModel(r))
	}
	return out
}
