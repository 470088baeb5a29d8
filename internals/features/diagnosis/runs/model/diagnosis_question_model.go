// file: internals/features/diagnosis/runs/model/diagnosis_question_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionDomain string

const (
	QuestionDomainSkill    QuestionDomain = "SKILL"
	QuestionDomainAptitude QuestionDomain = "APTITUDE"
)

type QuestionType string

const (
	QuestionTypeScale QuestionType = "SCALE"
	QuestionTypeShort QuestionType = "SHORT"
)

const (
	DefaultScaleMin = 1
	DefaultScaleMax = 5
)

type DiagnosisQuestionModel struct {
	DiagnosisQuestionID        uuid.UUID      `gorm:"type:uuid;primaryKey;column:diagnosis_question_id" json:"diagnosis_question_id"`
	DiagnosisQuestionRunID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_diagnosis_questions_run;column:diagnosis_question_run_id" json:"diagnosis_question_run_id"`
	DiagnosisQuestionDomain    QuestionDomain `gorm:"type:varchar(10);not null;column:diagnosis_question_domain" json:"diagnosis_question_domain"`
	DiagnosisQuestionType      QuestionType   `gorm:"type:varchar(10);not null;column:diagnosis_question_type" json:"diagnosis_question_type"`
	DiagnosisQuestionContent   string         `gorm:"type:text;not null;column:diagnosis_question_content" json:"diagnosis_question_content"`
	DiagnosisQuestionSortOrder int            `gorm:"type:integer;not null;default:0;column:diagnosis_question_sort_order" json:"diagnosis_question_sort_order"`

	// SHORT only
	DiagnosisQuestionAnswerKey *string `gorm:"type:text;column:diagnosis_question_answer_key" json:"diagnosis_question_answer_key,omitempty"`

	// SCALE only
	DiagnosisQuestionScaleMin int `gorm:"type:integer;not null;column:diagnosis_question_scale_min" json:"diagnosis_question_scale_min"`
	DiagnosisQuestionScaleMax int `gorm:"type:integer;not null;column:diagnosis_question_scale_max" json:"diagnosis_question_scale_max"`

	// Max points this question can contribute to each competency.
	DiagnosisQuestionC1MaxScore int `gorm:"type:integer;not null;default:0;column:diagnosis_question_c1_max_score" json:"diagnosis_question_c1_max_score"`
	DiagnosisQuestionC2MaxScore int `gorm:"type:integer;not null;default:0;column:diagnosis_question_c2_max_score" json:"diagnosis_question_c2_max_score"`
	DiagnosisQuestionC3MaxScore int `gorm:"type:integer;not null;default:0;column:diagnosis_question_c3_max_score" json:"diagnosis_question_c3_max_score"`
	DiagnosisQuestionC4MaxScore int `gorm:"type:integer;not null;default:0;column:diagnosis_question_c4_max_score" json:"diagnosis_question_c4_max_score"`
	DiagnosisQuestionC5MaxScore int `gorm:"type:integer;not null;default:0;column:diagnosis_question_c5_max_score" json:"diagnosis_question_c5_max_score"`
	DiagnosisQuestionC6MaxScore int `gorm:"type:integer;not null;default:0;column:diagnosis_question_c6_max_score" json:"diagnosis_question_c6_max_score"`

	DiagnosisQuestionCreatedAt time.Time `gorm:"autoCreateTime;column:diagnosis_question_created_at" json:"diagnosis_question_created_at"`
}

func (DiagnosisQuestionModel) TableName() string { return "diagnosis_questions" }

// Weights is the fixed-size view over the six max-score columns.
type Weights [6]int

// NewQuestion makes the defaults explicit: scale 1..5 and all weights zero
// unless provided.
func NewQuestion(domain QuestionDomain, qType QuestionType, content string, sortOrder int, weights Weights) DiagnosisQuestionModel {
	q := DiagnosisQuestionModel{
		DiagnosisQuestionDomain:    domain,
		DiagnosisQuestionType:      qType,
		DiagnosisQuestionContent:   content,
		DiagnosisQuestionSortOrder: sortOrder,
		DiagnosisQuestionScaleMin:  DefaultScaleMin,
		DiagnosisQuestionScaleMax:  DefaultScaleMax,
	}
	q.SetWeights(weights)
	return q
}

func (m DiagnosisQuestionModel) Weights() Weights {
	return Weights{
		m.DiagnosisQuestionC1MaxScore,
		m.DiagnosisQuestionC2MaxScore,
		m.DiagnosisQuestionC3MaxScore,
		m.DiagnosisQuestionC4MaxScore,
		m.DiagnosisQuestionC5MaxScore,
		m.DiagnosisQuestionC6MaxScore,
	}
}

func (m *DiagnosisQuestionModel) SetWeights(w Weights) {
	m.DiagnosisQuestionC1MaxScore = w[0]
	m.DiagnosisQuestionC2MaxScore = w[1]
	m.DiagnosisQuestionC3MaxScore = w[2]
	m.DiagnosisQuestionC4MaxScore = w[3]
	m.DiagnosisQuestionC5MaxScore = w[4]
	m.DiagnosisQuestionC6MaxScore = w[5]
}

func (m *DiagnosisQuestionModel) BeforeCreate(tx *gorm.DB) error {
	if m.DiagnosisQuestionID == uuid.Nil {
		m.DiagnosisQuestionID = uuid.New()
	}
	if m.DiagnosisQuestionType == QuestionTypeScale && m.DiagnosisQuestionScaleMax == 0 {
		m.DiagnosisQuestionScaleMin = DefaultScaleMin
		m.DiagnosisQuestionScaleMax = DefaultScaleMax
	}
	m.DiagnosisQuestionContent = strings.TrimSpace(m.DiagnosisQuestionContent)
	return nil
}
