// file: internals/features/diagnosis/runs/dto/diagnosis_run_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"competency_backend/internals/features/diagnosis/runs/model"
)

// =======================
// Request DTO
// =======================

type QuestionRequest struct {
	Domain    string  `json:"domain"     validate:"required,oneof=SKILL APTITUDE"`
	Type      string  `json:"type"       validate:"required,oneof=SCALE SHORT"`
	Content   string  `json:"content"    validate:"required,max=2000"`
	SortOrder int     `json:"sort_order" validate:"min=0"`
	AnswerKey *string `json:"answer_key,omitempty"`
	// omitted → 1..5
	ScaleMin *int `json:"scale_min,omitempty" validate:"omitempty,min=0"`
	ScaleMax *int `json:"scale_max,omitempty" validate:"omitempty,min=1"`

	C1MaxScore int `json:"c1_max_score" validate:"min=0"`
	C2MaxScore int `json:"c2_max_score" validate:"min=0"`
	C3MaxScore int `json:"c3_max_score" validate:"min=0"`
	C4MaxScore int `json:"c4_max_score" validate:"min=0"`
	C5MaxScore int `json:"c5_max_score" validate:"min=0"`
	C6MaxScore int `json:"c6_max_score" validate:"min=0"`
}

type CreateDiagnosisRequest struct {
	Title        string            `json:"title"                    validate:"required,max=200"`
	Description  *string           `json:"description,omitempty"`
	SemesterID   uuid.UUID         `json:"semester_id"              validate:"required"`
	TargetGrade  *int              `json:"target_grade,omitempty"   validate:"omitempty,min=1,max=6"`
	TargetDeptID *uuid.UUID        `json:"target_dept_id,omitempty"`
	StartAt      time.Time         `json:"start_at"                 validate:"required"`
	EndAt        time.Time         `json:"end_at"                   validate:"required,gtfield=StartAt"`
	Questions    []QuestionRequest `json:"questions"                validate:"required,min=1,dive"`
}

// UpdateDiagnosisRequest is a partial patch; nil fields are untouched.
// Questions non-nil means replace-all.
type UpdateDiagnosisRequest struct {
	Title       *string           `json:"title,omitempty"       validate:"omitempty,max=200"`
	Description *string           `json:"description,omitempty"`
	Status      *string           `json:"status,omitempty"      validate:"omitempty,oneof=DRAFT OPEN CLOSED"`
	EndAt       *time.Time        `json:"end_at,omitempty"`
	Questions   []QuestionRequest `json:"questions,omitempty"   validate:"omitempty,dive"`
}

type ListDiagnosisFilter struct {
	SemesterID *uuid.UUID
	Status     *string `validate:"omitempty,oneof=DRAFT OPEN CLOSED"`
	Page       int
	PerPage    int
}

// =======================
// Helpers
// =======================

func (p *CreateDiagnosisRequest) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	for i := range p.Questions {
		p.Questions[i].Normalize()
	}
}

func (q *QuestionRequest) Normalize() {
	q.Domain = strings.ToUpper(strings.TrimSpace(q.Domain))
	q.Type = strings.ToUpper(strings.TrimSpace(q.Type))
	q.Content = strings.TrimSpace(q.Content)
	if q.AnswerKey != nil {
		k := strings.TrimSpace(*q.AnswerKey)
		q.AnswerKey = &k
	}
}

func (q QuestionRequest) Weights() model.Weights {
	return model.Weights{q.C1MaxScore, q.C2MaxScore, q.C3MaxScore, q.C4MaxScore, q.C5MaxScore, q.C6MaxScore}
}

// CheckRules covers what struct tags cannot express. Returns field → tags.
func (q QuestionRequest) CheckRules(prefix string) map[string][]string {
	errs := map[string][]string{}
	switch model.QuestionType(q.Type) {
	case model.QuestionTypeShort:
		if q.AnswerKey == nil || *q.AnswerKey == "" {
			errs[prefix+"answer_key"] = append(errs[prefix+"answer_key"], "required_for_short")
		}
	case model.QuestionTypeScale:
		lo, hi := model.DefaultScaleMin, model.DefaultScaleMax
		if q.ScaleMin != nil {
			lo = *q.ScaleMin
		}
		if q.ScaleMax != nil {
			hi = *q.ScaleMax
		}
		if hi <= lo {
			errs[prefix+"scale_max"] = append(errs[prefix+"scale_max"], "gt_scale_min")
		}
	}
	return errs
}

func (q QuestionRequest) ToModel(runID uuid.UUID) model.DiagnosisQuestionModel {
	m := model.NewQuestion(
		model.QuestionDomain(q.Domain),
		model.QuestionType(q.Type),
		q.Content,
		q.SortOrder,
		q.Weights(),
	)
	m.DiagnosisQuestionRunID = runID
	if m.DiagnosisQuestionType == model.QuestionTypeShort {
		m.DiagnosisQuestionAnswerKey = q.AnswerKey
	}
	if q.ScaleMin != nil {
		m.DiagnosisQuestionScaleMin = *q.ScaleMin
	}
	if q.ScaleMax != nil {
		m.DiagnosisQuestionScaleMax = *q.ScaleMax
	}
	return m
}

func QuestionsToModels(runID uuid.UUID, list []QuestionRequest) []model.DiagnosisQuestionModel {
	out := make([]model.DiagnosisQuestionModel, 0, len(list))
	for i, q := range list {
		m := q.ToModel(runID)
		if m.DiagnosisQuestionSortOrder == 0 {
			m.DiagnosisQuestionSortOrder = i + 1
		}
		out = append(out, m)
	}
	return out
}

func (p CreateDiagnosisRequest) ToModel() model.DiagnosisRunModel {
	return model.DiagnosisRunModel{
		DiagnosisRunSemesterID:   p.SemesterID,
		DiagnosisRunTitle:        p.Title,
		DiagnosisRunDescription:  p.Description,
		DiagnosisRunTargetGrade:  p.TargetGrade,
		DiagnosisRunTargetDeptID: p.TargetDeptID,
		DiagnosisRunStartAt:      p.StartAt,
		DiagnosisRunEndAt:        p.EndAt,
		DiagnosisRunStatus:       model.RunStatusDraft,
	}
}

// =======================
// Response DTO
// =======================

type QuestionResponse struct {
	ID        uuid.UUID `json:"id"`
	Domain    string    `json:"domain"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	SortOrder int       `json:"sort_order"`
	AnswerKey *string   `json:"answer_key,omitempty"`
	ScaleMin  int       `json:"scale_min"`
	ScaleMax  int       `json:"scale_max"`
	MaxScores [6]int    `json:"max_scores"`
}

type DiagnosisResponse struct {
	ID           uuid.UUID  `json:"id"`
	SemesterID   uuid.UUID  `json:"semester_id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	TargetGrade  *int       `json:"target_grade,omitempty"`
	TargetDeptID *uuid.UUID `json:"target_dept_id,omitempty"`
	StartAt      time.Time  `json:"start_at"`
	EndAt        time.Time  `json:"end_at"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	TargetCount     *int64 `json:"target_count,omitempty"`
	SubmissionCount *int64 `json:"submission_count,omitempty"`

	Questions []QuestionResponse `json:"questions,omitempty"`
}

func FromQuestionModel(q model.DiagnosisQuestionModel, withKey bool) QuestionResponse {
	out := QuestionResponse{
		ID:        q.DiagnosisQuestionID,
		Domain:    string(q.DiagnosisQuestionDomain),
		Type:      string(q.DiagnosisQuestionType),
		Content:   q.DiagnosisQuestionContent,
		SortOrder: q.DiagnosisQuestionSortOrder,
		ScaleMin:  q.DiagnosisQuestionScaleMin,
		ScaleMax:  q.DiagnosisQuestionScaleMax,
		MaxScores: q.Weights(),
	}
	if withKey {
		out.AnswerKey = q.DiagnosisQuestionAnswerKey
	}
	return out
}

func FromModel(m model.DiagnosisRunModel) DiagnosisResponse {
	return DiagnosisResponse{
		ID:           m.DiagnosisRunID,
		SemesterID:   m.DiagnosisRunSemesterID,
		Title:        m.DiagnosisRunTitle,
		Description:  m.DiagnosisRunDescription,
		TargetGrade:  m.DiagnosisRunTargetGrade,
		TargetDeptID: m.DiagnosisRunTargetDeptID,
		StartAt:      m.DiagnosisRunStartAt,
		EndAt:        m.DiagnosisRunEndAt,
		Status:       string(m.DiagnosisRunStatus),
		CreatedAt:    m.DiagnosisRunCreatedAt,
		UpdatedAt:    m.DiagnosisRunUpdatedAt,
	}
}

// FromDetail includes questions; answer keys only for admins.
func FromDetail(m model.DiagnosisRunModel, questions []model.DiagnosisQuestionModel, withKeys bool) DiagnosisResponse {
	out := FromModel(m)
	out.Questions = make([]QuestionResponse, 0, len(questions))
	for _, q := range questions {
		out.Questions = append(out.Questions, FromQuestionModel(q, withKeys))
	}
	return out
}

type TargetResponse struct {
	RunID        uuid.UUID  `json:"run_id"`
	StudentID    uuid.UUID  `json:"student_id"`
	Status       string     `json:"status"`
	RegisteredAt time.Time  `json:"registered_at"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

func FromTargetModel(t model.DiagnosisTargetModel) TargetResponse {
	return TargetResponse{
		RunID:        t.DiagnosisTargetRunID,
		StudentID:    t.DiagnosisTargetStudentID,
		Status:       string(t.DiagnosisTargetStatus),
		RegisteredAt: t.DiagnosisTargetRegisteredAt,
		SubmittedAt:  t.DiagnosisTargetSubmittedAt,
	}
}
