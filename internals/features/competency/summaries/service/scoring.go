// file: internals/features/competency/summaries/service/scoring.go
package service

import (
	"github.com/google/uuid"

	runModel "competency_backend/internals/features/diagnosis/runs/model"
)

// Scores holds the raw (unrounded) diagnosis subtotals per competency slot.
type Scores struct {
	Skill    [6]float64
	Aptitude [6]float64
}

// Answer is the scoring-relevant projection of a stored answer.
type Answer struct {
	QuestionID uuid.UUID
	ScaleValue *int
	IsCorrect  *bool
}

// Contribution of one answer to each competency.
//
//	SCALE: cMaxScore * value / scaleMax (0 when scaleMax <= 0 or no value)
//	SHORT: cMaxScore when correct, else 0
func Contribution(q runModel.DiagnosisQuestionModel, a Answer) [6]float64 {
	var out [6]float64
	w := q.Weights()
	switch q.DiagnosisQuestionType {
	case runModel.QuestionTypeScale:
		if a.ScaleValue == nil || q.DiagnosisQuestionScaleMax <= 0 {
			return out
		}
		ratio := float64(*a.ScaleValue) / float64(q.DiagnosisQuestionScaleMax)
		for i := range w {
			out[i] = float64(w[i]) * ratio
		}
	case runModel.QuestionTypeShort:
		if a.IsCorrect == nil || !*a.IsCorrect {
			return out
		}
		for i := range w {
			out[i] = float64(w[i])
		}
	}
	return out
}

// Add folds one answer into the running subtotals. Answers to questions not
// in the map are ignored.
func (s *Scores) Add(questions map[uuid.UUID]runModel.DiagnosisQuestionModel, a Answer) {
	q, ok := questions[a.QuestionID]
	if !ok {
		return
	}
	c := Contribution(q, a)
	target := &s.Skill
	if q.DiagnosisQuestionDomain == runModel.QuestionDomainAptitude {
		target = &s.Aptitude
	}
	for i := range c {
		target[i] += c[i]
	}
}

func ScoreAnswers(questions map[uuid.UUID]runModel.DiagnosisQuestionModel, answers []Answer) Scores {
	var s Scores
	for _, a := range answers {
		s.Add(questions, a)
	}
	return s
}
