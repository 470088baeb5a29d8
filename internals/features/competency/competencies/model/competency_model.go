// file: internals/features/competency/competencies/model/competency_model.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Codes of the six fixed competency dimensions, in display order.
var Codes = [6]string{"C1", "C2", "C3", "C4", "C5", "C6"}

type CompetencyModel struct {
	CompetencyID          uuid.UUID `gorm:"type:uuid;primaryKey;column:competency_id" json:"competency_id"`
	CompetencyCode        string    `gorm:"type:varchar(8);not null;uniqueIndex:uq_competencies_code;column:competency_code" json:"competency_code"`
	CompetencyName        string    `gorm:"type:text;not null;column:competency_name" json:"competency_name"`
	CompetencyDescription *string   `gorm:"type:text;column:competency_description" json:"competency_description,omitempty"`
	CompetencySortOrder   int       `gorm:"type:integer;not null;default:0;column:competency_sort_order" json:"competency_sort_order"`

	CompetencyCreatedAt time.Time `gorm:"autoCreateTime;column:competency_created_at" json:"competency_created_at"`
	CompetencyUpdatedAt time.Time `gorm:"autoUpdateTime;column:competency_updated_at" json:"competency_updated_at"`
}

func (CompetencyModel) TableName() string { return "competencies" }

func (m *CompetencyModel) BeforeCreate(tx *gorm.DB) error {
	if m.CompetencyID == uuid.Nil {
		m.CompetencyID = uuid.New()
	}
	return nil
}

func (m *CompetencyModel) BeforeSave(tx *gorm.DB) error {
	m.CompetencyCode = strings.ToUpper(strings.TrimSpace(m.CompetencyCode))
	m.CompetencyName = strings.TrimSpace(m.CompetencyName)
	return nil
}

// Index returns the 0-based weight slot of the competency (C1 → 0), or -1.
func (m CompetencyModel) Index() int {
	return CodeIndex(m.CompetencyCode)
}

func CodeIndex(code string) int {
	for i, c := range Codes {
		if c == code {
			return i
		}
	}
	return -1
}

// DefaultCatalog is the reference data seeded into an empty database.
func DefaultCatalog() []CompetencyModel {
	names := [6][2]string{
		{"Self-Management", "Plans, monitors and regulates own learning and conduct."},
		{"Knowledge & Information", "Finds, evaluates and applies knowledge and information."},
		{"Creative Thinking", "Generates and develops original ideas and solutions."},
		{"Communication", "Expresses ideas clearly and listens to others."},
		{"Community & Collaboration", "Works with others and contributes to the community."},
		{"Global Citizenship", "Understands diverse cultures and acts responsibly."},
	}
	out := make([]CompetencyModel, 0, len(Codes))
	for i, code := range Codes {
		desc := names[i][1]
		out = append(out, CompetencyModel{
			CompetencyCode:        code,
			CompetencyName:        names[i][0],
			CompetencyDescription: &desc,
			CompetencySortOrder:   i + 1,
		})
	}
	return out
}
