// file: internals/features/competency/competencies/service/catalog_service.go
package service

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"competency_backend/internals/features/competency/competencies/model"
)

// Catalog is the loaded, ordered set of competencies (C1..C6).
type Catalog []model.CompetencyModel

type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// List returns every competency ordered by sort order then code.
func (s *CatalogService) List(ctx context.Context, tx *gorm.DB) ([]model.CompetencyModel, error) {
	if tx == nil {
		tx = s.DB
	}
	var rows []model.CompetencyModel
	if err := tx.WithContext(ctx).
		Order("competency_sort_order ASC, competency_code ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list competencies: %w", err)
	}
	return rows, nil
}

// RequireAll loads the catalog and fails unless all six codes are present.
// The scoring engine treats a partial catalog as fatal.
func (s *CatalogService) RequireAll(ctx context.Context, tx *gorm.DB) (Catalog, error) {
	rows, err := s.List(ctx, tx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]model.CompetencyModel, len(rows))
	for _, r := range rows {
		byCode[r.CompetencyCode] = r
	}
	out := make(Catalog, 0, len(model.Codes))
	for _, code := range model.Codes {
		m, ok := byCode[code]
		if !ok {
			return nil, fmt.Errorf("competency catalog incomplete: %s missing", code)
		}
		out = append(out, m)
	}
	return out, nil
}

// Seed inserts missing competencies by code; existing rows are left as-is.
func (s *CatalogService) Seed(ctx context.Context) error {
	rows := model.DefaultCatalog()
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "competency_code"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return fmt.Errorf("seed competencies: %w", res.Error)
	}
	log.Printf("[CatalogService] seeded competencies, inserted=%d", res.RowsAffected)
	return nil
}
