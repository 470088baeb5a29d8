package seeds

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	catalogService "competency_backend/internals/features/competency/competencies/service"
	"competency_backend/internals/seeds/academics"
)

// RunAllSeeds: katalog kompetensi selalu; roster demo hanya kalau rosterFile diisi.
func RunAllSeeds(ctx context.Context, db *gorm.DB, rosterFile string) error {
	//* Competency catalog (C1..C6)
	if err := catalogService.NewCatalogService(db).Seed(ctx); err != nil {
		return err
	}

	//* Roster (semesters, departments, students)
	if rosterFile != "" {
		if err := academics.SeedRosterFromJSON(ctx, db, rosterFile); err != nil {
			return fmt.Errorf("seed roster: %w", err)
		}
	}

	log.Println("✅ Seeding selesai")
	return nil
}
