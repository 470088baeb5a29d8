package cmd

import (
	"log"

	"github.com/spf13/cobra"

	database "competency_backend/internals/databases"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		log.Println("✅ Migration selesai")
		return nil
	},
}
