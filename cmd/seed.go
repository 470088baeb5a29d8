package cmd

import (
	"github.com/spf13/cobra"

	"competency_backend/internals/seeds"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the competency catalog (and optionally a demo roster)",
	RunE: func(cmd *cobra.Command, args []string) error {
		roster, _ := cmd.Flags().GetString("roster")

		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		return seeds.RunAllSeeds(cmd.Context(), db, roster)
	},
}

func init() {
	seedCmd.Flags().String("roster", "", "JSON file with semesters, departments and students (e.g. internals/seeds/academics/data_roster.json)")
}
