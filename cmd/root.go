package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"competency_backend/internals/configs"
	database "competency_backend/internals/databases"
)

var rootCmd = &cobra.Command{
	Use:   "competency",
	Short: "Competency diagnosis backend",
	Long:  "Competency diagnosis backend: diagnosis runs, submissions, semester summaries and cohort statistics.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if f, _ := cmd.Flags().GetString("env-file"); f != "" {
			configs.LoadEnv(f)
			return
		}
		configs.LoadEnv()
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "Path to .env file (default: ./.env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(recalcCmd)
}

// openDB connects with the configured driver and tunes the pool.
func openDB() (*gorm.DB, error) {
	if err := database.ConnectDB(); err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	database.TunePool(database.DB)
	if err := database.Ping(database.DB); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return database.DB, nil
}

func closeDB(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		log.Printf("close db: %v", err)
	}
}
