package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	svc "competency_backend/internals/features/competency/summaries/service"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Rebuild semester summaries and cohort statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("semester")
		semID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid --semester %q: %w", raw, err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)

		res, err := svc.NewSummaryService(db).RecalculateAllSummaries(cmd.Context(), semID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "semester=%s students=%d summary_rows=%d cohort_stats=%d\n",
			res.SemesterID, res.Students, res.SummaryRows, res.CohortStats)
		return nil
	},
}

func init() {
	recalcCmd.Flags().String("semester", "", "Semester UUID to rebuild")
	_ = recalcCmd.MarkFlagRequired("semester")
}
