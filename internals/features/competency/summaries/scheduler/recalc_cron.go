package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	semesterModel "competency_backend/internals/features/academics/semesters/model"
	svc "competency_backend/internals/features/competency/summaries/service"
	helper "competency_backend/internals/helpers"
)

const recalcTimeout = 10 * time.Minute

type Recalculator interface {
	RecalculateAllSummaries(ctx context.Context, semesterID uuid.UUID) (*svc.BatchResult, error)
}

// CurrentSemester returns the semester whose date range contains now.
// ok=false when the calendar has no such semester.
func CurrentSemester(ctx context.Context, db *gorm.DB, now time.Time) (sem semesterModel.SemesterModel, ok bool, err error) {
	err = db.WithContext(ctx).
		Where("semester_start_date <= ? AND semester_end_date >= ?", now.UTC(), now.UTC()).
		Order("semester_start_date DESC").
		First(&sem).Error
	if err != nil {
		if helper.IsNotFound(err) {
			return sem, false, nil
		}
		return sem, false, fmt.Errorf("find current semester: %w", err)
	}
	return sem, true, nil
}

// RunOnce rebuilds the current semester; nil result means nothing to do.
func RunOnce(ctx context.Context, db *gorm.DB, rec Recalculator, now time.Time) (*svc.BatchResult, error) {
	sem, ok, err := CurrentSemester(ctx, db, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Printf("[RECALC-CRON] no semester contains %s, skipped", now.Format(time.RFC3339))
		return nil, nil
	}
	return rec.RecalculateAllSummaries(ctx, sem.SemesterID)
}

// StartRecalcCron schedules RunOnce. Empty schedule disables it (nil, nil).
func StartRecalcCron(db *gorm.DB, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}
	rec := svc.NewSummaryService(db)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), recalcTimeout)
		defer cancel()
		res, err := RunOnce(ctx, db, rec, time.Now())
		if err != nil {
			log.Printf("[RECALC-CRON] error: %v", err)
			return
		}
		if res != nil {
			log.Printf("[RECALC-CRON] semester=%s students=%d rows=%d", res.SemesterID, res.Students, res.SummaryRows)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("add recalc cron %q: %w", schedule, err)
	}
	log.Printf("[RECALC-CRON] started schedule=%q", schedule)
	c.Start()
	return c, nil
}
