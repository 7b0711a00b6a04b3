package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"status-dashboard/internal/backup"
	"status-dashboard/internal/logging"
	"status-dashboard/internal/models"
)

// Checker runs one backup check.
type Checker interface {
	PerformBackupCheck(ctx context.Context) (models.CheckOutcome, error)
}

// Scheduler triggers the backup check on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	checker Checker
	timeout time.Duration
	logger  *logging.Logger
}

func New(checker Checker, timeout time.Duration, logger *logging.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
		checker: checker,
		timeout: timeout,
		logger:  logger,
	}
}

// Start registers the check on schedule and starts the cron runner.
// An empty schedule disables scheduled checks.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		s.logger.Infof("BACKUP_CHECK_SCHEDULE not set, scheduled backup checks disabled")
		return nil
	}
	entryID, err := s.cron.AddFunc(schedule, s.RunOnce)
	if err != nil {
		return fmt.Errorf("failed to schedule backup check: %w", err)
	}
	s.cron.Start()
	s.logger.Infof("Backup check scheduled (%s), next run at %s", schedule, s.cron.Entry(entryID).Next.Format(time.RFC3339))
	return nil
}

// Stop waits for a running check to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warnf("Scheduled backup check still running at shutdown")
	}
}

// RunOnce runs a single check with its own timeout and logs the result.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	outcome, err := s.checker.PerformBackupCheck(ctx)
	switch {
	case errors.Is(err, backup.ErrCheckInProgress):
		s.logger.Warnf("Scheduled backup check skipped: another check is running")
	case err != nil:
		s.logger.Errorf("Scheduled backup check failed: %v", err)
	default:
		s.logger.Infof("Scheduled backup check %s: %d checked, %d overdue, %d small file, notification sent=%t",
			outcome.Status, outcome.ServersChecked, outcome.ServersOverdue, outcome.ServersSmallFile, outcome.NotificationSent)
	}
}
