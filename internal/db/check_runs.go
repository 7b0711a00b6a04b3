package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"status-dashboard/internal/models"
)

func (d *DB) CreateBackupCheckRun(ctx context.Context, run models.CheckRunRecord) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	overdue := run.OverdueServerIDs
	if overdue == nil {
		overdue = []string{}
	}
	recipients := run.NotificationRecipients
	if recipients == nil {
		recipients = []string{}
	}

	query := `
	INSERT INTO backup_check_runs (
		id, check_run_at, servers_checked, servers_overdue, overdue_server_ids,
		threshold_hours, notification_sent, notification_recipients, notification_error
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := d.Pool.Exec(ctx, query,
		run.ID,
		run.CheckRunAt,
		run.ServersChecked,
		run.ServersOverdue,
		overdue,
		run.ThresholdHours,
		run.NotificationSent,
		recipients,
		run.NotificationError,
	)
	if err != nil {
		return fmt.Errorf("failed to insert backup check run: %w", err)
	}
	return nil
}

// ListBackupCheckRuns returns the most recent audit rows, newest first.
func (d *DB) ListBackupCheckRuns(ctx context.Context, limit int) ([]models.CheckRunRecord, error) {
	query := `
	SELECT id, check_run_at, servers_checked, servers_overdue, overdue_server_ids,
		threshold_hours, notification_sent, notification_recipients, notification_error
	FROM backup_check_runs
	ORDER BY check_run_at DESC
	LIMIT $1`

	rows, err := d.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup check runs: %w", err)
	}
	defer rows.Close()

	list := []models.CheckRunRecord{}
	for rows.Next() {
		var r models.CheckRunRecord
		if err := rows.Scan(
			&r.ID,
			&r.CheckRunAt,
			&r.ServersChecked,
			&r.ServersOverdue,
			&r.OverdueServerIDs,
			&r.ThresholdHours,
			&r.NotificationSent,
			&r.NotificationRecipients,
			&r.NotificationError,
		); err != nil {
			return nil, fmt.Errorf("failed to scan backup check run: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read backup check runs: %w", err)
	}
	return list, nil
}
