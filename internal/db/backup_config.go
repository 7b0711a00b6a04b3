package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"status-dashboard/internal/models"
)

var (
	ErrConfigNotFound  = errors.New("backup monitoring config not found")
	ErrMultipleConfigs = errors.New("multiple backup monitoring config rows")
)

// GetBackupMonitoringConfig returns the one backup monitoring configuration row.
// It fails with ErrConfigNotFound or ErrMultipleConfigs unless exactly one row exists.
func (d *DB) GetBackupMonitoringConfig(ctx context.Context) (models.BackupMonitoringConfig, error) {
	query := `
	SELECT id::text, is_enabled, threshold_hours, COALESCE(email_recipients, '{}'),
		alert_on_never_backed_up, last_check_at, updated_at
	FROM backup_monitoring_config
	LIMIT 2`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return models.BackupMonitoringConfig{}, fmt.Errorf("failed to get backup monitoring config: %w", err)
	}
	defer rows.Close()

	var list []models.BackupMonitoringConfig
	for rows.Next() {
		var c models.BackupMonitoringConfig
		if err := rows.Scan(
			&c.ID,
			&c.IsEnabled,
			&c.ThresholdHours,
			&c.EmailRecipients,
			&c.AlertOnNeverBackedUp,
			&c.LastCheckAt,
			&c.UpdatedAt,
		); err != nil {
			return models.BackupMonitoringConfig{}, fmt.Errorf("failed to scan backup monitoring config: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return models.BackupMonitoringConfig{}, fmt.Errorf("failed to read backup monitoring config: %w", err)
	}

	switch len(list) {
	case 0:
		return models.BackupMonitoringConfig{}, ErrConfigNotFound
	case 1:
		return list[0], nil
	default:
		return models.BackupMonitoringConfig{}, ErrMultipleConfigs
	}
}

func (d *DB) UpdateBackupConfigLastCheckAt(ctx context.Context, id string, at time.Time) error {
	tag, err := d.Pool.Exec(ctx,
		`UPDATE backup_monitoring_config SET last_check_at = $2, updated_at = NOW() WHERE id = $1::uuid`,
		id, at)
	if err != nil {
		return fmt.Errorf("failed to update last check time: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigNotFound
	}
	return nil
}
