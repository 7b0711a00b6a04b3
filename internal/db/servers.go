package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"status-dashboard/internal/models"
)

const serverColumns = `
	s.id::text, s.name, s.ip_address, s.host_id::text, h.name,
	s.backup_monitoring_excluded, s.backup_monitoring_disabled_reason, s.backup_monitoring_review_date`

// ListMonitoredServers returns every server that is not excluded from backup monitoring.
func (d *DB) ListMonitoredServers(ctx context.Context) ([]models.MonitoredServer, error) {
	query := `SELECT` + serverColumns + `
	FROM servers s
	LEFT JOIN hosts h ON h.id = s.host_id
	WHERE s.backup_monitoring_excluded = false
	ORDER BY s.name, s.id`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitored servers: %w", err)
	}
	return scanServers(rows)
}

// ListServersDueForReview returns excluded servers whose review date is on or before cutoff.
func (d *DB) ListServersDueForReview(ctx context.Context, cutoff time.Time) ([]models.MonitoredServer, error) {
	query := `SELECT` + serverColumns + `
	FROM servers s
	LEFT JOIN hosts h ON h.id = s.host_id
	WHERE s.backup_monitoring_excluded = true
		AND s.backup_monitoring_review_date IS NOT NULL
		AND s.backup_monitoring_review_date <= $1::date
	ORDER BY s.backup_monitoring_review_date, s.name`

	rows, err := d.Pool.Query(ctx, query, cutoff.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to list servers due for review: %w", err)
	}
	return scanServers(rows)
}

func scanServers(rows pgx.Rows) ([]models.MonitoredServer, error) {
	defer rows.Close()

	list := []models.MonitoredServer{}
	for rows.Next() {
		var s models.MonitoredServer
		if err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.IPAddress,
			&s.HostID,
			&s.HostName,
			&s.BackupMonitoringExcluded,
			&s.BackupMonitoringDisabledReason,
			&s.BackupMonitoringReviewDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read servers: %w", err)
	}
	return list, nil
}
