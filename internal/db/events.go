package db

import (
	"context"
	"fmt"

	"status-dashboard/internal/models"
)

// ListBackupEvents returns qualifying backup events newest first. Rows sharing
// a created_at are ordered by id descending.
func (d *DB) ListBackupEvents(ctx context.Context) ([]models.BackupEvent, error) {
	query := `
	SELECT id, server_id::text, type, created_at, backup_database, backup_event_type,
		backup_file_size, backup_file_size_alert_suppressed
	FROM server_events
	WHERE type IN ('backup', 'backup_added')
		AND backup_database ILIKE '%.fmp12'
	ORDER BY created_at DESC, id DESC`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup events: %w", err)
	}
	defer rows.Close()

	list := []models.BackupEvent{}
	for rows.Next() {
		var e models.BackupEvent
		if err := rows.Scan(
			&e.ID,
			&e.ServerID,
			&e.Type,
			&e.CreatedAt,
			&e.BackupDatabase,
			&e.BackupEventType,
			&e.BackupFileSize,
			&e.BackupFileSizeAlertSuppressed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan backup event: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read backup events: %w", err)
	}
	return list, nil
}

// CreateServerEvent appends an event to the server event log. A zero CreatedAt
// is stamped by the database.
func (d *DB) CreateServerEvent(ctx context.Context, e models.ServerEvent) (models.ServerEvent, error) {
	var createdAt interface{}
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt
	}

	query := `
	INSERT INTO server_events (
		server_id, type, source, message, backup_database, backup_event_type,
		backup_file_size, backup_file_size_alert_suppressed, created_at
	) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, COALESCE($8, false), COALESCE($9, NOW()))
	RETURNING id, created_at`

	err := d.Pool.QueryRow(ctx, query,
		e.ServerID,
		e.Type,
		e.Source,
		e.Message,
		e.BackupDatabase,
		e.BackupEventType,
		e.BackupFileSize,
		e.BackupFileSizeAlertSuppressed,
		createdAt,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return models.ServerEvent{}, fmt.Errorf("failed to insert server event: %w", err)
	}
	return e, nil
}
