package models

import "time"

// Event types recorded in the server event log.
const (
	EventTypeUp          = "up"
	EventTypeDown        = "down"
	EventTypeBackup      = "backup"
	EventTypeBackupAdded = "backup_added"
)

// ServerEvent is one row of the append-only server lifecycle log.
type ServerEvent struct {
	ID                            int64     `json:"id"`
	ServerID                      string    `json:"server_id"`
	Type                          string    `json:"type"`
	Source                        string    `json:"source"`
	Message                       *string   `json:"message,omitempty"`
	BackupDatabase                *string   `json:"backup_database,omitempty"`
	BackupEventType               *string   `json:"backup_event_type,omitempty"`
	BackupFileSize                *int64    `json:"backup_file_size,omitempty"`
	BackupFileSizeAlertSuppressed *bool     `json:"backup_file_size_alert_suppressed,omitempty"`
	CreatedAt                     time.Time `json:"created_at"`
}

// BackupEvent is the projection of ServerEvent read by the backup check.
type BackupEvent struct {
	ID                            int64     `json:"id"`
	ServerID                      string    `json:"server_id"`
	Type                          string    `json:"type"`
	CreatedAt                     time.Time `json:"created_at"`
	BackupDatabase                *string   `json:"backup_database"`
	BackupEventType               *string   `json:"backup_event_type"`
	BackupFileSize                *int64    `json:"backup_file_size"`
	BackupFileSizeAlertSuppressed *bool     `json:"backup_file_size_alert_suppressed"`
}

// Suppressed reports whether small-file alerts are silenced for this event.
func (e BackupEvent) Suppressed() bool {
	return e.BackupFileSizeAlertSuppressed != nil && *e.BackupFileSizeAlertSuppressed
}
